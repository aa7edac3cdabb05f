// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// Tests for waitlist datatypes

package datatypes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRequest_Normalize(t *testing.T) {
	req := SubmissionRequest{Email: "  a@b.com ", Name: " <b>Ada</b> "}
	req.Normalize()
	assert.Equal(t, "a@b.com", req.Email)
	assert.Equal(t, "bAda/b", req.Name)
}

func TestSubmissionRequest_Validate(t *testing.T) {
	t.Run("valid with name", func(t *testing.T) {
		req := SubmissionRequest{Email: "a@b.com", Name: "Ada"}
		assert.Nil(t, req.Validate())
	})

	t.Run("valid without name", func(t *testing.T) {
		req := SubmissionRequest{Email: "a@b.com"}
		assert.Nil(t, req.Validate())
	})

	t.Run("missing email", func(t *testing.T) {
		req := SubmissionRequest{}
		errs := req.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, []string{"email"}, errs[0].Path)
		assert.Equal(t, "Email is required", errs[0].Message)
	})

	t.Run("malformed email", func(t *testing.T) {
		req := SubmissionRequest{Email: "not-an-email"}
		errs := req.Validate()
		require.Len(t, errs, 1)
		assert.Equal(t, []string{"email"}, errs[0].Path)
		assert.Equal(t, "Please enter a valid email address", errs[0].Message)
	})
}

func TestSubmissionRequest_SuccessMessage(t *testing.T) {
	withName := SubmissionRequest{Email: "a@b.com", Name: "Ada"}
	assert.Equal(t,
		"Thanks for joining, Ada! We'll notify you when courses are available.",
		withName.SuccessMessage())

	noName := SubmissionRequest{Email: "a@b.com"}
	assert.Equal(t,
		"Thanks for joining! We'll notify you when courses are available.",
		noName.SuccessMessage())
}

func TestSubmission_SheetRow(t *testing.T) {
	received := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	sub := SubmissionRequest{Email: "a@b.com", Name: "Ada"}.Submission(received)

	row := sub.SheetRow(SourceTag)
	require.Len(t, row, 4)
	assert.Equal(t, "2025-03-14T09:26:53Z", row[0])
	assert.Equal(t, "a@b.com", row[1])
	assert.Equal(t, "Ada", row[2])
	assert.Equal(t, "NextGen-CTO Landing Page", row[3])
}

func TestFieldError_JSONShape(t *testing.T) {
	resp := SubmissionResponse{
		Success: false,
		Message: MsgInvalidForm,
		Errors: []FieldError{
			{Path: []string{"email"}, Message: "Please enter a valid email address"},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"success":false,"message":"Invalid form data","errors":[{"path":["email"],"message":"Please enter a valid email address"}]}`,
		string(data))
}

func TestSubmissionResponse_OmitsEmptyErrors(t *testing.T) {
	resp := SubmissionResponse{Success: true, Message: "ok"}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "errors")
}
