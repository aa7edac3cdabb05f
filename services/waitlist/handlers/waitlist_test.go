// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// Tests for the waitlist submission handler

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubRepo is a controllable Repository for handler tests.
type stubRepo struct {
	err      error
	failOpen bool
	calls    atomic.Int64
	mu       sync.Mutex
	stored   []datatypes.Submission
}

func (s *stubRepo) Add(_ context.Context, sub datatypes.Submission) error {
	s.calls.Add(1)
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.stored = append(s.stored, sub)
	s.mu.Unlock()
	return nil
}

func (s *stubRepo) FailOpen() bool { return s.failOpen }

func (s *stubRepo) Backend() string { return "stub" }

func postWaitlist(repo repository.Repository, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/waitlist", JoinWaitlist(repo, nil))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestJoinWaitlist_Success(t *testing.T) {
	repo := &stubRepo{}
	w := postWaitlist(repo, `{"email":"a@b.com","name":"Ada"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"message":"Thanks for joining, Ada! We'll notify you when courses are available."}`,
		w.Body.String())

	require.Len(t, repo.stored, 1)
	assert.Equal(t, "a@b.com", repo.stored[0].Email)
	assert.Equal(t, "Ada", repo.stored[0].Name)
	assert.False(t, repo.stored[0].ReceivedAt.IsZero())
}

func TestJoinWaitlist_SuccessWithoutName(t *testing.T) {
	repo := &stubRepo{}
	w := postWaitlist(repo, `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thanks for joining! We'll notify you")
}

func TestJoinWaitlist_NormalizesBeforeStoring(t *testing.T) {
	repo := &stubRepo{}
	w := postWaitlist(repo, `{"email":"  a@b.com ","name":" <i>Ada</i> "}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, "a@b.com", repo.stored[0].Email)
	assert.NotContains(t, repo.stored[0].Name, "<")
}

func TestJoinWaitlist_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"missing email", `{"name":"Ada"}`, "Email is required"},
		{"empty email", `{"email":""}`, "Email is required"},
		{"malformed email", `{"email":"not-an-email"}`, "Please enter a valid email address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{}
			w := postWaitlist(repo, tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), datatypes.MsgInvalidForm)
			assert.Contains(t, w.Body.String(), tc.message)
			assert.EqualValues(t, 0, repo.calls.Load(), "invalid submissions must not reach storage")
		})
	}
}

func TestJoinWaitlist_WrongTypedFieldIsSchemaFailure(t *testing.T) {
	repo := &stubRepo{}
	w := postWaitlist(repo, `{"email":5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), datatypes.MsgInvalidForm)
	assert.Contains(t, w.Body.String(), `"path":["email"]`)
	assert.Contains(t, w.Body.String(), "Expected string, received number")
	assert.EqualValues(t, 0, repo.calls.Load())
}

func TestJoinWaitlist_NonObjectBodyIsSchemaFailure(t *testing.T) {
	repo := &stubRepo{}
	w := postWaitlist(repo, `[1,2]`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), datatypes.MsgInvalidForm)
	assert.EqualValues(t, 0, repo.calls.Load())
}

func TestJoinWaitlist_UnreadableBody(t *testing.T) {
	repo := &stubRepo{}
	w := postWaitlist(repo, `{not json`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), datatypes.MsgServerError)
	assert.EqualValues(t, 0, repo.calls.Load())
}

func TestJoinWaitlist_DuplicateEmail(t *testing.T) {
	repo := &stubRepo{err: repository.ErrDuplicateEmail}
	w := postWaitlist(repo, `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t,
		`{"success":false,"message":"This email is already on our waitlist!"}`,
		w.Body.String())
}

func TestJoinWaitlist_FailOpenConfirmsAnyway(t *testing.T) {
	repo := &stubRepo{err: errors.New("sheets down"), failOpen: true}
	w := postWaitlist(repo, `{"email":"a@b.com","name":"Ada"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thanks for joining, Ada!")
	assert.EqualValues(t, 1, repo.calls.Load())
}

func TestJoinWaitlist_FailClosedReportsError(t *testing.T) {
	repo := &stubRepo{err: errors.New("db down"), failOpen: false}
	w := postWaitlist(repo, `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), datatypes.MsgServerError)
}

func TestJoinWaitlist_ConcurrentSubmissions(t *testing.T) {
	repo := &stubRepo{}
	r := gin.New()
	r.POST("/api/waitlist", JoinWaitlist(repo, nil))

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			body := fmt.Sprintf(`{"email":"user%d@b.com"}`, i)
			req := httptest.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, n, repo.calls.Load())
	assert.Len(t, repo.stored, n)
}
