// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the HTTP handlers for the waitlist service.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/observability"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/repository"
)

// typeMismatchError renders a decode type mismatch as a field error. Field
// is empty when the top-level value has the wrong shape (e.g. an array
// body); the path is then empty too.
func typeMismatchError(typeErr *json.UnmarshalTypeError) datatypes.FieldError {
	path := []string{}
	expected := "object"
	if typeErr.Field != "" {
		path = append(path, typeErr.Field)
		expected = "string" // every form field is a string
	}
	return datatypes.FieldError{
		Path:    path,
		Message: fmt.Sprintf("Expected %s, received %s", expected, typeErr.Value),
	}
}

// JoinWaitlist handles POST /api/waitlist.
//
// # Description
//
// Decodes and validates the submission, then hands it to the repository.
// Outcomes:
//
//   - invalid body or fields: 400 with per-field errors
//   - stored: 200 with the personalized confirmation
//   - duplicate email: 409
//   - storage failure, fail-open backend: 200 anyway; the signup is
//     logged in full and counted so it can be recovered by hand
//   - storage failure, fail-closed backend: 500
//
// metrics may be nil (tests).
func JoinWaitlist(repo repository.Repository, metrics *observability.WaitlistMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SubmissionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			// A parseable body with a wrong-typed field is a schema
			// failure, same as a missing email. Only an unreadable body
			// gets the generic failure message.
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				metrics.RecordSubmission(repo.Backend(), observability.StatusInvalid)
				c.JSON(http.StatusBadRequest, datatypes.SubmissionResponse{
					Success: false,
					Message: datatypes.MsgInvalidForm,
					Errors:  []datatypes.FieldError{typeMismatchError(typeErr)},
				})
				return
			}
			slog.Error("waitlist: unreadable request body", "error", err.Error())
			metrics.RecordSubmission(repo.Backend(), observability.StatusError)
			c.JSON(http.StatusInternalServerError, datatypes.SubmissionResponse{
				Success: false,
				Message: datatypes.MsgServerError,
			})
			return
		}

		req.Normalize()
		if fieldErrs := req.Validate(); fieldErrs != nil {
			metrics.RecordSubmission(repo.Backend(), observability.StatusInvalid)
			c.JSON(http.StatusBadRequest, datatypes.SubmissionResponse{
				Success: false,
				Message: datatypes.MsgInvalidForm,
				Errors:  fieldErrs,
			})
			return
		}

		sub := req.Submission(time.Now())
		start := time.Now()
		err := repo.Add(c.Request.Context(), sub)
		if repo.Backend() == repository.BackendSheets {
			metrics.RecordAppendDuration(time.Since(start).Seconds())
		}

		switch {
		case err == nil:
			metrics.RecordSubmission(repo.Backend(), observability.StatusAccepted)
			slog.Info("waitlist: signup stored",
				"backend", repo.Backend(), "has_name", sub.Name != "")
			c.JSON(http.StatusOK, datatypes.SubmissionResponse{
				Success: true,
				Message: req.SuccessMessage(),
			})

		case errors.Is(err, repository.ErrDuplicateEmail):
			metrics.RecordSubmission(repo.Backend(), observability.StatusDuplicate)
			c.JSON(http.StatusConflict, datatypes.SubmissionResponse{
				Success: false,
				Message: datatypes.MsgDuplicateEmail,
			})

		case repo.FailOpen():
			// The visitor must not pay for our storage problem. Log the
			// full submission so the row can be restored manually.
			metrics.RecordSubmission(repo.Backend(), observability.StatusError)
			metrics.RecordDropped(repo.Backend())
			slog.Error("waitlist: signup dropped, storage failed",
				"backend", repo.Backend(),
				"error", err.Error(),
				"email", sub.Email,
				"name", sub.Name,
				"received_at", sub.ReceivedAt.UTC().Format(time.RFC3339))
			c.JSON(http.StatusOK, datatypes.SubmissionResponse{
				Success: true,
				Message: req.SuccessMessage(),
			})

		default:
			metrics.RecordSubmission(repo.Backend(), observability.StatusError)
			slog.Error("waitlist: storage failed",
				"backend", repo.Backend(), "error", err.Error())
			c.JSON(http.StatusInternalServerError, datatypes.SubmissionResponse{
				Success: false,
				Message: datatypes.MsgServerError,
			})
		}
	}
}
