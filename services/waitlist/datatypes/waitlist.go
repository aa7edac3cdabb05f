// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the request, response, and domain types for the
// waitlist service. These types are shared by the HTTP handlers, both
// repository backends, and the CLI client.
package datatypes

import (
	"fmt"
	"time"

	"github.com/arindamdawn/nextgen-cto/pkg/validation"
)

// SourceTag is the fixed fourth column written with every sheet row, marking
// where the signup came from.
const SourceTag = "NextGen-CTO Landing Page"

// =============================================================================
// Request / Response Types
// =============================================================================

// SubmissionRequest is the JSON body of POST /api/waitlist.
type SubmissionRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// FieldError describes a single validation failure. Path uses the field
// name as its only element, mirroring the shape the landing page form
// expects when rendering per-field messages.
type FieldError struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// SubmissionResponse is the JSON body returned by POST /api/waitlist for
// every outcome. Message is always safe to show to the visitor verbatim.
type SubmissionResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Visitor-facing messages. Wording is part of the API contract.
const (
	MsgInvalidForm    = "Invalid form data"
	MsgDuplicateEmail = "This email is already on our waitlist!"
	MsgServerError    = "Something went wrong. Please try again later."
)

// Normalize trims and sanitizes user input in place. Must be called before
// Validate so that a padded-but-valid email passes.
func (r *SubmissionRequest) Normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
	r.Name = validation.SanitizeFreeText(r.Name)
}

// Validate runs the form schema checks and returns one FieldError per
// failing field, or nil when the request is valid. It performs no I/O.
func (r SubmissionRequest) Validate() []FieldError {
	var errs []FieldError
	if msg := validation.ValidateEmail(r.Email); msg != "" {
		errs = append(errs, FieldError{Path: []string{"email"}, Message: msg})
	}
	if msg := validation.ValidateName(r.Name); msg != "" {
		errs = append(errs, FieldError{Path: []string{"name"}, Message: msg})
	}
	return errs
}

// SuccessMessage builds the confirmation shown after a signup is accepted,
// including the visitor's name when one was given.
func (r SubmissionRequest) SuccessMessage() string {
	if r.Name != "" {
		return fmt.Sprintf("Thanks for joining, %s! We'll notify you when courses are available.", r.Name)
	}
	return "Thanks for joining! We'll notify you when courses are available."
}

// =============================================================================
// Domain Types
// =============================================================================

// Submission is a validated signup. Immutable once constructed; it lives
// only for the duration of the request that carries it.
type Submission struct {
	Email      string
	Name       string
	ReceivedAt time.Time
}

// Submission converts a validated request into the immutable domain value.
// Callers must have run Normalize and Validate first.
func (r SubmissionRequest) Submission(now time.Time) Submission {
	return Submission{
		Email:      r.Email,
		Name:       r.Name,
		ReceivedAt: now,
	}
}

// SheetRow renders the submission as the ordered tuple appended to the
// spreadsheet: [timestamp RFC3339, email, name, source tag].
func (s Submission) SheetRow(sourceTag string) []any {
	return []any{
		s.ReceivedAt.UTC().Format(time.RFC3339),
		s.Email,
		s.Name,
		sourceTag,
	}
}
