// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package repository persists waitlist submissions. Two backends exist: the
// Google Sheets pipeline used by the hosted landing page, and a Postgres
// table for deployments that want a real database. The handler is agnostic;
// it only sees the Repository interface.
package repository

import (
	"context"
	"errors"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
)

// Backend names reported by the implementations, shared so log/metric
// labels and backend checks cannot drift from the implementations.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
)

// ErrDuplicateEmail indicates the submission's email is already recorded.
// Only backends that can enforce uniqueness return it.
var ErrDuplicateEmail = errors.New("email already on the waitlist")

// Repository stores validated submissions.
//
// FailOpen declares the backend's durability contract: when true, a failed
// Add must not fail the visitor's request — the handler confirms the signup
// anyway and the loss is logged and counted. When false, a failed Add is a
// server error. The policy lives on the backend so it cannot drift per
// call site.
type Repository interface {
	// Add persists one submission. Returns ErrDuplicateEmail when the
	// backend detects a repeat signup.
	Add(ctx context.Context, sub datatypes.Submission) error

	// FailOpen reports whether Add failures should be swallowed.
	FailOpen() bool

	// Backend names the implementation for logs and metrics.
	Backend() string
}
