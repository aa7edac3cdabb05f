// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for the waitlist signup form.
//
// The waitlist endpoint is the only unauthenticated write surface of the
// product, so everything user-supplied passes through here before it reaches
// a spreadsheet cell or a SQL parameter. Validation is shared between the
// server handler and the CLI form so both sides agree on what a valid
// submission looks like, and the CLI can reject bad input without a network
// call.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages surfaced to visitors on validation failure. The wording is part
// of the public form contract; tests assert on it.
const (
	MsgEmailRequired = "Email is required"
	MsgEmailInvalid  = "Please enter a valid email address"
	MsgNameTooLong   = "Name must be 100 characters or fewer"
)

// MaxNameLength bounds the optional free-text name field.
const MaxNameLength = 100

// validate is the shared validator instance. go-playground/validator is
// safe for concurrent use and caches struct metadata internally.
var validate = validator.New()

// ValidateEmail checks that email is present and RFC-shaped.
//
// Returns "" when valid, or a visitor-facing message describing the
// problem. Callers wanting an error can wrap the message themselves; the
// string form keeps the field-error plumbing simple.
func ValidateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return MsgEmailRequired
	}
	if err := validate.Var(email, "email"); err != nil {
		return MsgEmailInvalid
	}
	return ""
}

// ValidateName checks the optional name field. An empty name is valid.
func ValidateName(name string) string {
	if len(name) > MaxNameLength {
		return MsgNameTooLong
	}
	return ""
}

// SanitizeFreeText normalizes free-text input: trims surrounding
// whitespace and strips angle brackets so pasted markup never lands in a
// spreadsheet cell or a confirmation message.
func SanitizeFreeText(input string) string {
	trimmed := strings.TrimSpace(input)
	replacer := strings.NewReplacer("<", "", ">", "")
	return replacer.Replace(trimmed)
}

// NormalizeEmail trims whitespace around an email address. Case is
// preserved; the relational backend enforces uniqueness case-insensitively
// at the index level instead.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
