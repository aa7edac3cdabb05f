// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/sheets"
)

// ErrAppendRejected indicates the spreadsheet API refused the row. The
// wrapped message carries the status for logs; the visitor never sees it.
var ErrAppendRejected = errors.New("sheets append rejected")

// SheetsRepository appends each submission as a row in a Google
// spreadsheet. It is fail-open: the spreadsheet is a convenience mirror,
// not a system of record, so losing a row must never turn away a visitor.
// It cannot detect duplicate emails.
type SheetsRepository struct {
	tokens        *sheets.TokenSource
	appender      *sheets.AppendClient
	spreadsheetID string
	sheetRange    string
	sourceTag     string
}

// NewSheetsRepository composes the token source and append client into a
// Repository.
func NewSheetsRepository(tokens *sheets.TokenSource, appender *sheets.AppendClient,
	spreadsheetID, sheetRange, sourceTag string) *SheetsRepository {
	return &SheetsRepository{
		tokens:        tokens,
		appender:      appender,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
		sourceTag:     sourceTag,
	}
}

// Add signs an assertion (cached token permitting), exchanges it, and
// appends the row. A 401 from the append invalidates the cached token so
// the next submission re-authenticates.
func (r *SheetsRepository) Add(ctx context.Context, sub datatypes.Submission) error {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquiring sheets token: %w", err)
	}

	result, err := r.appender.AppendRow(ctx, token, r.spreadsheetID, r.sheetRange,
		sub.SheetRow(r.sourceTag))
	if err != nil {
		return fmt.Errorf("appending sheet row: %w", err)
	}
	if !result.OK() {
		if result.StatusCode == http.StatusUnauthorized {
			r.tokens.Invalidate()
		}
		return fmt.Errorf("%w: status %d", ErrAppendRejected, result.StatusCode)
	}
	return nil
}

func (r *SheetsRepository) FailOpen() bool { return true }

func (r *SheetsRepository) Backend() string { return BackendSheets }
