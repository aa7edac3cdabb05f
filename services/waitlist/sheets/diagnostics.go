// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DiagnosticsReport is the JSON payload of the sheets debug endpoints. Each
// step records what was attempted and whether it worked, so an operator can
// see exactly where the pipeline breaks without reading logs.
type DiagnosticsReport struct {
	Success bool             `json:"success"`
	Steps   []DiagnosticStep `json:"steps"`
}

// DiagnosticStep is one stage of the pipeline probe.
type DiagnosticStep struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Diagnostics probes the Sheets pipeline stage by stage. It shares the
// service's TokenSource so a probe exercises the same cache the handlers
// use.
type Diagnostics struct {
	cred          *Credential
	signer        *Signer
	tokens        *TokenSource
	appender      *AppendClient
	spreadsheetID string
	sheetRange    string
}

// NewDiagnostics wires the probe against the live pipeline components.
// cred may be nil; the credential step then reports the missing
// configuration instead of panicking.
func NewDiagnostics(cred *Credential, signer *Signer, tokens *TokenSource,
	appender *AppendClient, spreadsheetID, sheetRange string) *Diagnostics {
	return &Diagnostics{
		cred:          cred,
		signer:        signer,
		tokens:        tokens,
		appender:      appender,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
	}
}

// TestConnection checks credentials, assertion signing, and the token
// exchange, stopping at the first failure. It never touches the
// spreadsheet itself.
func (d *Diagnostics) TestConnection(ctx context.Context) DiagnosticsReport {
	var report DiagnosticsReport

	if d.cred == nil {
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "credentials",
			Detail: ErrNotConfigured.Error(),
		})
		return report
	}
	report.Steps = append(report.Steps, DiagnosticStep{
		Name:   "credentials",
		OK:     true,
		Detail: "service account " + d.cred.IssuerEmail(),
	})

	if _, err := d.signer.Sign(SpreadsheetScope, TokenEndpoint); err != nil {
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "sign_assertion",
			Detail: signingDetail(err),
		})
		return report
	}
	report.Steps = append(report.Steps, DiagnosticStep{Name: "sign_assertion", OK: true})

	token, err := d.tokens.Token(ctx)
	if err != nil {
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "token_exchange",
			Detail: exchangeDetail(err),
		})
		return report
	}
	report.Steps = append(report.Steps, DiagnosticStep{
		Name:   "token_exchange",
		OK:     true,
		Detail: "token valid until " + token.ExpiresAt.UTC().Format(time.RFC3339),
	})

	report.Success = true
	return report
}

// DebugAppend runs the connection checks and then actually writes a probe
// row to the configured range. Only mount the route that calls this in
// environments where a junk row in the sheet is acceptable.
func (d *Diagnostics) DebugAppend(ctx context.Context) DiagnosticsReport {
	report := d.TestConnection(ctx)
	if !report.Success {
		return report
	}
	report.Success = false

	token, err := d.tokens.Token(ctx)
	if err != nil {
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "token_exchange",
			Detail: exchangeDetail(err),
		})
		return report
	}

	meta, err := d.appender.Metadata(ctx, token, d.spreadsheetID)
	switch {
	case err != nil:
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "spreadsheet_metadata",
			Detail: err.Error(),
		})
		return report
	case !meta.OK():
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "spreadsheet_metadata",
			Detail: truncateBody(meta),
		})
		return report
	}
	report.Steps = append(report.Steps, DiagnosticStep{Name: "spreadsheet_metadata", OK: true})

	row := []any{
		time.Now().UTC().Format(time.RFC3339),
		"debug@nextgen-cto.test",
		"Debug Probe",
		"Diagnostics",
	}
	result, err := d.appender.AppendRow(ctx, token, d.spreadsheetID, d.sheetRange, row)
	switch {
	case err != nil:
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "append_row",
			Detail: err.Error(),
		})
		return report
	case !result.OK():
		report.Steps = append(report.Steps, DiagnosticStep{
			Name:   "append_row",
			Detail: truncateBody(result),
		})
		return report
	}
	report.Steps = append(report.Steps, DiagnosticStep{Name: "append_row", OK: true})

	report.Success = true
	return report
}

// signingDetail hides key specifics but preserves the error class.
func signingDetail(err error) string {
	if errors.Is(err, ErrNotConfigured) {
		return ErrNotConfigured.Error()
	}
	return ErrSigning.Error()
}

// exchangeDetail reports the exchange status without echoing the assertion.
func exchangeDetail(err error) string {
	var te *TokenExchangeError
	if errors.As(err, &te) {
		return te.Error()
	}
	return err.Error()
}

const maxDetailBody = 512

func truncateBody(r AppendResult) string {
	body := r.Body
	if len(body) > maxDetailBody {
		body = body[:maxDetailBody] + "..."
	}
	return fmt.Sprintf("status %d: %s", r.StatusCode, body)
}
