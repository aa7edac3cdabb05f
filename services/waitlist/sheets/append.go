// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// AppendResult describes the spreadsheet API's response to an append
// attempt. Any HTTP response — success or rejection — produces a result;
// the caller decides what a non-2xx status means for its policy.
type AppendResult struct {
	StatusCode int
	Body       string
}

// OK reports whether the append was accepted.
func (r AppendResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// AppendClient talks to the Sheets values API. It does not retry and does
// not validate the spreadsheet schema; the remote API is authoritative.
type AppendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAppendClient creates an AppendClient. Empty baseURL defaults to the
// production Sheets API; nil httpClient gets a 10s-timeout client.
func NewAppendClient(baseURL string, httpClient *http.Client) *AppendClient {
	if baseURL == "" {
		baseURL = SheetsBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &AppendClient{baseURL: baseURL, httpClient: httpClient}
}

// AppendRow appends one row to the given range with valueInputOption=RAW.
//
// # Inputs
//
//   - token: bearer token from the exchange.
//   - spreadsheetID: target spreadsheet.
//   - sheetRange: A1-notation range, e.g. "Sheet1".
//   - row: ordered cell values.
//
// # Outputs
//
//   - AppendResult: status and raw body for any HTTP response received.
//   - error: only transport or encoding failures; a rejected append is a
//     result, not an error.
func (c *AppendClient) AppendRow(ctx context.Context, token AccessToken,
	spreadsheetID, sheetRange string, row []any) (AppendResult, error) {

	payload := struct {
		Values [][]any `json:"values"`
	}{Values: [][]any{row}}

	body, err := json.Marshal(payload)
	if err != nil {
		return AppendResult{}, fmt.Errorf("encoding append payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=RAW",
		c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(sheetRange))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return AppendResult{}, fmt.Errorf("building append request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AppendResult{}, fmt.Errorf("calling sheets append: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return AppendResult{}, fmt.Errorf("reading append response: %w", err)
	}

	return AppendResult{StatusCode: resp.StatusCode, Body: string(respBody)}, nil
}

// Metadata fetches spreadsheet metadata. Diagnostic use only.
func (c *AppendClient) Metadata(ctx context.Context, token AccessToken,
	spreadsheetID string) (AppendResult, error) {

	endpoint := fmt.Sprintf("%s/spreadsheets/%s", c.baseURL, url.PathEscape(spreadsheetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return AppendResult{}, fmt.Errorf("building metadata request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AppendResult{}, fmt.Errorf("calling sheets metadata: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return AppendResult{}, fmt.Errorf("reading metadata response: %w", err)
	}

	return AppendResult{StatusCode: resp.StatusCode, Body: string(respBody)}, nil
}
