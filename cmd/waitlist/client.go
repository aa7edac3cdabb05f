// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
)

// APIClient talks to the waitlist service's HTTP API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient builds a client for the given base URL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Join submits a signup. Any HTTP response, success or rejection, decodes
// into the returned SubmissionResponse; only a transport failure is an
// error.
func (c *APIClient) Join(ctx context.Context, email, name string) (datatypes.SubmissionResponse, error) {
	body, err := json.Marshal(datatypes.SubmissionRequest{Email: email, Name: name})
	if err != nil {
		return datatypes.SubmissionResponse{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/waitlist", bytes.NewReader(body))
	if err != nil {
		return datatypes.SubmissionResponse{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return datatypes.SubmissionResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return datatypes.SubmissionResponse{}, fmt.Errorf("reading response: %w", err)
	}

	var result datatypes.SubmissionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return datatypes.SubmissionResponse{}, fmt.Errorf("decoding response (status %d): %w",
			resp.StatusCode, err)
	}
	return result, nil
}

// Health checks the service's /health endpoint.
func (c *APIClient) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return HealthStatus{}, fmt.Errorf("decoding health response: %w", err)
	}
	status.HTTPStatus = resp.StatusCode
	return status, nil
}

// HealthStatus is the decoded /health payload.
type HealthStatus struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	HTTPStatus int    `json:"-"`
}

// Healthy reports whether the service answered affirmatively.
func (h HealthStatus) Healthy() bool {
	return h.HTTPStatus == http.StatusOK && h.Status == "ok"
}
