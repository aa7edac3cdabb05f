// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// jwtBearerGrant is the OAuth2 grant type for service-account assertions.
const jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// defaultHTTPTimeout bounds the token exchange and append calls. A timeout
// follows the same failure path as any other downstream error.
const defaultHTTPTimeout = 10 * time.Second

// TokenExchangeError reports a failed or malformed token-endpoint response.
// Status and Body are for operator diagnostics only and are never surfaced
// to the visitor.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: status=%d body=%s", e.StatusCode, e.Body)
}

// AccessToken is the opaque bearer credential returned by the exchange.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token exists and survives past now plus skew.
func (t AccessToken) Valid(now time.Time, skew time.Duration) bool {
	return t.Value != "" && now.Add(skew).Before(t.ExpiresAt)
}

// =============================================================================
// TokenClient
// =============================================================================

// TokenClient performs the jwt-bearer grant against the OAuth2 token
// endpoint. It does not retry; retry policy belongs to the caller.
type TokenClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewTokenClient creates a TokenClient. Empty endpoint defaults to the
// production Google endpoint; nil httpClient gets a 10s-timeout client.
func NewTokenClient(endpoint string, httpClient *http.Client) *TokenClient {
	if endpoint == "" {
		endpoint = TokenEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &TokenClient{endpoint: endpoint, httpClient: httpClient}
}

// Exchange trades a signed assertion for a bearer token.
//
// # Outputs
//
//   - AccessToken: bearer value plus computed expiry.
//   - error: *TokenExchangeError on a non-2xx response or a 2xx response
//     missing access_token; a wrapped transport error otherwise.
func (c *TokenClient) Exchange(ctx context.Context, assertion string) (AccessToken, error) {
	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, fmt.Errorf("calling token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AccessToken{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return AccessToken{}, &TokenExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.AccessToken == "" {
		return AccessToken{}, &TokenExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600 // Google's documented default
	}

	return AccessToken{
		Value:     payload.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

// =============================================================================
// TokenSource (cache)
// =============================================================================

// tokenExpirySkew is how long before actual expiry a cached token is
// treated as stale, leaving headroom for the append call itself.
const tokenExpirySkew = 5 * time.Minute

// TokenSource hands out bearer tokens, reusing a cached token until it
// nears expiry. Tokens are valid for about an hour, so re-authenticating
// on every submission wastes two round trips per signup; the cache keeps
// the pipeline to a single append call in the common case. Concurrent
// refreshes are collapsed via singleflight, keyed by the credential
// fingerprint.
type TokenSource struct {
	signer *Signer
	client *TokenClient
	key    string

	// OnExchange, when set, observes every exchange attempt. Set once
	// before first use; used for metrics.
	OnExchange func(success bool)

	mu     sync.RWMutex
	cached AccessToken

	group singleflight.Group
	now   func() time.Time
}

// NewTokenSource creates a TokenSource for a signer/exchange pair. key is
// the credential fingerprint (any stable string works in tests).
func NewTokenSource(signer *Signer, client *TokenClient, key string) *TokenSource {
	return &TokenSource{
		signer: signer,
		client: client,
		key:    key,
		now:    time.Now,
	}
}

// Token returns a valid bearer token, minting a fresh assertion and
// exchanging it only when the cache is empty or stale.
func (ts *TokenSource) Token(ctx context.Context) (AccessToken, error) {
	ts.mu.RLock()
	cached := ts.cached
	ts.mu.RUnlock()

	now := ts.now()
	if cached.Valid(now, tokenExpirySkew) {
		return cached, nil
	}

	v, err, _ := ts.group.Do(ts.key, func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		ts.mu.RLock()
		cached := ts.cached
		ts.mu.RUnlock()
		if cached.Valid(ts.now(), tokenExpirySkew) {
			return cached, nil
		}

		assertion, err := ts.signer.Sign(SpreadsheetScope, TokenEndpoint)
		if err != nil {
			return AccessToken{}, err
		}
		token, err := ts.client.Exchange(ctx, assertion)
		if ts.OnExchange != nil {
			ts.OnExchange(err == nil)
		}
		if err != nil {
			return AccessToken{}, err
		}

		ts.mu.Lock()
		ts.cached = token
		ts.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return AccessToken{}, err
	}
	return v.(AccessToken), nil
}

// Invalidate drops the cached token, forcing the next Token call to
// re-authenticate. Used after an append is rejected with a 401.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.cached = AccessToken{}
	ts.mu.Unlock()
}
