// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// Tests for the token exchange and cache

package sheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_Valid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		token AccessToken
		want  bool
	}{
		{"empty", AccessToken{}, false},
		{"fresh", AccessToken{Value: "tok", ExpiresAt: now.Add(time.Hour)}, true},
		{"inside skew window", AccessToken{Value: "tok", ExpiresAt: now.Add(2 * time.Minute)}, false},
		{"expired", AccessToken{Value: "tok", ExpiresAt: now.Add(-time.Minute)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.token.Valid(now, tokenExpirySkew))
		})
	}
}

func TestTokenClient_Exchange(t *testing.T) {
	t.Run("success posts the jwt-bearer form", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, jwtBearerGrant, r.PostForm.Get("grant_type"))
			assert.Equal(t, "signed-assertion", r.PostForm.Get("assertion"))
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			fmt.Fprint(w, `{"access_token":"ya29.token","expires_in":3599}`)
		}))
		defer srv.Close()

		token, err := NewTokenClient(srv.URL, srv.Client()).Exchange(context.Background(), "signed-assertion")
		require.NoError(t, err)
		assert.Equal(t, "ya29.token", token.Value)
		assert.WithinDuration(t, time.Now().Add(3599*time.Second), token.ExpiresAt, 5*time.Second)
	})

	t.Run("missing expires_in defaults to an hour", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"access_token":"ya29.token"}`)
		}))
		defer srv.Close()

		token, err := NewTokenClient(srv.URL, srv.Client()).Exchange(context.Background(), "a")
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)
	})

	t.Run("non-2xx carries status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
		}))
		defer srv.Close()

		_, err := NewTokenClient(srv.URL, srv.Client()).Exchange(context.Background(), "a")
		var te *TokenExchangeError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusBadRequest, te.StatusCode)
		assert.Contains(t, te.Body, "invalid_grant")
	})

	t.Run("2xx without access_token is an exchange error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"token_type":"Bearer"}`)
		}))
		defer srv.Close()

		_, err := NewTokenClient(srv.URL, srv.Client()).Exchange(context.Background(), "a")
		var te *TokenExchangeError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusOK, te.StatusCode)
	})
}

// testSource builds a TokenSource backed by a real signer and the given
// token endpoint.
func testSource(t *testing.T, endpoint string, client *http.Client) *TokenSource {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	cred, err := NewCredential("svc@example.iam.gserviceaccount.com", pemKey)
	require.NoError(t, err)

	return NewTokenSource(NewSigner(cred), NewTokenClient(endpoint, client), cred.Fingerprint())
}

func TestTokenSource_CachesUntilStale(t *testing.T) {
	var exchanges atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := exchanges.Add(1)
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	}))
	defer srv.Close()

	ts := testSource(t, srv.URL, srv.Client())
	ctx := context.Background()

	first, err := ts.Token(ctx)
	require.NoError(t, err)
	second, err := ts.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	assert.EqualValues(t, 1, exchanges.Load())

	// Advance the clock past the skew window; the next call must refresh.
	ts.now = func() time.Time { return time.Now().Add(time.Hour) }
	third, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Value, third.Value)
	assert.EqualValues(t, 2, exchanges.Load())
}

func TestTokenSource_Invalidate(t *testing.T) {
	var exchanges atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := exchanges.Add(1)
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	}))
	defer srv.Close()

	ts := testSource(t, srv.URL, srv.Client())
	ctx := context.Background()

	first, err := ts.Token(ctx)
	require.NoError(t, err)

	ts.Invalidate()

	second, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Value, second.Value)
}

func TestTokenSource_ConcurrentCallersShareOneExchange(t *testing.T) {
	var exchanges atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)
		time.Sleep(50 * time.Millisecond) // widen the race window
		fmt.Fprint(w, `{"access_token":"shared","expires_in":3600}`)
	}))
	defer srv.Close()

	ts := testSource(t, srv.URL, srv.Client())
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()
			token, err := ts.Token(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "shared", token.Value)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, exchanges.Load())
}
