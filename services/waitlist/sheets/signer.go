// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sheets implements the Google Sheets signup pipeline: a service
// account assertion signer, the OAuth2 jwt-bearer token exchange, and the
// values-append client. The three pieces are deliberately small and
// separately testable; the repository layer composes them into one unit of
// work per submission.
//
// # Protocol
//
// Each append is authenticated with a short-lived RS256 JWT built from the
// service-account credential:
//
//	claims: iss=<service account email>, scope=<spreadsheets scope>,
//	        aud=<token endpoint>, iat=now, exp=now+1h
//
// The signed assertion is exchanged at the token endpoint using the
// urn:ietf:params:oauth:grant-type:jwt-bearer grant for a bearer token,
// which authorizes the values:append call.
//
// # Security Considerations
//
// The private key is held in a memguard enclave and only materializes in
// locked memory for the duration of a signing operation. Nothing in this
// package logs key material, assertions, or bearer tokens.
package sheets

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/awnumar/memguard"
	"github.com/golang-jwt/jwt/v5"
)

// Google endpoints and the OAuth scope for spreadsheet writes.
const (
	TokenEndpoint    = "https://oauth2.googleapis.com/token"
	SheetsBaseURL    = "https://sheets.googleapis.com/v4"
	SpreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"
)

// assertionLifetime is the exp-iat window of a signed assertion. Google
// rejects anything above one hour.
const assertionLifetime = time.Hour

// Error taxonomy for the signing step.
var (
	// ErrNotConfigured indicates missing service-account credentials.
	// This is a deployment problem, not a transient failure.
	ErrNotConfigured = errors.New("google service account credentials not configured")

	// ErrSigning indicates the private key was rejected or malformed.
	ErrSigning = errors.New("assertion signing failed")
)

// =============================================================================
// Credential
// =============================================================================

// Credential is the process-wide service-account identity: the issuer email
// plus the RSA private key sealed in a memguard enclave. Construct once at
// startup and share by reference; it is read-only for the process lifetime.
type Credential struct {
	issuerEmail string
	key         *memguard.Enclave
	fingerprint string
}

// NewCredential builds a Credential from the raw environment values.
//
// # Description
//
// The private key commonly arrives with literal `\n` escape sequences
// (single-line env var); NormalizePrivateKey converts those to real
// newlines before the key is sealed. Normalization is idempotent, so a key
// that already contains real newlines passes through unchanged.
//
// # Inputs
//
//   - issuerEmail: the service-account email (iss claim).
//   - privateKeyPEM: PEM-encoded RSA private key, possibly with escaped
//     newlines.
//
// # Outputs
//
//   - *Credential: the sealed credential.
//   - error: ErrNotConfigured when either input is empty.
func NewCredential(issuerEmail, privateKeyPEM string) (*Credential, error) {
	if issuerEmail == "" || privateKeyPEM == "" {
		return nil, ErrNotConfigured
	}

	normalized := []byte(NormalizePrivateKey(privateKeyPEM))

	sum := sha256.Sum256(append([]byte(issuerEmail+"\n"), normalized...))

	return &Credential{
		issuerEmail: issuerEmail,
		key:         memguard.NewEnclave(normalized), // wipes the source slice
		fingerprint: hex.EncodeToString(sum[:8]),
	}, nil
}

// IssuerEmail returns the service-account email.
func (c *Credential) IssuerEmail() string {
	return c.issuerEmail
}

// Fingerprint returns a short stable digest of the credential, used as the
// token-cache key. It reveals nothing about the key material.
func (c *Credential) Fingerprint() string {
	return c.fingerprint
}

// NormalizePrivateKey converts literal `\n` escape sequences to real
// newlines. Required before parsing; a no-op on already-correct PEM.
func NormalizePrivateKey(pem string) string {
	return strings.ReplaceAll(pem, `\n`, "\n")
}

// =============================================================================
// Signer
// =============================================================================

// Signer mints RS256-signed assertions for a Credential. Stateless apart
// from the clock; safe for concurrent use.
type Signer struct {
	cred *Credential
	now  func() time.Time
}

// NewSigner creates a Signer. cred may be nil when the deployment has no
// credentials; Sign then reports ErrNotConfigured at first use.
func NewSigner(cred *Credential) *Signer {
	return &Signer{cred: cred, now: time.Now}
}

// Sign builds and signs the jwt-bearer assertion.
//
// # Inputs
//
//   - scope: OAuth scope requested (SpreadsheetScope for appends).
//   - audience: token endpoint URL (aud claim).
//
// # Outputs
//
//   - string: compact serialized JWT.
//   - error: ErrNotConfigured without credentials; ErrSigning (wrapped)
//     when the key cannot be parsed or the signature fails.
func (s *Signer) Sign(scope, audience string) (string, error) {
	if s.cred == nil {
		return "", ErrNotConfigured
	}

	keyBuf, err := s.cred.key.Open()
	if err != nil {
		return "", fmt.Errorf("%w: opening key enclave: %v", ErrSigning, err)
	}
	defer keyBuf.Destroy()

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBuf.Bytes())
	if err != nil {
		return "", fmt.Errorf("%w: parsing private key: %v", ErrSigning, err)
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":   s.cred.issuerEmail,
		"scope": scope,
		"aud":   audience,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}
