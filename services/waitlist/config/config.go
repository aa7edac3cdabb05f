// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the waitlist service configuration from the
// environment. Defaults match the hosted landing-page deployment so a bare
// `waitlist-service` starts with only the Google credentials supplied.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend selects the storage implementation.
type Backend string

const (
	BackendSheets   Backend = "sheets"
	BackendPostgres Backend = "postgres"
)

// Config is the full service configuration.
type Config struct {
	Port    string
	Backend Backend

	// Sheets backend
	ServiceAccountEmail string
	PrivateKeyPEM       string
	SpreadsheetID       string
	SheetRange          string
	SourceTag           string

	// Postgres backend
	DatabaseURL string

	// HTTP
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		Backend:             Backend(getEnv("WAITLIST_BACKEND", string(BackendSheets))),
		ServiceAccountEmail: os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"),
		PrivateKeyPEM:       os.Getenv("GOOGLE_PRIVATE_KEY"),
		SpreadsheetID:       getEnv("GOOGLE_SHEETS_ID", "1et5vnMqLptGodbs9W7jzoLpnItKxdB6XK1E6NSAPui8"),
		SheetRange:          getEnv("SHEET_RANGE", "Sheet1"),
		SourceTag:           getEnv("SOURCE_TAG", "NextGen-CTO Landing Page"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 5),
	}

	switch cfg.Backend {
	case BackendSheets:
		// Missing credentials are tolerated: the service starts and the
		// submission path reports the misconfiguration on first use.
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("WAITLIST_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown WAITLIST_BACKEND %q", cfg.Backend)
	}

	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("rate limit values must be positive")
	}

	return cfg, nil
}

// SheetsConfigured reports whether both Google credentials are present.
func (c Config) SheetsConfigured() bool {
	return c.ServiceAccountEmail != "" && c.PrivateKeyPEM != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
