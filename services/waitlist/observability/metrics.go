// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the waitlist
// service.
//
// # Description
//
// Metrics cover the submission funnel end to end:
//   - Submission counters (by backend and outcome)
//   - Dropped signups (fail-open losses, the number to alert on)
//   - Sheet append latency histogram
//   - Token exchange counters
//   - Rate-limited request counter
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "nextgen"

// Subsystem for waitlist metrics
const waitlistSubsystem = "waitlist"

// Submission outcomes used as the status label.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
	StatusInvalid   = "invalid"
	StatusError     = "error"
)

// WaitlistMetrics holds all Prometheus metrics for the submission pipeline.
// Initialize once at startup via InitMetrics; handlers receiving a nil
// *WaitlistMetrics record nothing, which keeps tests free of registry
// collisions.
type WaitlistMetrics struct {
	// SubmissionsTotal counts submissions by backend and outcome.
	// Labels: backend (sheets, postgres), status (accepted, duplicate,
	// invalid, error)
	SubmissionsTotal *prometheus.CounterVec

	// DroppedSignupsTotal counts signups confirmed to the visitor but
	// lost because a fail-open backend could not store them.
	// Labels: backend
	DroppedSignupsTotal *prometheus.CounterVec

	// SheetAppendSeconds measures the spreadsheet append round trip.
	SheetAppendSeconds prometheus.Histogram

	// TokenExchangesTotal counts OAuth token exchanges by result.
	// Labels: result (success, error)
	TokenExchangesTotal *prometheus.CounterVec

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *WaitlistMetrics

// InitMetrics creates and registers all metrics. Call once at startup;
// calling twice panics on duplicate registration.
func InitMetrics() *WaitlistMetrics {
	DefaultMetrics = &WaitlistMetrics{
		SubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: waitlistSubsystem,
				Name:      "submissions_total",
				Help:      "Total waitlist submissions by backend and outcome",
			},
			[]string{"backend", "status"},
		),

		DroppedSignupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: waitlistSubsystem,
				Name:      "dropped_signups_total",
				Help:      "Signups confirmed to the visitor but not persisted",
			},
			[]string{"backend"},
		),

		SheetAppendSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: waitlistSubsystem,
				Name:      "sheet_append_seconds",
				Help:      "Spreadsheet append round-trip latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),

		TokenExchangesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: waitlistSubsystem,
				Name:      "token_exchanges_total",
				Help:      "OAuth2 jwt-bearer token exchanges by result",
			},
			[]string{"result"},
		),

		RateLimitedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: waitlistSubsystem,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-IP rate limiter",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordSubmission records one submission outcome.
func (m *WaitlistMetrics) RecordSubmission(backend, status string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(backend, status).Inc()
}

// RecordDropped records a fail-open loss.
func (m *WaitlistMetrics) RecordDropped(backend string) {
	if m == nil {
		return
	}
	m.DroppedSignupsTotal.WithLabelValues(backend).Inc()
}

// RecordAppendDuration records the append round trip.
func (m *WaitlistMetrics) RecordAppendDuration(seconds float64) {
	if m == nil {
		return
	}
	m.SheetAppendSeconds.Observe(seconds)
}

// RecordTokenExchange records a token-exchange attempt.
func (m *WaitlistMetrics) RecordTokenExchange(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.TokenExchangesTotal.WithLabelValues(result).Inc()
}

// RecordRateLimited records a rejected request.
func (m *WaitlistMetrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}
