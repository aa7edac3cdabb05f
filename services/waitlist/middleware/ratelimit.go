// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides gin middleware for the waitlist service.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/datatypes"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/observability"
)

// staleAfter is how long an idle client's limiter survives before the
// cleanup pass drops it.
const staleAfter = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client-IP token bucket. The waitlist form is a
// human-speed endpoint; anything submitting faster than the configured
// rate is a script.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
	metrics *observability.WaitlistMetrics
	now     func() time.Time
}

// NewRateLimiter builds a limiter allowing rps requests per second with the
// given burst per client IP. metrics may be nil.
func NewRateLimiter(rps float64, burst int, metrics *observability.WaitlistMetrics) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		metrics: metrics,
		now:     time.Now,
	}
}

// Middleware returns the gin handler enforcing the limit. Rejected
// requests get a 429 with the standard error envelope.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.metrics.RecordRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, datatypes.SubmissionResponse{
				Success: false,
				Message: "Too many requests. Please try again in a moment.",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = cl
		rl.sweepLocked(now)
	}
	cl.lastSeen = now
	return cl.limiter.Allow()
}

// sweepLocked drops limiters idle past staleAfter. Runs under rl.mu, only
// when a new client arrives, so steady-state traffic pays nothing.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for ip, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > staleAfter {
			delete(rl.clients, ip)
		}
	}
}
