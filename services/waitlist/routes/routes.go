// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the waitlist service's endpoints.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arindamdawn/nextgen-cto/services/waitlist/handlers"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/middleware"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/observability"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/repository"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/sheets"
)

// Deps carries everything the routes need. Diagnostics is nil for
// backends without a sheets pipeline; the debug routes are then not
// mounted.
type Deps struct {
	Repo        repository.Repository
	Metrics     *observability.WaitlistMetrics
	RateLimiter *middleware.RateLimiter
	Diagnostics *sheets.Diagnostics
}

// SetupRoutes registers all endpoints on the router.
//
//	GET  /health            liveness probe
//	GET  /metrics           Prometheus scrape target
//	POST /api/waitlist      submission endpoint (rate limited)
//	GET  /api/sheets/test   pipeline probe, read-only (sheets backend only)
//	GET  /api/sheets/debug  pipeline probe incl. test append (sheets backend only)
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		submit := api.Group("")
		if deps.RateLimiter != nil {
			submit.Use(deps.RateLimiter.Middleware())
		}
		submit.POST("/waitlist", handlers.JoinWaitlist(deps.Repo, deps.Metrics))

		if deps.Diagnostics != nil {
			api.GET("/sheets/test", handlers.SheetsTest(deps.Diagnostics))
			api.GET("/sheets/debug", handlers.SheetsDebug(deps.Diagnostics))
		}
	}
}
