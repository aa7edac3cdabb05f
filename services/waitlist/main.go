// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// The waitlist service receives signup submissions from the NextGen-CTO
// landing page and records them in Google Sheets or Postgres.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arindamdawn/nextgen-cto/pkg/logging"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/config"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/middleware"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/observability"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/repository"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/routes"
	"github.com/arindamdawn/nextgen-cto/services/waitlist/sheets"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "waitlist-service"

// initTracer sets up the OTLP trace exporter. Tracing is opt-in: without
// OTEL_EXPORTER_OTLP_ENDPOINT the service runs untraced and the returned
// cleanup is a no-op.
func initTracer() (func(context.Context), error) {
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return func(context.Context) {}, nil
	}

	ctx := context.Background()
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// buildRepository constructs the configured storage backend. For sheets it
// also returns the diagnostics probe used by the debug endpoints.
func buildRepository(ctx context.Context, cfg config.Config) (repository.Repository, *sheets.Diagnostics, error) {
	switch cfg.Backend {
	case config.BackendSheets:
		var cred *sheets.Credential
		if cfg.SheetsConfigured() {
			var err error
			cred, err = sheets.NewCredential(cfg.ServiceAccountEmail, cfg.PrivateKeyPEM)
			if err != nil {
				return nil, nil, err
			}
			slog.Info("sheets backend configured",
				"service_account", cfg.ServiceAccountEmail,
				"spreadsheet_id", cfg.SpreadsheetID,
				"range", cfg.SheetRange)
		} else {
			// Start anyway: the landing page still answers, submissions
			// fail open, and the debug endpoints report what is missing.
			slog.Warn("google service account credentials not set, signups will not be persisted")
		}

		httpClient := &http.Client{Timeout: cfg.RequestTimeout}
		signer := sheets.NewSigner(cred)
		key := "unconfigured"
		if cred != nil {
			key = cred.Fingerprint()
		}
		tokens := sheets.NewTokenSource(signer,
			sheets.NewTokenClient(sheets.TokenEndpoint, httpClient), key)
		tokens.OnExchange = observability.DefaultMetrics.RecordTokenExchange
		appender := sheets.NewAppendClient(sheets.SheetsBaseURL, httpClient)

		repo := repository.NewSheetsRepository(tokens, appender,
			cfg.SpreadsheetID, cfg.SheetRange, cfg.SourceTag)
		diag := sheets.NewDiagnostics(cred, signer, tokens, appender,
			cfg.SpreadsheetID, cfg.SheetRange)
		return repo, diag, nil

	case config.BackendPostgres:
		repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURL, cfg.SourceTag)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("postgres backend configured")
		return repo, nil, nil

	default:
		return nil, nil, errors.New("unknown backend " + string(cfg.Backend))
	}
}

func main() {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "waitlist",
		JSON:    true,
		LogDir:  os.Getenv("LOG_DIR"),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Local development convenience; production sets real env vars.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	metrics := observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, diag, err := buildRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize %s backend: %v", cfg.Backend, err)
	}
	if pg, ok := repo.(*repository.PostgresRepository); ok {
		defer pg.Close()
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))

	routes.SetupRoutes(router, routes.Deps{
		Repo:        repo,
		Metrics:     metrics,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, metrics),
		Diagnostics: diag,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("starting waitlist service", "port", cfg.Port, "backend", string(cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
