// Package main provides the entrypoint for the SegmentScout API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/segmentscout/segmentscout/internal/api"
	"github.com/segmentscout/segmentscout/internal/api/middleware"
	"github.com/segmentscout/segmentscout/internal/auth"
	"github.com/segmentscout/segmentscout/internal/database"
	"github.com/segmentscout/segmentscout/internal/difficulty"
	"github.com/segmentscout/segmentscout/internal/provider/resilience"
	"github.com/segmentscout/segmentscout/internal/segment"
	"github.com/segmentscout/segmentscout/internal/segment/strava"
	"github.com/segmentscout/segmentscout/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "segmentscout-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SegmentScout API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	sampleRatio := 1.0
	if v := os.Getenv("OTEL_SAMPLE_RATIO"); v != "" {
		if parsed, parseErr := strconv.ParseFloat(v, 64); parseErr == nil {
			sampleRatio = parsed
		} else {
			log.Warn().Str("otel_sample_ratio", v).Msg("ignoring invalid sample ratio")
		}
	}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
		SampleRatio:    sampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Segment details survive restarts in Postgres; the API keeps working
	// without it, only losing cross-restart cache warmth.
	var repo segment.Repository
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, running with in-memory cache only")
	} else {
		defer pool.Close()
		repo = segment.NewPostgresRepository(pool)
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	}

	// Provider registry backs the readiness endpoint
	registry := resilience.NewRegistry()

	// Platform segment client
	stravaClient := strava.NewClient(strava.ClientConfig{
		BaseURL:  os.Getenv("STRAVA_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})

	// Difficulty scorer
	riderMass := difficulty.DefaultRiderMassKg
	if v := os.Getenv("RIDER_MASS_KG"); v != "" {
		if parsed, parseErr := strconv.ParseFloat(v, 64); parseErr == nil && parsed > 0 {
			riderMass = parsed
		} else {
			log.Warn().Str("rider_mass_kg", v).Msg("ignoring invalid rider mass")
		}
	}
	scorer := difficulty.NewScorer(difficulty.ScorerConfig{RiderMassKg: riderMass})
	log.Info().Float64("rider_mass_kg", riderMass).Msg("difficulty scorer initialized")

	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// Segment service with caching
	segmentService := segment.NewService(segment.ServiceConfig{
		Provider:   stravaClient,
		Metrics:    providerMetrics,
		Scorer:     scorer,
		Repository: repo,
		Logger:     log,
	})
	log.Info().Str("provider", segmentService.ProviderName()).Msg("segment service initialized")

	// OAuth relay for the platform's authorization-code flow
	clientID := os.Getenv("STRAVA_CLIENT_ID")
	clientSecret := os.Getenv("STRAVA_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Warn().Msg("platform OAuth credentials not configured - oauth endpoints will fail")
	}
	relay := auth.NewRelay(auth.RelayConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     os.Getenv("STRAVA_TOKEN_URL"),
		Registry:     registry,
		Logger:       log,
	})

	stateSigningKey := os.Getenv("STATE_SIGNING_KEY")
	if stateSigningKey == "" {
		stateSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default state signing key - not secure for production")
	}
	stateIssuer := auth.NewStateIssuer(auth.StateConfig{SigningKey: stateSigningKey})
	log.Info().Msg("oauth relay initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		Registry:       registry,
		SegmentService: segmentService,
		Scorer:         scorer,
		OAuthRelay:     relay,
		StateIssuer:    stateIssuer,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
