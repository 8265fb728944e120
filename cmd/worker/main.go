// Package main provides the entrypoint for the SegmentScout refresh worker.
// It consumes Pub/Sub refresh jobs and re-fetches stale segment details so
// cached difficulty scores track the platform's leaderboards.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/segmentscout/segmentscout/internal/auth"
	"github.com/segmentscout/segmentscout/internal/database"
	"github.com/segmentscout/segmentscout/internal/difficulty"
	"github.com/segmentscout/segmentscout/internal/provider/resilience"
	"github.com/segmentscout/segmentscout/internal/segment"
	"github.com/segmentscout/segmentscout/internal/segment/strava"
	"github.com/segmentscout/segmentscout/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "segmentscout-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SegmentScout worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Segment details persist in Postgres; the repository drives the
	// staleness listing, so the worker requires it.
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	repo := segment.NewPostgresRepository(pool)
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	registry := resilience.NewRegistry()

	stravaClient := strava.NewClient(strava.ClientConfig{
		BaseURL:  os.Getenv("STRAVA_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})

	segmentService := segment.NewService(segment.ServiceConfig{
		Provider:   stravaClient,
		Scorer:     difficulty.NewScorer(difficulty.ScorerConfig{}),
		Repository: repo,
		Logger:     log,
	})

	// Background refreshes authenticate with a service refresh token rotated
	// through the oauth relay.
	tokens, err := newTokenSource(registry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure worker credentials")
	}

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     refreshConfigFromEnv(),
		Logger:     log,
		Service:    segmentService,
		Repository: repo,
		Tokens:     tokens,
	})

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			log.Error().Err(serveErr).Msg("health server error")
		}
	}()

	// Pub/Sub consumer; without a subscription the worker falls back to a
	// fixed-interval refresh loop for local development.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		handler, psErr := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if psErr != nil {
			log.Fatal().Err(psErr).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if recvErr := handler.Start(ctx); recvErr != nil && ctx.Err() == nil {
				log.Error().Err(recvErr).Msg("pubsub receive stopped")
				cancel()
			}
		}()
	} else {
		log.Warn().Msg("pubsub not configured, running interval refresh loop")
		go runIntervalLoop(ctx, refreshJob, log)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// refreshConfigFromEnv builds the refresh configuration from environment
// variables, falling back to defaults.
func refreshConfigFromEnv() worker.RefreshConfig {
	cfg := worker.DefaultRefreshConfig()
	if v := os.Getenv("REFRESH_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.StaleAfter = d
		}
	}
	return cfg
}

// refreshInterval returns the fallback loop cadence. Pub/Sub deployments
// schedule runs externally and never hit this.
func refreshInterval() time.Duration {
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 15 * time.Minute
}

// runIntervalLoop periodically refreshes the stale set. Used when no Pub/Sub
// subscription is configured.
func runIntervalLoop(ctx context.Context, job *worker.RefreshJob, log zerolog.Logger) {
	ticker := time.NewTicker(refreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := job.Run(ctx, nil)
			log.Info().
				Int("refreshed", result.Successful).
				Int("failed", result.Failed).
				Msg("interval refresh complete")
		}
	}
}

// newTokenSource wires the worker's long-lived refresh token through the
// oauth relay, caching access tokens until shortly before expiry.
func newTokenSource(registry *resilience.Registry, log zerolog.Logger) (worker.TokenSource, error) {
	if static := os.Getenv("WORKER_ACCESS_TOKEN"); static != "" {
		return worker.StaticToken(static), nil
	}

	refreshToken := os.Getenv("WORKER_REFRESH_TOKEN")
	clientID := os.Getenv("STRAVA_CLIENT_ID")
	clientSecret := os.Getenv("STRAVA_CLIENT_SECRET")
	if refreshToken == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("WORKER_REFRESH_TOKEN, STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET must be set")
	}

	relay := auth.NewRelay(auth.RelayConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     os.Getenv("STRAVA_TOKEN_URL"),
		Registry:     registry,
		Logger:       log,
	})

	var mu sync.Mutex
	var accessToken string
	var expiresAt time.Time

	return worker.TokenSourceFunc(func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()

		// Refresh a minute early to avoid using a token mid-expiry.
		if accessToken != "" && time.Until(expiresAt) > time.Minute {
			return accessToken, nil
		}

		grant, err := relay.Refresh(ctx, refreshToken)
		if err != nil {
			return "", fmt.Errorf("rotating worker access token: %w", err)
		}

		accessToken = grant.AccessToken
		expiresAt = time.Unix(grant.ExpiresAt, 0)
		if grant.RefreshToken != "" {
			refreshToken = grant.RefreshToken
		}
		return accessToken, nil
	}), nil
}
