// Package api provides the HTTP API for SegmentScout.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/segmentscout/segmentscout/internal/api/handler"
	"github.com/segmentscout/segmentscout/internal/api/middleware"
	"github.com/segmentscout/segmentscout/internal/auth"
	"github.com/segmentscout/segmentscout/internal/difficulty"
	"github.com/segmentscout/segmentscout/internal/provider/resilience"
	"github.com/segmentscout/segmentscout/internal/segment"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	Registry       *resilience.Registry
	SegmentService *segment.Service
	Scorer         *difficulty.Scorer
	OAuthRelay     *auth.Relay
	StateIssuer    *auth.StateIssuer
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "segmentscout-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.SegmentService)
	oauthHandler := handler.NewOAuthHandler(cfg.OAuthRelay, cfg.StateIssuer)
	segmentHandler := handler.NewSegmentHandler(cfg.SegmentService, cfg.Scorer)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)              // 10 req/min
	expensiveRateLimit := middleware.RateLimitByToken(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByToken(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// OAuth relay endpoints (public) - strict rate limiting
		r.Route("/oauth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Get("/state", oauthHandler.State)
			r.Post("/token", oauthHandler.Token)
			r.Post("/refresh", oauthHandler.Refresh)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Segment endpoints require a platform access token
		r.Route("/segments", func(r chi.Router) {
			// Scoring is pure compute and needs no token
			r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).
				Post("/score", segmentHandler.Score)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AccessToken)
				// Explore fans out into many platform calls per request
				r.With(expensiveRateLimit).Get("/explore", segmentHandler.Explore)
				r.With(standardRateLimit).Get("/{segmentId}", segmentHandler.GetSegment)
			})
		})
	})

	return r
}
