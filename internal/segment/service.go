package segment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/segmentscout/segmentscout/internal/difficulty"
)

// MetricsRecorder receives cache and provider-call observations from the
// service. Satisfied by middleware.ProviderMetrics.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// ServiceConfig holds configuration for the segment service.
type ServiceConfig struct {
	// Provider is the platform API client.
	Provider Provider

	// Metrics optionally records cache and provider-call metrics.
	Metrics MetricsRecorder

	// Scorer computes difficulty results. Required.
	Scorer *difficulty.Scorer

	// Repository optionally persists segment details across restarts.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long a fetched detail stays fresh (default: 10 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale details on provider errors
	// (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often expired cache entries are removed
	// (default: 10 minutes).
	CleanupInterval time.Duration

	// ExploreCap is the platform's per-viewport result cap; a response of
	// this size triggers spatial subdivision (default: 10).
	ExploreCap int

	// MaxSubdivisionDepth bounds the explore recursion (default: 3).
	MaxSubdivisionDepth int

	// MinQuadrantSpanDeg stops subdividing viewports smaller than this span
	// in either axis (default: 0.005, roughly 550m of latitude).
	MinQuadrantSpanDeg float64

	// DetailConcurrency is the number of parallel detail fetches during an
	// explore call (default: 4).
	DetailConcurrency int
}

// Service provides scored segment data with caching.
type Service struct {
	provider            Provider
	metrics             MetricsRecorder
	scorer              *difficulty.Scorer
	repo                Repository
	logger              zerolog.Logger
	cacheTTL            time.Duration
	staleIfErrorTTL     time.Duration
	cleanupInterval     time.Duration
	exploreCap          int
	maxSubdivisionDepth int
	minQuadrantSpanDeg  float64
	detailConcurrency   int

	mu          sync.RWMutex
	cache       map[int64]*cachedDetail
	lastCleanup time.Time
}

type cachedDetail struct {
	detail    *Detail
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new segment service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = time.Hour
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	exploreCap := cfg.ExploreCap
	if exploreCap == 0 {
		exploreCap = 10
	}

	maxDepth := cfg.MaxSubdivisionDepth
	if maxDepth == 0 {
		maxDepth = 3
	}

	minSpan := cfg.MinQuadrantSpanDeg
	if minSpan == 0 {
		minSpan = 0.005
	}

	concurrency := cfg.DetailConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Service{
		provider:            cfg.Provider,
		metrics:             cfg.Metrics,
		scorer:              cfg.Scorer,
		repo:                cfg.Repository,
		logger:              cfg.Logger,
		cacheTTL:            cacheTTL,
		staleIfErrorTTL:     staleIfErrorTTL,
		cleanupInterval:     cleanupInterval,
		exploreCap:          exploreCap,
		maxSubdivisionDepth: maxDepth,
		minQuadrantSpanDeg:  minSpan,
		detailConcurrency:   concurrency,
		cache:               make(map[int64]*cachedDetail),
	}
}

// GetSegment returns the scored detail for one segment, from cache when
// fresh.
func (s *Service) GetSegment(ctx context.Context, accessToken string, id int64) (*ScoredDetail, error) {
	detail, err := s.getDetail(ctx, accessToken, id)
	if err != nil {
		return nil, err
	}
	return s.scoreDetail(detail), nil
}

// RefreshSegment re-fetches one segment from the platform regardless of
// cache freshness. Used by the background refresh worker.
func (s *Service) RefreshSegment(ctx context.Context, accessToken string, id int64) (*ScoredDetail, error) {
	detail, err := s.fetchDetail(ctx, accessToken, id, true)
	if err != nil {
		return nil, err
	}
	return s.scoreDetail(detail), nil
}

func (s *Service) scoreDetail(d *Detail) *ScoredDetail {
	return &ScoredDetail{
		Detail:     *d,
		Difficulty: s.scorer.Score(d.PhysicalProfile()),
	}
}

// getDetail resolves a detail through memory cache, repository and provider,
// in that order.
func (s *Service) getDetail(ctx context.Context, accessToken string, id int64) (*Detail, error) {
	now := time.Now()

	s.mu.RLock()
	if cached, ok := s.cache[id]; ok && now.Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().Int64("segment_id", id).Msg("segment cache hit")
		s.recordCacheHit("get-segment")
		return cached.detail, nil
	}
	s.mu.RUnlock()
	s.recordCacheMiss("get-segment")

	// Repository lookup, still subject to the freshness TTL.
	if s.repo != nil {
		if detail, err := s.repo.GetDetail(ctx, id); err == nil {
			if now.Before(detail.FetchedAt.Add(s.cacheTTL)) {
				s.storeInCache(detail)
				s.logger.Debug().Int64("segment_id", id).Msg("segment repository hit")
				return detail, nil
			}
		} else if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Int64("segment_id", id).Msg("segment repository lookup failed")
		}
	}

	return s.fetchDetail(ctx, accessToken, id, false)
}

// fetchDetail fetches from the provider and updates cache and repository.
func (s *Service) fetchDetail(ctx context.Context, accessToken string, id int64, force bool) (*Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd).
	if !force {
		if cached, ok := s.cache[id]; ok && time.Now().Before(cached.expiresAt) {
			s.logger.Debug().Int64("segment_id", id).Msg("segment cache hit after double-check")
			return cached.detail, nil
		}
	}

	s.logger.Debug().
		Int64("segment_id", id).
		Str("provider", s.provider.Name()).
		Msg("fetching segment detail from provider")

	started := time.Now()
	detail, err := s.provider.GetSegment(ctx, accessToken, id)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "get-segment", time.Since(started), err)
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("segment_id", id).Msg("failed to fetch segment detail")

		// Stale-if-error: a known but expired detail beats no detail.
		if cached, ok := s.cache[id]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Int64("segment_id", id).
					Time("fetched_at", cached.fetchedAt).
					Msg("serving stale segment detail due to provider error")
				return cached.detail, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	detail.FetchedAt = now
	s.cache[id] = &cachedDetail{
		detail:    detail,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	if s.repo != nil {
		if err := s.repo.UpsertDetail(ctx, detail); err != nil {
			s.logger.Warn().Err(err).Int64("segment_id", id).Msg("failed to persist segment detail")
		}
	}

	s.cleanupIfNeeded()

	return detail, nil
}

func (s *Service) recordCacheHit(operation string) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(s.provider.Name(), operation)
	}
}

func (s *Service) recordCacheMiss(operation string) {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss(s.provider.Name(), operation)
	}
}

// storeInCache inserts a detail under the write lock.
func (s *Service) storeInCache(detail *Detail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[detail.ID] = &cachedDetail{
		detail:    detail,
		fetchedAt: detail.FetchedAt,
		expiresAt: detail.FetchedAt.Add(s.cacheTTL),
	}
}

// cleanupIfNeeded removes entries past the stale-if-error window. Callers
// hold the write lock.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for id, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, id)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().Int("expired_entries", expired).Msg("cleaned up expired segment cache entries")
	}
}

// InvalidateCache clears the in-memory detail cache.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[int64]*cachedDetail)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	stale := 0

	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stale++
		}
	}

	return CacheStats{
		TotalEntries: len(s.cache),
		FreshEntries: fresh,
		StaleEntries: stale,
		Provider:     s.provider.Name(),
	}
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
