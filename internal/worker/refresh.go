package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/segmentscout/segmentscout/internal/segment"
)

// TokenSource supplies a platform access token for background refreshes.
// The worker holds a long-lived refresh token and rotates access tokens
// through the oauth relay.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

// AccessToken implements TokenSource.
func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken returns a TokenSource that always yields the given token.
func StaticToken(token string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// RefreshJob re-fetches stale segment details so cached difficulty data
// stays close to the platform's leaderboards.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	service *segment.Service
	repo    segment.Repository
	tokens  TokenSource

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	SegmentsRefreshed int64
	SegmentsFailed    int64
	LastRunAt         time.Time
	LastRunDuration   time.Duration
	TotalDuration     time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Service *segment.Service
	// Repository supplies the stale segment ids. Required unless every run
	// names explicit ids.
	Repository segment.Repository
	Tokens     TokenSource
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		service: cfg.Service,
		repo:    cfg.Repository,
		tokens:  cfg.Tokens,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	TotalSegments int
	Successful    int
	Failed        int
	Errors        []RefreshError
}

// RefreshError represents an error refreshing one segment.
type RefreshError struct {
	SegmentID int64
	Error     string
}

// Run refreshes the given segment ids, or the repository's stale set when
// ids is empty.
func (j *RefreshJob) Run(ctx context.Context, ids []int64) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	if len(ids) == 0 {
		var err error
		ids, err = j.staleIDs(ctx)
		if err != nil {
			j.logger.Error().Err(err).Msg("failed to list stale segments")
			result.EndTime = time.Now()
			result.Duration = result.EndTime.Sub(startTime)
			return result
		}
	}
	result.TotalSegments = len(ids)

	if len(ids) == 0 {
		j.logger.Debug().Msg("no stale segments to refresh")
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		return result
	}

	token, err := j.tokens.AccessToken(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to obtain access token for refresh")
		result.Failed = len(ids)
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		return result
	}

	j.logger.Info().
		Int("total_segments", len(ids)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting segment refresh job")

	idsChan := make(chan int64, len(ids))
	resultsChan := make(chan segmentResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, token, idsChan, resultsChan)
		}()
	}

	for _, id := range ids {
		idsChan <- id
	}
	close(idsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for sr := range resultsChan {
		if sr.err == nil {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				SegmentID: sr.id,
				Error:     sr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("segment refresh job completed")

	return result
}

// staleIDs asks the repository for segments past the staleness cutoff.
func (j *RefreshJob) staleIDs(ctx context.Context) ([]int64, error) {
	if j.repo == nil {
		return nil, nil
	}
	cutoff := time.Now().Add(-j.config.StaleAfter)
	return j.repo.ListStaleIDs(ctx, cutoff, j.config.BatchLimit)
}

type segmentResult struct {
	id  int64
	err error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, token string, ids <-chan int64, results chan<- segmentResult) {
	for id := range ids {
		select {
		case <-ctx.Done():
			results <- segmentResult{id: id, err: ctx.Err()}
		default:
			results <- segmentResult{id: id, err: j.refreshSegment(ctx, token, id)}
		}
	}
}

func (j *RefreshJob) refreshSegment(ctx context.Context, token string, id int64) error {
	segCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.service.RefreshSegment(segCtx, token, id)
	if err != nil {
		j.logger.Warn().Err(err).Int64("segment_id", id).Msg("segment refresh failed")
	}
	return err
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SegmentsRefreshed += int64(result.Successful)
	j.metrics.SegmentsFailed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		SegmentsRefreshed: j.metrics.SegmentsRefreshed,
		SegmentsFailed:    j.metrics.SegmentsFailed,
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		TotalDuration:     j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":         m.TotalRuns,
		"segments_refreshed": m.SegmentsRefreshed,
		"segments_failed":    m.SegmentsFailed,
		"last_run_at":        m.LastRunAt,
		"last_run_duration":  m.LastRunDuration.String(),
		"total_duration":     m.TotalDuration.String(),
	}
}
