package segment

import (
	"context"
	"sync"
	"time"

	"github.com/segmentscout/segmentscout/internal/difficulty"
)

// Explore discovers segments inside a viewport and returns them scored,
// sorted ascending by difficulty with unscoreable segments last.
//
// The platform caps explore responses at a handful of segments per viewport.
// When a response hits that cap and the viewport is still large enough, the
// viewport is split into quadrants and each is explored again, to a bounded
// depth. Results are deduplicated by segment id across the whole recursion.
func (s *Service) Explore(ctx context.Context, accessToken string, bounds Bounds, activity ActivityType) ([]ExploreResult, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[int64]Summary)
	if err := s.exploreRecursive(ctx, accessToken, bounds, activity, 0, seen); err != nil {
		// Partial results from completed quadrants are still useful; fail
		// only when the very first viewport produced nothing.
		if len(seen) == 0 {
			return nil, err
		}
		s.logger.Warn().Err(err).
			Str("bounds", bounds.String()).
			Int("segments", len(seen)).
			Msg("explore subdivision partially failed, returning partial results")
	}

	results := s.scoreSummaries(ctx, accessToken, seen)
	SortByDifficulty(results)

	s.logger.Debug().
		Str("bounds", bounds.String()).
		Str("activity", string(activity)).
		Int("segments", len(results)).
		Msg("explore complete")

	return results, nil
}

func (s *Service) exploreRecursive(ctx context.Context, accessToken string, bounds Bounds, activity ActivityType, depth int, seen map[int64]Summary) error {
	started := time.Now()
	summaries, err := s.provider.Explore(ctx, accessToken, bounds, activity)
	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "explore-segments", time.Since(started), err)
	}
	if err != nil {
		return err
	}

	for _, sum := range summaries {
		if _, ok := seen[sum.ID]; !ok {
			seen[sum.ID] = sum
		}
	}

	// A capped response means the viewport likely holds more segments than
	// the platform returned.
	if len(summaries) < s.exploreCap || depth >= s.maxSubdivisionDepth {
		return nil
	}
	if bounds.LatSpan()/2 < s.minQuadrantSpanDeg || bounds.LonSpan()/2 < s.minQuadrantSpanDeg {
		return nil
	}

	s.logger.Debug().
		Str("bounds", bounds.String()).
		Int("depth", depth).
		Msg("explore response capped, subdividing viewport")

	for _, quadrant := range bounds.Quadrants() {
		if err := s.exploreRecursive(ctx, accessToken, quadrant, activity, depth+1, seen); err != nil {
			return err
		}
	}
	return nil
}

// scoreSummaries resolves details for discovered segments (bounded
// concurrency) and attaches difficulty results. A failed detail fetch
// degrades that segment to the unscoreable sentinel rather than failing the
// whole explore call.
func (s *Service) scoreSummaries(ctx context.Context, accessToken string, seen map[int64]Summary) []ExploreResult {
	type job struct {
		summary Summary
	}

	jobs := make(chan job)
	results := make([]ExploreResult, 0, len(seen))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for range s.detailConcurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result := ExploreResult{Summary: j.summary}

				detail, err := s.getDetail(ctx, accessToken, j.summary.ID)
				if err != nil {
					s.logger.Warn().Err(err).
						Int64("segment_id", j.summary.ID).
						Msg("detail fetch failed during explore, segment left unscored")
					result.Difficulty = difficulty.Invalid()
				} else {
					result.Difficulty = s.scorer.Score(detail.PhysicalProfile())
					// Prefer the richer detail fields over the explore
					// summary where both exist.
					result.Summary = detail.Summary
				}

				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

	for _, sum := range seen {
		jobs <- job{summary: sum}
	}
	close(jobs)
	wg.Wait()

	return results
}
