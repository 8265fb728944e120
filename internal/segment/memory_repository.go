package segment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development. Production should use
// PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	details map[int64]*Detail
}

// NewInMemoryRepository creates a new in-memory segment repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		details: make(map[int64]*Detail),
	}
}

// GetDetail retrieves a cached detail by segment id.
func (r *InMemoryRepository) GetDetail(_ context.Context, id int64) (*Detail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.details[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	cpy := *d
	return &cpy, nil
}

// UpsertDetail inserts or replaces a cached detail.
func (r *InMemoryRepository) UpsertDetail(_ context.Context, detail *Detail) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *detail
	r.details[detail.ID] = &cpy
	return nil
}

// ListStaleIDs returns ids fetched before the cutoff, oldest first.
func (r *InMemoryRepository) ListStaleIDs(_ context.Context, cutoff time.Time, limit int) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stale := make([]*Detail, 0)
	for _, d := range r.details {
		if d.FetchedAt.Before(cutoff) {
			stale = append(stale, d)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].FetchedAt.Before(stale[j].FetchedAt)
	})

	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	ids := make([]int64, 0, len(stale))
	for _, d := range stale {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// DeleteDetail removes a cached detail.
func (r *InMemoryRepository) DeleteDetail(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.details, id)
	return nil
}
