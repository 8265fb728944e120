package segment

import (
	"context"
	"time"
)

// Repository defines the interface for segment detail persistence. The
// repository is a durable cache keyed by segment id; the in-memory cache in
// Service sits in front of it.
type Repository interface {
	// GetDetail retrieves a cached detail by segment id.
	// Returns ErrNotFound when the segment has never been cached.
	GetDetail(ctx context.Context, id int64) (*Detail, error)

	// UpsertDetail inserts or replaces a cached detail.
	UpsertDetail(ctx context.Context, detail *Detail) error

	// ListStaleIDs returns up to limit segment ids whose cached detail was
	// fetched before the cutoff, oldest first. Used by the refresh worker.
	ListStaleIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)

	// DeleteDetail removes a cached detail.
	DeleteDetail(ctx context.Context, id int64) error
}
