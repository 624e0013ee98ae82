// Package governor bounds the number of simultaneous backend calls made by
// an adapter. One governor is shared process-wide per adapter type.
package governor

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Governor is a counting semaphore over backend calls. Acquire is the sole
// suspension point for scheduling fairness; waiters queue FIFO.
type Governor struct {
	sem   *semaphore.Weighted
	limit int64
}

// New returns a Governor allowing at most limit concurrent calls.
func New(limit int) (*Governor, error) {
	if limit < 1 {
		return nil, fmt.Errorf("governor limit must be at least 1, got %d", limit)
	}
	return &Governor{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}, nil
}

// Limit returns the configured concurrency limit.
func (g *Governor) Limit() int {
	return int(g.limit)
}

// Do runs fn while holding one slot, blocking until a slot frees up or ctx
// is cancelled.
func (g *Governor) Do(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}
