// Package pipeline runs the page analysis flow for uploaded documents:
// per-page processing, batched document runs, progress tracking and the
// completion summary.
package pipeline

import (
	"sync"
	"time"

	"github.com/Lllllllleong/brandscan/internal/models"
)

// Tracker holds in-memory progress for documents currently being
// processed. Entries live only for the duration of a run; durable state
// belongs to the store.
type Tracker struct {
	mu     sync.Mutex
	active map[string]*trackedProcess
}

type trackedProcess struct {
	process   models.ActiveProcess
	cancelled bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]*trackedProcess)}
}

// Start registers a document run. Starting an already tracked document
// resets its record.
func (t *Tracker) Start(documentID string, totalPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[documentID] = &trackedProcess{
		process: models.ActiveProcess{
			DocumentID: documentID,
			StartTime:  time.Now().UTC(),
			TotalPages: totalPages,
		},
	}
}

// PageDone records one resolved page. Failed pages count toward both
// processed and failed.
func (t *Tracker) PageDone(documentID string, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tp, ok := t.active[documentID]
	if !ok {
		return
	}
	tp.process.ProcessedPages++
	if failed {
		tp.process.FailedPages++
	}
}

// SetBatch records the 1-based batch currently in flight.
func (t *Tracker) SetBatch(documentID string, batch int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tp, ok := t.active[documentID]; ok {
		tp.process.CurrentBatch = batch
	}
}

// Cancel flags a tracked run for cancellation. Reports whether the
// document was being tracked at all.
func (t *Tracker) Cancel(documentID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tp, ok := t.active[documentID]
	if !ok {
		return false
	}
	tp.cancelled = true
	return true
}

// IsCancelled reports whether a run has been flagged for cancellation.
func (t *Tracker) IsCancelled(documentID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tp, ok := t.active[documentID]
	return ok && tp.cancelled
}

// Remove drops a finished run from the tracker.
func (t *Tracker) Remove(documentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, documentID)
}

// Snapshot returns copies of all tracked runs, ordered by start time.
func (t *Tracker) Snapshot() []models.ActiveProcess {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.ActiveProcess, 0, len(t.active))
	for _, tp := range t.active {
		out = append(out, tp.process)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartTime.Before(out[j-1].StartTime); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Get returns a copy of a single tracked run.
func (t *Tracker) Get(documentID string) (models.ActiveProcess, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tp, ok := t.active[documentID]
	if !ok {
		return models.ActiveProcess{}, false
	}
	return tp.process, true
}
