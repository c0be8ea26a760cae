package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/calderos/moodlens/internal/models"
)

// ResultTracker hands out a generation token per analysis request and keeps
// the most recent committed result. A slow stale analysis can never overwrite
// a newer one's result: commits carrying an outdated token are dropped.
type ResultTracker struct {
	gen atomic.Uint64

	mu        sync.Mutex
	latestGen uint64
	latest    models.SentimentResult
	hasResult bool
}

func NewResultTracker() *ResultTracker {
	return &ResultTracker{}
}

// Begin registers a new request and returns its generation token. Any earlier
// token becomes stale immediately.
func (t *ResultTracker) Begin() uint64 {
	return t.gen.Add(1)
}

// Commit stores res as the latest result unless a newer request has begun or
// committed since gen was handed out. Reports whether the result was kept.
func (t *ResultTracker) Commit(gen uint64, res models.SentimentResult) bool {
	if gen != t.gen.Load() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen < t.latestGen {
		return false
	}
	t.latestGen = gen
	t.latest = res
	t.hasResult = true
	return true
}

// Latest returns the most recent committed result, if any.
func (t *ResultTracker) Latest() (models.SentimentResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.hasResult
}
