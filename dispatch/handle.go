package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/setforge/model"
)

// ErrReleased is the settlement error of a job whose handle was released
// before the worker finished. Release is a normal, expected outcome, not a
// failure, but the future still settles so callers never await forever.
var ErrReleased = errors.New("search job released before completion")

// Handle owns one dispatched search job: the worker reference, the
// single-settlement result future, and the release guard.
type Handle struct {
	worker Worker
	cancel context.CancelFunc

	done   chan struct{}
	settle sync.Once
	result *model.SearchResult
	err    error

	released  atomic.Bool
	onRelease func()
}

// resolve settles the future exactly once. Later calls are no-ops.
func (h *Handle) resolve(result *model.SearchResult, err error) {
	h.settle.Do(func() {
		h.result = result
		h.err = err
		close(h.done)
	})
}

// Done returns a channel closed when the future settles.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Await blocks until the job settles or ctx is canceled.
//
// On success it returns the raw, unhydrated SearchResult. A released job
// returns ErrReleased; a failed worker returns the failure. Await may be
// called any number of times and always observes the same settlement.
func (h *Handle) Await(ctx context.Context) (*model.SearchResult, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release terminates the worker and reclaims its resources.
//
// It is idempotent: the first call cancels the worker context, settles the
// future with ErrReleased if it has not already settled, closes the worker,
// and frees the dispatcher's job slot; every later call is a no-op. Release
// must be called exactly once per dispatch regardless of outcome; a leaked
// worker is a correctness bug.
func (h *Handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}

	h.cancel()
	h.resolve(nil, ErrReleased)
	_ = h.worker.Close()

	if h.onRelease != nil {
		h.onRelease()
	}
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h.released.Load()
}
