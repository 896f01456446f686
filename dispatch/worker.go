// Package dispatch hands minimized, canonicalized search jobs to an
// isolated search worker and manages the worker's lifecycle: start, await,
// release.
//
// The boundary is message-based: exactly one encoded request in, exactly
// one encoded response (or a failure) out. Payloads are serialized on the
// way across, so dispatcher and worker never share memory by reference.
package dispatch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hupe1980/setforge/codec"
	"github.com/hupe1980/setforge/model"
)

// ErrWorkerClosed is returned when a worker is used after Close.
var ErrWorkerClosed = errors.New("worker closed")

// Worker is the isolated search process boundary.
//
// Process receives the encoded job request and blocks until the encoded
// response is available or the context is canceled. It is called exactly
// once per worker. Close terminates the worker and reclaims its resources;
// it must be safe to call after Process has returned.
type Worker interface {
	Process(ctx context.Context, request []byte) (response []byte, err error)
	Close() error
}

// Factory creates a fresh worker for one dispatch. The dispatcher closes
// the worker when the job's handle is released.
type Factory func() (Worker, error)

// SearchFunc is the pluggable search strategy run inside a Runner worker.
// It receives its own decoded copy of the job spec and must not retain it
// past return.
type SearchFunc func(ctx context.Context, spec *model.SearchJobSpec) (*model.SearchResult, error)

// Runner is an in-process Worker that executes a SearchFunc in its own
// goroutine. Isolation from the caller is enforced by the payload
// round-trip: the runner decodes its private copy of the spec and encodes
// the result back to bytes, so no references cross the boundary.
type Runner struct {
	search      SearchFunc
	codec       codec.Codec
	compression codec.Compression
	closed      atomic.Bool
	done        chan struct{}
}

// NewRunnerFactory returns a Factory producing Runner workers around the
// given search strategy.
func NewRunnerFactory(search SearchFunc, c codec.Codec, compression codec.Compression) Factory {
	if c == nil {
		c = codec.Default
	}
	return func() (Worker, error) {
		if search == nil {
			return nil, errors.New("nil search func")
		}
		return &Runner{
			search:      search,
			codec:       c,
			compression: compression,
			done:        make(chan struct{}),
		}, nil
	}
}

type runnerReply struct {
	payload []byte
	err     error
}

// Process implements Worker.
func (r *Runner) Process(ctx context.Context, request []byte) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrWorkerClosed
	}

	// Canceling ctx on exit tears the search goroutine down whether we
	// return through a reply, caller cancellation, or Close.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replyCh := make(chan runnerReply, 1)
	go func() {
		replyCh <- r.run(ctx, request)
	}()

	select {
	case reply := <-replyCh:
		return reply.payload, reply.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return nil, ErrWorkerClosed
	}
}

func (r *Runner) run(ctx context.Context, request []byte) runnerReply {
	raw, err := r.compression.Decompress(request)
	if err != nil {
		return runnerReply{err: err}
	}

	// Decode into a private copy; nothing from the dispatcher side is
	// referenced after this point.
	var spec model.SearchJobSpec
	if err := r.codec.Unmarshal(raw, &spec); err != nil {
		return runnerReply{err: err}
	}

	result, err := r.search(ctx, &spec)
	if err != nil {
		return runnerReply{err: err}
	}

	encoded, err := r.codec.Marshal(result)
	if err != nil {
		return runnerReply{err: err}
	}
	compressed, err := r.compression.Compress(encoded)
	if err != nil {
		return runnerReply{err: err}
	}
	return runnerReply{payload: compressed}
}

// Close implements Worker. It is safe to call more than once and after
// Process has returned.
func (r *Runner) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.done)
	return nil
}
