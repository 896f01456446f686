package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/setforge/codec"
	"github.com/hupe1980/setforge/model"
	"github.com/hupe1980/setforge/resource"
)

var (
	// ErrJobInFlight is returned when Dispatch is called while a prior job
	// of this dispatcher has not been released. The dispatcher never
	// queues implicitly; sequencing is the caller's responsibility.
	ErrJobInFlight = errors.New("a search job is already in flight")

	// ErrNilSpec is returned when Dispatch is called without a job spec.
	ErrNilSpec = errors.New("nil search job spec")
)

// ErrWorkerFailed wraps a failure of the isolated search worker.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrWorkerFailed struct {
	cause error
}

func (e *ErrWorkerFailed) Error() string {
	return fmt.Sprintf("search worker failed: %v", e.cause)
}

func (e *ErrWorkerFailed) Unwrap() error { return e.cause }

// Dispatcher packages minimized job specs, hands them to isolated search
// workers, and tracks the single job allowed in flight at a time.
//
// The dispatcher holds no job state beyond the in-flight flag; everything
// about a running job lives on its Handle.
type Dispatcher struct {
	factory     Factory
	codec       codec.Codec
	compression codec.Compression
	ctrl        *resource.Controller
	inFlight    atomic.Bool
}

// NewDispatcher creates a Dispatcher.
//
// factory produces one worker per dispatch. ctrl may be nil, in which case
// admission is unlimited. A nil codec falls back to codec.Default.
func NewDispatcher(factory Factory, c codec.Codec, compression codec.Compression, ctrl *resource.Controller) *Dispatcher {
	if c == nil {
		c = codec.Default
	}
	return &Dispatcher{
		factory:     factory,
		codec:       c,
		compression: compression,
		ctrl:        ctrl,
	}
}

// Dispatch encodes the job spec, acquires a worker, sends the payload once,
// and returns a handle whose future settles exactly once.
//
// The payload is serialized before handoff, so the worker operates on its
// own copy of the spec; mutating the spec after Dispatch has no effect on
// the running search. Only one job may be in flight per dispatcher; release
// the previous handle before dispatching again.
func (d *Dispatcher) Dispatch(ctx context.Context, spec *model.SearchJobSpec) (*Handle, error) {
	if spec == nil {
		return nil, ErrNilSpec
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return nil, ErrJobInFlight
	}

	handle, err := d.start(ctx, spec)
	if err != nil {
		d.inFlight.Store(false)
		return nil, err
	}
	return handle, nil
}

func (d *Dispatcher) start(ctx context.Context, spec *model.SearchJobSpec) (*Handle, error) {
	encoded, err := d.codec.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encode job spec: %w", err)
	}
	payload, err := d.compression.Compress(encoded)
	if err != nil {
		return nil, fmt.Errorf("compress job payload: %w", err)
	}

	if err := d.ctrl.AcquireJob(ctx); err != nil {
		return nil, err
	}

	worker, err := d.factory()
	if err != nil {
		d.ctrl.ReleaseJob()
		return nil, fmt.Errorf("acquire worker: %w", err)
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &Handle{
		worker: worker,
		cancel: cancel,
		done:   make(chan struct{}),
		onRelease: func() {
			d.ctrl.ReleaseJob()
			d.inFlight.Store(false)
		},
	}

	started := time.Now()
	go func() {
		response, err := worker.Process(workerCtx, payload)
		if err != nil {
			h.resolve(nil, &ErrWorkerFailed{cause: err})
			return
		}

		result, err := d.decode(response)
		if err != nil {
			h.resolve(nil, &ErrWorkerFailed{cause: err})
			return
		}
		result.Stats.Elapsed = time.Since(started)
		h.resolve(result, nil)
	}()

	return h, nil
}

func (d *Dispatcher) decode(response []byte) (*model.SearchResult, error) {
	raw, err := d.compression.Decompress(response)
	if err != nil {
		return nil, fmt.Errorf("decompress result payload: %w", err)
	}
	var result model.SearchResult
	if err := d.codec.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result payload: %w", err)
	}
	return &result, nil
}
