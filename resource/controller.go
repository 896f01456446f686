// Package resource provides admission control for search dispatches.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds dispatch admission limits.
type Config struct {
	// MaxConcurrentJobs is the maximum number of search workers alive at
	// once across dispatcher instances sharing this controller.
	// If 0, defaults to 1.
	MaxConcurrentJobs int64

	// DispatchesPerSec limits how often new jobs may be admitted.
	// If 0, unlimited.
	DispatchesPerSec float64
}

// Controller gates worker acquisition. A dispatcher acquires a job slot
// before spawning a worker and releases it when the worker is reclaimed, so
// a burst of redispatches cannot pile up isolated processes.
type Controller struct {
	jobSem  *semaphore.Weighted
	limiter *rate.Limiter
}

// NewController creates a new admission controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
	}

	c := &Controller{
		jobSem: semaphore.NewWeighted(cfg.MaxConcurrentJobs),
	}

	if cfg.DispatchesPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.DispatchesPerSec), 1)
	}

	return c
}

// AcquireJob blocks until a job slot is available or ctx is canceled.
// A nil controller admits everything.
func (c *Controller) AcquireJob(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return c.jobSem.Acquire(ctx, 1)
}

// ReleaseJob returns a job slot. Must be called exactly once per
// successful AcquireJob.
func (c *Controller) ReleaseJob() {
	if c == nil {
		return
	}
	c.jobSem.Release(1)
}
