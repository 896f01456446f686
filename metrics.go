package setforge

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordReduce is called after each reduction pass.
	// items is the raw input size, pruned the survivor count, groups the
	// number of equivalence groups; err is nil if successful.
	RecordReduce(items, pruned, groups int, duration time.Duration, err error)

	// RecordDispatch is called when a search job settles.
	// sets is the number of found sets; err is nil on success.
	RecordDispatch(sets int, duration time.Duration, err error)

	// RecordHydrate is called after each hydration pass.
	RecordHydrate(sets int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordReduce(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDispatch(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordHydrate(int, time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ReduceCount        atomic.Int64
	ReduceErrors       atomic.Int64
	ReduceItems        atomic.Int64
	ReduceSurvivors    atomic.Int64
	ReduceGroups       atomic.Int64
	DispatchCount      atomic.Int64
	DispatchErrors     atomic.Int64
	DispatchSets       atomic.Int64
	DispatchTotalNanos atomic.Int64
	HydrateCount       atomic.Int64
	HydrateErrors      atomic.Int64
}

// RecordReduce implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReduce(items, pruned, groups int, duration time.Duration, err error) {
	b.ReduceCount.Add(1)
	b.ReduceItems.Add(int64(items))
	if err != nil {
		b.ReduceErrors.Add(1)
		return
	}
	b.ReduceSurvivors.Add(int64(pruned))
	b.ReduceGroups.Add(int64(groups))
}

// RecordDispatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDispatch(sets int, duration time.Duration, err error) {
	b.DispatchCount.Add(1)
	b.DispatchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DispatchErrors.Add(1)
		return
	}
	b.DispatchSets.Add(int64(sets))
}

// RecordHydrate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHydrate(sets int, duration time.Duration, err error) {
	b.HydrateCount.Add(1)
	if err != nil {
		b.HydrateErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ReduceCount:      b.ReduceCount.Load(),
		ReduceErrors:     b.ReduceErrors.Load(),
		ReduceItems:      b.ReduceItems.Load(),
		ReduceSurvivors:  b.ReduceSurvivors.Load(),
		ReduceGroups:     b.ReduceGroups.Load(),
		DispatchCount:    b.DispatchCount.Load(),
		DispatchErrors:   b.DispatchErrors.Load(),
		DispatchSets:     b.DispatchSets.Load(),
		DispatchAvgNanos: b.getAvgDispatchNanos(),
		HydrateCount:     b.HydrateCount.Load(),
		HydrateErrors:    b.HydrateErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgDispatchNanos() int64 {
	count := b.DispatchCount.Load()
	if count == 0 {
		return 0
	}
	return b.DispatchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ReduceCount      int64
	ReduceErrors     int64
	ReduceItems      int64
	ReduceSurvivors  int64
	ReduceGroups     int64
	DispatchCount    int64
	DispatchErrors   int64
	DispatchSets     int64
	DispatchAvgNanos int64
	HydrateCount     int64
	HydrateErrors    int64
}
