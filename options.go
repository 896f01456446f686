package setforge

import (
	"github.com/hupe1980/setforge/archive"
	"github.com/hupe1980/setforge/codec"
	"github.com/hupe1980/setforge/dispatch"
	"github.com/hupe1980/setforge/normalize"
	"github.com/hupe1980/setforge/resource"
)

type options struct {
	codec            codec.Codec
	compression      codec.Compression
	logger           *Logger
	metricsCollector MetricsCollector
	tagLookup        normalize.TagLookup
	reduceCacheSize  int
	archive          *archive.Archive
	resourceConfig   resource.Config
	workerFactory    dispatch.Factory
}

// Option configures Optimizer constructor behavior.
type Option func(*options)

// WithCodec configures the codec used for the worker-boundary payload and
// archive records.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the block compression of the worker-boundary
// payload. Default is LZ4.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger configures structured logging. Default is NoopLogger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsCollector configures operational metrics collection.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(o *options) {
		if collector != nil {
			o.metricsCollector = collector
		}
	}
}

// WithTagLookup configures the optional mod-tag resolver used by the
// normalizer. Without it, every item normalizes with an empty tag set and
// tag support never influences dominance or grouping.
func WithTagLookup(lookup normalize.TagLookup) Option {
	return func(o *options) {
		o.tagLookup = lookup
	}
}

// WithReduceCacheSize enables LRU memoization of reduction output, keyed by
// an input fingerprint. size <= 0 disables caching (the default).
func WithReduceCacheSize(size int) Option {
	return func(o *options) {
		o.reduceCacheSize = size
	}
}

// WithArchive enables diagnostic recording of dispatched jobs and their
// outcomes. Archive failures are logged, never surfaced to the caller.
func WithArchive(a *archive.Archive) Option {
	return func(o *options) {
		o.archive = a
	}
}

// WithResourceConfig configures dispatch admission limits (max concurrent
// workers, dispatch rate).
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = cfg
	}
}

// WithWorkerFactory replaces the in-process Runner with a custom worker
// implementation, e.g. an out-of-process search binary. When set, the
// search function passed to New is ignored.
func WithWorkerFactory(factory dispatch.Factory) Option {
	return func(o *options) {
		o.workerFactory = factory
	}
}
