package setforge

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/setforge/archive"
	"github.com/hupe1980/setforge/cache"
	"github.com/hupe1980/setforge/codec"
	"github.com/hupe1980/setforge/dispatch"
	"github.com/hupe1980/setforge/group"
	"github.com/hupe1980/setforge/hydrate"
	"github.com/hupe1980/setforge/model"
	"github.com/hupe1980/setforge/normalize"
	"github.com/hupe1980/setforge/prune"
	"github.com/hupe1980/setforge/rank"
	"github.com/hupe1980/setforge/resource"
)

// Input is one optimization request: the raw item pool plus the resolved
// search settings. It is not mutated by the optimizer.
type Input struct {
	Items       []*model.RawItem
	Rules       model.EnergyRules
	Constraints []model.StatConstraint
	Weights     map[model.StatID]float64

	GeneralMods  []model.ModDef
	ActivityMods []model.ModDef
	AutoMods     model.AutoModConfig

	ExoticLocked   bool
	StrictUpgrades bool
	StopOnFirstSet bool

	// TopK limits how many ranked sets a result carries. 0 keeps all.
	TopK int
}

// Reduction is the minimized form of an input pool: the pruned canonical
// survivors, their equivalence groups, and the representative index used
// later for hydration.
type Reduction struct {
	Canonical []model.CanonicalItem
	Groups    []model.EquivalenceGroup
	Index     group.Index
}

// Result is a settled, hydrated optimization outcome.
type Result struct {
	Sets  []model.HydratedSet
	Stats model.SearchStats
}

// Optimizer ties the reduction pipeline and the search dispatcher
// together. One optimizer allows one search job in flight at a time;
// release (or await) the previous job before dispatching the next.
type Optimizer struct {
	opts       options
	dispatcher *dispatch.Dispatcher
	reductions *cache.Cache[uint64, *Reduction]
	jobSeq     atomic.Uint64
}

// New creates an Optimizer around the given search strategy.
//
// search runs inside an in-process worker with payloads copied across the
// boundary; use WithWorkerFactory to substitute an out-of-process worker,
// in which case search may be nil.
func New(search dispatch.SearchFunc, opt ...Option) (*Optimizer, error) {
	opts := options{
		codec:            codec.Default,
		compression:      codec.CompressionLZ4,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range opt {
		fn(&opts)
	}

	factory := opts.workerFactory
	if factory == nil {
		if search == nil {
			return nil, errors.New("no search func and no worker factory")
		}
		factory = dispatch.NewRunnerFactory(search, opts.codec, opts.compression)
	}

	o := &Optimizer{
		opts: opts,
		dispatcher: dispatch.NewDispatcher(
			factory,
			opts.codec,
			opts.compression,
			resource.NewController(opts.resourceConfig),
		),
	}

	if opts.reduceCacheSize > 0 {
		reductions, err := cache.New[uint64, *Reduction](opts.reduceCacheSize)
		if err != nil {
			return nil, err
		}
		o.reductions = reductions
	}

	return o, nil
}

// Reduce runs the synchronous pipeline stage: normalize, prune, group.
//
// The stage is pure and side-effect-free, so it is safe to call repeatedly
// and concurrently on independent inputs. With a reduce cache configured,
// identical inputs are served from memory.
func (o *Optimizer) Reduce(ctx context.Context, input *Input) (*Reduction, error) {
	var key uint64
	if o.reductions != nil {
		key = fingerprint(input)
		if red, ok := o.reductions.Get(key); ok {
			return red, nil
		}
	}

	started := time.Now()
	red, err := o.reduce(ctx, input)
	o.opts.metricsCollector.RecordReduce(len(input.Items), survivors(red), groupCount(red), time.Since(started), err)
	o.opts.logger.LogReduce(ctx, len(input.Items), survivors(red), groupCount(red), err)
	if err != nil {
		return nil, translateError(err)
	}

	if o.reductions != nil {
		o.reductions.Set(key, red)
	}
	return red, nil
}

func (o *Optimizer) reduce(ctx context.Context, input *Input) (*Reduction, error) {
	normalizer := normalize.New(input.Rules, input.Constraints, o.opts.tagLookup)
	canonical, err := normalizer.NormalizeAll(input.Items)
	if err != nil {
		return nil, err
	}

	pruned, err := prune.Prune(ctx, canonical)
	if err != nil {
		return nil, err
	}

	source := make(map[model.ItemID]*model.RawItem, len(input.Items))
	for _, item := range input.Items {
		source[item.ID] = item
	}

	groups, idx, err := group.Group(pruned, source)
	if err != nil {
		return nil, err
	}

	return &Reduction{
		Canonical: pruned,
		Groups:    groups,
		Index:     idx,
	}, nil
}

// JobSpec builds the immutable search job spec from a reduction: one
// canonical representative per group, bucketed by slot.
func (o *Optimizer) JobSpec(input *Input, red *Reduction) *model.SearchJobSpec {
	items := make(map[model.SlotID][]model.CanonicalItem)
	for _, g := range red.Groups {
		rep := g.Representative
		items[rep.Slot] = append(items[rep.Slot], rep)
	}

	return &model.SearchJobSpec{
		Items:          items,
		StatWeights:    input.Weights,
		Constraints:    input.Constraints,
		GeneralMods:    input.GeneralMods,
		ActivityMods:   input.ActivityMods,
		AutoMods:       input.AutoMods,
		ExoticLocked:   input.ExoticLocked,
		StrictUpgrades: input.StrictUpgrades,
		StopOnFirstSet: input.StopOnFirstSet,
	}
}

// Job is one dispatched search: a release handle plus a future resolving
// to the hydrated result.
type Job struct {
	ID string

	opt       *Optimizer
	input     *Input
	reduction *Reduction
	spec      *model.SearchJobSpec
	handle    *dispatch.Handle

	settle sync.Once
	result *Result
	err    error
}

// Dispatch reduces (if needed) and hands the minimized job to an isolated
// search worker. The returned job must be released exactly once, no matter
// how it settles; Optimize does this automatically.
func (o *Optimizer) Dispatch(ctx context.Context, input *Input, red *Reduction) (*Job, error) {
	spec := o.JobSpec(input, red)
	jobID := fmt.Sprintf("job-%d", o.jobSeq.Add(1))

	handle, err := o.dispatcher.Dispatch(ctx, spec)
	o.opts.logger.LogDispatch(ctx, jobID, len(spec.Items), err)
	if err != nil {
		return nil, translateError(err)
	}

	return &Job{
		ID:        jobID,
		opt:       o,
		input:     input,
		reduction: red,
		spec:      spec,
		handle:    handle,
	}, nil
}

// Await blocks until the job settles, then hydrates and ranks the result.
//
// The settlement is computed once; later calls return the same outcome.
// Awaiting a released job returns ErrReleased.
func (j *Job) Await(ctx context.Context) (*Result, error) {
	raw, err := j.handle.Await(ctx)
	if err != nil && errors.Is(err, ctx.Err()) {
		// The caller's wait timed out; the job itself has not settled.
		return nil, err
	}

	j.settle.Do(func() {
		j.result, j.err = j.opt.settle(ctx, j, raw, err)
	})
	return j.result, j.err
}

// Release terminates the search worker and reclaims its resources.
// Idempotent; settles the future with ErrReleased if the worker had not
// finished.
func (j *Job) Release() {
	j.handle.Release()
}

// Done returns a channel closed when the underlying search settles.
func (j *Job) Done() <-chan struct{} {
	return j.handle.Done()
}

func (o *Optimizer) settle(ctx context.Context, j *Job, raw *model.SearchResult, err error) (*Result, error) {
	if err != nil {
		o.opts.metricsCollector.RecordDispatch(0, 0, err)
		o.opts.logger.LogResult(ctx, j.ID, 0, 0, err)
		o.record(ctx, j, nil, err)
		return nil, translateError(err)
	}

	o.opts.metricsCollector.RecordDispatch(len(raw.Sets), raw.Stats.Elapsed, nil)
	o.opts.logger.LogResult(ctx, j.ID, len(raw.Sets), raw.Stats.Elapsed, nil)
	o.record(ctx, j, raw, nil)

	started := time.Now()
	sets, err := hydrate.Hydrate(raw, j.reduction.Index)
	o.opts.metricsCollector.RecordHydrate(len(sets), time.Since(started), err)
	o.opts.logger.LogHydrate(ctx, len(sets), err)
	if err != nil {
		return nil, translateError(err)
	}

	if j.input.TopK > 0 {
		sets = rank.TopK(sets, j.input.Constraints, j.input.Weights, j.input.TopK)
	}

	return &Result{Sets: sets, Stats: raw.Stats}, nil
}

// record archives the job outcome when an archive is configured. Archive
// failures are logged and swallowed; diagnostics must never fail a search.
func (o *Optimizer) record(ctx context.Context, j *Job, raw *model.SearchResult, jobErr error) {
	if o.opts.archive == nil {
		return
	}

	rec := &archive.Record{
		Spec:      j.spec,
		Result:    raw,
		CreatedAt: time.Now().UTC(),
	}
	if jobErr != nil {
		rec.Error = jobErr.Error()
	}

	err := o.opts.archive.Save(ctx, j.ID, rec)
	o.opts.logger.LogArchive(ctx, j.ID, err)
}

// Optimize runs the full flow: reduce, dispatch, await, hydrate, rank.
// The job is always released before return.
func (o *Optimizer) Optimize(ctx context.Context, input *Input) (*Result, error) {
	red, err := o.Reduce(ctx, input)
	if err != nil {
		return nil, err
	}

	job, err := o.Dispatch(ctx, input, red)
	if err != nil {
		return nil, err
	}
	defer job.Release()

	return job.Await(ctx)
}

func survivors(red *Reduction) int {
	if red == nil {
		return 0
	}
	return len(red.Canonical)
}

func groupCount(red *Reduction) int {
	if red == nil {
		return 0
	}
	return len(red.Groups)
}

// fingerprint hashes everything that can influence a reduction: items with
// their comparison and tie-break attributes, energy rules, and the
// constraint list. Weights and mods are search-side settings and do not
// affect reduction.
func fingerprint(input *Input) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf, v)
		h.Write(buf)
	}
	writeBool := func(v bool) {
		if v {
			writeU64(1)
		} else {
			writeU64(0)
		}
	}

	writeBool(input.Rules.AssumeUpgraded)
	writeU64(uint64(input.Rules.UpgradedCapacity))
	writeU64(uint64(input.Rules.UpgradeStatBonus))

	writeU64(uint64(len(input.Constraints)))
	for _, c := range input.Constraints {
		writeU64(uint64(c.Stat))
		writeU64(uint64(c.MinTier))
		writeU64(uint64(c.MaxTier))
		writeBool(c.Ignored)
	}

	writeU64(uint64(len(input.Items)))
	for _, item := range input.Items {
		writeU64(uint64(item.ID))
		writeU64(uint64(item.Hash))
		writeU64(uint64(item.Slot))
		writeBool(item.Exotic)
		writeBool(item.Artifice)
		writeU64(uint64(item.EnergyCapacity))
		writeBool(item.Owned)
		writeBool(item.Favorite)
		writeU64(uint64(item.Power))
		writeBool(item.Equipped)

		stats := make([]model.StatID, 0, len(item.Stats))
		for stat := range item.Stats {
			stats = append(stats, stat)
		}
		sort.Slice(stats, func(i, j int) bool { return stats[i] < stats[j] })
		for _, stat := range stats {
			writeU64(uint64(stat))
			writeU64(uint64(item.Stats[stat]))
		}
	}

	return h.Sum64()
}
