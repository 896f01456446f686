package setforge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/setforge/archive"
	"github.com/hupe1980/setforge/codec"
	"github.com/hupe1980/setforge/dispatch"
	"github.com/hupe1980/setforge/model"
)

const (
	slotHelmet model.SlotID = 1
	slotLegs   model.SlotID = 2
)

const (
	statMobility model.StatID = 1
	statRecovery model.StatID = 2
)

func testConstraints() []model.StatConstraint {
	return []model.StatConstraint{
		{Stat: statMobility, MinTier: 0, MaxTier: model.MaxTier},
		{Stat: statRecovery, MinTier: 0, MaxTier: model.MaxTier},
	}
}

func testItems() []*model.RawItem {
	stats := func(mob, rec int) map[model.StatID]int {
		return map[model.StatID]int{statMobility: mob, statRecovery: rec}
	}
	return []*model.RawItem{
		// Owned and vendor copies of the same helmet roll: merge into one
		// group with the owned copy as representative.
		{ID: 1, Hash: 100, Slot: slotHelmet, EnergyCapacity: 10, Stats: stats(10, 10), Owned: true, Equipped: true},
		{ID: 2, Hash: 100, Slot: slotHelmet, EnergyCapacity: 10, Stats: stats(10, 10)},
		// Strictly worse helmet: pruned before the search ever runs.
		{ID: 3, Hash: 101, Slot: slotHelmet, EnergyCapacity: 10, Stats: stats(9, 10), Owned: true},
		// Leg armor pool.
		{ID: 4, Hash: 200, Slot: slotLegs, EnergyCapacity: 10, Stats: stats(8, 12), Owned: true},
	}
}

func testInput() *Input {
	return &Input{
		Items:       testItems(),
		Rules:       model.DefaultEnergyRules(),
		Constraints: testConstraints(),
		Weights:     map[model.StatID]float64{statMobility: 1, statRecovery: 1},
	}
}

// pickFirst returns a single set made of the first item of every slot.
func pickFirst(_ context.Context, spec *model.SearchJobSpec) (*model.SearchResult, error) {
	set := model.FoundSet{Items: make(map[model.SlotID]model.ItemID)}
	for slot, items := range spec.Items {
		set.Items[slot] = items[0].ID
	}
	return &model.SearchResult{
		Sets:  []model.FoundSet{set},
		Stats: model.SearchStats{Combinations: 1, Exhausted: true},
	}, nil
}

func TestReduce(t *testing.T) {
	opt, err := New(pickFirst)
	require.NoError(t, err)

	red, err := opt.Reduce(context.Background(), testInput())
	require.NoError(t, err)

	// Item 3 is dominated; items 1 and 2 merge into one group.
	assert.Len(t, red.Canonical, 3)
	require.Len(t, red.Groups, 2)

	helmetGroup := red.Groups[0]
	require.Len(t, helmetGroup.Members, 2)
	assert.Equal(t, model.ItemID(1), helmetGroup.Representative.ID)
}

func TestReduceMissingSlotIsPrecondition(t *testing.T) {
	opt, err := New(pickFirst)
	require.NoError(t, err)

	input := testInput()
	input.Items[0].Slot = 0

	_, err = opt.Reduce(context.Background(), input)
	assert.ErrorIs(t, err, ErrPreconditionViolated)
}

func TestJobSpecUsesRepresentativesOnly(t *testing.T) {
	opt, err := New(pickFirst)
	require.NoError(t, err)

	input := testInput()
	red, err := opt.Reduce(context.Background(), input)
	require.NoError(t, err)

	spec := opt.JobSpec(input, red)
	require.Len(t, spec.Items[slotHelmet], 1)
	require.Len(t, spec.Items[slotLegs], 1)
	assert.Equal(t, model.ItemID(1), spec.Items[slotHelmet][0].ID)
}

func TestOptimizeEndToEnd(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	opt, err := New(pickFirst, WithMetricsCollector(metrics))
	require.NoError(t, err)

	result, err := opt.Optimize(context.Background(), testInput())
	require.NoError(t, err)
	require.Len(t, result.Sets, 1)

	helmet := result.Sets[0].Items[slotHelmet]
	assert.Equal(t, model.ItemID(1), helmet.Representative.ID)

	// The vendor copy comes back as a swap alternative
	require.Len(t, helmet.Alternatives, 1)
	assert.Equal(t, model.ItemID(2), helmet.Alternatives[0].ID)

	legs := result.Sets[0].Items[slotLegs]
	assert.Equal(t, model.ItemID(4), legs.Representative.ID)
	assert.Empty(t, legs.Alternatives)

	assert.True(t, result.Stats.Exhausted)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.ReduceCount)
	assert.Equal(t, int64(1), stats.DispatchCount)
	assert.Equal(t, int64(1), stats.HydrateCount)
}

func TestOptimizeWorkerFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := func(context.Context, *model.SearchJobSpec) (*model.SearchResult, error) {
		return nil, boom
	}

	opt, err := New(failing)
	require.NoError(t, err)

	_, err = opt.Optimize(context.Background(), testInput())
	var wf *dispatch.ErrWorkerFailed
	assert.ErrorAs(t, err, &wf)

	// The job slot is reclaimed; a fresh dispatch works
	_, err = opt.Optimize(context.Background(), testInput())
	assert.ErrorAs(t, err, &wf)
}

func TestJobReleaseSettlesFuture(t *testing.T) {
	blocking := func(ctx context.Context, _ *model.SearchJobSpec) (*model.SearchResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	opt, err := New(blocking)
	require.NoError(t, err)

	input := testInput()
	red, err := opt.Reduce(context.Background(), input)
	require.NoError(t, err)

	job, err := opt.Dispatch(context.Background(), input, red)
	require.NoError(t, err)

	job.Release()
	_, err = job.Await(context.Background())
	assert.ErrorIs(t, err, ErrReleased)

	// Release is idempotent at the job level too
	job.Release()
}

func TestSingleJobPerOptimizer(t *testing.T) {
	blocking := func(ctx context.Context, _ *model.SearchJobSpec) (*model.SearchResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	opt, err := New(blocking)
	require.NoError(t, err)

	input := testInput()
	red, err := opt.Reduce(context.Background(), input)
	require.NoError(t, err)

	job, err := opt.Dispatch(context.Background(), input, red)
	require.NoError(t, err)

	_, err = opt.Dispatch(context.Background(), input, red)
	assert.ErrorIs(t, err, ErrJobInFlight)

	job.Release()
}

func TestReduceCache(t *testing.T) {
	opt, err := New(pickFirst, WithReduceCacheSize(8))
	require.NoError(t, err)

	input := testInput()
	first, err := opt.Reduce(context.Background(), input)
	require.NoError(t, err)

	second, err := opt.Reduce(context.Background(), input)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// A different pool misses the cache
	changed := testInput()
	changed.Items[0].Stats[statMobility] = 5
	third, err := opt.Reduce(context.Background(), changed)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestOptimizeTopK(t *testing.T) {
	multi := func(_ context.Context, spec *model.SearchJobSpec) (*model.SearchResult, error) {
		// Emit one single-slot set per helmet candidate
		var sets []model.FoundSet
		for _, item := range spec.Items[slotHelmet] {
			sets = append(sets, model.FoundSet{
				Items: map[model.SlotID]model.ItemID{slotHelmet: item.ID},
			})
		}
		return &model.SearchResult{Sets: sets}, nil
	}

	opt, err := New(multi)
	require.NoError(t, err)

	input := testInput()
	input.TopK = 1
	// Remove the dominated helmet's dominator relationship by using
	// distinct pools per slot; TopK just trims the ranked output.
	result, err := opt.Optimize(context.Background(), input)
	require.NoError(t, err)
	assert.Len(t, result.Sets, 1)
}

func TestOptimizeArchivesJobs(t *testing.T) {
	store := archive.NewMemoryStore()
	a := archive.New(store, codec.GoJSON{}, codec.CompressionZstd)

	opt, err := New(pickFirst, WithArchive(a))
	require.NoError(t, err)

	_, err = opt.Optimize(context.Background(), testInput())
	require.NoError(t, err)

	names, err := a.List(context.Background())
	require.NoError(t, err)
	require.Len(t, names, 1)

	rec, err := a.Load(context.Background(), names[0])
	require.NoError(t, err)
	assert.NotNil(t, rec.Spec)
	require.NotNil(t, rec.Result)
	assert.Len(t, rec.Result.Sets, 1)
	assert.Empty(t, rec.Error)
}
