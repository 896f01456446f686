package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/setforge/model"
)

var constraints = []model.StatConstraint{
	{Stat: 1, MinTier: 0, MaxTier: model.MaxTier},
	{Stat: 2, MinTier: 0, MaxTier: model.MaxTier},
}

var weights = map[model.StatID]float64{1: 1.0, 2: 0.5}

func set(id model.ItemID, stats ...int) model.HydratedSet {
	return model.HydratedSet{
		Items: map[model.SlotID]model.SlotChoice{
			1: {Canonical: model.CanonicalItem{ID: id, Slot: 1, Stats: stats}},
		},
	}
}

func firstID(s model.HydratedSet) model.ItemID {
	return s.Items[1].Canonical.ID
}

func TestScore(t *testing.T) {
	s := set(1, 10, 8)
	assert.InDelta(t, 14.0, Score(s, constraints, weights), 1e-9)

	// Ignored constraints contribute nothing
	ignored := []model.StatConstraint{
		{Stat: 1, Ignored: true},
		{Stat: 2},
	}
	assert.InDelta(t, 4.0, Score(s, ignored, weights), 1e-9)
}

func TestTopKOrdersBestFirst(t *testing.T) {
	sets := []model.HydratedSet{
		set(1, 5, 5),   // 7.5
		set(2, 10, 10), // 15
		set(3, 8, 8),   // 12
	}

	ranked := TopK(sets, constraints, weights, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, model.ItemID(2), firstID(ranked[0]))
	assert.Equal(t, model.ItemID(3), firstID(ranked[1]))
}

func TestTopKKeepsDiscoveryOrderOnTies(t *testing.T) {
	sets := []model.HydratedSet{
		set(1, 10, 10),
		set(2, 10, 10),
		set(3, 10, 10),
	}

	ranked := TopK(sets, constraints, weights, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, model.ItemID(1), firstID(ranked[0]))
	assert.Equal(t, model.ItemID(2), firstID(ranked[1]))
	assert.Equal(t, model.ItemID(3), firstID(ranked[2]))
}

func TestTopKZeroReturnsAllSorted(t *testing.T) {
	sets := []model.HydratedSet{
		set(1, 5, 5),
		set(2, 10, 10),
	}

	ranked := TopK(sets, constraints, weights, 0)
	require.Len(t, ranked, 2)
	assert.Equal(t, model.ItemID(2), firstID(ranked[0]))
}

func TestTopKEmpty(t *testing.T) {
	assert.Empty(t, TopK(nil, constraints, weights, 5))
}
