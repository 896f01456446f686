package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/setforge/model"
	"github.com/hupe1980/setforge/tagset"
)

func canonical(id model.ItemID, stats ...int) model.CanonicalItem {
	return model.CanonicalItem{
		ID:             id,
		Hash:           model.ItemHash(1000 + id),
		Slot:           1,
		Stats:          stats,
		EnergyCapacity: 10,
		Tags:           tagset.New(),
	}
}

func raw(id model.ItemID) *model.RawItem {
	return &model.RawItem{
		ID:             id,
		Hash:           model.ItemHash(1000 + id),
		Slot:           1,
		EnergyCapacity: 10,
		Owned:          true,
	}
}

func sourceOf(items ...*model.RawItem) map[model.ItemID]*model.RawItem {
	m := make(map[model.ItemID]*model.RawItem, len(items))
	for _, item := range items {
		m[item.ID] = item
	}
	return m
}

func TestGroupMergesInterchangeable(t *testing.T) {
	a := canonical(1, 10, 10)
	b := canonical(2, 10, 10)
	c := canonical(3, 9, 10)

	groups, idx, err := Group(
		[]model.CanonicalItem{a, b, c},
		sourceOf(raw(1), raw(2), raw(3)),
	)
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Members, 2)
	assert.Len(t, groups[1].Members, 1)

	// Index resolves representatives only
	_, ok := idx.Lookup(groups[0].Representative.ID)
	assert.True(t, ok)
}

func TestGroupPartitionProperty(t *testing.T) {
	items := []model.CanonicalItem{
		canonical(1, 10, 10),
		canonical(2, 10, 10),
		canonical(3, 9, 10),
		canonical(4, 9, 10),
		canonical(5, 8, 8),
	}
	raws := []*model.RawItem{raw(1), raw(2), raw(3), raw(4), raw(5)}

	groups, _, err := Group(items, sourceOf(raws...))
	require.NoError(t, err)

	// Union of memberships equals the input exactly: no omissions, no
	// duplicates.
	seen := make(map[model.ItemID]int)
	for _, g := range groups {
		for _, m := range g.Members {
			seen[m.ID]++
		}
	}
	require.Len(t, seen, len(items))
	for _, item := range items {
		assert.Equal(t, 1, seen[item.ID], "item %d", item.ID)
	}

	// Output never exceeds input
	assert.LessOrEqual(t, len(groups), len(items))
}

func TestGroupInterchangeability(t *testing.T) {
	a := canonical(1, 10, 10)
	a.Tags = tagset.New("bow")
	b := canonical(2, 10, 10)
	b.Tags = tagset.New("bow")
	c := canonical(3, 10, 10)
	c.Tags = tagset.New("sword") // different tag set, separate group

	d := canonical(4, 10, 10)
	d.Tags = tagset.New("bow")
	d.Artifice = true // artifice status splits groups

	groups, _, err := Group(
		[]model.CanonicalItem{a, b, c, d},
		sourceOf(raw(1), raw(2), raw(3), raw(4)),
	)
	require.NoError(t, err)
	assert.Len(t, groups, 3)

	require.Len(t, groups[0].Members, 2)
	assert.ElementsMatch(t, []model.ItemID{1, 2},
		[]model.ItemID{groups[0].Members[0].ID, groups[0].Members[1].ID})
}

func TestGroupNeverMergesAcrossExoticness(t *testing.T) {
	exotic := canonical(1, 10, 10)
	exotic.Exotic = true
	legendary := canonical(2, 10, 10)

	// Identical numeric fields, but an exotic and a legendary must never
	// share a group.
	groups, _, err := Group(
		[]model.CanonicalItem{exotic, legendary},
		sourceOf(raw(1), raw(2)),
	)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestGroupRepresentativeTieBreak(t *testing.T) {
	vendor := raw(1)
	vendor.Owned = false

	owned := raw(2)
	owned.Equipped = true

	favorite := raw(3)
	favorite.Favorite = true

	groups, idx, err := Group(
		[]model.CanonicalItem{
			canonical(1, 10, 10),
			canonical(2, 10, 10),
			canonical(3, 10, 10),
		},
		sourceOf(vendor, owned, favorite),
	)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	require.Len(t, g.Members, 3)

	// Favorited beats equipped; vendor-sourced sorts last
	assert.Equal(t, model.ItemID(3), g.Members[0].ID)
	assert.Equal(t, model.ItemID(2), g.Members[1].ID)
	assert.Equal(t, model.ItemID(1), g.Members[2].ID)

	// The representative is the projection of the best member
	assert.Equal(t, model.ItemID(3), g.Representative.ID)
	_, ok := idx.Lookup(model.ItemID(3))
	assert.True(t, ok)
	_, ok = idx.Lookup(model.ItemID(1))
	assert.False(t, ok)
}

func TestGroupOwnedBeatsVendor(t *testing.T) {
	// Two identical helmets, one owned and equipped, one from a vendor:
	// both survive into one group, the owned one is the representative.
	vendor := raw(1)
	vendor.Owned = false

	owned := raw(2)
	owned.Equipped = true

	groups, _, err := Group(
		[]model.CanonicalItem{canonical(1, 10, 10, 10, 10, 10, 10), canonical(2, 10, 10, 10, 10, 10, 10)},
		sourceOf(vendor, owned),
	)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, model.ItemID(2), groups[0].Representative.ID)
	assert.Len(t, groups[0].Members, 2)
}

func TestGroupPowerTieBreak(t *testing.T) {
	low := raw(1)
	low.Power = 1800
	high := raw(2)
	high.Power = 1810

	groups, _, err := Group(
		[]model.CanonicalItem{canonical(1, 10), canonical(2, 10)},
		sourceOf(low, high),
	)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, model.ItemID(2), groups[0].Representative.ID)
}

func TestGroupMissingSource(t *testing.T) {
	_, _, err := Group(
		[]model.CanonicalItem{canonical(1, 10)},
		sourceOf(), // empty source map
	)
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestGroupOversizedStatVectorBecomesSingleton(t *testing.T) {
	// A stat vector too large for the structured key cannot be
	// classified; the item must survive as its own singleton group
	// rather than being dropped.
	odd := canonical(1, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	normal := canonical(2, 10)

	groups, _, err := Group(
		[]model.CanonicalItem{odd, normal},
		sourceOf(raw(1), raw(2)),
	)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}
