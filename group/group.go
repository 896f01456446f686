// Package group partitions pruned canonical items into equivalence groups
// of provably interchangeable items, selecting one representative per group
// so the search only ever sees one item per group.
package group

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/setforge/model"
	"github.com/hupe1980/setforge/prune"
)

// ErrUnknownSource is returned when a canonical item has no corresponding
// raw item in the source map. This is a precondition violation: losing an
// item from consideration could make the search miss a valid set.
var ErrUnknownSource = errors.New("canonical item has no source raw item")

// maxStats bounds the constrained-stat vector length inside the comparable
// grouping key.
const maxStats = 8

// key is the structured exact-match grouping key: the full constrained-stat
// vector, energy capacity, and the canonical byte form of the sorted tag
// set. It is value-comparable, so it can be used directly as a map key
// without string formatting tricks. Exoticness is already separated by the
// pruner's buckets, but the bucket key is included so groups never straddle
// buckets.
type key struct {
	bucket   prune.BucketKey
	stats    [maxStats]int16
	numStats uint8
	capacity uint8
	artifice bool
	tags     string
}

func keyOf(item model.CanonicalItem) (key, error) {
	if len(item.Stats) > maxStats {
		return key{}, fmt.Errorf("stat vector length %d exceeds %d", len(item.Stats), maxStats)
	}

	k := key{
		bucket:   prune.KeyOf(item),
		numStats: uint8(len(item.Stats)),
		capacity: uint8(item.EnergyCapacity),
		artifice: item.Artifice,
		tags:     item.Tags.Key(),
	}
	for i, v := range item.Stats {
		k.stats[i] = int16(v)
	}
	return k, nil
}

// Index maps a representative canonical id to its equivalence group.
// The dispatcher only ever sends representative ids to the search, so every
// id in a well-formed search result resolves here.
type Index map[model.ItemID]*model.EquivalenceGroup

// Lookup returns the group for a representative id.
func (idx Index) Lookup(id model.ItemID) (*model.EquivalenceGroup, bool) {
	g, ok := idx[id]
	return g, ok
}

// Less is the representative tie-break order, applied lexicographically:
// higher energy capacity, owned before vendor-sourced, favorites first,
// higher power, then currently equipped. Capacity is already equal within a
// group; it leads the order for future extension.
func Less(a, b *model.RawItem) bool {
	if a.EnergyCapacity != b.EnergyCapacity {
		return a.EnergyCapacity > b.EnergyCapacity
	}
	if a.Owned != b.Owned {
		return a.Owned
	}
	if a.Favorite != b.Favorite {
		return a.Favorite
	}
	if a.Power != b.Power {
		return a.Power > b.Power
	}
	if a.Equipped != b.Equipped {
		return a.Equipped
	}
	return false
}

// Group partitions pruned canonical items into equivalence groups.
//
// source maps item ids back to their raw items for membership and
// tie-breaks. Every input item lands in exactly one group; an item whose
// key cannot be computed becomes its own singleton group rather than being
// dropped. Group order follows first appearance in the input.
func Group(items []model.CanonicalItem, source map[model.ItemID]*model.RawItem) ([]model.EquivalenceGroup, Index, error) {
	type entry struct {
		canonical []model.CanonicalItem
		members   []*model.RawItem
	}

	byKey := make(map[key]*entry)
	var order []*entry

	addSingleton := func(item model.CanonicalItem, raw *model.RawItem) {
		order = append(order, &entry{
			canonical: []model.CanonicalItem{item},
			members:   []*model.RawItem{raw},
		})
	}

	for _, item := range items {
		raw, ok := source[item.ID]
		if !ok {
			return nil, nil, fmt.Errorf("group item %d: %w", item.ID, ErrUnknownSource)
		}

		k, err := keyOf(item)
		if err != nil {
			// Unclassifiable items survive as singletons; dropping one
			// could hide a valid set from the search.
			addSingleton(item, raw)
			continue
		}

		e, ok := byKey[k]
		if !ok {
			e = &entry{}
			byKey[k] = e
			order = append(order, e)
		}
		e.canonical = append(e.canonical, item)
		e.members = append(e.members, raw)
	}

	groups := make([]model.EquivalenceGroup, 0, len(order))
	idx := make(Index, len(order))
	for _, e := range order {
		sort.SliceStable(e.members, func(i, j int) bool {
			return Less(e.members[i], e.members[j])
		})

		// The representative is the canonical projection of the best
		// member. Canonical fields other than identity are equal across
		// the group, so any member's projection carries the same vector.
		rep := e.canonical[0]
		for _, c := range e.canonical {
			if c.ID == e.members[0].ID {
				rep = c
				break
			}
		}

		g := model.EquivalenceGroup{
			Representative: rep,
			Members:        e.members,
		}
		groups = append(groups, g)
		idx[rep.ID] = &groups[len(groups)-1]
	}

	return groups, idx, nil
}
