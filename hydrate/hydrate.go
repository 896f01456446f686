// Package hydrate expands the canonical item ids in a search result back
// into full equivalence-group membership, so callers can present every
// interchangeable alternative for each slot of a found set.
package hydrate

import (
	"errors"
	"fmt"

	"github.com/hupe1980/setforge/group"
	"github.com/hupe1980/setforge/model"
)

// ErrUnknownCanonicalItem is returned when a search result references a
// canonical id absent from the group index. The dispatcher only ever sends
// ids originating from the same index, so this is a programming error and
// hydration aborts rather than silently dropping the set.
var ErrUnknownCanonicalItem = errors.New("canonical item not present in group index")

// Hydrate expands every set of the result.
//
// Pure and total over well-formed input: each per-slot canonical id becomes
// a SlotChoice with the group's representative raw item and the remaining
// members, in the grouper's tie-break order, as alternatives.
func Hydrate(result *model.SearchResult, idx group.Index) ([]model.HydratedSet, error) {
	if result == nil {
		return nil, nil
	}

	sets := make([]model.HydratedSet, 0, len(result.Sets))
	for _, found := range result.Sets {
		hydrated, err := Set(found, idx)
		if err != nil {
			return nil, err
		}
		sets = append(sets, hydrated)
	}
	return sets, nil
}

// Set expands a single found set.
func Set(found model.FoundSet, idx group.Index) (model.HydratedSet, error) {
	items := make(map[model.SlotID]model.SlotChoice, len(found.Items))
	for slot, id := range found.Items {
		g, ok := idx.Lookup(id)
		if !ok {
			return model.HydratedSet{}, fmt.Errorf("hydrate slot %d item %d: %w", slot, id, ErrUnknownCanonicalItem)
		}
		items[slot] = model.SlotChoice{
			Canonical:      g.Representative,
			Representative: g.Members[0],
			Alternatives:   g.Members[1:],
		}
	}
	return model.HydratedSet{Items: items, Mods: found.Mods}, nil
}
