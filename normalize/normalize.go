// Package normalize converts heterogeneous raw inventory items into
// canonical, comparison-ready records holding only the attributes the
// downstream pruner, grouper, and search care about.
package normalize

import (
	"errors"
	"fmt"

	"github.com/hupe1980/setforge/model"
	"github.com/hupe1980/setforge/tagset"
)

// ErrMissingSlot is returned when a raw item has no slot assignment.
// This is a precondition violation by the caller, not a recoverable case.
var ErrMissingSlot = errors.New("item has no slot assignment")

// TagLookup resolves the relevant mod-tag labels an item definition
// supports. A nil lookup means "no tags".
type TagLookup func(hash model.ItemHash) []string

// Normalizer projects raw items into canonical items under a fixed
// constraint list and energy rule set. It is stateless and safe for
// concurrent use.
type Normalizer struct {
	rules       model.EnergyRules
	constraints []model.StatConstraint
	tagLookup   TagLookup
}

// New creates a Normalizer.
//
// constraints fixes the order and length of canonical stat vectors;
// tagLookup may be nil, in which case every item gets an empty tag set.
func New(rules model.EnergyRules, constraints []model.StatConstraint, tagLookup TagLookup) *Normalizer {
	return &Normalizer{
		rules:       rules,
		constraints: constraints,
		tagLookup:   tagLookup,
	}
}

// Normalize converts one raw item into its canonical projection.
//
// The projection is pure and deterministic: stat values are computed under
// the same energy/upgrade rules the search will assume, ignored constraints
// contribute zero, and the tag set comes from the optional lookup. A raw
// item without a slot fails with ErrMissingSlot.
func (n *Normalizer) Normalize(item *model.RawItem) (model.CanonicalItem, error) {
	if item.Slot == 0 {
		return model.CanonicalItem{}, fmt.Errorf("normalize item %d: %w", item.ID, ErrMissingSlot)
	}

	capacity := item.EnergyCapacity
	bonus := 0
	if n.rules.AssumeUpgraded && capacity < n.rules.UpgradedCapacity {
		capacity = n.rules.UpgradedCapacity
		bonus = n.rules.UpgradeStatBonus
	}

	stats := make([]int, len(n.constraints))
	for i, c := range n.constraints {
		if c.Ignored {
			continue
		}
		stats[i] = item.Stats[c.Stat] + bonus
	}

	tags := tagset.New()
	if n.tagLookup != nil {
		for _, tag := range n.tagLookup(item.Hash) {
			tags.Add(tag)
		}
	}

	return model.CanonicalItem{
		ID:             item.ID,
		Hash:           item.Hash,
		Slot:           item.Slot,
		Stats:          stats,
		EnergyCapacity: capacity,
		Exotic:         item.Exotic,
		Artifice:       item.Artifice,
		Tags:           tags,
	}, nil
}

// NormalizeAll converts a batch of raw items, failing on the first
// precondition violation.
func (n *Normalizer) NormalizeAll(items []*model.RawItem) ([]model.CanonicalItem, error) {
	out := make([]model.CanonicalItem, 0, len(items))
	for _, item := range items {
		c, err := n.Normalize(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
