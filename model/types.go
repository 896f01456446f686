package model

import (
	"fmt"
	"time"

	"github.com/hupe1980/setforge/tagset"
)

// SlotID identifies an equip slot (helmet, arms, chest, ...).
// Zero means "no slot assigned" and is rejected by the normalizer.
type SlotID uint8

// ItemID is the stable per-instance identity hash of an item.
type ItemID uint64

// ItemHash is the definition identity of an item (shared by all copies of
// the same named item). Exotic bucketing keys off this value.
type ItemHash uint64

// StatID identifies a stat axis (mobility, resilience, ...).
type StatID uint32

// String returns a string representation of the ItemID.
func (id ItemID) String() string {
	return fmt.Sprintf("Item(%d)", uint64(id))
}

// TierSize is the number of stat points per constraint tier.
const TierSize = 10

// MaxTier is the highest tier a stat constraint may demand.
const MaxTier = 10

// RawItem is the full external item entity as owned by the inventory store.
// It is immutable for the duration of a search pass.
type RawItem struct {
	ID             ItemID
	Hash           ItemHash
	Name           string
	Slot           SlotID
	Exotic         bool
	Artifice       bool
	Stats          map[StatID]int
	EnergyCapacity int

	// Ownership/display attributes, used only for representative tie-breaks.
	Owned    bool
	Favorite bool
	Power    int
	Equipped bool
}

// EnergyRules captures the upgrade assumptions the search runs under.
// The normalizer applies the same rules the search will assume, so that
// canonical stat values and capacities line up with feasibility checks.
type EnergyRules struct {
	// AssumeUpgraded treats every item as fully upgraded.
	AssumeUpgraded bool
	// UpgradedCapacity is the energy capacity of a fully upgraded item.
	UpgradedCapacity int
	// UpgradeStatBonus is added to every stat when an item is assumed
	// upgraded but is not yet at full capacity.
	UpgradeStatBonus int
}

// DefaultEnergyRules returns the standard upgrade assumptions.
func DefaultEnergyRules() EnergyRules {
	return EnergyRules{
		AssumeUpgraded:   true,
		UpgradedCapacity: 10,
		UpgradeStatBonus: 2,
	}
}

// StatConstraint is one resolved entry of the active stat-constraint list.
// The order of the list fixes the order of canonical stat vectors.
type StatConstraint struct {
	Stat    StatID `json:"stat"`
	MinTier int    `json:"minTier"`
	MaxTier int    `json:"maxTier"`
	Ignored bool   `json:"ignored"`
}

// CanonicalItem is the minimized, comparison-ready projection of a RawItem.
// Stats is ordered to match the active stat-constraint list; ignored
// constraints contribute a zero so they never influence dominance or
// grouping.
type CanonicalItem struct {
	ID             ItemID      `json:"id"`
	Hash           ItemHash    `json:"hash"`
	Slot           SlotID      `json:"slot"`
	Stats          []int       `json:"stats"`
	EnergyCapacity int         `json:"energyCapacity"`
	Exotic         bool        `json:"exotic"`
	Artifice       bool        `json:"artifice"`
	Tags           *tagset.Set `json:"tags"`
}

// StatTotal returns the sum of the canonical stat vector.
func (c CanonicalItem) StatTotal() int {
	total := 0
	for _, v := range c.Stats {
		total += v
	}
	return total
}

// EquivalenceGroup is a canonical representative plus the ordered list of
// all raw items it stands in for. Members are sorted by the grouper's
// tie-break order; Members[0] is the source of Representative.
type EquivalenceGroup struct {
	Representative CanonicalItem
	Members        []*RawItem
}

// ModDef describes a locked mod the search must place.
type ModDef struct {
	Hash       ItemHash `json:"hash"`
	Name       string   `json:"name"`
	EnergyCost int      `json:"energyCost"`
	Tag        string   `json:"tag,omitempty"`
}

// AutoModConfig controls automatic stat-mod insertion by the search.
type AutoModConfig struct {
	Enabled bool `json:"enabled"`
	MaxMods int  `json:"maxMods"`
}

// SearchJobSpec is the immutable snapshot handed to the isolated search
// process. It references items by canonical id only; the dispatcher copies
// the whole spec across the worker boundary, so nothing here may be mutated
// after handoff.
type SearchJobSpec struct {
	Items          map[SlotID][]CanonicalItem `json:"items"`
	StatWeights    map[StatID]float64         `json:"statWeights"`
	Constraints    []StatConstraint           `json:"constraints"`
	GeneralMods    []ModDef                   `json:"generalMods"`
	ActivityMods   []ModDef                   `json:"activityMods"`
	AutoMods       AutoModConfig              `json:"autoMods"`
	ExoticLocked   bool                       `json:"exoticLocked"`
	StrictUpgrades bool                       `json:"strictUpgrades"`
	StopOnFirstSet bool                       `json:"stopOnFirstSet"`
}

// ModAssignment maps each slot to the mods the search placed on it.
type ModAssignment map[SlotID][]ItemHash

// FoundSet is one discovered combination: a canonical item id per slot plus
// the mod assignment that makes it feasible.
type FoundSet struct {
	Items map[SlotID]ItemID `json:"items"`
	Mods  ModAssignment     `json:"mods,omitempty"`
}

// SearchStats carries diagnostic counters reported by the search.
type SearchStats struct {
	Combinations uint64        `json:"combinations"`
	Skipped      uint64        `json:"skipped"`
	Exhausted    bool          `json:"exhausted"`
	Elapsed      time.Duration `json:"elapsed"`
}

// SearchResult is the terminal output of one search job: the discovered
// sets in the order the search ranked them, plus diagnostics. It is
// consumed exactly once, by the hydrator.
type SearchResult struct {
	Sets  []FoundSet  `json:"sets"`
	Stats SearchStats `json:"stats"`
}

// SlotChoice is one slot of a hydrated set: the canonical item the search
// picked, its representative raw item, and the interchangeable alternatives
// in tie-break order.
type SlotChoice struct {
	Canonical      CanonicalItem
	Representative *RawItem
	Alternatives   []*RawItem
}

// HydratedSet is a FoundSet with every canonical id expanded to its full
// equivalence-group membership. Ownership passes to the caller.
type HydratedSet struct {
	Items map[SlotID]SlotChoice
	Mods  ModAssignment
}
