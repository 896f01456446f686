// Package prune removes canonical items that are strictly dominated by
// another item in the same archetype bucket. Pruning shrinks the per-slot
// pools before the combinatorial search ever sees them, which is where the
// real cost lives; the quadratic pairwise check here is cheap by comparison.
package prune

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/setforge/model"
)

// BucketKey identifies an archetype bucket. All legendaries of a slot share
// one bucket (Exotic == 0); every exotic identity gets a bucket of its own,
// so exotics are never compared against legendaries or other exotics.
type BucketKey struct {
	Slot   model.SlotID
	Exotic model.ItemHash
}

// KeyOf returns the archetype bucket key for a canonical item.
func KeyOf(item model.CanonicalItem) BucketKey {
	key := BucketKey{Slot: item.Slot}
	if item.Exotic {
		key.Exotic = item.Hash
	}
	return key
}

// Dominates reports whether a dominates b: a is at least as good on every
// constrained stat, energy capacity, artifice capability, and mod-tag
// support, and strictly better on at least one of them.
//
// Artifice is asymmetric on purpose: a dominator may gain artifice
// capability for free, but may never lose it, since artifice grants extra
// mod flexibility the search can exploit.
func Dominates(a, b model.CanonicalItem) bool {
	if len(a.Stats) != len(b.Stats) {
		return false
	}

	strict := false
	for i := range a.Stats {
		if a.Stats[i] < b.Stats[i] {
			return false
		}
		if a.Stats[i] > b.Stats[i] {
			strict = true
		}
	}

	if a.EnergyCapacity < b.EnergyCapacity {
		return false
	}
	if a.EnergyCapacity > b.EnergyCapacity {
		strict = true
	}

	if b.Artifice && !a.Artifice {
		return false
	}
	if a.Artifice && !b.Artifice {
		strict = true
	}

	if !a.Tags.SupersetOf(b.Tags) {
		return false
	}
	if !b.Tags.SupersetOf(a.Tags) {
		strict = true
	}

	return strict
}

// insert runs the online maximal-antichain step: drop the incoming item if
// any kept item dominates it, otherwise evict every kept item it dominates
// and keep it.
func insert(kept []model.CanonicalItem, item model.CanonicalItem) []model.CanonicalItem {
	for _, k := range kept {
		if Dominates(k, item) {
			return kept
		}
	}

	out := kept[:0]
	for _, k := range kept {
		if !Dominates(item, k) {
			out = append(out, k)
		}
	}
	return append(out, item)
}

// Bucket prunes a single archetype bucket and returns the surviving
// antichain in insertion order of the survivors.
func Bucket(items []model.CanonicalItem) []model.CanonicalItem {
	var kept []model.CanonicalItem
	for _, item := range items {
		kept = insert(kept, item)
	}
	return kept
}

// Prune partitions items into archetype buckets and prunes each bucket
// concurrently. The output preserves bucket order by first appearance and,
// within a bucket, survivor insertion order, so repeated runs over the same
// input produce identical output.
func Prune(ctx context.Context, items []model.CanonicalItem) ([]model.CanonicalItem, error) {
	buckets := make(map[BucketKey][]model.CanonicalItem)
	var order []BucketKey
	for _, item := range items {
		key := KeyOf(item)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], item)
	}

	results := make([][]model.CanonicalItem, len(order))
	g, ctx := errgroup.WithContext(ctx)
	for i, key := range order {
		bucket := buckets[key]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Bucket(bucket)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.CanonicalItem
	for _, kept := range results {
		out = append(out, kept...)
	}
	return out, nil
}
