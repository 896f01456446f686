// Package rank orders hydrated sets by their weighted stat score for
// display. The search already returns sets in its own discovery order;
// ranking lets callers surface the best k sets under the active weights
// without re-sorting everything.
package rank

import (
	"container/heap"

	"github.com/hupe1980/setforge/model"
)

// Score computes the weighted stat total of a hydrated set under the given
// constraint order and weights. Stats of a set are the sums of the
// representatives' canonical vectors; a stat without a weight counts with
// weight zero.
func Score(set model.HydratedSet, constraints []model.StatConstraint, weights map[model.StatID]float64) float64 {
	score := 0.0
	for _, choice := range set.Items {
		for i, v := range choice.Canonical.Stats {
			if i >= len(constraints) || constraints[i].Ignored {
				continue
			}
			score += float64(v) * weights[constraints[i].Stat]
		}
	}
	return score
}

// scoredSet pairs a set index with its score inside the heap.
type scoredSet struct {
	index int
	score float64
}

// minHeap keeps the lowest-scoring retained set on top so it can be evicted
// when a better one arrives.
type minHeap []scoredSet

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].score < h[j].score }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(scoredSet)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopK returns the k best-scoring sets, best first. k <= 0 or k >= len(sets)
// returns all sets sorted by score descending. Ties keep discovery order.
func TopK(sets []model.HydratedSet, constraints []model.StatConstraint, weights map[model.StatID]float64, k int) []model.HydratedSet {
	if k <= 0 || k > len(sets) {
		k = len(sets)
	}

	h := make(minHeap, 0, k)
	heap.Init(&h)
	for i, set := range sets {
		s := scoredSet{index: i, score: Score(set, constraints, weights)}
		if h.Len() < k {
			heap.Push(&h, s)
			continue
		}
		if s.score > h[0].score {
			h[0] = s
			heap.Fix(&h, 0)
		}
	}

	// Drain the heap smallest-first, then reverse into best-first order.
	// Equal scores fall back to discovery order for stability.
	drained := make([]scoredSet, h.Len())
	for i := len(drained) - 1; i >= 0; i-- {
		drained[i] = heap.Pop(&h).(scoredSet)
	}
	for i := 1; i < len(drained); i++ {
		for j := i; j > 0 && drained[j-1].score == drained[j].score && drained[j-1].index > drained[j].index; j-- {
			drained[j-1], drained[j] = drained[j], drained[j-1]
		}
	}

	out := make([]model.HydratedSet, len(drained))
	for i, s := range drained {
		out[i] = sets[s.index]
	}
	return out
}
