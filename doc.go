// Package setforge implements the core of a constrained multi-objective
// loadout optimizer: given pools of equippable items across fixed slots, it
// finds item combinations that satisfy mod/energy constraints and are
// Pareto-optimal or threshold-satisfying under a weighted stat objective.
//
// The search space is the cross-product of per-slot item pools, so setforge
// aggressively reduces the problem before any search runs:
//
//  1. Normalize: project each raw item to a canonical, comparison-ready
//     record (normalize package).
//  2. Prune: drop items strictly dominated within their archetype bucket
//     (prune package).
//  3. Group: merge provably interchangeable survivors into equivalence
//     groups and keep one representative each (group package).
//  4. Dispatch: hand the minimized job to an isolated search worker and
//     await its result (dispatch package).
//  5. Hydrate: expand canonical ids in found sets back into full group
//     membership for display (hydrate package).
//
// # Quick Start
//
//	opt, _ := setforge.New(mySearch)
//	result, err := opt.Optimize(ctx, &setforge.Input{
//	    Items:       items,
//	    Rules:       model.DefaultEnergyRules(),
//	    Constraints: constraints,
//	    Weights:     weights,
//	})
//
// The search strategy itself is a collaborator: it receives a minimized,
// well-formed job spec and may enumerate sets however it likes without
// affecting the correctness of this core.
package setforge
