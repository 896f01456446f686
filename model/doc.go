// Package model defines the core data types shared across the setforge
// pipeline: raw inventory items, their canonical projections, equivalence
// groups, the immutable search job specification, and search results.
//
// Types in this package are plain data. Behavior lives in the stage
// packages (normalize, prune, group, dispatch, hydrate).
package model
