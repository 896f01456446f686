// Package archive records dispatched search jobs and their outcomes for
// diagnostics and replay. An archived record holds the minimized problem
// instance exactly as it crossed the worker boundary, which makes search
// regressions reproducible without the caller's full inventory.
//
// Archiving is optional and off by default; the optimizer core itself
// remains stateless.
package archive

import (
	"context"
	"os"
)

// ErrNotFound is returned when a record does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is the storage backend for archived records.
type Store interface {
	// Put writes a record blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Get reads a record blob. Returns ErrNotFound if missing.
	Get(ctx context.Context, name string) ([]byte, error)
	// List returns all record names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, name string) error
}
