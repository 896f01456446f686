package setforge

import (
	"errors"
	"fmt"

	"github.com/hupe1980/setforge/dispatch"
	"github.com/hupe1980/setforge/group"
	"github.com/hupe1980/setforge/hydrate"
	"github.com/hupe1980/setforge/normalize"
)

var (
	// ErrPreconditionViolated unifies programming errors surfaced by the
	// pipeline: an item without a slot, a canonical item without a source,
	// or a result id missing from the group index. These are caller bugs,
	// not runtime-recoverable conditions; the operation aborts rather than
	// silently dropping data.
	ErrPreconditionViolated = errors.New("precondition violated")

	// ErrJobInFlight is returned when a new dispatch is attempted while a
	// prior job of the same optimizer has not been released.
	ErrJobInFlight = errors.New("search job already in flight")

	// ErrReleased is the outcome of a job released before completion.
	// Cancellation is an expected outcome, not a failure.
	ErrReleased = errors.New("search job released")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Precondition unification.
	if errors.Is(err, normalize.ErrMissingSlot) ||
		errors.Is(err, group.ErrUnknownSource) ||
		errors.Is(err, hydrate.ErrUnknownCanonicalItem) {
		return fmt.Errorf("%w: %w", ErrPreconditionViolated, err)
	}

	// Dispatch lifecycle normalization.
	if errors.Is(err, dispatch.ErrJobInFlight) {
		return fmt.Errorf("%w: %w", ErrJobInFlight, err)
	}
	if errors.Is(err, dispatch.ErrReleased) {
		return fmt.Errorf("%w: %w", ErrReleased, err)
	}

	return err
}
