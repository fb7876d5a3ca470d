package models

import "errors"

// Error kinds shared across the repository and service layers. Callers
// match them with errors.Is.
var (
	// ErrNotFound indicates a referenced account, card, bill or item is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPeriod indicates bill period math yielded an impossible date.
	ErrInvalidPeriod = errors.New("invalid bill period")

	// ErrDuplicateEvent indicates a notification dedup key was already
	// processed. This is a normal skip outcome, not a failure.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrStorageUnavailable indicates a transient storage failure worth retrying.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInconsistentState indicates an operation that does not apply to the
	// entity's current state, such as paying an already-paid bill. Lifecycle
	// code treats it as a no-op to stay idempotent.
	ErrInconsistentState = errors.New("inconsistent state")
)
