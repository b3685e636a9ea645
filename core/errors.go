package core

import "errors"

// Sentinel errors surfaced across the storage and orchestration boundary.
var (
	// ErrNotFound means the user has no persisted state; the caller should
	// complete registration first.
	ErrNotFound = errors.New("user state not found")

	// ErrInvalidInput means the activity input is malformed (non-finite
	// numbers); missing optional fields default to neutral values instead.
	ErrInvalidInput = errors.New("invalid activity input")

	// ErrVersionConflict means an optimistic-concurrency save observed a
	// stale version. Retried internally up to a bound, then surfaced.
	ErrVersionConflict = errors.New("state version conflict")

	// ErrConfirmationRequired means a reset was requested without the
	// explicit confirmation flag.
	ErrConfirmationRequired = errors.New("reset requires explicit confirmation")

	// ErrAlreadyRegistered means a create was attempted for a user that
	// already has persisted state.
	ErrAlreadyRegistered = errors.New("user already registered")

	// ErrPersistence wraps backend failures (disk, network, database) so
	// callers can distinguish them from domain errors.
	ErrPersistence = errors.New("persistence failure")
)
