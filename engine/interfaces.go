package engine

import (
	"context"

	"repkit/core"
)

// Storage abstracts persistence for user game state. It is the sole
// source of truth for the mutable fields; the engine never caches state
// across calls.
//
// Save performs an optimistic-concurrency check: the incoming state's
// Version must match the stored one, or core.ErrVersionConflict is
// returned and nothing is written. On success the stored version is
// bumped and the saved state (with its new version) is returned.
type Storage interface {
	Load(ctx context.Context, user core.UserID) (core.GameState, error)
	Save(ctx context.Context, user core.UserID, state core.GameState) (core.GameState, error)
	Create(ctx context.Context, user core.UserID, state core.GameState) error
}

// RuleEngine derives secondary events (milestones, promotions) from a
// primary engine event against the post-update state.
type RuleEngine interface {
	Evaluate(ctx context.Context, state core.GameState, trigger core.Event) []core.Event
}
