package memory

import (
	"context"
	"sync"

	"repkit/core"
)

// Store is a concurrent in-memory Storage implementation with optimistic
// version checks, suitable for tests and single-process deployments.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu    sync.Mutex
	state core.GameState
}

func New() *Store { return &Store{} }

func (s *Store) Load(_ context.Context, user core.UserID) (core.GameState, error) {
	v, ok := s.users.Load(user)
	if !ok {
		return core.GameState{}, core.ErrNotFound
	}
	rec := v.(*userRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state.Clone(), nil
}

func (s *Store) Save(_ context.Context, user core.UserID, state core.GameState) (core.GameState, error) {
	v, ok := s.users.Load(user)
	if !ok {
		return core.GameState{}, core.ErrNotFound
	}
	rec := v.(*userRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if state.Version != rec.state.Version {
		return core.GameState{}, core.ErrVersionConflict
	}
	state.Version++
	rec.state = state.Clone()
	return rec.state.Clone(), nil
}

func (s *Store) Create(_ context.Context, user core.UserID, state core.GameState) error {
	rec := &userRecord{state: state.Clone()}
	if _, loaded := s.users.LoadOrStore(user, rec); loaded {
		return core.ErrAlreadyRegistered
	}
	return nil
}

var _ interface {
	Load(context.Context, core.UserID) (core.GameState, error)
	Save(context.Context, core.UserID, core.GameState) (core.GameState, error)
	Create(context.Context, core.UserID, core.GameState) error
} = (*Store)(nil)
