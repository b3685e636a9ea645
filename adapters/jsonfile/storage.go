package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"repkit/core"
)

// Store persists every user's game state to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache, flushed on every write
	data map[core.UserID]core.GameState
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]core.GameState{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]core.GameState
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]core.GameState, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Load(_ context.Context, user core.UserID) (core.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data[user]
	if !ok {
		return core.GameState{}, core.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *Store) Save(_ context.Context, user core.UserID, state core.GameState) (core.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data[user]
	if !ok {
		return core.GameState{}, core.ErrNotFound
	}
	if state.Version != current.Version {
		return core.GameState{}, core.ErrVersionConflict
	}
	state.Version++
	s.data[user] = state.Clone()
	if err := s.persist(); err != nil {
		// roll the cache back so memory and disk stay in step
		s.data[user] = current
		return core.GameState{}, errors.Join(core.ErrPersistence, err)
	}
	return state.Clone(), nil
}

func (s *Store) Create(_ context.Context, user core.UserID, state core.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[user]; ok {
		return core.ErrAlreadyRegistered
	}
	s.data[user] = state.Clone()
	if err := s.persist(); err != nil {
		delete(s.data, user)
		return errors.Join(core.ErrPersistence, err)
	}
	return nil
}
