package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repkit/core"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := New(path)
	require.NoError(t, err)
	return s, path
}

func TestStore_CreateLoadSave(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "alice", core.NewGameState("alice", time.Now().UTC())))
	assert.ErrorIs(t, s.Create(ctx, "alice", core.GameState{}), core.ErrAlreadyRegistered)

	state, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	state.Experience = 250

	saved, err := s.Save(ctx, "alice", state)
	require.NoError(t, err)
	assert.Equal(t, state.Version+1, saved.Version)
	assert.Equal(t, int64(250), saved.Experience)
}

func TestStore_NotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Save(context.Background(), "ghost", core.GameState{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_VersionConflict(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "alice", core.NewGameState("alice", time.Now().UTC())))

	a, _ := s.Load(ctx, "alice")
	b, _ := s.Load(ctx, "alice")

	_, err := s.Save(ctx, "alice", a)
	require.NoError(t, err)
	_, err = s.Save(ctx, "alice", b)
	assert.ErrorIs(t, err, core.ErrVersionConflict)
}

func TestStore_SurvivesReopen(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	state := core.NewGameState("alice", time.Now().UTC())
	require.NoError(t, s.Create(ctx, "alice", state))

	loaded, _ := s.Load(ctx, "alice")
	loaded.ReputationScore = 1500
	loaded.ReputationTier = core.TierSilver
	_, err := s.Save(ctx, "alice", loaded)
	require.NoError(t, err)

	reopened, err := New(path)
	require.NoError(t, err)
	got, err := reopened.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1500, got.ReputationScore)
	assert.Equal(t, core.TierSilver, got.ReputationTier)
	assert.Equal(t, loaded.Version+1, got.Version)
}

func TestStore_NoStrayTempFile(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "alice", core.NewGameState("alice", time.Now().UTC())))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
