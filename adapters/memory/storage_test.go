package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repkit/core"
)

func TestStore_LoadNotFound(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_CreateAndLoad(t *testing.T) {
	s := New()
	ctx := context.Background()
	state := core.NewGameState("alice", time.Now().UTC())

	require.NoError(t, s.Create(ctx, "alice", state))
	assert.ErrorIs(t, s.Create(ctx, "alice", state), core.ErrAlreadyRegistered)

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, core.UserID("alice"), got.UserID)
	assert.Equal(t, core.MinLevel, got.Level)
}

func TestStore_SaveBumpsVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "alice", core.NewGameState("alice", time.Now().UTC())))

	state, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	state.Experience = 500

	saved, err := s.Save(ctx, "alice", state)
	require.NoError(t, err)
	assert.Equal(t, state.Version+1, saved.Version)
	assert.Equal(t, int64(500), saved.Experience)
}

func TestStore_SaveDetectsLostUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "alice", core.NewGameState("alice", time.Now().UTC())))

	// Two readers observe the same version; the second writer must fail
	// instead of silently overwriting the first.
	a, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	b, err := s.Load(ctx, "alice")
	require.NoError(t, err)

	a.Achievements = append(a.Achievements, "from-a")
	_, err = s.Save(ctx, "alice", a)
	require.NoError(t, err)

	b.Achievements = append(b.Achievements, "from-b")
	_, err = s.Save(ctx, "alice", b)
	assert.ErrorIs(t, err, core.ErrVersionConflict)

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"from-a"}, got.Achievements)
}

func TestStore_SaveUnknownUser(t *testing.T) {
	s := New()
	_, err := s.Save(context.Background(), "ghost", core.GameState{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	state := core.NewGameState("alice", time.Now().UTC())
	state.Achievements = []string{"a"}
	require.NoError(t, s.Create(ctx, "alice", state))

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	got.Achievements[0] = "mutated"

	again, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Achievements[0])
}
