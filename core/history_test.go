package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendHistory_CapsAtCapacity(t *testing.T) {
	now := time.Now().UTC()
	var entries []HistoryEntry
	for i := 0; i < HistoryCapacity+25; i++ {
		e := NewHistoryEntry(now, i, TierBronze, 1, fmt.Sprintf("update %d", i), Breakdown{})
		entries = AppendHistory(entries, e)
		require.LessOrEqual(t, len(entries), HistoryCapacity)
	}

	assert.Len(t, entries, HistoryCapacity)
	// Oldest evicted first: the survivors are the most recent 100 in order.
	assert.Equal(t, 25, entries[0].Score)
	assert.Equal(t, HistoryCapacity+24, entries[len(entries)-1].Score)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].Score+1, entries[i].Score)
	}
}

func TestNewHistoryEntry(t *testing.T) {
	now := time.Now().UTC()
	e := NewHistoryEntry(now, 1200, TierSilver, 150, "activity update", Breakdown{Activity: 80})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.Date)
	assert.Equal(t, 1200, e.Score)
	assert.Equal(t, TierSilver, e.Tier)
	assert.Equal(t, 150, e.ChangeAmount)
	assert.Equal(t, 80.0, e.Breakdown.Activity)

	e2 := NewHistoryEntry(now, 1200, TierSilver, 150, "activity update", Breakdown{})
	assert.NotEqual(t, e.ID, e2.ID)
}

func TestGameState_CloneIsDeep(t *testing.T) {
	s := NewGameState("alice", time.Now())
	s.Achievements = []string{"a"}
	s.Badges = map[Badge]struct{}{"og": {}}
	s.ReputationHistory = AppendHistory(nil, NewHistoryEntry(time.Now(), 10, TierBronze, 10, "seed", Breakdown{}))

	cp := s.Clone()
	cp.Achievements[0] = "mutated"
	cp.Badges["extra"] = struct{}{}
	cp.ReputationHistory[0].Score = 999

	assert.Equal(t, "a", s.Achievements[0])
	assert.NotContains(t, s.Badges, Badge("extra"))
	assert.Equal(t, 10, s.ReputationHistory[0].Score)
}
