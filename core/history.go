package core

import (
	"time"

	"github.com/google/uuid"
)

// NewHistoryEntry builds the immutable audit record for one recomputation.
func NewHistoryEntry(now time.Time, score int, tier Tier, change int, reason string, b Breakdown) HistoryEntry {
	return HistoryEntry{
		ID:           uuid.NewString(),
		Date:         now,
		Score:        score,
		Tier:         tier,
		ChangeAmount: change,
		ChangeReason: reason,
		Breakdown:    b,
	}
}

// AppendHistory pushes an entry and evicts from the front past capacity,
// preserving insertion order. A sliding window, not a ring buffer.
func AppendHistory(entries []HistoryEntry, e HistoryEntry) []HistoryEntry {
	entries = append(entries, e)
	if over := len(entries) - HistoryCapacity; over > 0 {
		entries = append([]HistoryEntry(nil), entries[over:]...)
	}
	return entries
}
