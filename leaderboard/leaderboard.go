package leaderboard

import "repkit/core"

// Entry is one user's standing, keyed by reputation score.
type Entry struct {
	User  core.UserID `json:"user_id"`
	Score int         `json:"score"`
	Tier  core.Tier   `json:"tier"`
	Level int         `json:"level"`
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(e Entry)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
	Rank(user core.UserID) (int, bool)
}
