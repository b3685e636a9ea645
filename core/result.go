package core

import "time"

// Result is the structured payload returned by one recomputation,
// intended for serialization by an external API layer.
type Result struct {
	UserID       UserID           `json:"user_id"`
	Level        LevelResult      `json:"level"`
	Reputation   ReputationBlock  `json:"reputation"`
	Activity     ActivityEcho     `json:"activity"`
	Achievements AchievementBlock `json:"achievements"`
	Status       StatusBlock      `json:"status"`
}

// ReputationBlock reports the score transition and its audit trail.
type ReputationBlock struct {
	Score         int               `json:"score"`
	PreviousScore int               `json:"previous_score"`
	Change        int               `json:"change"`
	Tier          Tier              `json:"tier"`
	Multiplier    float64           `json:"multiplier"`
	Weighted      float64           `json:"weighted"`
	NextTier      *NextTierInfo     `json:"next_tier,omitempty"`
	Breakdown     BreakdownSnapshot `json:"breakdown"`
}

// NextTierInfo names the band above the current one. Absent at Legendary.
type NextTierInfo struct {
	Name         Tier `json:"name"`
	PointsNeeded int  `json:"points_needed"`
}

// ActivityEcho mirrors the inputs that drove this recomputation.
type ActivityEcho struct {
	MinutesWatched  float64 `json:"minutes_watched"`
	SessionDuration float64 `json:"session_duration"`
	SessionQuality  string  `json:"session_quality"`
	Streak          bool    `json:"streak"`
}

// AchievementBlock summarizes the merge outcome.
type AchievementBlock struct {
	NewlyGranted []string `json:"newly_granted"`
	Total        int      `json:"total"`
}

// StatusBlock carries call metadata.
type StatusBlock struct {
	RecomputedAt time.Time `json:"recomputed_at"`
}
