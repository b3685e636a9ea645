package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserState mirrors the public JSON surface of core.GameState.
type UserState struct {
	UserID          string         `json:"user_id"`
	Level           int            `json:"level"`
	Experience      int64          `json:"experience"`
	ReputationScore int            `json:"reputation_score"`
	ReputationTier  string         `json:"reputation_tier"`
	Achievements    []string       `json:"achievements"`
	LastActive      time.Time      `json:"last_active"`
	CreatedAt       time.Time      `json:"created_at"`
	History         []HistoryEntry `json:"reputation_history"`
	Version         int64          `json:"version"`
}

// HistoryEntry mirrors one reputation ledger record.
type HistoryEntry struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Score        int       `json:"score"`
	Tier         string    `json:"tier"`
	ChangeAmount int       `json:"change_amount"`
	ChangeReason string    `json:"change_reason"`
}

// LevelBlock mirrors the level portion of a recompute result.
type LevelBlock struct {
	Level         int     `json:"level"`
	PriorLevel    int     `json:"prior_level"`
	Experience    int64   `json:"experience"`
	EarnedXP      int64   `json:"earned_xp"`
	XPToNextLevel int64   `json:"xp_to_next_level"`
	LevelProgress float64 `json:"level_progress"`
	LeveledUp     bool    `json:"leveled_up"`
}

// ReputationBlock mirrors the reputation portion of a recompute result.
type ReputationBlock struct {
	Score         int     `json:"score"`
	PreviousScore int     `json:"previous_score"`
	Change        int     `json:"change"`
	Tier          string  `json:"tier"`
	Multiplier    float64 `json:"multiplier"`
}

// RecomputeResult is the response of a recompute call.
type RecomputeResult struct {
	UserID     string          `json:"user_id"`
	Level      LevelBlock      `json:"level"`
	Reputation ReputationBlock `json:"reputation"`
}

// ActivityInput is the recompute request payload. Zero values are
// neutral; only set what the activity actually reports.
type ActivityInput struct {
	MinutesWatched        float64  `json:"minutes_watched,omitempty"`
	SessionDuration       float64  `json:"session_duration,omitempty"`
	SessionQuality        string   `json:"session_quality,omitempty"`
	IsStreak              bool     `json:"is_streak,omitempty"`
	IsNewUser             bool     `json:"is_new_user,omitempty"`
	Collaborations        int      `json:"collaborations,omitempty"`
	HelpfulActions        int      `json:"helpful_actions,omitempty"`
	NewAchievements       []string `json:"new_achievements,omitempty"`
	SkillProgress         float64  `json:"skill_progress,omitempty"`
	IsVerified            bool     `json:"is_verified,omitempty"`
	DaysSinceVerification int      `json:"days_since_verification,omitempty"`
	DaysSinceLastActive   int      `json:"days_since_last_active,omitempty"`
	Username              string   `json:"username,omitempty"`
	TrackCount            int      `json:"track_count,omitempty"`
	OnboardingComplete    bool     `json:"onboarding_complete,omitempty"`
	HasAvatar             bool     `json:"has_avatar,omitempty"`
	HasBio                bool     `json:"has_bio,omitempty"`
	WalletLinked          bool     `json:"wallet_linked,omitempty"`
}

// LeaderboardEntry mirrors one leaderboard standing.
type LeaderboardEntry struct {
	User  string `json:"user_id"`
	Score int    `json:"score"`
	Tier  string `json:"tier"`
	Level int    `json:"level"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is the structured error body returned by the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("request failed: status %d", resp.StatusCode)
		}
		return apiErr
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
