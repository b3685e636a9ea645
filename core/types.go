package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a user in the progression domain.
type UserID string

// Badge is a badge identifier. Badges are granted by an external
// collaborator; the engine only reads them for scoring.
type Badge string

// Tier names a contiguous band of the reputation score range.
type Tier string

const (
	TierBronze    Tier = "Bronze"
	TierSilver    Tier = "Silver"
	TierGold      Tier = "Gold"
	TierPlatinum  Tier = "Platinum"
	TierDiamond   Tier = "Diamond"
	TierLegendary Tier = "Legendary"
)

// GameState is a snapshot of a user's persisted progression state.
// Implementations should return deep copies to maintain immutability
// guarantees; mutation happens only through the orchestrator.
type GameState struct {
	UserID            UserID             `json:"user_id"`
	Level             int                `json:"level"`
	Experience        int64              `json:"experience"`
	ReputationScore   int                `json:"reputation_score"`
	ReputationTier    Tier               `json:"reputation_tier"`
	Achievements      []string           `json:"achievements"`
	Badges            map[Badge]struct{} `json:"badges"`
	Metrics           BreakdownSnapshot  `json:"metrics"`
	LastActive        time.Time          `json:"last_active"`
	ReputationHistory []HistoryEntry     `json:"reputation_history"`
	CreatedAt         time.Time          `json:"created_at"`
	// Version is owned by the storage adapter and incremented on every
	// successful save; used for optimistic concurrency checks.
	Version int64 `json:"version"`
}

// NewGameState returns the zeroed state created at registration.
func NewGameState(user UserID, now time.Time) GameState {
	return GameState{
		UserID:          user,
		Level:           MinLevel,
		Experience:      0,
		ReputationScore: 0,
		ReputationTier:  TierBronze,
		Achievements:    []string{},
		Badges:          map[Badge]struct{}{},
		LastActive:      now,
		CreatedAt:       now,
	}
}

// Clone returns a deep copy of the state to uphold immutability.
func (s GameState) Clone() GameState {
	cp := s
	cp.Achievements = append([]string(nil), s.Achievements...)
	cp.Badges = make(map[Badge]struct{}, len(s.Badges))
	for b := range s.Badges {
		cp.Badges[b] = struct{}{}
	}
	cp.ReputationHistory = append([]HistoryEntry(nil), s.ReputationHistory...)
	return cp
}

// BreakdownSnapshot holds the last-computed breakdown for each of the
// five reputation dimensions.
type BreakdownSnapshot struct {
	Activity    ActivityScore    `json:"activity"`
	Social      SocialScore      `json:"social"`
	Achievement AchievementScore `json:"achievement"`
	Trust       TrustScore       `json:"trust"`
	Consistency ConsistencyScore `json:"consistency"`
}

// Totals collapses the snapshot into the compact form recorded in history.
func (b BreakdownSnapshot) Totals() Breakdown {
	return Breakdown{
		Activity:    b.Activity.Total,
		Social:      b.Social.Total,
		Achievement: b.Achievement.Total,
		Trust:       b.Trust.Total,
		Consistency: b.Consistency.Total,
	}
}

// Breakdown is the five sub-score totals at one moment.
type Breakdown struct {
	Activity    float64 `json:"activity"`
	Social      float64 `json:"social"`
	Achievement float64 `json:"achievement"`
	Trust       float64 `json:"trust"`
	Consistency float64 `json:"consistency"`
}

// HistoryEntry is an immutable audit record of one recomputation.
type HistoryEntry struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Score        int       `json:"score"`
	Tier         Tier      `json:"tier"`
	ChangeAmount int       `json:"change_amount"`
	ChangeReason string    `json:"change_reason"`
	Breakdown    Breakdown `json:"breakdown"`
}

// ActivityInput is the transient per-call signal describing what the user
// did since the last recomputation. Numeric fields default to zero when
// absent; the trust/profile signals are derived by the caller so the
// calculators stay clock-free and deterministic.
type ActivityInput struct {
	MinutesWatched  float64  `json:"minutes_watched"`
	SessionDuration float64  `json:"session_duration"`
	SessionQuality  string   `json:"session_quality"`
	IsStreak        bool     `json:"is_streak"`
	IsNewUser       bool     `json:"is_new_user"`
	Collaborations  int      `json:"collaborations"`
	HelpfulActions  int      `json:"helpful_actions"`
	NewAchievements []string `json:"new_achievements"`
	SkillProgress   float64  `json:"skill_progress"`

	IsVerified            bool   `json:"is_verified"`
	DaysSinceVerification int    `json:"days_since_verification"`
	DaysSinceLastActive   int    `json:"days_since_last_active"`
	Username              string `json:"username"`
	TrackCount            int    `json:"track_count"`
	OnboardingComplete    bool   `json:"onboarding_complete"`
	HasAvatar             bool   `json:"has_avatar"`
	HasBio                bool   `json:"has_bio"`
	WalletLinked          bool   `json:"wallet_linked"`
}

// Validate rejects numeric fields that are not representable quantities.
// Out-of-range but finite values are handled by Clamped, not rejected.
func (in ActivityInput) Validate() error {
	for _, v := range []float64{in.MinutesWatched, in.SessionDuration, in.SkillProgress} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidInput
		}
	}
	return nil
}

// Clamped returns a copy with negative numeric fields raised to zero.
// Clamping at the boundary keeps the calculators total over their inputs.
func (in ActivityInput) Clamped() ActivityInput {
	out := in
	out.MinutesWatched = math.Max(0, in.MinutesWatched)
	out.SessionDuration = math.Max(0, in.SessionDuration)
	out.SkillProgress = math.Max(0, in.SkillProgress)
	if out.Collaborations < 0 {
		out.Collaborations = 0
	}
	if out.HelpfulActions < 0 {
		out.HelpfulActions = 0
	}
	if out.DaysSinceVerification < 0 {
		out.DaysSinceVerification = 0
	}
	if out.DaysSinceLastActive < 0 {
		out.DaysSinceLastActive = 0
	}
	if out.TrackCount < 0 {
		out.TrackCount = 0
	}
	return out
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
