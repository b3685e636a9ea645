package core

// Tuning tables are immutable values passed into the pure calculators so
// they can be swapped per environment or per test without shared state.

const (
	MinLevel = 1
	MaxLevel = 100

	// XPPerMinute is the base XP earned per minute watched.
	XPPerMinute = 2

	// BaseThreshold and LevelGrowth define the XP staircase:
	// threshold(L) = floor(BaseThreshold * LevelGrowth^(L-1)).
	BaseThreshold = 100
	LevelGrowth   = 1.5

	MaxReputation = 10000

	// HistoryCapacity bounds the reputation audit ledger (FIFO eviction).
	HistoryCapacity = 100
)

// XP multipliers stacked on top of the quality-adjusted base.
const (
	NewUserMultiplier    = 2.0
	StreakMultiplier     = 1.5
	VerifiedMultiplier   = 1.3
	DailyLoginMultiplier = 1.2
)

// QualityTable maps session-quality labels to XP multipliers.
// Unknown labels resolve to 1.0.
type QualityTable map[string]float64

// DefaultQualityTable returns the production quality multipliers.
func DefaultQualityTable() QualityTable {
	return QualityTable{
		"excellent": 1.5,
		"good":      1.2,
		"average":   1.0,
		"poor":      0.8,
	}
}

// Multiplier resolves a label, defaulting to neutral.
func (q QualityTable) Multiplier(label string) float64 {
	if m, ok := q[label]; ok {
		return m
	}
	return 1.0
}

// Weights are the fixed blend of the five sub-scores. They sum to 1.0.
type Weights struct {
	Activity    float64
	Social      float64
	Achievement float64
	Trust       float64
	Consistency float64
}

// DefaultWeights returns the production reputation blend.
func DefaultWeights() Weights {
	return Weights{
		Activity:    0.35,
		Social:      0.25,
		Achievement: 0.20,
		Trust:       0.15,
		Consistency: 0.05,
	}
}

// TierBand is one named band of the reputation range, carrying the
// multiplier applied to future score growth while a user sits in it.
type TierBand struct {
	Name       Tier    `json:"name"`
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Multiplier float64 `json:"multiplier"`
}

// DefaultTierTable returns the six contiguous bands over [0, MaxReputation].
func DefaultTierTable() []TierBand {
	return []TierBand{
		{Name: TierBronze, Min: 0, Max: 999, Multiplier: 1.0},
		{Name: TierSilver, Min: 1000, Max: 2499, Multiplier: 1.1},
		{Name: TierGold, Min: 2500, Max: 4999, Multiplier: 1.2},
		{Name: TierPlatinum, Min: 5000, Max: 7499, Multiplier: 1.3},
		{Name: TierDiamond, Min: 7500, Max: 9499, Multiplier: 1.4},
		{Name: TierLegendary, Min: 9500, Max: 10000, Multiplier: 1.5},
	}
}

// Profile completeness weights for the trust score; they sum to 100.
const (
	profileUsernameWeight   = 25
	profileAvatarWeight     = 20
	profileBioWeight        = 15
	profileOnboardedWeight  = 20
	profileWalletWeight     = 20
)
