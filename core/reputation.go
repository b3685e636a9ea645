package core

import "math"

// AggregateResult carries the blended score plus everything needed to
// audit how it was produced.
type AggregateResult struct {
	Score      int               `json:"score"`
	Weighted   float64           `json:"weighted"`
	Multiplier float64           `json:"multiplier"`
	Breakdown  BreakdownSnapshot `json:"breakdown"`
}

// Aggregate blends the five sub-scores with the fixed weights, scales the
// result onto [0, MaxReputation], and applies the multiplier of the tier
// resolved from the PRIOR score. Using the pre-update tier is deliberate:
// higher-tier users accrue reputation faster.
func Aggregate(b BreakdownSnapshot, priorScore int, w Weights, tiers []TierBand) AggregateResult {
	weighted := (b.Activity.Total*w.Activity +
		b.Social.Total*w.Social +
		b.Achievement.Total*w.Achievement +
		b.Trust.Total*w.Trust +
		b.Consistency.Total*w.Consistency) * 100

	mult := ResolveTier(priorScore, tiers).Multiplier
	score := clampInt(int(math.Round(weighted*mult)), 0, MaxReputation)

	return AggregateResult{
		Score:      score,
		Weighted:   weighted,
		Multiplier: mult,
		Breakdown:  b,
	}
}

// ResolveTier maps a score to its band. Scores outside [0, MaxReputation]
// are clamped, so resolution is total.
func ResolveTier(score int, tiers []TierBand) TierBand {
	score = clampInt(score, 0, MaxReputation)
	for _, band := range tiers {
		if score >= band.Min && score <= band.Max {
			return band
		}
	}
	// Unreachable with a contiguous table; fall back to the top band.
	return tiers[len(tiers)-1]
}

// NextTier returns the band above the score's current one plus the points
// needed to reach it. ok is false at the terminal tier.
func NextTier(score int, tiers []TierBand) (band TierBand, pointsNeeded int, ok bool) {
	current := ResolveTier(score, tiers)
	for i, b := range tiers {
		if b.Name == current.Name && i+1 < len(tiers) {
			next := tiers[i+1]
			return next, next.Min - clampInt(score, 0, MaxReputation), true
		}
	}
	return TierBand{}, 0, false
}
