package core

import "math"

// LevelResult is the output of one XP recomputation.
type LevelResult struct {
	Level         int     `json:"level"`
	PriorLevel    int     `json:"prior_level"`
	Experience    int64   `json:"experience"`
	EarnedXP      int64   `json:"earned_xp"`
	XPToNextLevel int64   `json:"xp_to_next_level"`
	LevelProgress float64 `json:"level_progress"`
	LeveledUp     bool    `json:"leveled_up"`
}

// Threshold returns the total XP required to advance past the given level:
// floor(BaseThreshold * LevelGrowth^(level-1)). Monotone for growth > 1.
// Saturates at MaxInt64 for the top few levels, where the curve outgrows
// any reachable XP total.
func Threshold(level int) int64 {
	v := math.Floor(BaseThreshold * math.Pow(LevelGrowth, float64(level-1)))
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// CalculateLevel folds one activity input into the prior level/XP pair.
// It is pure: same inputs always yield the same outputs, and well-formed
// numeric inputs never fail (callers clamp negatives at the boundary).
func CalculateLevel(priorXP int64, priorLevel int, in ActivityInput, quality QualityTable) LevelResult {
	level := clampInt(priorLevel, MinLevel, MaxLevel)

	baseXP := math.Floor(in.MinutesWatched * XPPerMinute)
	baseXP = math.Floor(baseXP * quality.Multiplier(in.SessionQuality))

	mult := 1.0
	if in.IsNewUser {
		mult *= NewUserMultiplier
	}
	if in.IsStreak {
		mult *= StreakMultiplier
	}
	if in.IsVerified {
		mult *= VerifiedMultiplier
	}
	// The daily-login bonus fires on exactly a one-day gap: a second
	// session the same day or a two-day gap earns nothing extra.
	if in.DaysSinceLastActive == 1 {
		mult *= DailyLoginMultiplier
	}

	earned := int64(math.Floor(baseXP * mult))
	total := priorXP + earned

	// Monotone staircase: climb while the next threshold is met.
	for level < MaxLevel && total >= Threshold(level) {
		level++
	}

	res := LevelResult{
		Level:      level,
		PriorLevel: priorLevel,
		Experience: total,
		EarnedXP:   earned,
		LeveledUp:  level > priorLevel,
	}
	if level < MaxLevel {
		res.XPToNextLevel = Threshold(level) - total
	}
	res.LevelProgress = levelProgress(total, level)
	return res
}

// levelProgress reports the percentage through the current level's XP band.
func levelProgress(total int64, level int) float64 {
	if level >= MaxLevel {
		return 100
	}
	var lower int64
	if level > MinLevel {
		lower = Threshold(level - 1)
	}
	upper := Threshold(level)
	if upper <= lower {
		return 100
	}
	return clampF(float64(total-lower)/float64(upper-lower)*100, 0, 100)
}
