package core

import "math"

// The five sub-score calculators. Each is side-effect-free, returns a
// 0-100 total plus its labeled components, and may run in any order.

// ActivityScore rates watch behavior.
type ActivityScore struct {
	Total           float64 `json:"total"`
	WatchEfficiency float64 `json:"watch_efficiency"`
	QualityWeight   float64 `json:"quality_weight"`
	Consistency     float64 `json:"consistency"`
	EngagementDepth float64 `json:"engagement_depth"`
}

// CalculateActivityScore averages watch efficiency, session quality,
// recency, and engagement depth.
func CalculateActivityScore(in ActivityInput, quality QualityTable) ActivityScore {
	s := ActivityScore{
		WatchEfficiency: math.Min(in.MinutesWatched/math.Max(in.SessionDuration, 1), 1) * 100,
		QualityWeight:   math.Min(quality.Multiplier(in.SessionQuality)*50, 100),
		Consistency:     recencyScore(in.DaysSinceLastActive),
		EngagementDepth: math.Min(in.MinutesWatched/60*100, 100),
	}
	s.Total = clampF((s.WatchEfficiency+s.QualityWeight+s.Consistency+s.EngagementDepth)/4, 0, 100)
	return s
}

// SocialScore rates community participation.
type SocialScore struct {
	Total             float64 `json:"total"`
	Collaboration     float64 `json:"collaboration"`
	Helpfulness       float64 `json:"helpfulness"`
	CommunityPresence float64 `json:"community_presence"`
}

// CalculateSocialScore averages collaboration, helpfulness, and a
// community-presence score built from profile signals.
func CalculateSocialScore(in ActivityInput) SocialScore {
	presence := 0.0
	if in.Username != "" {
		presence += 30
	}
	presence += math.Min(float64(in.TrackCount), 4) * 10
	if in.OnboardingComplete {
		presence += 30
	}

	s := SocialScore{
		Collaboration:     math.Min(float64(in.Collaborations)*10, 100),
		Helpfulness:       math.Min(float64(in.HelpfulActions)*5, 100),
		CommunityPresence: math.Min(presence, 100),
	}
	s.Total = clampF((s.Collaboration+s.Helpfulness+s.CommunityPresence)/3, 0, 100)
	return s
}

// AchievementScore rates accumulated and freshly earned accomplishments.
type AchievementScore struct {
	Total         float64 `json:"total"`
	Unlocked      float64 `json:"unlocked"`
	NewlyGranted  float64 `json:"newly_granted"`
	SkillProgress float64 `json:"skill_progress"`
	BadgeBonus    float64 `json:"badge_bonus"`
}

// CalculateAchievementScore averages existing achievements, this call's
// grants (uncapped before the average), skill progress, and badge count.
func CalculateAchievementScore(state GameState, in ActivityInput) AchievementScore {
	s := AchievementScore{
		Unlocked:      math.Min(float64(len(state.Achievements))*20, 200),
		NewlyGranted:  float64(len(in.NewAchievements)) * 50,
		SkillProgress: math.Min(in.SkillProgress, 100),
		BadgeBonus:    math.Min(float64(len(state.Badges))*25, 200),
	}
	s.Total = clampF((s.Unlocked+s.NewlyGranted+s.SkillProgress+s.BadgeBonus)/4, 0, 100)
	return s
}

// TrustScore rates identity verification and profile completeness.
type TrustScore struct {
	Total               float64 `json:"total"`
	Verification        float64 `json:"verification"`
	Credibility         float64 `json:"credibility"`
	ProfileCompleteness float64 `json:"profile_completeness"`
}

// CalculateTrustScore averages the verification flag, a verified-age
// credibility ladder, and weighted profile completeness.
func CalculateTrustScore(in ActivityInput) TrustScore {
	s := TrustScore{}
	if in.IsVerified {
		s.Verification = 100
		switch {
		case in.DaysSinceVerification >= 365:
			s.Credibility = 100
		case in.DaysSinceVerification >= 180:
			s.Credibility = 80
		case in.DaysSinceVerification >= 30:
			s.Credibility = 60
		default:
			s.Credibility = 40
		}
	}

	completeness := 0.0
	if in.Username != "" {
		completeness += profileUsernameWeight
	}
	if in.HasAvatar {
		completeness += profileAvatarWeight
	}
	if in.HasBio {
		completeness += profileBioWeight
	}
	if in.OnboardingComplete {
		completeness += profileOnboardedWeight
	}
	if in.WalletLinked {
		completeness += profileWalletWeight
	}
	s.ProfileCompleteness = completeness

	s.Total = clampF((s.Verification+s.Credibility+s.ProfileCompleteness)/3, 0, 100)
	return s
}

// ConsistencyScore rates return cadence and account age. Unlike the other
// dimensions it is a single capped value, not an internal average.
type ConsistencyScore struct {
	Total           float64 `json:"total"`
	ActivityRecency float64 `json:"activity_recency"`
	AccountAgeBonus float64 `json:"account_age_bonus"`
}

// CalculateConsistencyScore combines the recency ladder with an
// account-age bonus. accountAgeDays is derived by the caller from
// CreatedAt so the function stays clock-free.
func CalculateConsistencyScore(in ActivityInput, accountAgeDays int) ConsistencyScore {
	s := ConsistencyScore{ActivityRecency: recencyScore(in.DaysSinceLastActive)}
	switch {
	case accountAgeDays >= 365:
		s.AccountAgeBonus = 20
	case accountAgeDays >= 180:
		s.AccountAgeBonus = 15
	case accountAgeDays >= 30:
		s.AccountAgeBonus = 10
	}
	s.Total = clampF(s.ActivityRecency+s.AccountAgeBonus, 0, 100)
	return s
}

// recencyScore is the discrete days-since-active ladder shared by the
// activity and consistency dimensions.
func recencyScore(days int) float64 {
	switch {
	case days <= 1:
		return 100
	case days <= 3:
		return 80
	case days <= 7:
		return 60
	case days <= 30:
		return 40
	default:
		return 20
	}
}
