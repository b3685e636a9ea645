package engine

import (
	"context"
	"fmt"

	"repkit/core"
)

// Rule derives events from a primary trigger and the post-update state.
type Rule interface {
	Evaluate(ctx context.Context, state core.GameState, trigger core.Event) []core.Event
}

// LevelMilestoneRule unlocks an achievement event every N levels.
type LevelMilestoneRule struct{ Every int }

func (r LevelMilestoneRule) Evaluate(_ context.Context, state core.GameState, trigger core.Event) []core.Event {
	if trigger.Type != core.EventLevelUp || r.Every <= 0 {
		return nil
	}
	if trigger.Level%r.Every != 0 {
		return nil
	}
	name := fmt.Sprintf("level-%d-milestone", trigger.Level)
	return []core.Event{core.NewAchievementUnlocked(state.UserID, name)}
}

// TierPromotionRule unlocks an achievement event when a user enters a
// new tier.
type TierPromotionRule struct{}

func (TierPromotionRule) Evaluate(_ context.Context, state core.GameState, trigger core.Event) []core.Event {
	if trigger.Type != core.EventTierChanged {
		return nil
	}
	name := fmt.Sprintf("tier-%s-reached", trigger.Tier)
	return []core.Event{core.NewAchievementUnlocked(state.UserID, name)}
}

// DefaultRuleEngine returns the standard milestone rules.
func DefaultRuleEngine() RuleEngine {
	return &simpleRuleEngine{rules: []Rule{
		LevelMilestoneRule{Every: 10},
		TierPromotionRule{},
	}}
}

type simpleRuleEngine struct{ rules []Rule }

func (s *simpleRuleEngine) Evaluate(ctx context.Context, state core.GameState, trigger core.Event) []core.Event {
	var out []core.Event
	for _, r := range s.rules {
		out = append(out, r.Evaluate(ctx, state, trigger)...)
	}
	return out
}
