package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventReputationChanged   EventType = "reputation_changed"
	EventLevelUp             EventType = "level_up"
	EventTierChanged         EventType = "tier_changed"
	EventAchievementUnlocked EventType = "achievement_unlocked"
)

// Event represents an immutable domain event.
type Event struct {
	Type        EventType      `json:"type"`
	Time        time.Time      `json:"time"`
	UserID      UserID         `json:"user_id"`
	Score       int            `json:"score,omitempty"`
	Delta       int            `json:"delta,omitempty"`
	Level       int            `json:"level,omitempty"`
	Tier        Tier           `json:"tier,omitempty"`
	Achievement string         `json:"achievement,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewReputationChanged(user UserID, score, delta int, tier Tier) Event {
	return Event{Type: EventReputationChanged, Time: time.Now().UTC(), UserID: user, Score: score, Delta: delta, Tier: tier}
}

func NewLevelUp(user UserID, level int) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), UserID: user, Level: level}
}

func NewTierChanged(user UserID, tier Tier, score int) Event {
	return Event{Type: EventTierChanged, Time: time.Now().UTC(), UserID: user, Tier: tier, Score: score}
}

func NewAchievementUnlocked(user UserID, achievement string) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), UserID: user, Achievement: achievement}
}
