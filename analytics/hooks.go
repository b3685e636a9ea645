package analytics

import (
	"sync"
	"time"

	"repkit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DAU tracks daily active users.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// ReputationMetrics aggregates the engine's event stream into the KPIs a
// dashboard cares about: tier movement, level progression, achievement
// unlocks, and net reputation flow per day.
type ReputationMetrics struct {
	mu sync.RWMutex

	levelUpsByDay      map[string]int64
	promotionsByTier   map[core.Tier]int64
	achievementsByName map[string]int64
	scoreDeltaByDay    map[string]int64

	// latest observed tier per user, for the distribution
	currentTier map[core.UserID]core.Tier

	lastEventAt time.Time
}

func NewReputationMetrics() *ReputationMetrics {
	return &ReputationMetrics{
		levelUpsByDay:      map[string]int64{},
		promotionsByTier:   map[core.Tier]int64{},
		achievementsByName: map[string]int64{},
		scoreDeltaByDay:    map[string]int64{},
		currentTier:        map[core.UserID]core.Tier{},
	}
}

func (m *ReputationMetrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")
	if e.Time.After(m.lastEventAt) {
		m.lastEventAt = e.Time
	}

	switch e.Type {
	case core.EventReputationChanged:
		m.scoreDeltaByDay[day] += int64(e.Delta)
		m.currentTier[e.UserID] = e.Tier
	case core.EventLevelUp:
		m.levelUpsByDay[day]++
	case core.EventTierChanged:
		m.promotionsByTier[e.Tier]++
		m.currentTier[e.UserID] = e.Tier
	case core.EventAchievementUnlocked:
		m.achievementsByName[e.Achievement]++
	}
}

func (m *ReputationMetrics) LevelUps(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelUpsByDay[day]
}

func (m *ReputationMetrics) Promotions(tier core.Tier) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.promotionsByTier[tier]
}

func (m *ReputationMetrics) AchievementCount(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.achievementsByName[name]
}

func (m *ReputationMetrics) NetScoreDelta(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scoreDeltaByDay[day]
}

// TierDistribution counts users by their latest observed tier.
func (m *ReputationMetrics) TierDistribution() map[core.Tier]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[core.Tier]int{}
	for _, tier := range m.currentTier {
		out[tier]++
	}
	return out
}
