package analytics

import (
	"time"

	"repkit/core"
)

// Snapshot is a point-in-time export of the aggregated KPIs.
type Snapshot struct {
	Day              string              `json:"day"`
	ActiveUsers      int                 `json:"active_users"`
	LevelUps         int64               `json:"level_ups"`
	NetScoreDelta    int64               `json:"net_score_delta"`
	TierDistribution map[core.Tier]int   `json:"tier_distribution"`
	PromotionsByTier map[core.Tier]int64 `json:"promotions_by_tier"`
	CreatedAt        time.Time           `json:"created_at"`
}

// Snapshot captures the KPIs for one day.
func TakeSnapshot(dau *DAU, metrics *ReputationMetrics, day string) *Snapshot {
	metrics.mu.RLock()
	promotions := make(map[core.Tier]int64, len(metrics.promotionsByTier))
	for k, v := range metrics.promotionsByTier {
		promotions[k] = v
	}
	metrics.mu.RUnlock()

	return &Snapshot{
		Day:              day,
		ActiveUsers:      dau.Count(day),
		LevelUps:         metrics.LevelUps(day),
		NetScoreDelta:    metrics.NetScoreDelta(day),
		TierDistribution: metrics.TierDistribution(),
		PromotionsByTier: promotions,
		CreatedAt:        time.Now().UTC(),
	}
}
