package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repkit/core"
)

// defaultSaveRetries bounds optimistic-concurrency retries before the
// conflict is surfaced as a transient error.
const defaultSaveRetries = 3

// ProgressionService is the orchestrator: the only component with side
// effects. It loads a user's state, runs the pure calculators, merges
// the results, persists, and returns a result summary.
type ProgressionService struct {
	storage Storage
	bus     *EventBus
	rules   RuleEngine

	quality core.QualityTable
	weights core.Weights
	tiers   []core.TierBand

	locks       userLocks
	saveRetries int
	now         func() time.Time
}

// ServiceOption tweaks a ProgressionService at construction time.
type ServiceOption func(*ProgressionService)

// WithQualityTable swaps the session-quality multiplier table.
func WithQualityTable(q core.QualityTable) ServiceOption {
	return func(p *ProgressionService) { p.quality = q }
}

// WithWeights swaps the sub-score blend.
func WithWeights(w core.Weights) ServiceOption {
	return func(p *ProgressionService) { p.weights = w }
}

// WithTierTable swaps the tier bands.
func WithTierTable(t []core.TierBand) ServiceOption {
	return func(p *ProgressionService) { p.tiers = t }
}

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(p *ProgressionService) { p.now = now }
}

// WithSaveRetries bounds retries on version conflicts.
func WithSaveRetries(n int) ServiceOption {
	return func(p *ProgressionService) {
		if n > 0 {
			p.saveRetries = n
		}
	}
}

func NewProgressionService(storage Storage, bus *EventBus, rules RuleEngine, opts ...ServiceOption) *ProgressionService {
	if storage == nil || bus == nil || rules == nil {
		panic("NewProgressionService requires non-nil storage, bus, and rules")
	}
	p := &ProgressionService{
		storage:     storage,
		bus:         bus,
		rules:       rules,
		quality:     core.DefaultQualityTable(),
		weights:     core.DefaultWeights(),
		tiers:       core.DefaultTierTable(),
		saveRetries: defaultSaveRetries,
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Subscribe convenience method.
func (p *ProgressionService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return p.bus.Subscribe(typ, handler)
}

func (p *ProgressionService) Publish(ctx context.Context, ev core.Event) {
	p.bus.Publish(ctx, ev)
}

// Recompute folds one activity input into the user's persisted state and
// returns the result summary. Recomputations for the same user are
// serialized; a failed call persists nothing.
func (p *ProgressionService) Recompute(ctx context.Context, user core.UserID, in core.ActivityInput) (core.Result, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.Result{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if err := in.Validate(); err != nil {
		return core.Result{}, err
	}
	in = in.Clamped()

	unlock := p.locks.lock(normalized)
	defer unlock()

	var (
		result core.Result
		events []core.Event
	)
	for attempt := 0; ; attempt++ {
		state, err := p.storage.Load(ctx, normalized)
		if err != nil {
			return core.Result{}, err
		}

		now := p.now().UTC()
		prevScore := state.ReputationScore
		prevLevel := state.Level
		prevTier := state.ReputationTier

		lvl := core.CalculateLevel(state.Experience, state.Level, in, p.quality)
		breakdown := core.BreakdownSnapshot{
			Activity:    core.CalculateActivityScore(in, p.quality),
			Social:      core.CalculateSocialScore(in),
			Achievement: core.CalculateAchievementScore(state, in),
			Trust:       core.CalculateTrustScore(in),
			Consistency: core.CalculateConsistencyScore(in, daysBetween(state.CreatedAt, now)),
		}
		// The aggregator reads the tier multiplier from the score it is
		// about to overwrite; higher-tier users accrue faster.
		agg := core.Aggregate(breakdown, prevScore, p.weights, p.tiers)
		tier := core.ResolveTier(agg.Score, p.tiers)
		delta := agg.Score - prevScore

		state.Level = lvl.Level
		state.Experience = lvl.Experience
		state.ReputationScore = agg.Score
		state.ReputationTier = tier.Name
		state.Achievements = append(state.Achievements, in.NewAchievements...)
		state.Metrics = breakdown
		state.LastActive = now

		entry := core.NewHistoryEntry(now, agg.Score, tier.Name, delta,
			changeReason(lvl, in), breakdown.Totals())
		state.ReputationHistory = core.AppendHistory(state.ReputationHistory, entry)

		saved, err := p.storage.Save(ctx, normalized, state)
		if errors.Is(err, core.ErrVersionConflict) && attempt+1 < p.saveRetries {
			continue
		}
		if err != nil {
			return core.Result{}, err
		}

		result = p.buildResult(saved, lvl, agg, prevScore, delta, in, now)
		events = p.deriveEvents(ctx, saved, lvl, prevLevel, prevTier, delta, in)
		break
	}

	for _, ev := range events {
		p.bus.Publish(ctx, ev)
	}
	return result, nil
}

// Get returns the user's state without mutating it.
func (p *ProgressionService) Get(ctx context.Context, user core.UserID) (core.GameState, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.GameState{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return p.storage.Load(ctx, normalized)
}

// Register creates the zeroed state for a new user. If the user already
// has state, the existing state is returned and created is false.
func (p *ProgressionService) Register(ctx context.Context, user core.UserID) (state core.GameState, created bool, err error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.GameState{}, false, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	unlock := p.locks.lock(normalized)
	defer unlock()

	fresh := core.NewGameState(normalized, p.now().UTC())
	switch err := p.storage.Create(ctx, normalized, fresh); {
	case err == nil:
		return fresh, true, nil
	case errors.Is(err, core.ErrAlreadyRegistered):
		existing, err := p.storage.Load(ctx, normalized)
		return existing, false, err
	default:
		return core.GameState{}, false, err
	}
}

// ResetOptions controls the administrative reset.
type ResetOptions struct {
	// Confirm must be set; reset fails closed without it.
	Confirm bool `json:"confirm"`
	// ClearHistory additionally wipes the reputation ledger.
	ClearHistory bool `json:"clear_history"`
}

// Reset zeroes level, experience, and achievements while preserving
// identity, badges, and (unless explicitly cleared) history.
func (p *ProgressionService) Reset(ctx context.Context, user core.UserID, opts ResetOptions) (core.GameState, error) {
	if !opts.Confirm {
		return core.GameState{}, core.ErrConfirmationRequired
	}
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.GameState{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	unlock := p.locks.lock(normalized)
	defer unlock()

	for attempt := 0; ; attempt++ {
		state, err := p.storage.Load(ctx, normalized)
		if err != nil {
			return core.GameState{}, err
		}

		state.Level = core.MinLevel
		state.Experience = 0
		state.ReputationScore = 0
		state.ReputationTier = core.TierBronze
		state.Achievements = []string{}
		state.Metrics = core.BreakdownSnapshot{}
		if opts.ClearHistory {
			state.ReputationHistory = nil
		}

		saved, err := p.storage.Save(ctx, normalized, state)
		if errors.Is(err, core.ErrVersionConflict) && attempt+1 < p.saveRetries {
			continue
		}
		if err != nil {
			return core.GameState{}, err
		}
		return saved, nil
	}
}

func (p *ProgressionService) Close() { p.bus.Close() }

func (p *ProgressionService) buildResult(state core.GameState, lvl core.LevelResult, agg core.AggregateResult, prevScore, delta int, in core.ActivityInput, now time.Time) core.Result {
	rep := core.ReputationBlock{
		Score:         agg.Score,
		PreviousScore: prevScore,
		Change:        delta,
		Tier:          state.ReputationTier,
		Multiplier:    agg.Multiplier,
		Weighted:      agg.Weighted,
		Breakdown:     agg.Breakdown,
	}
	if next, needed, ok := core.NextTier(agg.Score, p.tiers); ok {
		rep.NextTier = &core.NextTierInfo{Name: next.Name, PointsNeeded: needed}
	}
	return core.Result{
		UserID:     state.UserID,
		Level:      lvl,
		Reputation: rep,
		Activity: core.ActivityEcho{
			MinutesWatched:  in.MinutesWatched,
			SessionDuration: in.SessionDuration,
			SessionQuality:  in.SessionQuality,
			Streak:          in.IsStreak,
		},
		Achievements: core.AchievementBlock{
			NewlyGranted: append([]string(nil), in.NewAchievements...),
			Total:        len(state.Achievements),
		},
		Status: core.StatusBlock{RecomputedAt: now},
	}
}

func (p *ProgressionService) deriveEvents(ctx context.Context, state core.GameState, lvl core.LevelResult, prevLevel int, prevTier core.Tier, delta int, in core.ActivityInput) []core.Event {
	primary := []core.Event{core.NewReputationChanged(state.UserID, state.ReputationScore, delta, state.ReputationTier)}
	if lvl.Level > prevLevel {
		primary = append(primary, core.NewLevelUp(state.UserID, lvl.Level))
	}
	if state.ReputationTier != prevTier {
		primary = append(primary, core.NewTierChanged(state.UserID, state.ReputationTier, state.ReputationScore))
	}
	for _, a := range in.NewAchievements {
		primary = append(primary, core.NewAchievementUnlocked(state.UserID, a))
	}

	out := primary
	for _, ev := range primary {
		out = append(out, p.rules.Evaluate(ctx, state, ev)...)
	}
	return out
}

func changeReason(lvl core.LevelResult, in core.ActivityInput) string {
	reason := fmt.Sprintf("activity update: +%d xp", lvl.EarnedXP)
	if lvl.LeveledUp {
		reason += fmt.Sprintf(", reached level %d", lvl.Level)
	}
	if n := len(in.NewAchievements); n > 0 {
		reason += fmt.Sprintf(", %d new achievement(s)", n)
	}
	return reason
}

// daysBetween reports whole days from a to b, never negative.
func daysBetween(a, b time.Time) int {
	if d := int(b.Sub(a).Hours() / 24); d > 0 {
		return d
	}
	return 0
}
