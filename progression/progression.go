// Package progression is the batteries-included entry point: it wires
// the engine to storage, realtime, analytics, webhooks, and the
// leaderboard with functional options.
package progression

import (
	"context"

	mem "repkit/adapters/memory"
	"repkit/analytics"
	"repkit/core"
	"repkit/engine"
	"repkit/integrations/webhook"
	"repkit/leaderboard"
	"repkit/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	mode    engine.DispatchMode
	rules   engine.RuleEngine
	hub     *realtime.Hub
	board   leaderboard.Board
	hooks   []analytics.Hook
	sink    *webhook.Sink
	svcOpts []engine.ServiceOption
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithRuleEngine sets the rule engine.
func WithRuleEngine(r engine.RuleEngine) Option { return func(c *config) { c.rules = r } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithLeaderboard keeps a board current from the reputation event stream.
func WithLeaderboard(b leaderboard.Board) Option { return func(c *config) { c.board = b } }

// WithAnalytics attaches KPI hooks to the event stream.
func WithAnalytics(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// WithWebhooks delivers events to external endpoints.
func WithWebhooks(s *webhook.Sink) Option { return func(c *config) { c.sink = s } }

// WithServiceOptions passes tuning options through to the engine.
func WithServiceOptions(opts ...engine.ServiceOption) Option {
	return func(c *config) { c.svcOpts = append(c.svcOpts, opts...) }
}

var eventTypes = []core.EventType{
	core.EventReputationChanged,
	core.EventLevelUp,
	core.EventTierChanged,
	core.EventAchievementUnlocked,
}

// New builds a configured ProgressionService. Defaults:
//   - storage: in-memory
//   - rules: DefaultRuleEngine
//   - dispatch: async
func New(opts ...Option) *engine.ProgressionService {
	cfg := &config{mode: engine.DispatchAsync, rules: engine.DefaultRuleEngine()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = mem.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewProgressionService(cfg.storage, bus, cfg.rules, cfg.svcOpts...)

	if cfg.hub != nil {
		for _, typ := range eventTypes {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
	}
	if len(cfg.hooks) > 0 {
		bridge := analytics.NewBridge(cfg.hooks...)
		for _, typ := range eventTypes {
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
		}
	}
	if cfg.sink != nil {
		for _, typ := range eventTypes {
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { cfg.sink.OnEvent(e) })
		}
	}
	if cfg.board != nil {
		bus.Subscribe(core.EventReputationChanged, func(_ context.Context, e core.Event) {
			entry := leaderboard.Entry{User: e.UserID, Score: e.Score, Tier: e.Tier}
			if prev, ok := cfg.board.Get(e.UserID); ok {
				entry.Level = prev.Level
			}
			cfg.board.Update(entry)
		})
		bus.Subscribe(core.EventLevelUp, func(_ context.Context, e core.Event) {
			if prev, ok := cfg.board.Get(e.UserID); ok {
				prev.Level = e.Level
				cfg.board.Update(prev)
			}
		})
	}
	return svc
}
