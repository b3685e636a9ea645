package engine

import (
	"context"
	"testing"

	"repkit/core"
)

func TestEventBusSyncDispatchAndUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	got := 0
	unsub := bus.Subscribe(core.EventLevelUp, func(_ context.Context, e core.Event) { got = e.Level })

	bus.Publish(context.Background(), core.NewLevelUp("alice", 7))
	if got != 7 {
		t.Fatalf("expected level 7, got %d", got)
	}

	unsub()
	bus.Publish(context.Background(), core.NewLevelUp("alice", 9))
	if got != 7 {
		t.Fatal("handler fired after unsubscribe")
	}
}

func TestEventBusOnlyMatchingType(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	fired := false
	bus.Subscribe(core.EventTierChanged, func(context.Context, core.Event) { fired = true })
	bus.Publish(context.Background(), core.NewLevelUp("alice", 2))
	if fired {
		t.Fatal("handler fired for unrelated event type")
	}
}
