package sdk

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	mem "repkit/adapters/memory"
	"repkit/api/httpapi"
	"repkit/core"
	"repkit/engine"
	"repkit/leaderboard"
	"repkit/progression"
	"repkit/realtime"
)

// newTestServer runs the real API mux so the SDK is exercised against
// the actual wire format.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hub := realtime.NewHub()
	board := leaderboard.NewSkipList()
	svc := progression.New(
		progression.WithStorage(mem.New()),
		progression.WithDispatchMode(engine.DispatchSync),
		progression.WithRealtime(hub),
		progression.WithLeaderboard(board),
	)
	t.Cleanup(svc.Close)
	handler := httpapi.NewMux(svc, hub, board, httpapi.Options{PathPrefix: "/api"})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	_, created, err := client.Register(ctx, "alice")
	if err != nil || !created {
		t.Fatalf("register: created=%v err=%v", created, err)
	}

	res, err := client.Recompute(ctx, "alice", ActivityInput{
		MinutesWatched: 30,
		SessionQuality: "good",
		IsNewUser:      true,
	})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if res.Level.EarnedXP != 144 || res.Level.Level != 2 {
		t.Fatalf("unexpected result: %+v", res.Level)
	}

	state, err := client.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if state.UserID != "alice" || state.Level != 2 {
		t.Fatalf("unexpected state: %+v", state)
	}

	history, err := client.History(ctx, "alice")
	if err != nil || len(history) != 1 {
		t.Fatalf("history: %v entries=%d", err, len(history))
	}

	entries, err := client.Leaderboard(ctx, 5)
	if err != nil || len(entries) != 1 || entries[0].User != "alice" {
		t.Fatalf("leaderboard: %v entries=%+v", err, entries)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	if _, err := client.GetUser(ctx, "ghost"); err == nil {
		t.Fatal("expected error for unknown user")
	} else if apiErr, ok := err.(*APIError); !ok || apiErr.StatusCode != 404 {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, _ = client.Register(ctx, "alice")
	if _, err := client.Reset(ctx, "alice", false, false); err == nil {
		t.Fatal("expected confirmation error")
	} else if apiErr, ok := err.(*APIError); !ok || apiErr.Code != "confirmation_required" {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.Reset(ctx, "alice", true, false); err != nil {
		t.Fatalf("confirmed reset: %v", err)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// give the ws subscriber a beat to attach
	time.Sleep(20 * time.Millisecond)

	_, _, _ = client.Register(ctx, "bob")
	if _, err := client.Recompute(ctx, "bob", ActivityInput{MinutesWatched: 10}); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != core.EventReputationChanged {
			t.Fatalf("unexpected event type: %s", evt.Type)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}
