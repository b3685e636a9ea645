package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mem "repkit/adapters/memory"
	"repkit/core"
	"repkit/engine"
	"repkit/leaderboard"
)

func newTestService() *engine.ProgressionService {
	storage := mem.New()
	bus := engine.NewEventBus(engine.DispatchSync)
	rules := engine.DefaultRuleEngine()
	return engine.NewProgressionService(storage, bus, rules)
}

func register(t *testing.T, handler http.Handler, user string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/users/"+user+"/register", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("register: expected JSON content type, got %q", ct)
	}
}

func TestRecomputeSuccess(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{PathPrefix: "/api"})
	register(t, handler, "alice")

	body, _ := json.Marshal(core.ActivityInput{MinutesWatched: 30, SessionQuality: "good", IsNewUser: true})
	req := httptest.NewRequest(http.MethodPost, "/api/users/alice/recompute", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res core.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Level.EarnedXP != 144 || res.Level.Level != 2 {
		t.Fatalf("unexpected result: %+v", res.Level)
	}
}

func TestRecomputeUnknownUser(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodPost, "/api/users/ghost/recompute", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRecomputeMalformedBody(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{PathPrefix: "/api"})
	register(t, handler, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/users/alice/recompute", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{PathPrefix: "/api"})
	register(t, handler, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/users/alice/register", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second register: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Created bool `json:"created"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Created {
		t.Fatal("second register must report created=false")
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{PathPrefix: "/api"})
	register(t, handler, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/users/alice/reset", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/users/alice/reset", bytes.NewReader([]byte(`{"confirm":true}`)))
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}
}

func TestGetUserAndHistory(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{PathPrefix: "/api"})
	register(t, handler, "alice")

	body, _ := json.Marshal(core.ActivityInput{MinutesWatched: 10})
	req := httptest.NewRequest(http.MethodPost, "/api/users/alice/recompute", bytes.NewReader(body))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	getReq := httptest.NewRequest(http.MethodGet, "/api/users/alice", nil)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getRec.Code)
	}

	histReq := httptest.NewRequest(http.MethodGet, "/api/users/alice/history", nil)
	histRec := httptest.NewRecorder()
	handler.ServeHTTP(histRec, histReq)
	if histRec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", histRec.Code)
	}
	var hist struct {
		History []core.HistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(histRec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(hist.History))
	}
}

func TestGetUserNotFound(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/users/unknown", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLeaderboardRoute(t *testing.T) {
	board := leaderboard.NewSkipList()
	board.Update(leaderboard.Entry{User: "alice", Score: 2600, Tier: core.TierGold, Level: 9})
	board.Update(leaderboard.Entry{User: "bob", Score: 400, Tier: core.TierBronze, Level: 3})

	handler := NewMux(newTestService(), nil, board, Options{PathPrefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?n=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Entries []leaderboard.Entry `json:"entries"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Entries) != 1 || resp.Entries[0].User != "alice" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{
		PathPrefix:      "/api",
		APIKeys:         []string{"secret"},
		AllowCORSOrigin: "*",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req2.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}
}

func TestRateLimit(t *testing.T) {
	handler := NewMux(newTestService(), nil, nil, Options{
		PathPrefix:       "/api",
		APIKeys:          []string{"k"},
		RateLimitEnabled: true,
		RateLimitRPM:     1,
		RateLimitBurst:   1,
	})

	req1 := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req1.Header.Set("X-API-Key", "k")
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200 first request, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req2.Header.Set("X-API-Key", "k")
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec2.Code)
	}
}
