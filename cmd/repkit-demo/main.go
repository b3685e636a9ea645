// Command repkit-demo runs a zero-config development server: in-memory
// storage, text logging, no auth, listening on :8080.
package main

import (
	"log/slog"
	"net/http"
	"os"

	mem "repkit/adapters/memory"
	"repkit/api/httpapi"
	"repkit/engine"
	"repkit/leaderboard"
	"repkit/progression"
	"repkit/realtime"
)

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(textHandler))

	hub := realtime.NewHub()
	board := leaderboard.NewSkipList()
	svc := progression.New(
		progression.WithStorage(mem.New()),
		progression.WithRealtime(hub),
		progression.WithLeaderboard(board),
		progression.WithDispatchMode(engine.DispatchAsync),
	)
	defer svc.Close()

	handler := httpapi.NewMux(svc, hub, board, httpapi.Options{})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", handler); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
