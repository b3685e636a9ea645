package websocket

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"repkit/core"
	"repkit/realtime"
)

// Handler returns an http.Handler that upgrades to WebSocket and streams
// events from the hub. A ?user= query parameter narrows the stream to one
// user's reputation feed.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := core.UserID(r.URL.Query().Get("user"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var (
			id int
			ch <-chan core.Event
		)
		if user != "" {
			id, ch = hub.SubscribeUser(256, user)
		} else {
			id, ch = hub.Subscribe(256)
		}
		defer hub.Unsubscribe(id)

		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		for ev := range ch {
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		}
	})
}
