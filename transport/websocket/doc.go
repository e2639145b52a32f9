// Package websocket provides WebSocket transport for the 2048 game server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every change
//   - Client commands (move, reset) forwarded to a CommandHandler
//   - Ping/pong keepalive
//
// Architecture:
//
// A central Hub owns every connection. Registration, unregistration and
// broadcasts are funnelled through channels into the goroutine running
// Hub.Run, so the client registry is never touched concurrently. Each client
// has a read pump and a write pump goroutine.
//
// Message Protocol:
//
//   - Incoming: {"action": "move", "direction": "up"} or {"action": "reset"}
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "game_state": {...}}
//
// Command failures are answered with an "error" event sent only to the client
// that issued the command.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	hub.SetCommandHandler(apiServer.HandleCommand)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Cancelling the context passed to Run closes every client connection.
package websocket
