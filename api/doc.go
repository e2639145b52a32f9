// Package api provides HTTP REST API handlers for the 2048 game server.
//
// The api package implements:
//   - Session management endpoints
//   - Move, bulk move and reset endpoints
//   - Paginated move history
//   - Configuration listing, lookup and upload
//   - WebSocket upgrade handling and client command dispatch
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                  - Create session {"config_id": "classic"}
//   - GET    /api/sessions                  - List sessions (?sort=created|accessed|score&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified          - Several sessions side by side (?sessionIds=a,b or ?configName=x)
//   - GET    /api/sessions/{id}             - Session details
//   - DELETE /api/sessions/{id}             - Delete session
//
// Game Operations:
//   - GET  /api/sessions/{id}/state         - Current game state
//   - POST /api/sessions/{id}/move          - {"direction": "left", "reset": false}
//   - POST /api/sessions/{id}/bulk-move     - {"moves": ["left", "up"], "reset": false}
//   - POST /api/sessions/{id}/reset         - Start a new game in the session
//   - GET  /api/sessions/{id}/history       - ?page=1&limit=20&order=desc
//
// Configuration:
//   - GET  /api/configs                     - List configurations
//   - GET  /api/configs/{name}              - Get one configuration
//   - POST /api/configs                     - Save a configuration (?id=file-id)
//
// Other:
//   - GET /api/health                       - Liveness probe
//   - GET /ws?session={id}                  - WebSocket updates for a session
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Invalid directions, bad
// bodies and invalid configurations map to 400, unknown sessions and configs
// to 404, moves on a finished game to 409, everything else to 500.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	server := api.NewServer(gameService, hub, logger)
//	http.ListenAndServe(":8080", server)
package api
