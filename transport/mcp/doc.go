// Package mcp provides a Model Context Protocol server for the 2048 game.
//
// The server is a thin client of the REST API: every tool call becomes one
// or two HTTP requests against /api, and the JSON answer is turned into text
// an AI agent can read. Boards are drawn with engine.Render.
//
// MCP Tools:
//   - create_session: Create a new game session with config selection
//   - list_sessions: List all active sessions
//   - get_session: Get specific session details
//   - game_state: Current board, score and possible moves
//   - move: Slide the tiles in one direction
//   - bulk_move: Several moves in sequence
//   - reset_game: Start a new game in the session
//   - move_history: Paginated move history
//   - list_configs: List available game configurations
//   - game_instructions: Rules and strategy tips
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp, handled with GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
