// Package service provides the business logic layer for the 2048 game server.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration listing, loading and saving
//   - Turn processing, single and bulk
//   - Gameplay events for transports to forward
//   - Paginated move history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine. Engines are not safe for
// concurrent use, so the service serializes every call that touches one and
// persists the session after each state change.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, sessionInfo.ID, "left", false)
//
// Events:
//
// Every turn yields either a "move" or a "no_change" event, followed by
// "merge" when tiles combined, "spawn" for the new tile, and "won" or
// "game_over" when the turn ended the game. Each event carries a random id.
package service
