// Package engine provides the core game logic for the 2048 game server.
//
// The engine package implements the game mechanics including:
//   - Sliding and merging tiles in four directions
//   - Random tile spawning from an injected generator
//   - Terminal state detection (winning tile reached, or no move left)
//   - Game state snapshots and move history
//   - Configuration loading and validation
//
// Core Types:
//
// Board is a square grid of tile values where 0 marks an empty cell. The
// package-level functions Slide, SpawnTile and IsTerminal are pure: they take
// a board and return a new one. The Engine interface, implemented by
// GameEngine, owns one board and its score and exposes the turn primitives
// (Move, SpawnTile, IsTerminal, Reset) plus Play, which runs them in order.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), engine.NewRand(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	turn, err := gameEngine.Play(engine.Left)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(engine.Render(gameEngine.GetBoard()))
//
// Game Rules:
//
// A move first packs every row (or column) towards the chosen edge, then
// merges each equal adjacent pair once, scanning from that edge, and packs
// again. A merged tile does not merge a second time in the same move, so
// [2 2 2 2] moved left becomes [4 4 0 0]. Every merge adds the new tile's
// value to the score. A move that changes nothing is not a turn and spawns
// nothing. The game ends once the winning tile appears or once the board is
// full with no equal neighbours.
package engine
