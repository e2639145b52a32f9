// Package tui plays a local 2048 game in the terminal.
//
// The Bubble Tea model owns one engine. Arrow keys, wasd and hjkl slide the
// tiles, r starts a new game and q quits. Once the game is won or lost the
// board is frozen until a restart.
package tui
