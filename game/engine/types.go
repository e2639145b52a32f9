package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is one of the four slide directions
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Validation constants
	MinBoardSize        = 2
	MaxBoardSize        = 16
	DefaultBoardSize    = 4
	DefaultWinningValue = 2048
	DefaultInitialTiles = 2
	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidSize      = errors.New("invalid board size")
	ErrInvalidState     = errors.New("invalid game state")
	ErrGameOver         = errors.New("game is over")
)

// Directions lists every valid direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// DefaultSpawnValues are picked uniformly when a tile spawns
var DefaultSpawnValues = []int{2, 4}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

func (d Direction) String() string {
	return string(d)
}

// ParseDirection maps user input to a Direction. Besides the full names it
// accepts the w/a/s/d and k/h/j/l keys.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w", "k":
		return Up, nil
	case "down", "s", "j":
		return Down, nil
	case "left", "a", "h":
		return Left, nil
	case "right", "d", "l":
		return Right, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Position is a row/column pair on the board
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Spawn records a tile placed after a move
type Spawn struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// MoveResult is the outcome of a single slide
type MoveResult struct {
	Direction  Direction `json:"direction"`
	Changed    bool      `json:"changed"`
	ScoreDelta int       `json:"score_delta"`
	Merges     int       `json:"merges"`
}

// TurnResult is the outcome of a full turn: slide, spawn and terminal check
type TurnResult struct {
	MoveResult
	Spawned  *Spawn `json:"spawned,omitempty"`
	Score    int    `json:"score"`
	Terminal bool   `json:"terminal"`
	Won      bool   `json:"won"`
}

// Messages holds the player-facing texts of a configuration
type Messages struct {
	Welcome  string `json:"welcome" yaml:"welcome"`
	Moved    string `json:"moved" yaml:"moved"`
	NoChange string `json:"no_change" yaml:"no_change"`
	Won      string `json:"won" yaml:"won"`
	GameOver string `json:"game_over" yaml:"game_over"`
}

// GameConfig represents the game configuration from JSON or YAML
type GameConfig struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Size         int      `json:"size" yaml:"size"`
	WinningValue int      `json:"winning_value" yaml:"winning_value"`
	SpawnValues  []int    `json:"spawn_values" yaml:"spawn_values"`
	InitialTiles int      `json:"initial_tiles" yaml:"initial_tiles"`
	Messages     Messages `json:"messages" yaml:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	Board      Board  `json:"board"`
	Size       int    `json:"size"`
	Score      int    `json:"score"`
	Terminal   bool   `json:"terminal"`
	Won        bool   `json:"won"`
	Message    string `json:"message"`
	ConfigName string `json:"config_name"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views
	MaxTile    int `json:"max_tile"`
	EmptyCells int `json:"empty_cells"`
}

// MoveHistoryEntry represents a single turn in the game history
type MoveHistoryEntry struct {
	Action     Direction `json:"action"`
	Changed    bool      `json:"changed"`
	ScoreDelta int       `json:"score_delta"`
	Score      int       `json:"score"`
	Spawned    *Spawn    `json:"spawned,omitempty"`
	Timestamp  int64     `json:"timestamp"`
	MoveNumber int       `json:"move_number"`
}
