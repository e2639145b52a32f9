package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultGameConfig returns the classic 4x4 game played to 2048
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:         "classic",
		Description:  "Classic 4x4 board, reach 2048",
		Size:         DefaultBoardSize,
		WinningValue: DefaultWinningValue,
		SpawnValues:  append([]int(nil), DefaultSpawnValues...),
		InitialTiles: DefaultInitialTiles,
		Messages: Messages{
			Welcome:  "Join the tiles, get to 2048!",
			Moved:    "Score: %d",
			NoChange: "Nothing moved",
			Won:      "You reached %d!",
			GameOver: "Game Over! Final score: %d",
		},
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Size < MinBoardSize || config.Size > MaxBoardSize {
		return fmt.Errorf("config validation: size must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.Size)
	}

	if !IsPowerOfTwo(config.WinningValue) || config.WinningValue < 4 {
		return fmt.Errorf("config validation: winning_value must be a power of two >= 4, got %d", config.WinningValue)
	}

	if len(config.SpawnValues) == 0 {
		return fmt.Errorf("config validation: spawn_values must not be empty")
	}
	for _, v := range config.SpawnValues {
		if !IsPowerOfTwo(v) {
			return fmt.Errorf("config validation: spawn value %d is not a power of two", v)
		}
		if v >= config.WinningValue {
			return fmt.Errorf("config validation: spawn value %d must be below winning_value %d", v, config.WinningValue)
		}
	}

	// An empty board can never change, so at least one tile is required
	if config.InitialTiles < 1 || config.InitialTiles > config.Size*config.Size {
		return fmt.Errorf("config validation: initial_tiles must be between 1 and %d, got %d",
			config.Size*config.Size, config.InitialTiles)
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.GameOver == "" {
		return fmt.Errorf("config validation: messages.game_over is required")
	}
	if config.Messages.Won == "" {
		return fmt.Errorf("config validation: messages.won is required")
	}

	// Format strings
	if !strings.Contains(config.Messages.GameOver, "%d") {
		return fmt.Errorf("config validation: messages.game_over must contain %%d for score")
	}
	if !strings.Contains(config.Messages.Won, "%d") {
		return fmt.Errorf("config validation: messages.won must contain %%d for the winning value")
	}
	if config.Messages.Moved != "" && !strings.Contains(config.Messages.Moved, "%d") {
		return fmt.Errorf("config validation: messages.moved must contain %%d for score")
	}

	return nil
}

// DecodeGameConfig parses a configuration document. YAML is used for .yaml
// and .yml files, JSON otherwise. A missing initial_tiles defaults to 2.
func DecodeGameConfig(filename string, data []byte) (*GameConfig, error) {
	config := GameConfig{InitialTiles: DefaultInitialTiles}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}

	return &config, nil
}

// LoadGameConfig loads and validates a game configuration file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// InitGameStateFromConfig creates an empty game state for the configuration.
// Tiles are not spawned here; the engine does that with its own generator.
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	return &GameState{
		Board:             NewBoard(config.Size),
		Size:              config.Size,
		Score:             0,
		Terminal:          false,
		Won:               false,
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
		EmptyCells:        config.Size * config.Size,
	}
}
