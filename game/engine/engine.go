package engine

import (
	"fmt"
	"slices"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	ResetSize(size int) error
	IsTerminal() bool
	IsWon() bool
	GetScore() int
	GetBoard() Board

	// Turn primitives
	Move(dir Direction) (MoveResult, error)
	SpawnTile() *Spawn

	// Full turns
	Play(dir Direction) (TurnResult, error)
	CanMove(dir Direction) bool
	GetPossibleMoves() []Direction

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

var _ Engine = (*GameEngine)(nil)

// GameEngine implements the Engine interface. It is not safe for concurrent use.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    Rand
}

// NewEngine creates a new game engine with the provided configuration and
// spawns the initial tiles. A nil rng is replaced by a time-seeded one.
func NewEngine(config *GameConfig, rng Rand) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = TimeSeededRand()
	}

	engine := &GameEngine{
		config: config,
		rng:    rng,
		state:  InitGameStateFromConfig(config),
	}
	engine.spawnInitialTiles()

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(rng Rand) *GameEngine {
	engine, err := NewEngine(DefaultGameConfig(), rng)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return engine
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	e.refreshDerived()

	snapshot := *e.state
	snapshot.Board = e.state.Board.Clone()
	snapshot.MoveHistory = slices.Clone(e.state.MoveHistory)
	snapshot.CurrentMoves = slices.Clone(e.state.CurrentMoves)
	return &snapshot
}

// SetState replaces the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("%w: state cannot be nil", ErrInvalidState)
	}
	if err := ValidateBoard(state.Board, e.config.Size); err != nil {
		return err
	}
	if state.Score < 0 {
		return fmt.Errorf("%w: negative score %d", ErrInvalidState, state.Score)
	}

	restored := *state
	restored.Board = state.Board.Clone()
	restored.Size = e.config.Size
	restored.MoveHistory = slices.Clone(state.MoveHistory)
	restored.CurrentMoves = slices.Clone(state.CurrentMoves)
	if restored.MoveHistory == nil {
		restored.MoveHistory = []MoveHistoryEntry{}
	}
	if restored.CurrentMoves == nil {
		restored.CurrentMoves = []MoveHistoryEntry{}
	}

	e.state = &restored
	e.refreshDerived()
	return nil
}

// ResetSize reinitializes an all-zero size×size board with a zero score.
// It does not spawn tiles.
func (e *GameEngine) ResetSize(size int) error {
	if size < MinBoardSize || size > MaxBoardSize {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidSize, size, MinBoardSize, MaxBoardSize)
	}

	if size != e.config.Size {
		resized := *e.config
		resized.Size = size
		if resized.InitialTiles > size*size {
			resized.InitialTiles = size * size
		}
		e.config = &resized
	}

	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromConfig(e.config)

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	return nil
}

// Reset restarts the game on the configured board size
func (e *GameEngine) Reset() *GameState {
	// The configured size is validated, so this cannot fail.
	_ = e.ResetSize(e.config.Size)
	e.spawnInitialTiles()
	return e.GetState()
}

// IsTerminal checks whether the game has ended and records the outcome
func (e *GameEngine) IsTerminal() bool {
	board := e.state.Board
	terminal := IsTerminal(board, e.config.WinningValue)

	e.state.Terminal = terminal
	e.state.Won = HasValue(board, e.config.WinningValue)
	if terminal {
		if e.state.Won {
			e.state.Message = fmt.Sprintf(e.config.Messages.Won, e.config.WinningValue)
		} else {
			e.state.Message = fmt.Sprintf(e.config.Messages.GameOver, e.state.Score)
		}
	}
	return terminal
}

// IsWon returns whether the winning tile is on the board
func (e *GameEngine) IsWon() bool {
	return HasValue(e.state.Board, e.config.WinningValue)
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetBoard returns a copy of the board
func (e *GameEngine) GetBoard() Board {
	return e.state.Board.Clone()
}

// Move slides the board in the given direction and adds the merge values to
// the score. It does not spawn a tile.
func (e *GameEngine) Move(dir Direction) (MoveResult, error) {
	next, result, err := Slide(e.state.Board, dir)
	if err != nil {
		return MoveResult{}, err
	}

	e.state.Board = next
	e.state.Score += result.ScoreDelta

	if result.Changed {
		if e.config.Messages.Moved != "" {
			e.state.Message = fmt.Sprintf(e.config.Messages.Moved, e.state.Score)
		}
	} else if e.config.Messages.NoChange != "" {
		e.state.Message = e.config.Messages.NoChange
	}

	return result, nil
}

// SpawnTile places a new tile on a random empty cell. It returns nil and
// leaves the board untouched when the board is full.
func (e *GameEngine) SpawnTile() *Spawn {
	next, spawned := SpawnTile(e.state.Board, e.rng, e.config.SpawnValues)
	e.state.Board = next
	return spawned
}

// Play runs one turn: move, spawn if anything changed, then the terminal check.
// A move that changes nothing is not recorded as a turn.
func (e *GameEngine) Play(dir Direction) (TurnResult, error) {
	if !dir.Valid() {
		return TurnResult{}, fmt.Errorf("%w: %q", ErrInvalidDirection, string(dir))
	}
	if e.state.Terminal {
		return TurnResult{Score: e.state.Score, Terminal: true, Won: e.state.Won}, ErrGameOver
	}

	moved, err := e.Move(dir)
	if err != nil {
		return TurnResult{}, err
	}

	turn := TurnResult{MoveResult: moved}
	if moved.Changed {
		turn.Spawned = e.SpawnTile()
		turn.Terminal = e.IsTerminal()
		e.addMoveToHistory(moved, turn.Spawned)
	}
	turn.Score = e.state.Score
	turn.Won = e.state.Won

	return turn, nil
}

// PlayMany plays the directions in order and stops once the game has ended
func (e *GameEngine) PlayMany(dirs []Direction) ([]TurnResult, error) {
	results := make([]TurnResult, 0, len(dirs))

	for _, dir := range dirs {
		if e.state.Terminal {
			break
		}

		turn, err := e.Play(dir)
		if err != nil {
			return results, err
		}
		results = append(results, turn)
	}

	return results, nil
}

// CanMove checks whether sliding in the given direction would change the board
func (e *GameEngine) CanMove(dir Direction) bool {
	if e.state.Terminal {
		return false
	}
	_, result, err := Slide(e.state.Board, dir)
	return err == nil && result.Changed
}

// GetPossibleMoves returns all directions that would change the board
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetRand replaces the tile generator. A nil rng is ignored.
func (e *GameEngine) SetRand(rng Rand) {
	if rng != nil {
		e.rng = rng
	}
}

// SetConfig sets a new game configuration and starts a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitGameStateFromConfig(config)
	e.spawnInitialTiles()
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return slices.Clone(e.state.MoveHistory)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	last := e.state.MoveHistory[len(e.state.MoveHistory)-1]
	return &last
}

func (e *GameEngine) spawnInitialTiles() {
	for i := 0; i < e.config.InitialTiles; i++ {
		e.SpawnTile()
	}
	e.refreshDerived()
}

func (e *GameEngine) refreshDerived() {
	e.state.MaxTile = MaxTile(e.state.Board)
	e.state.EmptyCells = CountEmpty(e.state.Board)
}

// addMoveToHistory appends a turn to both the cumulative and current histories
func (e *GameEngine) addMoveToHistory(moved MoveResult, spawned *Spawn) {
	entry := MoveHistoryEntry{
		Action:     moved.Direction,
		Changed:    moved.Changed,
		ScoreDelta: moved.ScoreDelta,
		Score:      e.state.Score,
		Spawned:    spawned,
		Timestamp:  time.Now().Unix(),
		MoveNumber: e.state.TotalMoves + 1,
	}
	e.state.MoveHistory = append(e.state.MoveHistory, entry)
	e.state.TotalMoves++

	e.state.CurrentMoves = append(e.state.CurrentMoves, entry)
	e.state.CurrentMovesCount++
}
