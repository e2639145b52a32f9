package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger

	// Engines are not safe for concurrent use; every engine access holds mu.
	mu sync.Mutex
}

// NewGameService creates a new game service instance. A nil logger disables logging.
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Engine.GetConfig(),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					configIDs := make([]string, 0, len(availableConfigs))
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let the session manager generate the id
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created",
		zap.String("session", sess.ID),
		zap.String("config", config.Name),
		zap.Int("size", config.Size))

	return s.sessionInfo(sess, configName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session", sessionID), zap.Error(err))
	}

	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	s.logger.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// Move plays a single turn for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session", sessionID), zap.Error(err))
	}

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, newEvent(EventReset, "Game reset to initial state", 0, nil))
	}

	turn, err := sess.Engine.Play(dir)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	state := sess.Engine.GetState()
	events = append(events, turnEvents(turn, state)...)

	s.logger.Info("move",
		zap.String("session", sessionID),
		zap.String("direction", dir.String()),
		zap.Bool("changed", turn.Changed),
		zap.Int("score_delta", turn.ScoreDelta),
		zap.Int("score", turn.Score),
		zap.Bool("terminal", turn.Terminal))

	s.save(sessionID, "move")

	return &MoveResult{
		Success:       turn.Changed,
		Changed:       turn.Changed,
		ScoreDelta:    turn.ScoreDelta,
		Spawned:       turn.Spawned,
		GameState:     state,
		Message:       state.Message,
		Events:        events,
		PossibleMoves: directionNames(sess.Engine.GetPossibleMoves()),
	}, nil
}

// BulkMove plays several turns in sequence. It stops at the first
// unparseable direction, once the game has ended, or when ctx is done.
// The turns played before stopping are saved and reported.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session", sessionID), zap.Error(err))
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, newEvent(EventReset, "Game reset to initial state", 0, nil))
	}
	result.StartScore = sess.Engine.GetScore()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		// Turns already played stay on the board, so report them
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.StopReasonCode = StopCancelled
			result.StoppedReason = fmt.Sprintf("move %d: %v", i+1, err)
			result.StoppedOnMove = i + 1
			break
		}

		if state := sess.Engine.GetState(); state.Terminal {
			result.StopReasonCode = terminalCode(state)
			result.StoppedReason = state.Message
			result.StoppedOnMove = i + 1
			break
		}

		dir, err := engine.ParseDirection(move)
		if err != nil {
			result.Success = false
			result.StopReasonCode = StopInvalidDirection
			result.StoppedReason = fmt.Sprintf("move %d: invalid direction %q", i+1, move)
			result.StoppedOnMove = i + 1
			break
		}

		turn, err := sess.Engine.Play(dir)
		if err != nil {
			return nil, fmt.Errorf("session %s move %d: %w", sessionID, i+1, err)
		}
		result.MovesExecuted++

		state := sess.Engine.GetState()
		result.Events = append(result.Events, turnEvents(turn, state)...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:        i + 1,
			Dir:        dir.String(),
			Changed:    turn.Changed,
			Merges:     turn.Merges,
			ScoreDelta: turn.ScoreDelta,
			Score:      turn.Score,
			Spawned:    turn.Spawned,
			MaxTile:    state.MaxTile,
		})
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndScore = endState.Score
	result.ScoreDelta = endState.Score - result.StartScore
	result.GameOver = endState.Terminal
	result.Won = endState.Won
	result.Message = endState.Message
	result.PossibleMoves = directionNames(sess.Engine.GetPossibleMoves())

	// The last executed move may have ended the game
	if result.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = terminalCode(endState)
	}

	s.logger.Info("bulk move",
		zap.String("session", sessionID),
		zap.Int("requested", result.RequestedMoves),
		zap.Int("executed", result.MovesExecuted),
		zap.Int("score_delta", result.ScoreDelta),
		zap.Int("score", result.EndScore),
		zap.String("stop_reason", result.StopReasonCode))

	s.save(sessionID, "bulk move")

	return result, nil
}

// Reset restarts a game session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session", sessionID), zap.Error(err))
	}
	state := sess.Engine.Reset()

	s.logger.Info("reset", zap.String("session", sessionID))
	s.save(sessionID, "reset")

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session", sessionID), zap.Error(err))
	}
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.Info("config saved", zap.String("config", configName))
	return nil
}

func (s *gameServiceImpl) save(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		s.logger.Warn("failed to persist session",
			zap.String("session", sessionID),
			zap.String("after", after),
			zap.Error(err))
	}
}

// paginateHistory slices the history for one page. Defaults: page 1,
// 20 entries per page (at most 100), newest first.
func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

func newEvent(eventType, message string, value int, pos *engine.Position) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		Value:     value,
		Position:  pos,
	}
}

// turnEvents describes one played turn as events
func turnEvents(turn engine.TurnResult, state *engine.GameState) []GameEvent {
	if !turn.Changed {
		return []GameEvent{newEvent(EventNoChange, fmt.Sprintf("Moving %s changed nothing", turn.Direction), 0, nil)}
	}

	events := []GameEvent{
		newEvent(EventMove, fmt.Sprintf("Moved %s", turn.Direction), turn.Score, nil),
	}
	if turn.Merges > 0 {
		events = append(events, newEvent(EventMerge,
			fmt.Sprintf("%d merge(s) worth %d points", turn.Merges, turn.ScoreDelta), turn.ScoreDelta, nil))
	}
	if turn.Spawned != nil {
		pos := &engine.Position{Row: turn.Spawned.Row, Col: turn.Spawned.Col}
		events = append(events, newEvent(EventSpawn,
			fmt.Sprintf("New %d tile at (%d,%d)", turn.Spawned.Value, pos.Row, pos.Col), turn.Spawned.Value, pos))
	}
	if turn.Terminal {
		if turn.Won {
			events = append(events, newEvent(EventWon, state.Message, state.MaxTile, nil))
		} else {
			events = append(events, newEvent(EventGameOver, state.Message, turn.Score, nil))
		}
	}
	return events
}

func terminalCode(state *engine.GameState) string {
	if state.Won {
		return StopWon
	}
	return StopGameOver
}

func directionNames(dirs []engine.Direction) []string {
	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, d.String())
	}
	return names
}
