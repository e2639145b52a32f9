package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/service"
	"github.com/wricardo/mcp-training/game2048/game/session"
	"github.com/wricardo/mcp-training/game2048/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	MoveFunc     func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	ResetFunc    func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func testState() *engine.GameState {
	return &engine.GameState{
		Board: engine.Board{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 2}},
		Size:  4,
	}
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		CreatedAt:  time.Now(),
		GameState:  testState(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "classic",
		CreatedAt:  time.Now(),
		GameState:  testState(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game Operations
func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{
		Success:   true,
		Changed:   true,
		GameState: testState(),
		Message:   "Score: 0",
	}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{
		RequestedMoves: len(moves),
		MovesExecuted:  len(moves),
		Success:        true,
		GameState:      testState(),
	}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return testState(), nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return testState(), nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:    []engine.MoveHistoryEntry{},
		Page:     opts.Page,
		PageSize: opts.Limit,
	}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	cfg := engine.DefaultGameConfig()
	cfg.Name = configName
	return cfg, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return NewServer(mockService, hub, zap.NewNop())
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "Create session with default config",
			requestBody:    nil,
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "test-session", resp.ID)
				assert.Equal(t, "", resp.ConfigName)
			},
		},
		{
			name:           "Create session with config_id",
			requestBody:    map[string]string{"config_id": "mini"},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "mini", resp.ConfigName)
			},
		},
		{
			name:           "Deprecated config_name still works",
			requestBody:    map[string]string{"config_name": "hard"},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "hard", resp.ConfigName)
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Handle service error",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				assert.Equal(t, "service error", resp["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := serve(server, makeRequest("POST", "/api/sessions", tt.requestBody))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestCreateSessionMalformedBody(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{oops"))
	w := serve(server, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute), GameState: &engine.GameState{Score: 50}},
			{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour), GameState: &engine.GameState{Score: 900}},
			{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour), GameState: &engine.GameState{Score: 10}},
		}
	}

	tests := []struct {
		name        string
		query       string
		expectedIDs []string
	}{
		{"default sorts by last access, newest first", "", []string{"old", "mid", "new"}},
		{"created ascending", "?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"created descending", "?sort=created", []string{"new", "mid", "old"}},
		{"score descending", "?sort=score", []string{"mid", "old", "new"}},
		{"limit", "?sort=created&limit=2", []string{"new", "mid"}},
		{"ignored bad limit", "?limit=abc", []string{"old", "mid", "new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			})

			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			ids := make([]string, 0, len(resp.Sessions))
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
			assert.Equal(t, len(tt.expectedIDs), resp.Count)
			assert.Equal(t, 3, resp.Total)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("failed to get session %s: %w", sessionID, service.ErrSessionNotFound)
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "classic", GameState: testState()}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return fmt.Errorf("failed to delete session %s: %w", sessionID, service.ErrSessionNotFound)
			}
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	w := serve(server, makeRequest("GET", "/api/sessions/ab12", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info service.SessionInfo
	parseResponse(t, w, &info)
	assert.Equal(t, "ab12", info.ID)
	assert.Equal(t, 4, info.GameState.Size)

	w = serve(server, makeRequest("GET", "/api/sessions/zz99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(server, makeRequest("DELETE", "/api/sessions/ab12", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Session ab12 deleted")

	w = serve(server, makeRequest("DELETE", "/api/sessions/zz99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Game Operation Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		moveErr        error
		expectedStatus int
	}{
		{"valid move", map[string]interface{}{"direction": "left"}, nil, http.StatusOK},
		{"move with reset", map[string]interface{}{"direction": "up", "reset": true}, nil, http.StatusOK},
		{"invalid direction", map[string]interface{}{"direction": "sideways"}, fmt.Errorf("%w: %q", engine.ErrInvalidDirection, "sideways"), http.StatusBadRequest},
		{"game over", map[string]interface{}{"direction": "left"}, fmt.Errorf("session ab12: %w", engine.ErrGameOver), http.StatusConflict},
		{"unknown session", map[string]interface{}{"direction": "left"}, fmt.Errorf("failed to get session: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{"invalid session id", map[string]interface{}{"direction": "left"}, service.ErrInvalidSessionID, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDirection string
			var gotReset bool
			server := setupTestServer(t, &MockGameService{
				MoveFunc: func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					gotDirection, gotReset = direction, reset
					if tt.moveErr != nil {
						return nil, tt.moveErr
					}
					return &service.MoveResult{
						Success:       true,
						Changed:       true,
						ScoreDelta:    4,
						GameState:     testState(),
						PossibleMoves: []string{"up", "left"},
					}, nil
				},
			})

			w := serve(server, makeRequest("POST", "/api/sessions/ab12/move", tt.body))
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			body := tt.body.(map[string]interface{})
			assert.Equal(t, body["direction"], gotDirection)
			assert.Equal(t, body["reset"] == true, gotReset)

			if tt.expectedStatus == http.StatusOK {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				assert.Equal(t, 4, resp.ScoreDelta)
				assert.Equal(t, []string{"up", "left"}, resp.PossibleMoves)
			} else {
				var resp map[string]string
				parseResponse(t, w, &resp)
				assert.NotEmpty(t, resp["error"])
			}
		})
	}
}

func TestMoveInvalidBody(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	req := httptest.NewRequest("POST", "/api/sessions/ab12/move", strings.NewReader("not json"))
	w := serve(server, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkMove(t *testing.T) {
	t.Run("forwards moves", func(t *testing.T) {
		var got []string
		server := setupTestServer(t, &MockGameService{
			BulkMoveFunc: func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
				got = moves
				return &service.BulkMoveResult{
					RequestedMoves: len(moves),
					MovesExecuted:  2,
					StopReasonCode: service.StopInvalidDirection,
					StoppedOnMove:  3,
					GameState:      testState(),
				}, nil
			},
		})

		w := serve(server, makeRequest("POST", "/api/sessions/ab12/bulk-move", map[string]interface{}{
			"moves": []string{"left", "up", "nope"},
		}))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"left", "up", "nope"}, got)

		var resp service.BulkMoveResult
		parseResponse(t, w, &resp)
		assert.Equal(t, 2, resp.MovesExecuted)
		assert.Equal(t, service.StopInvalidDirection, resp.StopReasonCode)
		assert.Equal(t, 3, resp.StoppedOnMove)
	})

	t.Run("empty moves", func(t *testing.T) {
		server := setupTestServer(t, &MockGameService{})
		w := serve(server, makeRequest("POST", "/api/sessions/ab12/bulk-move", map[string]interface{}{"moves": []string{}}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("session not found", func(t *testing.T) {
		server := setupTestServer(t, &MockGameService{
			BulkMoveFunc: func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
				return nil, service.ErrSessionNotFound
			},
		})
		w := serve(server, makeRequest("POST", "/api/sessions/zz/bulk-move", map[string]interface{}{"moves": []string{"up"}}))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReset(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := serve(server, makeRequest("POST", "/api/sessions/ab12/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	assert.Equal(t, "Game reset successfully", resp.Message)
	require.NotNil(t, resp.State)
	assert.Equal(t, 0, resp.State.Score)

	failing := setupTestServer(t, &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return nil, service.ErrSessionNotFound
		},
	})
	w = serve(failing, makeRequest("POST", "/api/sessions/zz/reset", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"bad values fall back", "?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			server := setupTestServer(t, &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
				},
			})

			w := serve(server, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGetGameState(t *testing.T) {
	server := setupTestServer(t, &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "missing" {
				return nil, service.ErrSessionNotFound
			}
			return testState(), nil
		},
	})

	w := serve(server, makeRequest("GET", "/api/sessions/ab12/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	parseResponse(t, w, &state)
	assert.Equal(t, testState().Board, state.Board)

	w = serve(server, makeRequest("GET", "/api/sessions/missing/state", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var savedID string
	var savedConfig *engine.GameConfig
	server := setupTestServer(t, &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic 2048", Size: 4}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, config.ErrConfigNotFound
			}
			return engine.DefaultGameConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(cfg); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
			}
			savedID, savedConfig = configName, cfg
			return nil
		},
	})

	t.Run("list", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/configs", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var configs []*service.ConfigInfo
		parseResponse(t, w, &configs)
		require.Len(t, configs, 1)
		assert.Equal(t, "classic", configs[0].ConfigID)
	})

	t.Run("get", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/configs/classic", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var cfg engine.GameConfig
		parseResponse(t, w, &cfg)
		assert.Equal(t, engine.DefaultWinningValue, cfg.WinningValue)

		w = serve(server, makeRequest("GET", "/api/configs/unknown", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("create derives id from name", func(t *testing.T) {
		cfg := engine.DefaultGameConfig()
		cfg.Name = "My Big Game!"
		w := serve(server, makeRequest("POST", "/api/configs", cfg))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "my-big-game", savedID)
		assert.Equal(t, "My Big Game!", savedConfig.Name)
	})

	t.Run("create with explicit id", func(t *testing.T) {
		cfg := engine.DefaultGameConfig()
		cfg.Name = "Whatever"
		w := serve(server, makeRequest("POST", "/api/configs?id=custom.yaml", cfg))
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "custom.yaml", savedID)

		var resp map[string]string
		parseResponse(t, w, &resp)
		assert.Equal(t, "custom", resp["config_id"])
	})

	t.Run("create rejects invalid config", func(t *testing.T) {
		cfg := engine.DefaultGameConfig()
		cfg.Size = 1
		w := serve(server, makeRequest("POST", "/api/configs", cfg))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create requires a name", func(t *testing.T) {
		cfg := engine.DefaultGameConfig()
		cfg.Name = ""
		w := serve(server, makeRequest("POST", "/api/configs", cfg))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Classic 2048":   "classic-2048",
		"  Big -- Game ": "big-game",
		"!!!":            "",
		"mini":           "mini",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), in)
	}
}

func TestUnifiedSessions(t *testing.T) {
	all := []*service.SessionInfo{
		{ID: "b", ConfigName: "classic", GameState: &engine.GameState{Score: 100, MaxTile: 64}},
		{ID: "a", ConfigName: "mini", GameState: &engine.GameState{Score: 300, MaxTile: 32}},
		{ID: "c", ConfigName: "classic", GameState: &engine.GameState{Score: 20, MaxTile: 128}},
	}
	server := setupTestServer(t, &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return all, nil
		},
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			for _, s := range all {
				if s.ID == sessionID {
					return s, nil
				}
			}
			return nil, service.ErrSessionNotFound
		},
	})

	type unified struct {
		Count     int `json:"count"`
		BestScore int `json:"best_score"`
		BestTile  int `json:"best_tile"`
		Sessions  []struct {
			SessionID string `json:"session_id"`
		} `json:"sessions"`
	}

	tests := []struct {
		name      string
		query     string
		ids       []string
		bestScore int
		bestTile  int
	}{
		{"all sessions sorted by id", "", []string{"a", "b", "c"}, 300, 128},
		{"by config", "?configName=classic", []string{"b", "c"}, 100, 128},
		{"by ids skipping unknown", "?sessionIds=c,%20zz,a", []string{"a", "c"}, 300, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp unified
			parseResponse(t, w, &resp)
			ids := []string{}
			for _, s := range resp.Sessions {
				ids = append(ids, s.SessionID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, len(tt.ids), resp.Count)
			assert.Equal(t, tt.bestScore, resp.BestScore)
			assert.Equal(t, tt.bestTile, resp.BestTile)
		})
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := serve(server, makeRequest("GET", "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.ErrInvalidDirection, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", engine.ErrInvalidSize), http.StatusBadRequest},
		{config.ErrInvalidConfig, http.StatusBadRequest},
		{service.ErrInvalidSessionID, http.StatusBadRequest},
		{service.ErrSessionNotFound, http.StatusNotFound},
		{config.ErrConfigNotFound, http.StatusNotFound},
		{engine.ErrGameOver, http.StatusConflict},
		{service.ErrSessionAlreadyExists, http.StatusConflict},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

// WebSocket Tests

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetGameStateFunc = func(ctx context.Context, sessionID string) (*engine.GameState, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Valid session",
			queryParams:    "?session=sess-123",
			expectedStatus: http.StatusSwitchingProtocols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(t, mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			if tt.expectedStatus == http.StatusSwitchingProtocols {
				req.Header.Set("Upgrade", "websocket")
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
				req.Header.Set("Sec-WebSocket-Version", "13")
			}

			server.ServeHTTP(w, req)

			// httptest.ResponseRecorder is not an http.Hijacker, so the
			// upgrade stops with a 500 after all checks pass
			if tt.expectedStatus == http.StatusSwitchingProtocols && w.Code == http.StatusInternalServerError {
				return
			}

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHandleCommandUnknownAction(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	err := server.HandleCommand(context.Background(), "ab12", websocket.Command{Action: "fly"})
	assert.ErrorContains(t, err, "unknown action")
}

// End-to-end tests against the real service stack

func newLiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newLiveServerWithConfigs(t, "../configs")
}

func newLiveServerWithConfigs(t *testing.T, configDir string) *httptest.Server {
	t.Helper()

	configs, err := config.NewManager(configDir)
	require.NoError(t, err)

	sessions := session.NewManager(session.WithRandFactory(func(string) engine.Rand {
		return engine.NewRand(7)
	}))
	svc := service.NewGameService(sessions, configs, zap.NewNop())

	hub := websocket.NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	ts := httptest.NewServer(NewServer(svc, hub, zap.NewNop()))
	t.Cleanup(func() {
		cancel()
		<-stopped
		ts.Close()
	})
	return ts
}

func doJSON(t *testing.T, method, url string, body interface{}, target interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func TestLiveGameFlow(t *testing.T) {
	ts := newLiveServer(t)

	var created service.SessionInfo
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", ts.URL+"/api/sessions", map[string]string{"config_id": "mini"}, &created))
	require.NotEmpty(t, created.ID)
	require.NotNil(t, created.GameState)
	assert.Equal(t, 3, created.GameState.Size)
	assert.Equal(t, 2, engine.CountTiles(created.GameState.Board))

	base := ts.URL + "/api/sessions/" + created.ID

	var bulk service.BulkMoveResult
	require.Equal(t, http.StatusOK, doJSON(t, "POST", base+"/bulk-move", map[string]interface{}{
		"moves": []string{"left", "up", "right", "down"},
	}, &bulk))
	assert.Equal(t, 4, bulk.MovesExecuted)
	assert.Len(t, bulk.Steps, 4)
	assert.False(t, bulk.GameOver)
	assert.GreaterOrEqual(t, bulk.EndScore, bulk.StartScore)

	var history service.HistoryResponse
	require.Equal(t, http.StatusOK, doJSON(t, "GET", base+"/history?order=asc", nil, &history))
	assert.GreaterOrEqual(t, history.TotalMoves, 1)

	var errResp map[string]string
	assert.Equal(t, http.StatusBadRequest, doJSON(t, "POST", base+"/move", map[string]string{"direction": "sideways"}, &errResp))
	assert.Contains(t, errResp["error"], "sideways")

	assert.Equal(t, http.StatusNotFound, doJSON(t, "POST", ts.URL+"/api/sessions/ffff/move", map[string]string{"direction": "up"}, nil))

	assert.Equal(t, http.StatusOK, doJSON(t, "DELETE", base, nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, "GET", base+"/state", nil, nil))
}

func TestLiveCreatedConfigIsPlayable(t *testing.T) {
	configDir := t.TempDir()
	ts := newLiveServerWithConfigs(t, configDir)

	body := map[string]interface{}{
		"name":          "Quick",
		"description":   "3x3 without initial_tiles",
		"size":          3,
		"winning_value": 64,
		"spawn_values":  []int{2},
		"messages": map[string]string{
			"welcome":   "Go",
			"won":       "Reached %d",
			"game_over": "Final %d",
		},
	}
	var saved map[string]interface{}
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", ts.URL+"/api/configs", body, &saved))
	assert.Equal(t, "quick", saved["config_id"])

	data, err := os.ReadFile(filepath.Join(configDir, "quick.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"initial_tiles": 2`)

	var created service.SessionInfo
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", ts.URL+"/api/sessions", map[string]string{"config_id": "quick"}, &created))
	require.NotNil(t, created.GameState)
	assert.Equal(t, engine.DefaultInitialTiles, engine.CountTiles(created.GameState.Board))

	var moved service.MoveResult
	require.Equal(t, http.StatusOK, doJSON(t, "POST", ts.URL+"/api/sessions/"+created.ID+"/move", map[string]string{"direction": "left"}, &moved))
	require.NotNil(t, moved.GameState)
	assert.NotZero(t, engine.CountTiles(moved.GameState.Board))

	body["name"] = "Empty"
	body["initial_tiles"] = 0
	assert.Equal(t, http.StatusBadRequest, doJSON(t, "POST", ts.URL+"/api/configs", body, nil))
}

func TestLiveWebSocketCommands(t *testing.T) {
	ts := newLiveServer(t)

	var created service.SessionInfo
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", ts.URL+"/api/sessions", nil, &created))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + created.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	initial := read()
	assert.Equal(t, websocket.EventStateUpdate, initial.Event)
	require.NotNil(t, initial.GameState)
	assert.Equal(t, created.GameState.Board, initial.GameState.Board)

	require.NoError(t, conn.WriteJSON(websocket.Command{Action: "reset"}))
	reset := read()
	assert.Equal(t, websocket.EventStateUpdate, reset.Event)
	require.NotNil(t, reset.GameState)
	assert.Equal(t, 0, reset.GameState.Score)

	require.NoError(t, conn.WriteJSON(websocket.Command{Action: "move", Direction: "sideways"}))
	failed := read()
	assert.Equal(t, websocket.EventError, failed.Event)

	// A REST move is pushed to the connected client as well
	require.Equal(t, http.StatusOK, doJSON(t, "POST", ts.URL+"/api/sessions/"+created.ID+"/move", map[string]string{"direction": "left"}, nil))
	pushed := read()
	assert.Equal(t, websocket.EventStateUpdate, pushed.Event)
}
