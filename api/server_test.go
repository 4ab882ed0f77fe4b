package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/logic-labyrinth/game/config"
	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/rewards"
	"github.com/wricardo/logic-labyrinth/game/service"
	"github.com/wricardo/logic-labyrinth/game/session"
	"github.com/wricardo/logic-labyrinth/game/solver"
	"github.com/wricardo/logic-labyrinth/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc  func(ctx context.Context, difficulty string, seed uint64) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	RegenerateMazeFunc func(ctx context.Context, sessionID string, seed uint64) (*service.SessionInfo, error)

	AppendInstructionFunc func(ctx context.Context, sessionID string, ops ...program.Opcode) (*service.ProgramInfo, error)
	RemoveLastFunc        func(ctx context.Context, sessionID string) (*service.ProgramInfo, error)
	ClearProgramFunc      func(ctx context.Context, sessionID string) (*service.ProgramInfo, error)
	GetProgramFunc        func(ctx context.Context, sessionID string) (*service.ProgramInfo, error)

	RunProgramFunc      func(ctx context.Context, sessionID string, mode service.RunMode) (*service.RunResult, error)
	AbortRunFunc        func(ctx context.Context, sessionID string) (*service.AbortResult, error)
	GetSnapshotFunc     func(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SuggestSolutionFunc func(ctx context.Context, sessionID string) (*service.SolutionInfo, error)

	GetProgressFunc func(ctx context.Context) (*rewards.Progress, error)

	ListDifficultiesFunc func(ctx context.Context) ([]*service.DifficultyInfo, error)
	LoadDifficultyFunc   func(ctx context.Context, name string) (*engine.DifficultyConfig, error)
	SaveDifficultyFunc   func(ctx context.Context, name string, config *engine.DifficultyConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, difficulty string, seed uint64) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, difficulty, seed)
	}
	return &service.SessionInfo{ID: "ab12", Difficulty: difficulty, Seed: seed, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, Difficulty: "easy", CreatedAt: time.Now()}, nil
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

func (m *MockGameService) RegenerateMaze(ctx context.Context, sessionID string, seed uint64) (*service.SessionInfo, error) {
	if m.RegenerateMazeFunc != nil {
		return m.RegenerateMazeFunc(ctx, sessionID, seed)
	}
	return &service.SessionInfo{ID: sessionID, Seed: seed}, nil
}

func (m *MockGameService) AppendInstruction(ctx context.Context, sessionID string, ops ...program.Opcode) (*service.ProgramInfo, error) {
	if m.AppendInstructionFunc != nil {
		return m.AppendInstructionFunc(ctx, sessionID, ops...)
	}
	return &service.ProgramInfo{Instructions: ops, Length: len(ops)}, nil
}

func (m *MockGameService) RemoveLastInstruction(ctx context.Context, sessionID string) (*service.ProgramInfo, error) {
	if m.RemoveLastFunc != nil {
		return m.RemoveLastFunc(ctx, sessionID)
	}
	return &service.ProgramInfo{}, nil
}

func (m *MockGameService) ClearProgram(ctx context.Context, sessionID string) (*service.ProgramInfo, error) {
	if m.ClearProgramFunc != nil {
		return m.ClearProgramFunc(ctx, sessionID)
	}
	return &service.ProgramInfo{}, nil
}

func (m *MockGameService) GetProgram(ctx context.Context, sessionID string) (*service.ProgramInfo, error) {
	if m.GetProgramFunc != nil {
		return m.GetProgramFunc(ctx, sessionID)
	}
	return &service.ProgramInfo{}, nil
}

func (m *MockGameService) RunProgram(ctx context.Context, sessionID string, mode service.RunMode) (*service.RunResult, error) {
	if m.RunProgramFunc != nil {
		return m.RunProgramFunc(ctx, sessionID, mode)
	}
	return &service.RunResult{RunID: "run-1", Mode: mode}, nil
}

func (m *MockGameService) AbortRun(ctx context.Context, sessionID string) (*service.AbortResult, error) {
	if m.AbortRunFunc != nil {
		return m.AbortRunFunc(ctx, sessionID)
	}
	return &service.AbortResult{}, nil
}

func (m *MockGameService) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	if m.GetSnapshotFunc != nil {
		return m.GetSnapshotFunc(ctx, sessionID)
	}
	return &engine.Snapshot{Size: 7, Status: engine.StatusIdle, Outcome: engine.OutcomeInProgress}, nil
}

func (m *MockGameService) SuggestSolution(ctx context.Context, sessionID string) (*service.SolutionInfo, error) {
	if m.SuggestSolutionFunc != nil {
		return m.SuggestSolutionFunc(ctx, sessionID)
	}
	return &service.SolutionInfo{}, nil
}

func (m *MockGameService) GetProgress(ctx context.Context) (*rewards.Progress, error) {
	if m.GetProgressFunc != nil {
		return m.GetProgressFunc(ctx)
	}
	return &rewards.Progress{Unlocked: []string{}}, nil
}

func (m *MockGameService) ListDifficulties(ctx context.Context) ([]*service.DifficultyInfo, error) {
	if m.ListDifficultiesFunc != nil {
		return m.ListDifficultiesFunc(ctx)
	}
	return []*service.DifficultyInfo{}, nil
}

func (m *MockGameService) LoadDifficulty(ctx context.Context, name string) (*engine.DifficultyConfig, error) {
	if m.LoadDifficultyFunc != nil {
		return m.LoadDifficultyFunc(ctx, name)
	}
	return engine.DefaultDifficulties()["easy"], nil
}

func (m *MockGameService) SaveDifficulty(ctx context.Context, name string, config *engine.DifficultyConfig) error {
	if m.SaveDifficultyFunc != nil {
		return m.SaveDifficultyFunc(ctx, name, config)
	}
	return nil
}

func doRequest(t *testing.T, server http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestCreateSession(t *testing.T) {
	var gotDifficulty string
	var gotSeed uint64
	mock := &MockGameService{
		CreateSessionFunc: func(ctx context.Context, difficulty string, seed uint64) (*service.SessionInfo, error) {
			gotDifficulty, gotSeed = difficulty, seed
			return &service.SessionInfo{ID: "ab12", Difficulty: difficulty, Seed: seed}, nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "POST", "/api/sessions", map[string]interface{}{"difficulty": "hard", "seed": 42})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotDifficulty != "hard" || gotSeed != 42 {
		t.Errorf("Expected hard/42, got %s/%d", gotDifficulty, gotSeed)
	}

	var info service.SessionInfo
	decodeBody(t, rr, &info)
	if info.ID != "ab12" {
		t.Errorf("Expected session ab12, got %s", info.ID)
	}
}

func TestCreateSession_EmptyBody(t *testing.T) {
	called := false
	mock := &MockGameService{
		CreateSessionFunc: func(ctx context.Context, difficulty string, seed uint64) (*service.SessionInfo, error) {
			called = true
			if difficulty != "" || seed != 0 {
				t.Errorf("Expected defaults, got %q/%d", difficulty, seed)
			}
			return &service.SessionInfo{ID: "cd34"}, nil
		},
	}

	rr := doRequest(t, NewServer(mock, nil), "POST", "/api/sessions", nil)
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if !called {
		t.Error("CreateSession not called")
	}
}

func TestCreateSession_UnknownDifficulty(t *testing.T) {
	mock := &MockGameService{
		CreateSessionFunc: func(ctx context.Context, difficulty string, seed uint64) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("difficulty '%s' not found: %w", difficulty, config.ErrConfigNotFound)
		},
	}

	rr := doRequest(t, NewServer(mock, nil), "POST", "/api/sessions", map[string]string{"difficulty": "nope"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	var body map[string]interface{}
	decodeBody(t, rr, &body)
	if !strings.Contains(body["error"].(string), "nope") {
		t.Errorf("Error should name the difficulty, got %v", body["error"])
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "aaaa", Difficulty: "easy", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "bbbb", Difficulty: "hard", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
				{ID: "cccc", Difficulty: "easy", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	server := NewServer(mock, nil)

	tests := []struct {
		name  string
		query string
		want  []string
		total int
	}{
		{"default accessed desc", "", []string{"bbbb", "aaaa", "cccc"}, 3},
		{"created asc", "?sort=created&order=asc", []string{"aaaa", "bbbb", "cccc"}, 3},
		{"limit", "?limit=1", []string{"bbbb"}, 3},
		{"difficulty filter", "?difficulty=easy", []string{"aaaa", "cccc"}, 3},
		{"bad limit ignored", "?limit=abc", []string{"bbbb", "aaaa", "cccc"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, "GET", "/api/sessions"+tt.query, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}

			var body struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			decodeBody(t, rr, &body)

			if body.Total != tt.total || body.Count != len(tt.want) {
				t.Errorf("Expected count %d total %d, got %d/%d", len(tt.want), tt.total, body.Count, body.Total)
			}
			for i, id := range tt.want {
				if i >= len(body.Sessions) || body.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s", i, id)
				}
			}
		})
	}
}

func TestGetAndDeleteSession_NotFound(t *testing.T) {
	notFound := fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, notFound
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			return notFound
		},
		GetSnapshotFunc: func(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
			return nil, notFound
		},
	}
	server := NewServer(mock, nil)

	for _, req := range []struct{ method, path string }{
		{"GET", "/api/sessions/zzzz"},
		{"DELETE", "/api/sessions/zzzz"},
		{"GET", "/api/sessions/zzzz/snapshot"},
	} {
		rr := doRequest(t, server, req.method, req.path, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", req.method, req.path, rr.Code)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	deleted := ""
	mock := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			deleted = sessionID
			return nil
		},
	}

	rr := doRequest(t, NewServer(mock, nil), "DELETE", "/api/sessions/ab12", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if deleted != "ab12" {
		t.Errorf("Expected ab12 deleted, got %q", deleted)
	}
}

func TestRegenerateMaze(t *testing.T) {
	var gotSeed uint64
	mock := &MockGameService{
		RegenerateMazeFunc: func(ctx context.Context, sessionID string, seed uint64) (*service.SessionInfo, error) {
			gotSeed = seed
			return &service.SessionInfo{ID: sessionID, Seed: seed}, nil
		},
	}

	rr := doRequest(t, NewServer(mock, nil), "POST", "/api/sessions/ab12/maze", map[string]uint64{"seed": 9})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if gotSeed != 9 {
		t.Errorf("Expected seed 9, got %d", gotSeed)
	}
}

func TestAppendProgram(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		want   []program.Opcode
		status int
	}{
		{
			name:   "token list",
			body:   map[string]interface{}{"instructions": []string{"F", "LOOP_START", "F", "LOOP_END"}},
			want:   []program.Opcode{program.Forward, program.LoopStart, program.Forward, program.LoopEnd},
			status: http.StatusOK,
		},
		{
			name:   "text",
			body:   map[string]interface{}{"text": "f right forward"},
			want:   []program.Opcode{program.Forward, program.TurnRight, program.Forward},
			status: http.StatusOK,
		},
		{
			name:   "list then text",
			body:   map[string]interface{}{"instructions": []string{"L"}, "text": "F"},
			want:   []program.Opcode{program.TurnLeft, program.Forward},
			status: http.StatusOK,
		},
		{
			name:   "unknown token in list",
			body:   map[string]interface{}{"instructions": []string{"JUMP"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown token in text",
			body:   map[string]interface{}{"text": "F JUMP"},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []program.Opcode
			mock := &MockGameService{
				AppendInstructionFunc: func(ctx context.Context, sessionID string, ops ...program.Opcode) (*service.ProgramInfo, error) {
					got = ops
					return &service.ProgramInfo{Instructions: ops, Length: len(ops)}, nil
				},
			}

			rr := doRequest(t, NewServer(mock, nil), "POST", "/api/sessions/ab12/program", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("op %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestAppendProgram_Empty(t *testing.T) {
	mock := &MockGameService{
		AppendInstructionFunc: func(ctx context.Context, sessionID string, ops ...program.Opcode) (*service.ProgramInfo, error) {
			if len(ops) == 0 {
				return nil, service.ErrNoInstructions
			}
			return &service.ProgramInfo{}, nil
		},
	}

	rr := doRequest(t, NewServer(mock, nil), "POST", "/api/sessions/ab12/program", map[string]interface{}{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestUndoAndClearProgram(t *testing.T) {
	var calls []string
	mock := &MockGameService{
		RemoveLastFunc: func(ctx context.Context, sessionID string) (*service.ProgramInfo, error) {
			calls = append(calls, "undo")
			return &service.ProgramInfo{}, nil
		},
		ClearProgramFunc: func(ctx context.Context, sessionID string) (*service.ProgramInfo, error) {
			calls = append(calls, "clear")
			return &service.ProgramInfo{}, nil
		},
	}
	server := NewServer(mock, nil)

	if rr := doRequest(t, server, "POST", "/api/sessions/ab12/program/undo", nil); rr.Code != http.StatusOK {
		t.Errorf("undo: expected 200, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "DELETE", "/api/sessions/ab12/program", nil); rr.Code != http.StatusOK {
		t.Errorf("clear: expected 200, got %d", rr.Code)
	}
	if strings.Join(calls, ",") != "undo,clear" {
		t.Errorf("Unexpected calls %v", calls)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     interface{}
		wantMode service.RunMode
		status   int
	}{
		{"default animated", "/api/sessions/ab12/run", nil, service.RunAnimated, http.StatusAccepted},
		{"instant body", "/api/sessions/ab12/run", map[string]string{"mode": "instant"}, service.RunInstant, http.StatusOK},
		{"instant query", "/api/sessions/ab12/run?mode=instant", nil, service.RunInstant, http.StatusOK},
		{"bad mode", "/api/sessions/ab12/run", map[string]string{"mode": "turbo"}, "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMode service.RunMode
			mock := &MockGameService{
				RunProgramFunc: func(ctx context.Context, sessionID string, mode service.RunMode) (*service.RunResult, error) {
					gotMode = mode
					return &service.RunResult{RunID: "r", Mode: mode}, nil
				},
			}

			rr := doRequest(t, NewServer(mock, nil), "POST", tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if gotMode != tt.wantMode {
				t.Errorf("Expected mode %q, got %q", tt.wantMode, gotMode)
			}
		})
	}
}

func TestRun_TraceTooLong(t *testing.T) {
	mock := &MockGameService{
		RunProgramFunc: func(ctx context.Context, sessionID string, mode service.RunMode) (*service.RunResult, error) {
			return nil, fmt.Errorf("failed to run program: %w", program.ErrTraceTooLong)
		},
	}

	rr := doRequest(t, NewServer(mock, nil), "POST", "/api/sessions/ab12/run", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestAbortAndSolution(t *testing.T) {
	mock := &MockGameService{
		AbortRunFunc: func(ctx context.Context, sessionID string) (*service.AbortResult, error) {
			return &service.AbortResult{Aborted: true}, nil
		},
		SuggestSolutionFunc: func(ctx context.Context, sessionID string) (*service.SolutionInfo, error) {
			ops := []program.Opcode{program.Forward}
			return &service.SolutionInfo{Instructions: ops, Text: program.Format(ops), Length: 1, ExpandedLength: 1}, nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "POST", "/api/sessions/ab12/abort", nil)
	var abort service.AbortResult
	decodeBody(t, rr, &abort)
	if !abort.Aborted {
		t.Error("Expected aborted")
	}

	rr = doRequest(t, server, "GET", "/api/sessions/ab12/solution", nil)
	var solution service.SolutionInfo
	decodeBody(t, rr, &solution)
	if solution.Text != "F" {
		t.Errorf("Expected solution F, got %q", solution.Text)
	}
}

func TestSolution_Unsolvable(t *testing.T) {
	mock := &MockGameService{
		SuggestSolutionFunc: func(ctx context.Context, sessionID string) (*service.SolutionInfo, error) {
			return nil, fmt.Errorf("failed to solve maze: %w", solver.ErrNoPath)
		},
	}

	rr := doRequest(t, NewServer(mock, nil), "GET", "/api/sessions/ab12/solution", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rr.Code)
	}
}

func TestDifficulties(t *testing.T) {
	var savedID string
	mock := &MockGameService{
		ListDifficultiesFunc: func(ctx context.Context) ([]*service.DifficultyInfo, error) {
			return []*service.DifficultyInfo{{ID: "easy", MazeSize: 7}}, nil
		},
		LoadDifficultyFunc: func(ctx context.Context, name string) (*engine.DifficultyConfig, error) {
			if name != "easy" {
				return nil, config.ErrConfigNotFound
			}
			return engine.DefaultDifficulties()["easy"], nil
		},
		SaveDifficultyFunc: func(ctx context.Context, name string, cfg *engine.DifficultyConfig) error {
			if err := engine.ValidateDifficultyConfig(cfg); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
			}
			savedID = name
			return nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "GET", "/api/difficulties", nil)
	var list []*service.DifficultyInfo
	decodeBody(t, rr, &list)
	if len(list) != 1 || list[0].ID != "easy" {
		t.Errorf("Unexpected difficulties %+v", list)
	}

	if rr := doRequest(t, server, "GET", "/api/difficulties/easy", nil); rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for easy, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "GET", "/api/difficulties/missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing, got %d", rr.Code)
	}

	custom := *engine.DefaultDifficulties()["medium"]
	custom.Name = "custom"
	if rr := doRequest(t, server, "POST", "/api/difficulties", custom); rr.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if savedID != "custom" {
		t.Errorf("Expected custom saved, got %q", savedID)
	}

	if rr := doRequest(t, server, "POST", "/api/difficulties?id=speedy", custom); rr.Code != http.StatusCreated || savedID != "speedy" {
		t.Errorf("Expected save under speedy, got %d/%q", rr.Code, savedID)
	}

	custom.MazeSize = 8
	if rr := doRequest(t, server, "POST", "/api/difficulties", custom); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an even maze size, got %d", rr.Code)
	}
}

func TestProgressAndHealth(t *testing.T) {
	mock := &MockGameService{
		GetProgressFunc: func(ctx context.Context) (*rewards.Progress, error) {
			return &rewards.Progress{Stars: 12, Unlocked: []string{"Bronze Star"}}, nil
		},
	}
	server := NewServer(mock, nil)

	rr := doRequest(t, server, "GET", "/api/progress", nil)
	var progress rewards.Progress
	decodeBody(t, rr, &progress)
	if progress.Stars != 12 || len(progress.Unlocked) != 1 {
		t.Errorf("Unexpected progress %+v", progress)
	}

	rr = doRequest(t, server, "GET", "/health", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "healthy") {
		t.Errorf("Unexpected health response %d %s", rr.Code, rr.Body.String())
	}
}

func TestWebSocket_RequiresSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, session.ErrSessionNotFound
		},
	}
	server := NewServer(mock, websocket.NewHub())

	if rr := doRequest(t, server, "GET", "/ws", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "GET", "/ws?session=zzzz", nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rr.Code)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", config.ErrConfigNotFound), http.StatusNotFound},
		{program.ErrUnknownOpcode, http.StatusBadRequest},
		{service.ErrInvalidRunMode, http.StatusBadRequest},
		{config.ErrInvalidConfig, http.StatusBadRequest},
		{solver.ErrNoPath, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// newIntegrationServer wires the real service, session and config layers
func newIntegrationServer(t *testing.T) (*Server, *rewards.Ledger) {
	t.Helper()

	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	ledger := rewards.NewLedger()
	sessions := session.NewManager(ledger)
	svc := service.NewGameService(sessions, configs, ledger)
	return NewServer(svc, nil), ledger
}

func TestIntegration_SolveAndRun(t *testing.T) {
	server, ledger := newIntegrationServer(t)

	rr := doRequest(t, server, "POST", "/api/sessions", map[string]interface{}{"difficulty": "easy", "seed": 7})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var info service.SessionInfo
	decodeBody(t, rr, &info)
	if info.Snapshot.Size != 7 || info.Seed != 7 {
		t.Fatalf("Unexpected session %+v", info)
	}
	base := "/api/sessions/" + info.ID

	rr = doRequest(t, server, "GET", base+"/solution", nil)
	var solution service.SolutionInfo
	decodeBody(t, rr, &solution)
	if solution.Length == 0 {
		t.Fatal("Expected a non-empty solution")
	}

	rr = doRequest(t, server, "POST", base+"/program", map[string]string{"text": solution.Text})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 appending program, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, server, "POST", base+"/run", map[string]string{"mode": "instant"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 running, got %d: %s", rr.Code, rr.Body.String())
	}
	var result service.RunResult
	decodeBody(t, rr, &result)
	if result.Final == nil || result.Final.Outcome != engine.OutcomeSuccess {
		t.Fatalf("Expected success, got %+v", result.Final)
	}
	if result.Snapshot.Message != "Success! +1⭐" {
		t.Errorf("Unexpected message %q", result.Snapshot.Message)
	}
	if ledger.Stars() != 1 {
		t.Errorf("Expected 1 star, got %d", ledger.Stars())
	}

	rr = doRequest(t, server, "GET", "/api/progress", nil)
	var progress rewards.Progress
	decodeBody(t, rr, &progress)
	if progress.Stars != 1 || progress.Successes != 1 {
		t.Errorf("Unexpected progress %+v", progress)
	}

	rr = doRequest(t, server, "DELETE", base, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 deleting, got %d", rr.Code)
	}
	if rr := doRequest(t, server, "GET", base, nil); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rr.Code)
	}
}

func TestIntegration_CrashIsAnOutcome(t *testing.T) {
	server, ledger := newIntegrationServer(t)

	rr := doRequest(t, server, "POST", "/api/sessions", map[string]interface{}{"seed": 3})
	var info service.SessionInfo
	decodeBody(t, rr, &info)
	base := "/api/sessions/" + info.ID

	// turning left from the start faces the top edge
	doRequest(t, server, "POST", base+"/program", map[string]string{"text": "L F"})

	rr = doRequest(t, server, "POST", base+"/run?mode=instant", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Crash should not be an HTTP error, got %d", rr.Code)
	}
	var result service.RunResult
	decodeBody(t, rr, &result)
	if result.Final.Outcome != engine.OutcomeCrashed {
		t.Errorf("Expected crashed, got %s", result.Final.Outcome)
	}
	if ledger.Stars() != 0 {
		t.Error("Crash must not pay")
	}
}
