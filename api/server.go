package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/logic-labyrinth/game/config"
	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/maze"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/service"
	"github.com/wricardo/logic-labyrinth/game/session"
	"github.com/wricardo/logic-labyrinth/game/solver"
	"github.com/wricardo/logic-labyrinth/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/snapshot", s.handleGetSnapshot).Methods("GET")
	api.HandleFunc("/sessions/{id}/maze", s.handleRegenerateMaze).Methods("POST")

	// Program authoring
	api.HandleFunc("/sessions/{id}/program", s.handleGetProgram).Methods("GET")
	api.HandleFunc("/sessions/{id}/program", s.handleAppendProgram).Methods("POST")
	api.HandleFunc("/sessions/{id}/program", s.handleClearProgram).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/program/undo", s.handleUndo).Methods("POST")

	// Execution
	api.HandleFunc("/sessions/{id}/run", s.handleRun).Methods("POST")
	api.HandleFunc("/sessions/{id}/abort", s.handleAbort).Methods("POST")
	api.HandleFunc("/sessions/{id}/solution", s.handleSolution).Methods("GET")

	// Difficulties and progress
	api.HandleFunc("/difficulties", s.handleListDifficulties).Methods("GET")
	api.HandleFunc("/difficulties", s.handleSaveDifficulty).Methods("POST")
	api.HandleFunc("/difficulties/{name}", s.handleGetDifficulty).Methods("GET")
	api.HandleFunc("/progress", s.handleGetProgress).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// the upgrader needs the raw writer to hijack the connection
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, program.ErrTraceTooLong),
		errors.Is(err, program.ErrUnknownOpcode),
		errors.Is(err, service.ErrInvalidRunMode),
		errors.Is(err, service.ErrNoInstructions),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, maze.ErrInvalidSize),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, solver.ErrNoPath), errors.Is(err, maze.ErrUnsolvable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptional decodes a JSON body into v, accepting an empty body
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) broadcastSnapshot(sessionID string, snapshot engine.Snapshot) {
	if s.hub != nil {
		s.hub.BroadcastSnapshot(strings.ToLower(sessionID), snapshot)
	}
}

// broadcastCurrent pushes the session's current snapshot to its watchers
func (s *Server) broadcastCurrent(ctx context.Context, sessionID string) {
	if s.hub == nil {
		return
	}
	snap, err := s.service.GetSnapshot(ctx, sessionID)
	if err != nil {
		return
	}
	s.hub.BroadcastSnapshot(strings.ToLower(sessionID), *snap)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty string `json:"difficulty,omitempty"`
		Seed       uint64 `json:"seed,omitempty"`
	}

	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateSession(r.Context(), req.Difficulty, req.Seed)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return
	difficulty := query.Get("difficulty")

	// Set defaults
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if difficulty != "" {
		filtered := make([]*service.SessionInfo, 0, len(sessions))
		for _, info := range sessions {
			if info.Difficulty == difficulty {
				filtered = append(filtered, info)
			}
		}
		sessions = filtered
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	// Apply limit if specified
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetSnapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRegenerateMaze(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Seed uint64 `json:"seed,omitempty"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.RegenerateMaze(r.Context(), sessionID, req.Seed)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastSnapshot(sessionID, info.Snapshot)
	respondJSON(w, http.StatusOK, info)
}

// Program Handlers

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetProgram(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// handleAppendProgram accepts either a token list or program text:
//
//	{"instructions": ["F", "LOOP_START", "F", "LOOP_END"]}
//	{"text": "F R F F"}
func (s *Server) handleAppendProgram(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Instructions []program.Opcode `json:"instructions,omitempty"`
		Text         string           `json:"text,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	ops := req.Instructions
	if strings.TrimSpace(req.Text) != "" {
		parsed, err := program.Parse(req.Text)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		ops = append(ops, parsed.Sequence()...)
	}

	info, err := s.service.AppendInstruction(r.Context(), sessionID, ops...)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastCurrent(r.Context(), sessionID)
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.RemoveLastInstruction(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastCurrent(r.Context(), sessionID)
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleClearProgram(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.ClearProgram(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastCurrent(r.Context(), sessionID)
	respondJSON(w, http.StatusOK, info)
}

// Execution Handlers

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Mode string `json:"mode,omitempty"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = r.URL.Query().Get("mode")
	}

	mode, err := service.ParseRunMode(req.Mode)
	if err != nil {
		respondServiceError(w, fmt.Errorf("%w: %q (use animated or instant)", err, req.Mode))
		return
	}

	result, err := s.service.RunProgram(r.Context(), sessionID, mode)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// animated frames reach the hub through the service's frame observer
	if mode == service.RunInstant {
		s.broadcastSnapshot(sessionID, result.Snapshot)
	}

	status := http.StatusOK
	if mode == service.RunAnimated {
		status = http.StatusAccepted
	}
	respondJSON(w, status, result)
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.AbortRun(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Aborted {
		s.broadcastSnapshot(sessionID, result.Snapshot)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSolution(w http.ResponseWriter, r *http.Request) {
	solution, err := s.service.SuggestSolution(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, solution)
}

// Difficulty Handlers

func (s *Server) handleListDifficulties(w http.ResponseWriter, r *http.Request) {
	difficulties, err := s.service.ListDifficulties(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, difficulties)
}

func (s *Server) handleGetDifficulty(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	difficulty, err := s.service.LoadDifficulty(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, difficulty)
}

// handleSaveDifficulty stores a difficulty under ?id=, falling back to its name
func (s *Server) handleSaveDifficulty(w http.ResponseWriter, r *http.Request) {
	var difficulty engine.DifficultyConfig
	if err := json.NewDecoder(r.Body).Decode(&difficulty); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id = difficulty.Name
	}
	if id == "" {
		respondError(w, http.StatusBadRequest, "Difficulty name is required")
		return
	}

	if err := s.service.SaveDifficulty(r.Context(), id, &difficulty); err != nil {
		respondServiceError(w, fmt.Errorf("failed to save difficulty: %w", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Difficulty saved successfully",
		"id":      id,
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.service.GetProgress(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, progress)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "WebSocket streaming disabled", http.StatusServiceUnavailable)
		return
	}

	// Verify session exists
	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
