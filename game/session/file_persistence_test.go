package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/logic-labyrinth/game/config"
	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/service"
)

func setupPersistence(t *testing.T) (*FilePersistence, *config.Manager, string) {
	t.Helper()
	configManager, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "sessions")
	persistence, err := NewFilePersistence(dir, configManager, nil)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	return persistence, configManager, dir
}

func createPersistableSession(t *testing.T, configManager *config.Manager, id string) *service.Session {
	t.Helper()
	config, err := configManager.LoadConfig("medium")
	if err != nil {
		t.Fatal(err)
	}
	grid, seed, err := GenerateMaze(config.MazeSize, 77)
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.NewEngine(config, grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &service.Session{
		ID:             id,
		Engine:         eng,
		Difficulty:     "medium",
		Config:         config,
		Seed:           seed,
		CreatedAt:      time.Now().Add(-time.Minute).Truncate(time.Second),
		LastAccessedAt: time.Now().Truncate(time.Second),
	}
}

func TestFilePersistence_SaveAndLoad(t *testing.T) {
	persistence, configManager, dir := setupPersistence(t)
	session := createPersistableSession(t, configManager, "test1")
	session.Engine.Append(program.Forward)

	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if !persistence.Exists("test1") {
		t.Error("Session file should exist after save")
	}

	data, err := os.ReadFile(filepath.Join(dir, "test1.json"))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "difficulty", "seed", "maze_size", "rows", "created_at", "last_accessed_at"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("persisted file missing %q", key)
		}
	}
	if strings.Contains(string(data), "program") {
		t.Error("programs must not be persisted")
	}

	loaded, err := persistence.Load("test1")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded.ID != session.ID || loaded.Difficulty != "medium" || loaded.Seed != session.Seed {
		t.Errorf("unexpected loaded session %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(session.CreatedAt) {
		t.Errorf("Expected CreatedAt %v, got %v", session.CreatedAt, loaded.CreatedAt)
	}
	if loaded.Engine.GetGrid().String() != session.Engine.GetGrid().String() {
		t.Error("Loaded maze differs from saved maze")
	}
	if len(loaded.Engine.Program()) != 0 {
		t.Error("Loaded session should start with an empty program")
	}
}

func TestFilePersistence_LoadErrors(t *testing.T) {
	persistence, configManager, dir := setupPersistence(t)

	if _, err := persistence.Load("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := persistence.Load("corrupt"); err == nil {
		t.Error("Expected error for corrupt file")
	}

	session := createPersistableSession(t, configManager, "unknown")
	session.Difficulty = "nightmare"
	if err := persistence.Save(session); err != nil {
		t.Fatal(err)
	}
	if _, err := persistence.Load("unknown"); err == nil || !strings.Contains(err.Error(), "nightmare") {
		t.Errorf("Expected unknown difficulty error, got %v", err)
	}

	badRows := PersistedSessionData{
		ID:         "badrows",
		Difficulty: "easy",
		MazeSize:   5,
		Rows:       []string{".....", "..."},
	}
	data, _ := json.Marshal(badRows)
	if err := os.WriteFile(filepath.Join(dir, "badrows.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := persistence.Load("badrows"); err == nil {
		t.Error("Expected error for ragged rows")
	}
}

func TestFilePersistence_DeleteAndList(t *testing.T) {
	persistence, configManager, _ := setupPersistence(t)

	for _, id := range []string{"aaaa", "bbbb"} {
		if err := persistence.Save(createPersistableSession(t, configManager, id)); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := persistence.ListAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected 2 persisted sessions, got %v", ids)
	}

	if err := persistence.Delete("aaaa"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if persistence.Exists("aaaa") {
		t.Error("Session should not exist after delete")
	}
	if err := persistence.Delete("aaaa"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if persistence.Exists("../aaaa") || persistence.Exists("") {
		t.Error("Exists should reject path-like IDs")
	}
}

func TestFilePersistence_SaveNil(t *testing.T) {
	persistence, _, _ := setupPersistence(t)
	if err := persistence.Save(nil); err == nil {
		t.Error("Expected error saving nil session")
	}
}
