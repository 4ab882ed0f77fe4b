package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/program"
	"github.com/wricardo/logic-labyrinth/game/rewards"
	"github.com/wricardo/logic-labyrinth/game/solver"
)

func createTestConfig() *engine.DifficultyConfig {
	return &engine.DifficultyConfig{
		Name:           "Test Config",
		Description:    "Test configuration",
		MazeSize:       7,
		Reward:         2,
		TickIntervalMS: 10,
		Messages:       engine.DefaultMessages(),
	}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager(nil)
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "test", config, 11)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil {
			t.Fatal("Expected engine to be initialized")
		}
		if session.Seed != 11 || session.Difficulty != "test" {
			t.Errorf("unexpected session metadata %+v", session)
		}
		if session.Engine.GetGrid().Size != 7 {
			t.Errorf("Expected 7x7 maze, got %d", session.Engine.GetGrid().Size)
		}
	})

	t.Run("create with auto-generated ID and seed", func(t *testing.T) {
		session, err := manager.Create("", "test", config, 0)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got '%s'", session.ID)
		}
		if session.Seed == 0 {
			t.Error("Expected a random non-zero seed")
		}
	})

	t.Run("duplicate ID is case-insensitive", func(t *testing.T) {
		if _, err := manager.Create("TEST-SESSION", "test", config, 1); !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		if _, err := manager.Create("../evil", "test", config, 1); !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.MazeSize = 6
		if _, err := manager.Create("bad", "test", bad, 1); err == nil {
			t.Error("Expected error for even maze size")
		}
		if _, err := manager.Create("nil", "test", nil, 1); err == nil {
			t.Error("Expected error for nil config")
		}
	})
}

func TestManager_SameSeedSameMaze(t *testing.T) {
	manager := NewManager(nil)
	config := createTestConfig()

	a, _ := manager.Create("a", "test", config, 1234)
	b, _ := manager.Create("b", "test", config, 1234)

	if a.Engine.GetGrid().String() != b.Engine.GetGrid().String() {
		t.Error("Expected identical mazes for identical seeds")
	}
}

func TestManager_Get(t *testing.T) {
	manager := NewManager(nil)
	created, _ := manager.Create("AbCd", "test", createTestConfig(), 1)

	for _, id := range []string{"AbCd", "abcd", "ABCD"} {
		session, err := manager.Get(id)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", id, err)
		}
		if session != created {
			t.Errorf("Get(%s) returned a different session", id)
		}
	}

	if _, err := manager.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ListAndDelete(t *testing.T) {
	manager := NewManager(nil)
	config := createTestConfig()

	for _, id := range []string{"one", "two", "three"} {
		if _, err := manager.Create(id, "test", config, 1); err != nil {
			t.Fatal(err)
		}
	}

	list := manager.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.Before(list[i-1].CreatedAt) {
			t.Error("Expected sessions ordered by creation time")
		}
	}

	if err := manager.Delete("TWO"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if manager.Count() != 2 {
		t.Errorf("Expected 2 sessions, got %d", manager.Count())
	}
	if err := manager.Delete("two"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_DeleteAbortsRun(t *testing.T) {
	manager := NewManager(nil)
	config := createTestConfig()
	config.TickIntervalMS = engine.MaxTickIntervalMS

	session, _ := manager.Create("runner", "test", config, 1)
	session.Engine.Append(program.Forward)
	if _, err := session.Engine.StartRun(0, nil); err != nil {
		t.Fatal(err)
	}

	if err := manager.Delete("runner"); err != nil {
		t.Fatal(err)
	}
	if session.Engine.IsRunning() {
		t.Error("Delete should abort the run")
	}
}

func TestManager_Regenerate(t *testing.T) {
	manager := NewManager(nil)
	session, _ := manager.Create("regen", "test", createTestConfig(), 1)
	session.Engine.Append(program.TurnRight)
	before := session.Engine.GetGrid().String()

	regenerated, err := manager.Regenerate("regen", 2)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if regenerated.Seed != 2 {
		t.Errorf("Expected seed 2, got %d", regenerated.Seed)
	}
	if regenerated.Engine.GetGrid().String() == before {
		t.Error("Expected a new maze")
	}
	if len(regenerated.Engine.Program()) != 1 {
		t.Error("Regenerate should keep the program")
	}

	random, err := manager.Regenerate("regen", 0)
	if err != nil {
		t.Fatal(err)
	}
	if random.Seed == 0 {
		t.Error("Expected a random seed")
	}

	if _, err := manager.Regenerate("missing", 1); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_RewardsFlowToSink(t *testing.T) {
	ledger := rewards.NewLedger()
	manager := NewManager(ledger)

	session, _ := manager.Create("reward", "test", createTestConfig(), 9)
	ops, err := solver.Solve(session.Engine.GetGrid())
	if err != nil {
		t.Fatal(err)
	}
	for _, op := range ops {
		session.Engine.Append(op)
	}

	frames, err := session.Engine.RunInstant()
	if err != nil {
		t.Fatal(err)
	}
	if engine.FinalFrame(frames).Outcome != engine.OutcomeSuccess {
		t.Fatal("Expected the solution to succeed")
	}
	if ledger.Stars() != 2 {
		t.Errorf("Expected 2 stars, got %d", ledger.Stars())
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager(nil)
	session, _ := manager.Create("touch", "test", createTestConfig(), 1)
	before := session.LastAccessedAt

	time.Sleep(5 * time.Millisecond)
	if err := manager.UpdateLastAccessed("TOUCH"); err != nil {
		t.Fatal(err)
	}
	if !session.LastAccessedAt.After(before) {
		t.Error("Expected LastAccessedAt to advance")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	manager := NewManager(nil)
	config := createTestConfig()

	old, _ := manager.Create("old", "test", config, 1)
	manager.Create("fresh", "test", config, 1)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected expired session to be gone")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Error("Expected fresh session to survive")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager(nil)
	config := createTestConfig()

	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", "test", config, 0)
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			manager.Get(session.ID)
			manager.UpdateLastAccessed(session.ID)
			ids <- session.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[strings.ToLower(id)] {
			t.Errorf("Duplicate session ID %s", id)
		}
		seen[strings.ToLower(id)] = true
	}
	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
}
