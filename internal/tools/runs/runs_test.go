package runs

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dlemos/amekit/internal/index"
)

func newTestStore(t *testing.T) *index.IndexStore {
	t.Helper()
	store, err := index.NewIndexStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStartTool(t *testing.T) {
	tool := NewStartTool(nil, nil)

	if tool.Name() != "run_start" {
		t.Errorf("expected name 'run_start', got '%s'", tool.Name())
	}
	if tool.Description() == "" {
		t.Error("description should not be empty")
	}
	if len(tool.Schema()) == 0 {
		t.Error("schema should not be empty")
	}
}

func TestStartToolRequiresSystem(t *testing.T) {
	if _, err := NewStartTool(nil, nil).Execute(json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing system")
	}
}

func TestStartToolWithoutSolver(t *testing.T) {
	input, _ := json.Marshal(StartRequest{System: "circuit"})
	if _, err := NewStartTool(nil, newTestStore(t)).Execute(input); err == nil {
		t.Error("expected error when solver is unavailable")
	}
}

func TestStatusToolFromHistory(t *testing.T) {
	store := newTestStore(t)
	if err := store.InsertRun(&index.Run{
		ID:     "run-1",
		System: "circuit",
		Solver: "standard",
		Status: index.RunStarted,
	}); err != nil {
		t.Fatal(err)
	}

	input, _ := json.Marshal(StatusRequest{RunID: "run-1"})
	result, err := NewStatusTool(nil, store).Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*StatusResponse)
	if resp.Run == nil {
		t.Fatal("expected run record")
	}
	if resp.Run.Status != index.RunStarted {
		t.Errorf("status = %s, want started", resp.Run.Status)
	}
}

func TestStatusToolUnknownRun(t *testing.T) {
	input, _ := json.Marshal(StatusRequest{RunID: "nope"})
	if _, err := NewStatusTool(nil, newTestStore(t)).Execute(input); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestGetTools(t *testing.T) {
	all := GetTools(nil, nil)
	if len(all) != 2 {
		t.Fatalf("got %d tools, want 2", len(all))
	}
}
