package index

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *IndexStore {
	t.Helper()
	store, err := NewIndexStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("NewIndexStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpsertAndGetFile(t *testing.T) {
	store := newTestStore(t)

	id, err := store.UpsertFile(&IndexedFile{
		Path:        "/data/circuit_.results",
		Kind:        KindResults,
		System:      "/data/circuit",
		ContentHash: "abc",
		Status:      StatusIndexed,
		IndexedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero file id")
	}

	file, err := store.GetFile("/data/circuit_.results")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if file == nil || file.Kind != KindResults || file.System != "/data/circuit" {
		t.Errorf("unexpected file: %+v", file)
	}

	// Upsert again keeps one row.
	id2, err := store.UpsertFile(&IndexedFile{
		Path:   "/data/circuit_.results",
		Kind:   KindResults,
		Status: StatusIndexed,
	})
	if err != nil {
		t.Fatalf("second UpsertFile: %v", err)
	}
	_ = id2

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalFiles != 1 {
		t.Errorf("total files = %d, want 1", stats.TotalFiles)
	}
}

func TestVariableSearch(t *testing.T) {
	store := newTestStore(t)

	fileID, err := store.UpsertFile(&IndexedFile{
		Path:   "/data/rig_.results",
		Kind:   KindResults,
		Status: StatusIndexed,
	})
	if err != nil {
		t.Fatal(err)
	}

	vars := []*IndexedVariable{
		{Name: "pump pressure", Unit: "bar", Col: 1, Points: 100},
		{Name: "pump flow", Unit: "L/min", Col: 2, Points: 100},
		{Name: "rod displacement", Unit: "m", Col: 3, Points: 100},
	}
	if err := store.InsertVariables(fileID, vars); err != nil {
		t.Fatalf("InsertVariables: %v", err)
	}

	found, err := store.SearchVariables("pump", 10)
	if err != nil {
		t.Fatalf("SearchVariables: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("search 'pump' = %d results, want 2", len(found))
	}

	found, err = store.SearchVariables("displacement", 10)
	if err != nil {
		t.Fatalf("SearchVariables: %v", err)
	}
	if len(found) != 1 || found[0].Unit != "m" {
		t.Errorf("search 'displacement' = %+v", found)
	}

	// Re-insert replaces, not duplicates.
	if err := store.InsertVariables(fileID, vars[:1]); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetVariablesByFile(fileID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 variable after replace, got %d", len(got))
	}
}

func TestRunHistory(t *testing.T) {
	store := newTestStore(t)

	run := &Run{
		ID:        "run-1",
		System:    "/data/circuit",
		Solver:    "standard",
		Status:    RunStarted,
		StartedAt: time.Now(),
	}
	if err := store.InsertRun(run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	if err := store.UpdateRun("run-1", RunFinished, ""); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil || got.Status != RunFinished {
		t.Errorf("run = %+v, want finished", got)
	}
	if got.FinishedAt.IsZero() {
		t.Error("finished_at not recorded")
	}

	runs, err := store.RecentRuns(5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("recent runs = %d, want 1", len(runs))
	}
}

func TestSplitUnit(t *testing.T) {
	cases := []struct {
		title string
		name  string
		unit  string
	}{
		{"pump pressure [bar]", "pump pressure", "bar"},
		{"time [s]", "time", "s"},
		{"plain title", "plain title", ""},
	}
	for _, tc := range cases {
		name, unit := SplitUnit(tc.title)
		if name != tc.name || unit != tc.unit {
			t.Errorf("SplitUnit(%q) = (%q, %q), want (%q, %q)", tc.title, name, unit, tc.name, tc.unit)
		}
	}
}
