package rainflow

import (
	"encoding/json"
	"testing"
)

func TestCountTool(t *testing.T) {
	tool := NewCountTool()

	if tool.Name() != "rainflow_count" {
		t.Errorf("expected name 'rainflow_count', got '%s'", tool.Name())
	}
	if tool.Description() == "" {
		t.Error("description should not be empty")
	}
	if len(tool.Schema()) == 0 {
		t.Error("schema should not be empty")
	}
}

func TestCountToolInlineSeries(t *testing.T) {
	input, _ := json.Marshal(CountRequest{
		Series: []float64{0, -2, 1, -3, 5, -1, 3, -4, 4, -2, 0},
	})
	result, err := NewCountTool().Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*CountResponse)
	if resp.HalfCycles != 8 {
		t.Errorf("half cycles = %d, want 8", resp.HalfCycles)
	}
	if len(resp.Ranges) != 8 {
		t.Errorf("got %d ranges, want 8", len(resp.Ranges))
	}
	if len(resp.Bins) != 0 {
		t.Error("bins should be empty without bin_size")
	}
}

func TestCountToolBinned(t *testing.T) {
	input, _ := json.Marshal(CountRequest{
		Series:  []float64{0, -2, 1, -3, 5, -1, 3, -4, 4, -2, 0},
		BinSize: 2,
	})
	result, err := NewCountTool().Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*CountResponse)
	if len(resp.Bins) != 4 {
		t.Fatalf("got %d bins, want 4", len(resp.Bins))
	}
	total := 0.0
	for _, b := range resp.Bins {
		total += b.Cycles
	}
	if total != 4 {
		t.Errorf("total cycles = %g, want 4 (8 half cycles)", total)
	}
}

func TestCountToolRequiresInput(t *testing.T) {
	if _, err := NewCountTool().Execute(json.RawMessage(`{}`)); err == nil {
		t.Error("expected error when neither series nor system is given")
	}
}
