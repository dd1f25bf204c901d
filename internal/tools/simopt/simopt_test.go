package simopt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const simFixture = "0 10 0.01 1e+30 1e-07 0.001 1 0.1\n0 0 0 0 8 0 0 0 0 0\n"

func TestGetTool(t *testing.T) {
	tool := NewGetTool()

	if tool.Name() != "simopt_get" {
		t.Errorf("expected name 'simopt_get', got '%s'", tool.Name())
	}
	if tool.Description() == "" {
		t.Error("description should not be empty")
	}
	if len(tool.Schema()) == 0 {
		t.Error("schema should not be empty")
	}
}

func TestGetToolReadsOptions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "circuit_.sim"), []byte(simFixture), 0644); err != nil {
		t.Fatal(err)
	}

	input, _ := json.Marshal(GetRequest{System: filepath.Join(dir, "circuit.ame")})
	result, err := NewGetTool().Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*GetResponse)
	if resp.System != "circuit" {
		t.Errorf("system = %q, want circuit", resp.System)
	}
	if resp.Version != 4 {
		t.Errorf("version = %d, want 4", resp.Version)
	}
	if resp.Options.FinalTime != 10 {
		t.Errorf("final time = %g, want 10", resp.Options.FinalTime)
	}
}

func TestPutToolWritesOptions(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "circuit.ame")

	input, _ := json.Marshal(map[string]interface{}{
		"system": ref,
		"options": map[string]interface{}{
			"final_time": 25.0,
		},
	})
	result, err := NewPutTool().Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*PutResponse)
	if !strings.HasSuffix(resp.Path, "circuit_.sim") {
		t.Errorf("path = %q, want a circuit_.sim file", resp.Path)
	}

	// Round-trip through the get tool: the changed field sticks and
	// the rest stays at defaults.
	getInput, _ := json.Marshal(GetRequest{System: ref})
	got, err := NewGetTool().Execute(getInput)
	if err != nil {
		t.Fatal(err)
	}

	opts := got.(*GetResponse).Options
	if opts.FinalTime != 25 {
		t.Errorf("final time = %g, want 25", opts.FinalTime)
	}
	if opts.PrintInterval != 0.01 {
		t.Errorf("print interval = %g, want default 0.01", opts.PrintInterval)
	}
}

func TestPutToolPreservesLayoutRevision(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "circuit.ame")
	simPath := filepath.Join(dir, "circuit_.sim")

	// Version 1 layout: 5 parameters, 8 options.
	v1 := "0 10 0.01 1e+30 1e-07\n0 0 0 0 8 0 0 0\n"
	if err := os.WriteFile(simPath, []byte(v1), 0644); err != nil {
		t.Fatal(err)
	}

	input, _ := json.Marshal(map[string]interface{}{
		"system": ref,
		"options": map[string]interface{}{
			"final_time": 20.0,
		},
	})
	if _, err := NewPutTool().Execute(input); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(simPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if fields := strings.Fields(lines[0]); len(fields) != 5 {
		t.Errorf("parameter line has %d fields, want 5 (v1 layout): %q", len(fields), lines[0])
	}
	if fields := strings.Fields(lines[1]); len(fields) != 8 {
		t.Errorf("option line has %d fields, want 8 (v1 layout): %q", len(fields), lines[1])
	}

	getInput, _ := json.Marshal(GetRequest{System: ref})
	got, err := NewGetTool().Execute(getInput)
	if err != nil {
		t.Fatal(err)
	}
	resp := got.(*GetResponse)
	if resp.Version != 1 {
		t.Errorf("version = %d, want 1", resp.Version)
	}
	if resp.Options.FinalTime != 20 {
		t.Errorf("final time = %g, want 20", resp.Options.FinalTime)
	}
}

func TestPutToolRejectsMissingOptions(t *testing.T) {
	input, _ := json.Marshal(map[string]interface{}{"system": "circuit"})
	if _, err := NewPutTool().Execute(input); err == nil {
		t.Error("expected error for missing options")
	}
}

func TestGetTools(t *testing.T) {
	all := GetTools()
	if len(all) != 2 {
		t.Fatalf("got %d tools, want 2", len(all))
	}
}
