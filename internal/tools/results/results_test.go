package results

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSystemFixture(t *testing.T, dir, sysname string, titles []string, rows [][]float64) string {
	t.Helper()

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(len(rows)))
	binary.Write(&buf, binary.LittleEndian, int32(len(titles)))
	for _, row := range rows {
		binary.Write(&buf, binary.LittleEndian, row)
	}
	if err := os.WriteFile(filepath.Join(dir, sysname+"_.results"), buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	var vars bytes.Buffer
	for _, title := range titles {
		vars.WriteString(title + "\n")
	}
	if err := os.WriteFile(filepath.Join(dir, sysname+"_.var"), vars.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	return filepath.Join(dir, sysname+".ame")
}

func TestLoadTool(t *testing.T) {
	tool := NewLoadTool(nil)

	if tool.Name() != "results_load" {
		t.Errorf("expected name 'results_load', got '%s'", tool.Name())
	}
	if tool.Description() == "" {
		t.Error("description should not be empty")
	}
	if len(tool.Schema()) == 0 {
		t.Error("schema should not be empty")
	}
}

func TestLoadToolSummaries(t *testing.T) {
	dir := t.TempDir()
	ref := writeSystemFixture(t, dir, "circuit",
		[]string{"pressure [bar]"},
		[][]float64{{0, 1}, {0.1, 3}})

	input, _ := json.Marshal(LoadRequest{System: ref})
	result, err := NewLoadTool(nil).Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*LoadResponse)
	if resp.Points != 2 {
		t.Errorf("points = %d, want 2", resp.Points)
	}
	if len(resp.Summaries) != 2 {
		t.Fatalf("got %d summaries, want 2 (time and pressure)", len(resp.Summaries))
	}
	if resp.Summaries[1].Max != 3 {
		t.Errorf("pressure max = %g, want 3", resp.Summaries[1].Max)
	}
	if len(resp.Series) != 0 {
		t.Error("summary request should not carry series")
	}
}

func TestLoadToolSeries(t *testing.T) {
	dir := t.TempDir()
	ref := writeSystemFixture(t, dir, "circuit",
		[]string{"pressure [bar]"},
		[][]float64{{0, 1}, {0.1, 3}})

	input, _ := json.Marshal(LoadRequest{System: ref, Series: true})
	result, err := NewLoadTool(nil).Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*LoadResponse)
	if len(resp.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(resp.Series))
	}
	if resp.Series[1].Data[1] != 3 {
		t.Errorf("pressure final = %g, want 3", resp.Series[1].Data[1])
	}
}

func TestLoadToolMissingSystem(t *testing.T) {
	if _, err := NewLoadTool(nil).Execute(json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing system")
	}
}

func TestPlotExportTool(t *testing.T) {
	dir := t.TempDir()
	ref := writeSystemFixture(t, dir, "circuit",
		[]string{"pressure [bar]", "torque [Nm]"},
		[][]float64{{0, 1, 5}, {0.1, 3, 6}})

	out := filepath.Join(dir, "pressure.plt")
	input, _ := json.Marshal(PlotExportRequest{System: ref, Pattern: "pressure*", Output: out})

	result, err := NewPlotExportTool().Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*PlotExportResponse)
	if resp.Columns != 2 {
		t.Errorf("columns = %d, want 2 (time and pressure)", resp.Columns)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "# AMESim plot file format version: 2\n") {
		t.Errorf("unexpected header: %q", string(content[:40]))
	}
	if !strings.Contains(string(content), "# 2 rows\n") {
		t.Error("missing row count header")
	}
}

func TestPlotExportToolNoMatch(t *testing.T) {
	dir := t.TempDir()
	ref := writeSystemFixture(t, dir, "circuit",
		[]string{"pressure [bar]"},
		[][]float64{{0, 1}})

	out := filepath.Join(dir, "none.plt")
	input, _ := json.Marshal(PlotExportRequest{System: ref, Pattern: "bogus*", Output: out})
	if _, err := NewPlotExportTool().Execute(input); err == nil {
		t.Error("expected error when nothing matches")
	}
}

func TestToCSVTool(t *testing.T) {
	dir := t.TempDir()
	ref := writeSystemFixture(t, dir, "circuit",
		[]string{"pressure [bar]"},
		[][]float64{{0, 1}, {0.5, 2}})

	out := filepath.Join(dir, "circuit.csv")
	input, _ := json.Marshal(ToCSVRequest{System: ref, Output: out})

	result, err := NewToCSVTool().Execute(input)
	if err != nil {
		t.Fatal(err)
	}

	resp := result.(*ToCSVResponse)
	if resp.Rows != 2 || resp.Variables != 2 {
		t.Errorf("rows/vars = %d/%d, want 2/2", resp.Rows, resp.Variables)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d csv lines, want header plus 2 rows", len(lines))
	}
	if !strings.Contains(lines[0], "pressure") {
		t.Errorf("header %q missing variable name", lines[0])
	}
}

func TestGetTools(t *testing.T) {
	all := GetTools(nil)
	if len(all) != 3 {
		t.Fatalf("got %d tools, want 3", len(all))
	}
	names := map[string]bool{}
	for _, tool := range all {
		names[tool.Name()] = true
	}
	for _, want := range []string{"results_load", "plot_export", "results_to_csv"} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}
