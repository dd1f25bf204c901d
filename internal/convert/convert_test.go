package convert

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dlemos/amekit/internal/ame"
)

// writeMatFixture emits a minimal little-endian level 5 container with one
// double matrix named "data".
func writeMatFixture(t *testing.T, path string, rows, cols int, values []float64) {
	t.Helper()

	var body bytes.Buffer
	writeEl := func(typ uint32, payload []byte) {
		binary.Write(&body, binary.LittleEndian, typ)
		binary.Write(&body, binary.LittleEndian, uint32(len(payload)))
		body.Write(payload)
		if pad := (8 - len(payload)%8) % 8; pad > 0 {
			body.Write(make([]byte, pad))
		}
	}

	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, 6) // mxDOUBLE
	writeEl(6, flags)                       // miUINT32

	dims := make([]byte, 8)
	binary.LittleEndian.PutUint32(dims, uint32(rows))
	binary.LittleEndian.PutUint32(dims[4:], uint32(cols))
	writeEl(5, dims) // miINT32

	writeEl(1, []byte("data")) // miINT8

	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	writeEl(9, raw) // miDOUBLE

	var buf bytes.Buffer
	header := make([]byte, 128)
	copy(header, "MATLAB 5.0 MAT-file")
	binary.LittleEndian.PutUint16(header[124:], 0x0100)
	copy(header[126:], "IM")
	buf.Write(header)

	binary.Write(&buf, binary.LittleEndian, uint32(14)) // miMATRIX
	binary.Write(&buf, binary.LittleEndian, uint32(body.Len()))
	buf.Write(body.Bytes())

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMatToCSV(t *testing.T) {
	dir := t.TempDir()
	matPath := filepath.Join(dir, "test.mat")
	outPath := filepath.Join(dir, "out.csv")

	// Column-major [1 3; 2 4].
	writeMatFixture(t, matPath, 2, 2, []float64{1, 2, 3, 4})

	if err := MatToCSV(matPath, "data", outPath); err != nil {
		t.Fatalf("MatToCSV: %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(content))
	if got != "1,3\n2,4" {
		t.Errorf("csv = %q, want rows 1,3 / 2,4", got)
	}
}

func TestMatToCSVMissingVariable(t *testing.T) {
	dir := t.TempDir()
	matPath := filepath.Join(dir, "test.mat")
	writeMatFixture(t, matPath, 1, 1, []float64{0})

	err := MatToCSV(matPath, "nosuch", filepath.Join(dir, "out.csv"))
	if err == nil || !strings.Contains(err.Error(), "nosuch") {
		t.Errorf("expected missing-variable error, got %v", err)
	}
}

func TestConvertDir(t *testing.T) {
	dir := t.TempDir()
	writeMatFixture(t, filepath.Join(dir, "a.mat"), 1, 2, []float64{1, 2})
	writeMatFixture(t, filepath.Join(dir, "b.mat"), 1, 1, []float64{9})
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644)

	written, err := ConvertDir(dir)
	if err != nil {
		t.Fatalf("ConvertDir: %v", err)
	}

	if len(written) != 2 {
		t.Fatalf("written = %v, want 2 files", written)
	}
	for _, p := range written {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
		if filepath.Dir(p) != filepath.Join(dir, "csv") {
			t.Errorf("output %s not under csv dir", p)
		}
	}
}

func TestResultsToCSV(t *testing.T) {
	rs := &ame.ResultSet{
		Names: []string{ame.TimeName, "x [m]"},
		Data: [][]float64{
			{0, 0.1},
			{5, 6},
		},
	}

	var buf bytes.Buffer
	if err := ResultsToCSV(&buf, rs); err != nil {
		t.Fatalf("ResultsToCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(lines))
	}
	if lines[0] != "time [s],x [m]" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "0,5" || lines[2] != "0.1,6" {
		t.Errorf("rows = %q %q", lines[1], lines[2])
	}
}
