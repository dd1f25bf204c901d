package ame

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteTable1D(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable1D(&buf, []float64{0, 1, 2}, []float64{0, 10, 40}); err != nil {
		t.Fatalf("WriteTable1D: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "# Table format: 1D" {
		t.Errorf("missing header, got %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[2] != "1.000000e+00 1.000000e+01" {
		t.Errorf("unexpected row format: %q", lines[2])
	}
}

func TestWriteTable1DLengthMismatch(t *testing.T) {
	if err := WriteTable1D(&bytes.Buffer{}, []float64{0, 1}, []float64{0}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestWritePlotFile(t *testing.T) {
	var buf bytes.Buffer
	cols := [][]float64{
		{0, 0.5, 1},
		{10, 11, 12},
		{-1, -2, -3},
	}
	if err := WritePlotFile(&buf, cols); err != nil {
		t.Fatalf("WritePlotFile: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "# AMESim plot file format version: 2" {
		t.Errorf("missing header, got %q", lines[0])
	}
	if lines[1] != "# 3 rows" || lines[2] != "# 3 columns" {
		t.Errorf("bad dimension headers: %q %q", lines[1], lines[2])
	}
	if !strings.HasPrefix(lines[3], "0.000000e+00 1.000000e+01 ") {
		t.Errorf("unexpected first data row: %q", lines[3])
	}
}

func TestWritePlotFileNeedsYColumn(t *testing.T) {
	if err := WritePlotFile(&bytes.Buffer{}, [][]float64{{1, 2}}); err == nil {
		t.Error("expected error when only x axis given")
	}
}
