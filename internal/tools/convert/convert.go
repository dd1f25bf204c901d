// Package convert exposes file conversion tools: MAT-file extraction
// and table generation for interpolation blocks.
package convert

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/convert"
	"github.com/dlemos/amekit/internal/tools"
)

type MatToCSVRequest struct {
	Path     string `json:"path"`
	Variable string `json:"variable"`
	Output   string `json:"output"`
}

type MatToCSVResponse struct {
	Output string `json:"output"`
}

type MatToCSVTool struct{}

func NewMatToCSVTool() *MatToCSVTool {
	return &MatToCSVTool{}
}

func (t *MatToCSVTool) Name() string {
	return "mat_to_csv"
}

func (t *MatToCSVTool) Description() string {
	return "Extract one variable of a MAT-file to CSV"
}

func (t *MatToCSVTool) Title() string {
	return "MAT-file to CSV"
}

func (t *MatToCSVTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *MatToCSVTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "MAT-file to read"
			},
			"variable": {
				"type": "string",
				"description": "Variable name inside the MAT-file (default: data)"
			},
			"output": {
				"type": "string",
				"description": "Path of the CSV file to write"
			}
		},
		"required": ["path", "output"]
	}`)
}

func (t *MatToCSVTool) Execute(input json.RawMessage) (interface{}, error) {
	var req MatToCSVRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.Path == "" || req.Output == "" {
		return nil, fmt.Errorf("path and output are required")
	}
	if req.Variable == "" {
		req.Variable = "data"
	}

	if err := convert.MatToCSV(req.Path, req.Variable, req.Output); err != nil {
		return nil, err
	}

	return &MatToCSVResponse{Output: req.Output}, nil
}

type ConvertDirRequest struct {
	Path string `json:"path"`
}

type ConvertDirResponse struct {
	Written []string `json:"written"`
	Count   int      `json:"count"`
}

// ConvertDirTool converts every MAT-file of a directory, writing CSVs
// into a csv/ subdirectory.
type ConvertDirTool struct{}

func NewConvertDirTool() *ConvertDirTool {
	return &ConvertDirTool{}
}

func (t *ConvertDirTool) Name() string {
	return "mat_convert_dir"
}

func (t *ConvertDirTool) Description() string {
	return "Convert all MAT-files of a directory to CSV"
}

func (t *ConvertDirTool) Title() string {
	return "Convert MAT-file Directory"
}

func (t *ConvertDirTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *ConvertDirTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "Directory holding the MAT-files"
			}
		},
		"required": ["path"]
	}`)
}

func (t *ConvertDirTool) Execute(input json.RawMessage) (interface{}, error) {
	var req ConvertDirRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	written, err := convert.ConvertDir(req.Path)
	if err != nil {
		return nil, err
	}

	return &ConvertDirResponse{Written: written, Count: len(written)}, nil
}

type Table1DRequest struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Output string    `json:"output"`
}

type Table1DResponse struct {
	Output string `json:"output"`
	Rows   int    `json:"rows"`
}

// Table1DTool writes an (x, y) table in the format the table1d
// interpolation block reads.
type Table1DTool struct{}

func NewTable1DTool() *Table1DTool {
	return &Table1DTool{}
}

func (t *Table1DTool) Name() string {
	return "table1d_write"
}

func (t *Table1DTool) Description() string {
	return "Write an (x, y) table in the 1D interpolation format"
}

func (t *Table1DTool) Title() string {
	return "Write 1D Table"
}

func (t *Table1DTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *Table1DTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"x": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Abscissa values"
			},
			"y": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Ordinate values, same length as x"
			},
			"output": {
				"type": "string",
				"description": "Path of the table file to write"
			}
		},
		"required": ["x", "y", "output"]
	}`)
}

func (t *Table1DTool) Execute(input json.RawMessage) (interface{}, error) {
	var req Table1DRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if len(req.X) == 0 || req.Output == "" {
		return nil, fmt.Errorf("x, y and output are required")
	}

	f, err := os.Create(req.Output)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := ame.WriteTable1D(f, req.X, req.Y); err != nil {
		return nil, err
	}

	return &Table1DResponse{Output: req.Output, Rows: len(req.X)}, nil
}

func GetTools() []tools.Tool {
	return []tools.Tool{
		NewMatToCSVTool(),
		NewConvertDirTool(),
		NewTable1DTool(),
	}
}
