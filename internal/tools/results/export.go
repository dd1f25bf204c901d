package results

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/convert"
	"github.com/dlemos/amekit/internal/tools"
)

type PlotExportRequest struct {
	System  string `json:"system"`
	Pattern string `json:"pattern"`
	Output  string `json:"output"`
	Run     int    `json:"run,omitempty"`
}

type PlotExportResponse struct {
	Output  string `json:"output"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// PlotExportTool writes selected variables as a plot file readable by
// the plot facility.
type PlotExportTool struct{}

func NewPlotExportTool() *PlotExportTool {
	return &PlotExportTool{}
}

func (t *PlotExportTool) Name() string {
	return "plot_export"
}

func (t *PlotExportTool) Description() string {
	return "Export selected result variables as a plot file"
}

func (t *PlotExportTool) Title() string {
	return "Export Plot File"
}

func (t *PlotExportTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *PlotExportTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"system": {
				"type": "string",
				"description": "Model reference"
			},
			"pattern": {
				"type": "string",
				"description": "Variable selection pattern"
			},
			"output": {
				"type": "string",
				"description": "Path of the plot file to write"
			},
			"run": {
				"type": "integer",
				"description": "Batch run number (0 = reference run)"
			}
		},
		"required": ["system", "pattern", "output"]
	}`)
}

func (t *PlotExportTool) Execute(input json.RawMessage) (interface{}, error) {
	var req PlotExportRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.System == "" || req.Pattern == "" || req.Output == "" {
		return nil, fmt.Errorf("system, pattern and output are required")
	}

	rs, err := ame.LoadResultsRun(req.System, req.Run)
	if err != nil {
		return nil, err
	}

	selected := ame.SelectVars(rs, req.Pattern)
	if len(selected.Names) == 0 {
		return nil, fmt.Errorf("no variable matches %q", req.Pattern)
	}

	// Time is always the x axis.
	cols := make([][]float64, 0, len(selected.Names)+1)
	cols = append(cols, rs.Data[0])
	cols = append(cols, selected.Data...)

	f, err := os.Create(req.Output)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := ame.WritePlotFile(f, cols); err != nil {
		return nil, err
	}

	return &PlotExportResponse{
		Output:  req.Output,
		Rows:    rs.Points(),
		Columns: len(cols),
	}, nil
}

type ToCSVRequest struct {
	System  string `json:"system"`
	Pattern string `json:"pattern,omitempty"`
	Output  string `json:"output"`
	Run     int    `json:"run,omitempty"`
}

type ToCSVResponse struct {
	Output    string `json:"output"`
	Rows      int    `json:"rows"`
	Variables int    `json:"variables"`
}

// ToCSVTool dumps a result set as CSV, one column per variable.
type ToCSVTool struct{}

func NewToCSVTool() *ToCSVTool {
	return &ToCSVTool{}
}

func (t *ToCSVTool) Name() string {
	return "results_to_csv"
}

func (t *ToCSVTool) Description() string {
	return "Export simulation results to a CSV file"
}

func (t *ToCSVTool) Title() string {
	return "Export Results CSV"
}

func (t *ToCSVTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *ToCSVTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"system": {
				"type": "string",
				"description": "Model reference"
			},
			"pattern": {
				"type": "string",
				"description": "Variable selection pattern (all variables when omitted)"
			},
			"output": {
				"type": "string",
				"description": "Path of the CSV file to write"
			},
			"run": {
				"type": "integer",
				"description": "Batch run number (0 = reference run)"
			}
		},
		"required": ["system", "output"]
	}`)
}

func (t *ToCSVTool) Execute(input json.RawMessage) (interface{}, error) {
	var req ToCSVRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.System == "" || req.Output == "" {
		return nil, fmt.Errorf("system and output are required")
	}

	rs, err := ame.LoadResultsRun(req.System, req.Run)
	if err != nil {
		return nil, err
	}

	if req.Pattern != "" {
		rs = ame.SelectVars(rs, req.Pattern)
		if len(rs.Names) == 0 {
			return nil, fmt.Errorf("no variable matches %q", req.Pattern)
		}
	}

	f, err := os.Create(req.Output)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := convert.ResultsToCSV(f, rs); err != nil {
		return nil, err
	}

	return &ToCSVResponse{
		Output:    req.Output,
		Rows:      rs.Points(),
		Variables: len(rs.Names),
	}, nil
}
