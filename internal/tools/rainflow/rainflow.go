// Package rainflow exposes fatigue cycle counting over result series.
package rainflow

import (
	"encoding/json"
	"fmt"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/rainflow"
	"github.com/dlemos/amekit/internal/tools"
)

type CountRequest struct {
	Series   []float64 `json:"series,omitempty"`
	System   string    `json:"system,omitempty"`
	Variable string    `json:"variable,omitempty"`
	BinSize  float64   `json:"bin_size,omitempty"`
}

type CountResponse struct {
	HalfCycles int            `json:"half_cycles"`
	Ranges     []float64      `json:"ranges,omitempty"`
	Bins       []rainflow.Bin `json:"bins,omitempty"`
}

// CountTool counts rainflow half cycles of a series, given inline or
// named as a variable of a simulated system.
type CountTool struct{}

func NewCountTool() *CountTool {
	return &CountTool{}
}

func (t *CountTool) Name() string {
	return "rainflow_count"
}

func (t *CountTool) Description() string {
	return "Count rainflow half cycles of a load series, optionally binned by range"
}

func (t *CountTool) Title() string {
	return "Rainflow Count"
}

func (t *CountTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *CountTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"series": {
				"type": "array",
				"items": {"type": "number"},
				"description": "Load series to count (alternative to system/variable)"
			},
			"system": {
				"type": "string",
				"description": "Model reference holding the series"
			},
			"variable": {
				"type": "string",
				"description": "Variable title inside the system results"
			},
			"bin_size": {
				"type": "number",
				"description": "Bin width for the range histogram (no binning when omitted)"
			}
		},
		"required": []
	}`)
}

func (t *CountTool) Execute(input json.RawMessage) (interface{}, error) {
	var req CountRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	series := req.Series
	if len(series) == 0 {
		if req.System == "" || req.Variable == "" {
			return nil, fmt.Errorf("either series or system and variable are required")
		}

		rs, err := ame.LoadResults(req.System)
		if err != nil {
			return nil, err
		}
		data, ok := rs.Var(req.Variable)
		if !ok {
			return nil, fmt.Errorf("variable %q not found in %s", req.Variable, rs.System)
		}
		series = data
	}

	ranges, _ := rainflow.Count(series)
	resp := &CountResponse{HalfCycles: len(ranges)}

	if req.BinSize > 0 {
		resp.Bins = rainflow.CountBinned(series, req.BinSize)
	} else {
		resp.Ranges = ranges
	}

	return resp, nil
}

func GetTools() []tools.Tool {
	return []tools.Tool{
		NewCountTool(),
	}
}
