package results

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/report"
	"github.com/dlemos/amekit/internal/router"
	"github.com/dlemos/amekit/internal/tools"
)

type LoadRequest struct {
	System    string `json:"system"`
	Pattern   string `json:"pattern,omitempty"`
	Run       int    `json:"run,omitempty"`
	Series    bool   `json:"series,omitempty"`
	MaxPoints int    `json:"max_points,omitempty"`
}

type SeriesData struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

type LoadResponse struct {
	System    string              `json:"system"`
	Points    int                 `json:"points"`
	Summaries []report.VarSummary `json:"summaries,omitempty"`
	Series    []SeriesData        `json:"series,omitempty"`
	Truncated bool                `json:"truncated,omitempty"`
	Cached    bool                `json:"cached"`
}

type LoadTool struct {
	router *router.Router
}

func NewLoadTool(r *router.Router) *LoadTool {
	return &LoadTool{router: r}
}

func (t *LoadTool) Name() string {
	return "results_load"
}

func (t *LoadTool) Description() string {
	return "Load temporal results of a simulated system, as summaries or full series"
}

func (t *LoadTool) Title() string {
	return "Load Simulation Results"
}

func (t *LoadTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *LoadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"system": {
				"type": "string",
				"description": "Model reference (e.g., 4Bars, /path/to/4Bars.ame)"
			},
			"pattern": {
				"type": "string",
				"description": "Variable selection pattern (*, x*, *x, *x*) or substring"
			},
			"run": {
				"type": "integer",
				"description": "Batch run number (0 = reference run)"
			},
			"series": {
				"type": "boolean",
				"description": "Return full sample series instead of summaries"
			},
			"max_points": {
				"type": "integer",
				"description": "Downsample series longer than this (default: 2000)"
			}
		},
		"required": ["system"]
	}`)
}

func (t *LoadTool) Execute(input json.RawMessage) (interface{}, error) {
	var req LoadRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if req.System == "" {
		return nil, fmt.Errorf("system is required")
	}
	if req.MaxPoints <= 0 {
		req.MaxPoints = report.MaxSeriesPoints
	}

	var rs *ame.ResultSet
	var cached bool
	var err error

	if req.Run != 0 {
		rs, err = ame.LoadResultsRun(req.System, req.Run)
	} else if t.router != nil {
		rs, cached, err = t.router.LoadResults(context.Background(), req.System)
	} else {
		rs, err = ame.LoadResults(req.System)
	}
	if err != nil {
		return nil, err
	}

	if req.Pattern != "" {
		rs = ame.SelectVars(rs, req.Pattern)
	}

	resp := &LoadResponse{
		System: rs.System,
		Points: rs.Points(),
		Cached: cached,
	}

	if !req.Series {
		resp.Summaries = report.Summarize(rs)
		return resp, nil
	}

	for i, name := range rs.Names {
		data := report.Downsample(rs.Data[i], req.MaxPoints)
		if len(data) < len(rs.Data[i]) {
			resp.Truncated = true
		}
		resp.Series = append(resp.Series, SeriesData{Name: name, Data: data})
	}
	return resp, nil
}
