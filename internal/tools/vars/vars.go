// Package vars exposes the variable index: full-text search across
// indexed systems and index status reporting.
package vars

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/index"
	"github.com/dlemos/amekit/internal/report"
	"github.com/dlemos/amekit/internal/router"
	"github.com/dlemos/amekit/internal/tools"
)

type SearchRequest struct {
	Query      string `json:"query"`
	System     string `json:"system,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchMatch struct {
	Name   string `json:"name"`
	Unit   string `json:"unit,omitempty"`
	System string `json:"system,omitempty"`
	Path   string `json:"path"`
	Points int    `json:"points"`
}

type SearchResponse struct {
	Matches []SearchMatch `json:"matches"`
	Count   int           `json:"count"`
	Source  string        `json:"source,omitempty"`
}

type SearchTool struct {
	store  *index.IndexStore
	router *router.Router
}

func NewSearchTool(store *index.IndexStore, r *router.Router) *SearchTool {
	return &SearchTool{store: store, router: r}
}

func (t *SearchTool) Name() string {
	return "vars_search"
}

func (t *SearchTool) Description() string {
	return "Full-text search of variable names across indexed systems, or list a single system's variables"
}

func (t *SearchTool) Title() string {
	return "Search Variables"
}

func (t *SearchTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Full-text query over variable names and units"
			},
			"system": {
				"type": "string",
				"description": "System reference; scopes the query to one system (empty query lists all its variables)"
			},
			"max_results": {
				"type": "integer",
				"description": "Maximum number of results (default: 100)"
			}
		},
		"required": []
	}`)
}

func (t *SearchTool) Execute(input json.RawMessage) (interface{}, error) {
	var req SearchRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 100
	}
	if req.System != "" {
		return t.searchSystem(&req)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("query or system is required")
	}
	if t.store == nil {
		return nil, fmt.Errorf("index not available")
	}

	vars, err := t.store.SearchVariables(req.Query, req.MaxResults)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]*index.IndexedVariable, len(vars))
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		if _, seen := byName[v.Name]; !seen {
			names = append(names, v.Name)
		}
		byName[v.Name] = append(byName[v.Name], v)
	}

	// FTS returns bm25 order; re-rank so exact and prefix matches of
	// the query string surface first.
	names = report.RankNames(names, req.Query)

	matches := make([]SearchMatch, 0, len(vars))
	for _, name := range names {
		for _, v := range byName[name] {
			match := SearchMatch{
				Name:   v.Name,
				Unit:   v.Unit,
				Points: v.Points,
			}
			if file, err := t.store.GetFileByID(v.FileID); err == nil && file != nil {
				match.System = file.System
				match.Path = file.Path
			}
			matches = append(matches, match)
		}
	}

	return &SearchResponse{Matches: matches, Count: len(matches)}, nil
}

// searchSystem scopes the query to one system. The router answers from
// the index when it is fresh for that system's results file and falls
// back to parsing otherwise, back-filling the index on the way.
func (t *SearchTool) searchSystem(req *SearchRequest) (interface{}, error) {
	if t.router == nil {
		return nil, fmt.Errorf("query routing not available")
	}

	opts := router.DefaultQueryOptions()
	opts.MaxResults = req.MaxResults

	result, err := t.router.QueryVars(context.Background(), req.System, req.Query, opts)
	if err != nil {
		return nil, err
	}

	sysname, _ := ame.ExtractSystemName(req.System)
	resultsPath := ame.SystemFile(req.System, "_.results")

	matches := make([]SearchMatch, 0, len(result.Items))
	for _, v := range result.Items {
		match := SearchMatch{
			Name:   v.Name,
			Unit:   v.Unit,
			Points: v.Points,
			System: sysname,
			Path:   resultsPath,
		}
		if t.store != nil && v.FileID != 0 {
			if file, err := t.store.GetFileByID(v.FileID); err == nil && file != nil {
				match.System = file.System
				match.Path = file.Path
			}
		}
		matches = append(matches, match)
	}

	return &SearchResponse{
		Matches: matches,
		Count:   len(matches),
		Source:  string(result.Source),
	}, nil
}

type StatusRequest struct{}

type StatusResponse struct {
	Files     *index.IndexStats  `json:"files"`
	Worker    *index.WorkerStats `json:"worker,omitempty"`
	QueueSize int                `json:"queue_size"`
}

type StatusTool struct {
	store  *index.IndexStore
	worker *index.IndexWorker
}

func NewStatusTool(store *index.IndexStore, worker *index.IndexWorker) *StatusTool {
	return &StatusTool{store: store, worker: worker}
}

func (t *StatusTool) Name() string {
	return "index_status"
}

func (t *StatusTool) Description() string {
	return "Report index contents and worker activity"
}

func (t *StatusTool) Title() string {
	return "Index Status"
}

func (t *StatusTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *StatusTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *StatusTool) Execute(input json.RawMessage) (interface{}, error) {
	if t.store == nil {
		return nil, fmt.Errorf("index not available")
	}

	stats, err := t.store.GetStats()
	if err != nil {
		return nil, err
	}

	resp := &StatusResponse{Files: stats}
	if t.worker != nil {
		workerStats := t.worker.GetStats()
		resp.Worker = &workerStats
		resp.QueueSize = int(workerStats.InQueue)
	}
	return resp, nil
}

func GetTools(store *index.IndexStore, worker *index.IndexWorker, r *router.Router) []tools.Tool {
	return []tools.Tool{
		NewSearchTool(store, r),
		NewStatusTool(store, worker),
	}
}
