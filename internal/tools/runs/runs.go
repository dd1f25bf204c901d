// Package runs drives simulations through the solver backends and
// records run history in the index.
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/index"
	"github.com/dlemos/amekit/internal/solver"
	"github.com/dlemos/amekit/internal/tools"
)

type StartRequest struct {
	System  string          `json:"system"`
	Options json.RawMessage `json:"options,omitempty"`
}

type StartResponse struct {
	RunID   string          `json:"run_id"`
	System  string          `json:"system"`
	Backend solver.Backend  `json:"backend"`
	State   solver.RunState `json:"state"`
}

type StartTool struct {
	manager *solver.Manager
	store   *index.IndexStore
}

func NewStartTool(manager *solver.Manager, store *index.IndexStore) *StartTool {
	return &StartTool{manager: manager, store: store}
}

func (t *StartTool) Name() string {
	return "run_start"
}

func (t *StartTool) Description() string {
	return "Start a simulation run of a system"
}

func (t *StartTool) Title() string {
	return "Start Simulation Run"
}

func (t *StartTool) Annotations() map[string]bool {
	return tools.NonIdempotentWriteAnnotations()
}

func (t *StartTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"system": {
				"type": "string",
				"description": "Model reference to simulate"
			},
			"options": {
				"type": "object",
				"description": "Run options; read from the system file when omitted"
			}
		},
		"required": ["system"]
	}`)
}

func (t *StartTool) Execute(input json.RawMessage) (interface{}, error) {
	var req StartRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.System == "" {
		return nil, fmt.Errorf("system is required")
	}
	if t.manager == nil {
		return nil, fmt.Errorf("solver not available")
	}

	opt, err := t.runOptions(req)
	if err != nil {
		return nil, err
	}

	status, err := t.manager.StartRun(context.Background(), req.System, opt)
	if err != nil {
		return nil, err
	}

	sysname, _ := ame.ExtractSystemName(req.System)
	backend := solver.BackendFor(opt)

	if t.store != nil {
		run := &index.Run{
			ID:     status.RunID,
			System: sysname,
			Solver: string(backend),
			Status: index.RunStarted,
		}
		if err := t.store.InsertRun(run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}

	return &StartResponse{
		RunID:   status.RunID,
		System:  sysname,
		Backend: backend,
		State:   status.State,
	}, nil
}

// runOptions takes the request options when given, otherwise the
// system's own run-options file, falling back to defaults for a system
// that has none yet.
func (t *StartTool) runOptions(req StartRequest) (*ame.RunOptions, error) {
	if len(req.Options) > 0 {
		opt := ame.DefaultRunOptions()
		if err := json.Unmarshal(req.Options, opt); err != nil {
			return nil, fmt.Errorf("invalid options: %w", err)
		}
		return opt, nil
	}

	opt, err := ame.ReadRunOptions(req.System)
	if err != nil {
		return ame.DefaultRunOptions(), nil
	}
	return opt, nil
}

type StatusRequest struct {
	RunID string `json:"run_id"`
}

type StatusResponse struct {
	Run     *index.Run            `json:"run,omitempty"`
	Backend *solver.RunStatusInfo `json:"backend,omitempty"`
}

type StatusTool struct {
	manager *solver.Manager
	store   *index.IndexStore
}

func NewStatusTool(manager *solver.Manager, store *index.IndexStore) *StatusTool {
	return &StatusTool{manager: manager, store: store}
}

func (t *StatusTool) Name() string {
	return "run_status"
}

func (t *StatusTool) Description() string {
	return "Query the status of a simulation run"
}

func (t *StatusTool) Title() string {
	return "Run Status"
}

func (t *StatusTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *StatusTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"run_id": {
				"type": "string",
				"description": "Identifier returned by run_start"
			}
		},
		"required": ["run_id"]
	}`)
}

func (t *StatusTool) Execute(input json.RawMessage) (interface{}, error) {
	var req StatusRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.RunID == "" {
		return nil, fmt.Errorf("run_id is required")
	}

	resp := &StatusResponse{}

	if t.store != nil {
		run, err := t.store.GetRun(req.RunID)
		if err != nil {
			return nil, err
		}
		resp.Run = run
	}

	if t.manager != nil {
		status, err := t.manager.RunStatus(context.Background(), req.RunID)
		if err == nil {
			resp.Backend = status
			t.syncRunRecord(status)
		} else if resp.Run == nil && errors.Is(err, solver.ErrUnknownRun) {
			return nil, err
		}
	}

	if resp.Run == nil && resp.Backend == nil {
		return nil, fmt.Errorf("unknown run: %s", req.RunID)
	}
	return resp, nil
}

// syncRunRecord pushes a terminal backend state into the run history.
func (t *StatusTool) syncRunRecord(status *solver.RunStatusInfo) {
	if t.store == nil {
		return
	}

	switch status.State {
	case solver.RunFinished:
		t.store.UpdateRun(status.RunID, index.RunFinished, "")
	case solver.RunFailed:
		t.store.UpdateRun(status.RunID, index.RunFailed, status.Error)
	}
}

func GetTools(manager *solver.Manager, store *index.IndexStore) []tools.Tool {
	return []tools.Tool{
		NewStartTool(manager, store),
		NewStatusTool(manager, store),
	}
}
