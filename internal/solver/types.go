package solver

import (
	"encoding/json"
	"time"
)

// Backend identifies one solver runner binary.
type Backend string

const (
	// BackendStandard runs the variable-step integrator.
	BackendStandard Backend = "standard"
	// BackendFixedStep runs the fixed-step integrator.
	BackendFixedStep Backend = "fixedstep"
)

type SolverState string

const (
	StateStarting     SolverState = "starting"
	StateInitializing SolverState = "initializing"
	StateReady        SolverState = "ready"
	StateError        SolverState = "error"
	StateStopped      SolverState = "stopped"
)

// RunRequest asks a backend to simulate one system.
type RunRequest struct {
	RunID   string          `json:"run_id"`
	System  string          `json:"system"`
	WorkDir string          `json:"work_dir"`
	Options json.RawMessage `json:"options,omitempty"`
}

type RunState string

const (
	RunPending  RunState = "pending"
	RunRunning  RunState = "running"
	RunFinished RunState = "finished"
	RunFailed   RunState = "failed"
)

// RunStatusInfo is the backend's view of one run.
type RunStatusInfo struct {
	RunID    string   `json:"run_id"`
	State    RunState `json:"state"`
	Progress float64  `json:"progress"`
	Error    string   `json:"error,omitempty"`
}

type RunStatusParams struct {
	RunID string `json:"run_id"`
}

type InitializeParams struct {
	ProcessID int    `json:"process_id"`
	WorkDir   string `json:"work_dir"`
}

type InitializeResult struct {
	Backend Backend `json:"backend"`
	Version string  `json:"version"`
}

type SolverStats struct {
	Backend      Backend       `json:"backend"`
	State        SolverState   `json:"state"`
	RequestCount int64         `json:"request_count"`
	ErrorCount   int64         `json:"error_count"`
	LastRequest  time.Time     `json:"last_request,omitempty"`
	StartedAt    time.Time     `json:"started_at,omitempty"`
	Uptime       time.Duration `json:"uptime,omitempty"`
	LastErrorMsg string        `json:"last_error,omitempty"`
}
