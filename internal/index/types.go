package index

import "time"

type FileStatus string

const (
	StatusPending FileStatus = "pending"
	StatusIndexed FileStatus = "indexed"
	StatusFailed  FileStatus = "failed"
	StatusSkipped FileStatus = "skipped"
)

// File kinds.
const (
	KindResults = "results"
	KindMat     = "mat"
)

type IndexedFile struct {
	ID           int64      `json:"id"`
	Path         string     `json:"path"`
	Kind         string     `json:"kind"`
	System       string     `json:"system,omitempty"`
	ContentHash  string     `json:"content_hash"`
	Status       FileStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	IndexedAt    time.Time  `json:"indexed_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type IndexedVariable struct {
	ID     int64  `json:"id"`
	FileID int64  `json:"file_id"`
	Name   string `json:"name"`
	Unit   string `json:"unit,omitempty"`
	Col    int    `json:"col"`
	Points int    `json:"points"`
}

type RunStatus string

const (
	RunPending  RunStatus = "pending"
	RunStarted  RunStatus = "started"
	RunFinished RunStatus = "finished"
	RunFailed   RunStatus = "failed"
)

type Run struct {
	ID           string    `json:"id"`
	System       string    `json:"system"`
	Solver       string    `json:"solver,omitempty"`
	Status       RunStatus `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`
}

type IndexStats struct {
	TotalFiles     int       `json:"total_files"`
	IndexedFiles   int       `json:"indexed_files"`
	FailedFiles    int       `json:"failed_files"`
	SkippedFiles   int       `json:"skipped_files"`
	TotalVariables int       `json:"total_variables"`
	LastIndexedAt  time.Time `json:"last_indexed_at"`
}

type IndexJob struct {
	Path     string
	Priority JobPriority
}

type JobPriority int

const (
	PriorityLow JobPriority = iota
	PriorityNormal
	PriorityHigh
)
