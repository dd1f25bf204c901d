package router

import (
	"time"

	"github.com/dlemos/amekit/internal/index"
)

type QuerySource string

const (
	SourceIndex QuerySource = "index"
	SourceParse QuerySource = "parse"
)

type VarInfo = index.IndexedVariable

type QueryResult[T any] struct {
	Items    []T           `json:"items"`
	Count    int           `json:"count"`
	Source   QuerySource   `json:"source"`
	Latency  time.Duration `json:"latency_ms"`
	Cached   bool          `json:"cached"`
	Fallback bool          `json:"fallback"`
}

type QueryOptions struct {
	MaxResults  int           `json:"max_results"`
	Timeout     time.Duration `json:"timeout"`
	SkipIndex   bool          `json:"skip_index"`
	UpdateIndex bool          `json:"update_index"`
}

func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		MaxResults:  500,
		Timeout:     5 * time.Second,
		SkipIndex:   false,
		UpdateIndex: true,
	}
}
