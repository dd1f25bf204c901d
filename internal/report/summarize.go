// Package report condenses result sets into response-sized summaries.
package report

import (
	"math"

	"github.com/dlemos/amekit/internal/ame"
)

// VarSummary is the per-variable digest returned instead of raw samples
// when the caller did not ask for the full series.
type VarSummary struct {
	Name   string  `json:"name"`
	Points int     `json:"points"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Final  float64 `json:"final"`
}

// Summarize digests every variable of a result set, time included.
func Summarize(rs *ame.ResultSet) []VarSummary {
	summaries := make([]VarSummary, 0, len(rs.Names))
	for i, name := range rs.Names {
		summaries = append(summaries, SummarizeSeries(name, rs.Data[i]))
	}
	return summaries
}

// SummarizeSeries digests a single series.
func SummarizeSeries(name string, data []float64) VarSummary {
	s := VarSummary{Name: name, Points: len(data)}
	if len(data) == 0 {
		return s
	}

	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)

	sum := 0.0
	for _, v := range data {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}

	s.Mean = sum / float64(len(data))
	s.Final = data[len(data)-1]
	return s
}
