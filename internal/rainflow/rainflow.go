// Package rainflow implements three-point rainflow cycle counting of a
// stress or load time series, used for fatigue damage estimation.
package rainflow

import (
	"math"
	"sort"
)

// TurningPoints extracts the strict local extrema of the interior of the
// series. The first and last samples are never turning points.
func TurningPoints(series []float64) []float64 {
	var points []float64
	for i := 1; i < len(series)-1; i++ {
		prev, cur, next := series[i-1], series[i], series[i+1]
		if (prev < cur && cur > next) || (prev > cur && cur < next) {
			points = append(points, cur)
		}
	}
	return points
}

// Count runs the three-point counting method over the turning points of
// the series. Each extracted cycle is reported as a range with a weight of
// half a cycle; the residue left on the stack is counted pairwise the same
// way. A series too short to contain a turning point yields empty output.
func Count(series []float64) (ranges, cycles []float64) {
	points := TurningPoints(series)

	var stack []float64
	for _, p := range points {
		stack = append(stack, p)
		for len(stack) >= 3 {
			x := math.Abs(stack[len(stack)-1] - stack[len(stack)-2])
			y := math.Abs(stack[len(stack)-2] - stack[len(stack)-3])
			if x < y {
				break
			}
			ranges = append(ranges, y)
			cycles = append(cycles, 0.5)
			stack = append(stack[:len(stack)-2], stack[len(stack)-1])
		}
	}

	for i := 0; i+1 < len(stack); i++ {
		ranges = append(ranges, math.Abs(stack[i]-stack[i+1]))
		cycles = append(cycles, 0.5)
	}

	return ranges, cycles
}

// Bin is a fixed-width range bin with the accumulated cycle count of every
// extracted range falling in it.
type Bin struct {
	Range  float64 `json:"range"`
	Cycles float64 `json:"cycles"`
}

// CountBinned counts cycles and accumulates them into bins of the given
// width. A range sits in the bin whose upper edge is the smallest multiple
// of binsize not below it. Bins are returned in ascending range order.
func CountBinned(series []float64, binsize float64) []Bin {
	ranges, cycles := Count(series)

	byEdge := make(map[float64]float64)
	for i, r := range ranges {
		edge := math.Ceil(r/binsize) * binsize
		byEdge[edge] += cycles[i]
	}

	bins := make([]Bin, 0, len(byEdge))
	for edge, count := range byEdge {
		bins = append(bins, Bin{Range: edge, Cycles: count})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Range < bins[j].Range })

	return bins
}
