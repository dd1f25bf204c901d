package report

import (
	"math"
	"reflect"
	"testing"

	"github.com/dlemos/amekit/internal/ame"
)

func TestSummarizeSeries(t *testing.T) {
	s := SummarizeSeries("pressure [bar]", []float64{2, -1, 4, 3})

	if s.Points != 4 {
		t.Errorf("Points = %d, want 4", s.Points)
	}
	if s.Min != -1 {
		t.Errorf("Min = %g, want -1", s.Min)
	}
	if s.Max != 4 {
		t.Errorf("Max = %g, want 4", s.Max)
	}
	if s.Mean != 2 {
		t.Errorf("Mean = %g, want 2", s.Mean)
	}
	if s.Final != 3 {
		t.Errorf("Final = %g, want 3", s.Final)
	}
}

func TestSummarizeSeriesEmpty(t *testing.T) {
	s := SummarizeSeries("x", nil)
	if s.Points != 0 || s.Min != 0 || s.Max != 0 {
		t.Errorf("empty series should summarize to zeros, got %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	rs := &ame.ResultSet{
		Names: []string{ame.TimeName, "speed [m/s]"},
		Data: [][]float64{
			{0, 0.1, 0.2},
			{1, 2, 3},
		},
	}

	summaries := Summarize(rs)
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].Name != ame.TimeName {
		t.Errorf("first summary is %q, want time", summaries[0].Name)
	}
	if summaries[1].Mean != 2 {
		t.Errorf("speed mean = %g, want 2", summaries[1].Mean)
	}
}

func TestRankNames(t *testing.T) {
	names := []string{
		"pump_flow [L/min]",
		"flow",
		"tank_inflow [L/min]",
		"pressure [bar]",
		"Flow_rate [L/min]",
	}

	got := RankNames(names, "flow")
	want := []string{
		"flow",                 // exact
		"Flow_rate [L/min]",    // prefix (case folded)
		"pump_flow [L/min]",    // substring
		"tank_inflow [L/min]",  // substring
		"pressure [bar]",       // no match
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankNames = %v, want %v", got, want)
	}
}

func TestRankNamesDoesNotModifyInput(t *testing.T) {
	names := []string{"b", "a"}
	RankNames(names, "a")
	if names[0] != "b" {
		t.Error("input slice was reordered")
	}
}

func TestDownsampleShortSeriesUnchanged(t *testing.T) {
	data := []float64{1, 2, 3}
	got := Downsample(data, 10)
	if !reflect.DeepEqual(got, data) {
		t.Errorf("short series should pass through, got %v", got)
	}
}

func TestDownsampleKeepsEndpoints(t *testing.T) {
	data := make([]float64, 1000)
	for i := range data {
		data[i] = float64(i)
	}

	got := Downsample(data, 100)
	if len(got) != 100 {
		t.Fatalf("got %d points, want 100", len(got))
	}
	if got[0] != 0 {
		t.Errorf("first point = %g, want 0", got[0])
	}
	if got[len(got)-1] != 999 {
		t.Errorf("last point = %g, want 999", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("samples not strictly increasing at %d: %g then %g", i, got[i-1], got[i])
		}
	}
}

func TestDownsamplePairStaysAligned(t *testing.T) {
	n := 500
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * 0.01
		values[i] = math.Sin(times[i])
	}

	gotT, gotV := DownsamplePair(times, values, 50)
	if len(gotT) != 50 || len(gotV) != 50 {
		t.Fatalf("got %d/%d points, want 50/50", len(gotT), len(gotV))
	}
	for i := range gotT {
		if gotV[i] != math.Sin(gotT[i]) {
			t.Fatalf("pair misaligned at %d: t=%g v=%g", i, gotT[i], gotV[i])
		}
	}
}
