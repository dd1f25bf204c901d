package index

import (
	"testing"
)

func TestShouldExclude(t *testing.T) {
	w := NewIndexWorker(nil, DefaultWorkerConfig())

	cases := []struct {
		path string
		want bool
	}{
		{"/models/.git/objects/ab/cdef", true},
		{"/models/csv/circuit.csv", true},
		{"/models/circuit_.results.bak", true},
		{"circuit_.results.bak", true},
		{"/models/nested/run/circuit_.results.bak", true},
		{"/models/circuit_.results", false},
		{"/models/circuit_.var", false},
		{"/models/bench.mat", false},
	}
	for _, tc := range cases {
		if got := w.shouldExclude(tc.path); got != tc.want {
			t.Errorf("shouldExclude(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestShouldExcludeCustomPatterns(t *testing.T) {
	cfg := DefaultWorkerConfig()
	cfg.ExcludePatterns = []string{"**/scratch/**", "**/*.tmp"}
	w := NewIndexWorker(nil, cfg)

	if !w.shouldExclude("/data/scratch/run_.results") {
		t.Error("scratch directory should be excluded")
	}
	if !w.shouldExclude("/data/run_.results.tmp") {
		t.Error("tmp file should be excluded")
	}
	if w.shouldExclude("/data/run_.results") {
		t.Error("results file should not be excluded")
	}
}
