package ame

import "testing"

func TestMatchWildcard(t *testing.T) {
	cases := []struct {
		text    string
		pattern string
		want    bool
	}{
		{"HJ000_1 rod displacement [m]", "*", true},
		{"HJ000_1 rod displacement [m]", "HJ000_1 rod displacement [m]", true},
		{"HJ000_1 rod displacement [m]", "HJ000*", true},
		{"HJ000_1 rod displacement [m]", "*[m]", true},
		{"chamber pressure [bar]", "*[bar]*", true},
		{"chamber pressure [bar]", "*pressure*", true},
		{"chamber pressure [bar]", "HJ000*", false},
		{"time [s]", "time [s]", true},
		{"time [s]", "", false},
		{"", "*", false},
		// Only leading/trailing stars are understood.
		{"abc", "a*c", false},
	}

	for _, tc := range cases {
		if got := Match(tc.text, tc.pattern); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.text, tc.pattern, got, tc.want)
		}
	}
}

func TestSelectVars(t *testing.T) {
	rs := &ResultSet{
		Names: []string{TimeName, "pump flow [L/min]", "pump pressure [bar]", "valve pressure [bar]"},
		Data: [][]float64{
			{0, 1, 2},
			{0, 0.5, 0.9},
			{1, 1.1, 1.2},
			{2, 2.1, 2.2},
		},
	}

	out := SelectVars(rs, "*[bar]")
	if len(out.Names) != 2 {
		t.Fatalf("expected 2 matches, got %d (%v)", len(out.Names), out.Names)
	}
	if out.Names[0] != "pump pressure [bar]" || out.Names[1] != "valve pressure [bar]" {
		t.Errorf("unexpected names: %v", out.Names)
	}
	if out.Data[0][2] != 1.2 {
		t.Errorf("data not carried over: %v", out.Data[0])
	}
}
