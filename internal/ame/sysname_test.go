package ame

import "testing"

func TestExtractSystemName(t *testing.T) {
	cases := []struct {
		ref      string
		wantName string
		wantPath string
	}{
		{"/home/user/4Bars.ame", "4Bars", "/home/user"},
		{"/home/user/4Bars_.sim", "4Bars", "/home/user"},
		{`C:\Data\AMETest\4Bars_.gp`, "4Bars", "C:/Data/AMETest"},
		{"/work/models/circuit", "circuit", "/work/models"},
	}

	for _, tc := range cases {
		name, path := ExtractSystemName(tc.ref)
		if name != tc.wantName || path != tc.wantPath {
			t.Errorf("ExtractSystemName(%q) = (%q, %q), want (%q, %q)",
				tc.ref, name, path, tc.wantName, tc.wantPath)
		}
	}
}

func TestExtractSystemNameBare(t *testing.T) {
	name, path := ExtractSystemName("4Bars")
	if name != "4Bars" {
		t.Errorf("expected bare name to pass through, got %q", name)
	}
	if path == "" {
		t.Error("expected working directory as path")
	}
}
