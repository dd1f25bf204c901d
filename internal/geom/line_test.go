package geom

import "testing"

func TestLine(t *testing.T) {
	l := NewLine(10.0, 20.0)

	if l.Length() != 10.0 {
		t.Errorf("length = %g, want 10", l.Length())
	}
	if l.Length2() != 20.0 {
		t.Errorf("length2 = %g, want 20", l.Length2())
	}

	l.SetLength(6.0)
	if l.Length() != 6.0 {
		t.Errorf("length after SetLength = %g, want 6", l.Length())
	}
	if l.Length2() != 20.0 {
		t.Error("SetLength must not touch length2")
	}
}
