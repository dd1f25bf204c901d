// Package geom holds small geometric records used by table generation.
package geom

import "github.com/dlemos/amekit/internal/logger"

// Line is a segment described by its length and a secondary length used
// when the segment is swept into a table range.
type Line struct {
	length  float64
	length2 float64
}

// NewLine builds a line from both lengths.
func NewLine(length, length2 float64) *Line {
	logger.ForComponent("geom").Debug("creating line", "length", length)
	return &Line{
		length:  length,
		length2: length2,
	}
}

// SetLength overwrites the primary length.
func (l *Line) SetLength(v float64) {
	l.length = v
}

// Length returns the primary length.
func (l *Line) Length() float64 {
	return l.length
}

// Length2 returns the secondary length.
func (l *Line) Length2() float64 {
	return l.length2
}
