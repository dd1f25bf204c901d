package ame

import (
	"fmt"
	"io"
)

// WriteTable1D writes an (x, y) table in the format the table1d
// interpolation block reads.
func WriteTable1D(w io.Writer, x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("write table: x and y must have the same length (%d vs %d)", len(x), len(y))
	}

	if _, err := fmt.Fprintln(w, "# Table format: 1D"); err != nil {
		return err
	}
	for i := range x {
		if _, err := fmt.Fprintf(w, "%e %e\n", x[i], y[i]); err != nil {
			return err
		}
	}
	return nil
}

// WritePlotFile writes columns in the plot export format, loadable from the
// plot facility. cols[0] is the x axis; at least one y column is required
// and all columns must have the same length.
func WritePlotFile(w io.Writer, cols [][]float64) error {
	if len(cols) < 2 {
		return fmt.Errorf("write plot file: at least one y column is required")
	}

	n := len(cols[0])
	for i, col := range cols {
		if len(col) != n {
			return fmt.Errorf("write plot file: column %d has %d rows, want %d", i, len(col), n)
		}
	}

	fmt.Fprintln(w, "# AMESim plot file format version: 2")
	fmt.Fprintf(w, "# %d rows\n", n)
	fmt.Fprintf(w, "# %d columns\n", len(cols))

	for row := 0; row < n; row++ {
		for _, col := range cols {
			if _, err := fmt.Fprintf(w, "%e ", col[row]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
