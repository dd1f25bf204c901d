// Package convert exports simulation matrices and result sets to portable
// formats.
package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/logger"
	"github.com/dlemos/amekit/internal/matfile"
)

var log = logger.ForComponent("convert")

// WriteMatrixCSV writes a matrix as bare CSV rows, no index column.
func WriteMatrixCSV(w io.Writer, data [][]float64) error {
	cw := csv.NewWriter(w)
	record := make([]string, 0, 16)

	for _, row := range data {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// MatToCSV extracts one variable of a .mat file into a CSV file.
func MatToCSV(matPath, varName, outPath string) error {
	f, err := matfile.Open(matPath)
	if err != nil {
		return err
	}

	v, ok := f.Var(varName)
	if !ok {
		return fmt.Errorf("%s: no variable %q (have %s)", matPath, varName, strings.Join(f.Names(), ", "))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := WriteMatrixCSV(out, v.Data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ConvertDir converts every .mat file directly under root, one CSV per
// numeric 2-D variable, into <root>/csv. It returns the paths written.
func ConvertDir(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "*.mat")
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(root, "csv")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for _, name := range matches {
		matPath := filepath.Join(root, name)
		f, err := matfile.Open(matPath)
		if err != nil {
			return written, err
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		for _, v := range f.Vars {
			outPath := filepath.Join(outDir, base+"_"+v.Name+".csv")
			out, err := os.Create(outPath)
			if err != nil {
				return written, err
			}
			if err := WriteMatrixCSV(out, v.Data); err != nil {
				out.Close()
				return written, err
			}
			if err := out.Close(); err != nil {
				return written, err
			}
			written = append(written, outPath)
		}

		log.Info("converted", "mat", matPath, "vars", len(f.Vars), "skipped", len(f.Skipped))
	}

	return written, nil
}

// ResultsToCSV writes a result set with a title header row followed by one
// row per logged instant.
func ResultsToCSV(w io.Writer, rs *ame.ResultSet) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(rs.Names); err != nil {
		return err
	}

	record := make([]string, len(rs.Data))
	for row := 0; row < rs.Points(); row++ {
		for c, col := range rs.Data {
			record[c] = strconv.FormatFloat(col[row], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
