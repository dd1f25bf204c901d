package ame

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// TimeName is the title of the time column, always stored first.
const TimeName = "time [s]"

var dataPathRe = regexp.MustCompile(` Data_Path=.*@\S*`)

const inputPlaceholder = "_DUMMY_-1"

// ResultSet holds the temporal results of a run. Data is column-major:
// Data[i] is the series of variable Names[i], and column 0 is time.
type ResultSet struct {
	System string      `json:"system"`
	Names  []string    `json:"names"`
	Data   [][]float64 `json:"data"`
}

// Points returns the number of logged instants.
func (rs *ResultSet) Points() int {
	if len(rs.Data) == 0 {
		return 0
	}
	return len(rs.Data[0])
}

// Var returns the series for an exact variable title.
func (rs *ResultSet) Var(name string) ([]float64, bool) {
	for i, n := range rs.Names {
		if strings.TrimSpace(n) == strings.TrimSpace(name) {
			return rs.Data[i], true
		}
	}
	return nil, false
}

// LoadResults reads the "<sys>_.results" and "<sys>_.var" pair of the
// reference run for the given model reference.
func LoadResults(ref string) (*ResultSet, error) {
	return LoadResultsRun(ref, 0)
}

// LoadResultsRun reads the results of a batch run. Run 0 is the reference
// run; batch runs append their number to the results file name.
func LoadResultsRun(ref string, runID int) (*ResultSet, error) {
	sysname, syspath := ExtractSystemName(ref)

	resultsPath := SystemFile(ref, "_.results")
	if runID != 0 {
		resultsPath += "." + strconv.Itoa(runID)
	}

	f, err := os.Open(resultsPath)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	cols, saved, err := parseResultsData(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", resultsPath, err)
	}

	varPath := SystemFile(ref, "_.var")
	vf, err := os.Open(varPath)
	if err != nil {
		return nil, fmt.Errorf("open variable names: %w", err)
	}
	defer vf.Close()

	titles, err := parseVarNames(vf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", varPath, err)
	}

	rs, err := assemble(cols, saved, titles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", resultsPath, err)
	}
	rs.System = syspath + "/" + sysname
	return rs, nil
}

// parseResultsData decodes the binary results stream: point count, variable
// count (negative means selective save, followed by the saved column
// indices), then row-major float64 samples with time in column 0.
func parseResultsData(r io.Reader) (cols [][]float64, saved []int, err error) {
	var nout, nvar int32
	if err := binary.Read(r, binary.LittleEndian, &nout); err != nil {
		return nil, nil, fmt.Errorf("point count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nvar); err != nil {
		return nil, nil, fmt.Errorf("variable count: %w", err)
	}

	if nvar == 0 {
		return nil, nil, fmt.Errorf("no saved variable in the system")
	}

	if nvar < 0 {
		nvar = -nvar
		indices := make([]int32, nvar)
		if err := binary.Read(r, binary.LittleEndian, &indices); err != nil {
			return nil, nil, fmt.Errorf("selective save table: %w", err)
		}
		saved = make([]int, nvar)
		for i, idx := range indices {
			saved[i] = int(idx) + 1
		}
	} else {
		saved = make([]int, nvar)
		for i := range saved {
			saved[i] = i + 1
		}
	}

	ncols := int(nvar) + 1 // +1 for time
	samples := make([]float64, int(nout)*ncols)
	if err := binary.Read(r, binary.LittleEndian, &samples); err != nil {
		return nil, nil, fmt.Errorf("samples: %w", err)
	}

	cols = make([][]float64, ncols)
	for c := range cols {
		cols[c] = make([]float64, nout)
	}
	for row := 0; row < int(nout); row++ {
		for c := 0; c < ncols; c++ {
			cols[c][row] = samples[row*ncols+c]
		}
	}

	return cols, saved, nil
}

// parseVarNames reads the variable titles, one per line, normalizing legacy
// encodings and stripping data-path identifiers.
func parseVarNames(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var titles []string
	for scanner.Scan() {
		line := strings.TrimSpace(decodeName(scanner.Bytes()))
		line = strings.ReplaceAll(line, " instance ", "_")
		if strings.Contains(line, "Data_Path") {
			line = dataPathRe.ReplaceAllString(line, "")
		}
		titles = append(titles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return titles, nil
}

// assemble pairs columns with titles, drops unconnected-input placeholders
// and sorts variables alphabetically, keeping time first.
func assemble(cols [][]float64, saved []int, titles []string) (*ResultSet, error) {
	names := []string{TimeName}
	data := [][]float64{cols[0]}

	for i, idx := range saved {
		if idx < 1 || idx > len(titles) {
			return nil, fmt.Errorf("saved variable %d out of range (have %d titles)", idx, len(titles))
		}
		name := titles[idx-1]
		if strings.Contains(name, inputPlaceholder) {
			continue
		}
		names = append(names, name)
		data = append(data, cols[i+1])
	}

	order := make([]int, len(names)-1)
	for i := range order {
		order[i] = i + 1
	}
	sort.SliceStable(order, func(a, b int) bool {
		return names[order[a]] < names[order[b]]
	})

	rs := &ResultSet{
		Names: make([]string, 0, len(names)),
		Data:  make([][]float64, 0, len(data)),
	}
	rs.Names = append(rs.Names, names[0])
	rs.Data = append(rs.Data, data[0])
	for _, i := range order {
		rs.Names = append(rs.Names, names[i])
		rs.Data = append(rs.Data, data[i])
	}

	return rs, nil
}
