// Package matfile reads MAT-file level 5 containers, the format the
// simulation post-processing scripts exchange matrices in. Only numeric
// two-dimensional matrices are materialized; other classes are recorded
// as skipped.
package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Element data types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// Array classes carried in the array-flags subelement.
const (
	mxDOUBLE = 6
	mxSINGLE = 7
	mxINT8   = 8
	mxUINT8  = 9
	mxINT16  = 10
	mxUINT16 = 11
	mxINT32  = 12
	mxUINT32 = 13
	mxINT64  = 14
	mxUINT64 = 15
)

const headerSize = 128

// Variable is a numeric 2-D matrix, converted to row-major float64.
type Variable struct {
	Name string      `json:"name"`
	Rows int         `json:"rows"`
	Cols int         `json:"cols"`
	Data [][]float64 `json:"data"`
}

// File is the decoded container.
type File struct {
	Header  string     `json:"header"`
	Vars    []Variable `json:"vars"`
	Skipped []string   `json:"skipped,omitempty"`
}

// Names lists the materialized variable names.
func (f *File) Names() []string {
	names := make([]string, len(f.Vars))
	for i, v := range f.Vars {
		names[i] = v.Name
	}
	return names
}

// Var returns a variable by name.
func (f *File) Var(name string) (*Variable, bool) {
	for i := range f.Vars {
		if f.Vars[i].Name == name {
			return &f.Vars[i], true
		}
	}
	return nil, false
}

// Open reads a .mat file from disk.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Read decodes a level 5 MAT container from memory.
func Read(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("truncated header: %d bytes", len(data))
	}

	var order binary.ByteOrder
	switch string(data[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("bad endian indicator %q", data[126:128])
	}

	version := order.Uint16(data[124:126])
	if version != 0x0100 {
		return nil, fmt.Errorf("unsupported version 0x%04x", version)
	}

	f := &File{
		Header: strings.TrimRight(string(data[:116]), " \x00"),
	}

	r := &reader{data: data[headerSize:], order: order}
	for r.remaining() > 0 {
		typ, payload, err := r.element()
		if err != nil {
			return nil, err
		}

		if typ == miCOMPRESSED {
			inflated, err := inflate(payload)
			if err != nil {
				return nil, fmt.Errorf("compressed element: %w", err)
			}
			inner := &reader{data: inflated, order: order}
			typ, payload, err = inner.element()
			if err != nil {
				return nil, fmt.Errorf("compressed element: %w", err)
			}
		}

		if typ != miMATRIX {
			continue
		}

		v, name, err := decodeMatrix(payload, order)
		if err != nil {
			return nil, err
		}
		if v == nil {
			f.Skipped = append(f.Skipped, name)
			continue
		}
		f.Vars = append(f.Vars, *v)
	}

	return f, nil
}

func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

func (r *reader) remaining() int { return len(r.data) - r.pos }

// element decodes the next tagged element, handling the packed small-data
// form where the byte count lives in the upper half of the type word.
func (r *reader) element() (typ int, payload []byte, err error) {
	if r.remaining() < 8 {
		return 0, nil, fmt.Errorf("truncated element tag at offset %d", r.pos)
	}

	word := r.order.Uint32(r.data[r.pos:])
	if word>>16 != 0 {
		// Small data element: up to 4 payload bytes inside the tag.
		size := int(word >> 16)
		typ = int(word & 0xFFFF)
		if size > 4 {
			return 0, nil, fmt.Errorf("small element with %d bytes at offset %d", size, r.pos)
		}
		payload = r.data[r.pos+4 : r.pos+4+size]
		r.pos += 8
		return typ, payload, nil
	}

	typ = int(word)
	size := int(r.order.Uint32(r.data[r.pos+4:]))
	r.pos += 8
	if r.remaining() < size {
		return 0, nil, fmt.Errorf("element of %d bytes overruns buffer", size)
	}
	payload = r.data[r.pos : r.pos+size]
	r.pos += size

	// Payloads are padded to the next 8-byte boundary, compressed ones are
	// not.
	if typ != miCOMPRESSED {
		pad := (8 - size%8) % 8
		if pad > r.remaining() {
			pad = r.remaining()
		}
		r.pos += pad
	}

	return typ, payload, nil
}

// decodeMatrix turns a miMATRIX payload into a row-major variable.
// It returns (nil, name, nil) for classes the toolkit does not convert.
func decodeMatrix(payload []byte, order binary.ByteOrder) (*Variable, string, error) {
	r := &reader{data: payload, order: order}

	typ, flagsData, err := r.element()
	if err != nil {
		return nil, "", fmt.Errorf("array flags: %w", err)
	}
	if typ != miUINT32 || len(flagsData) < 8 {
		return nil, "", fmt.Errorf("bad array flags element (type %d, %d bytes)", typ, len(flagsData))
	}
	flags := order.Uint32(flagsData)
	class := int(flags & 0xFF)
	complex := flags&0x0800 != 0

	typ, dimsData, err := r.element()
	if err != nil {
		return nil, "", fmt.Errorf("dimensions: %w", err)
	}
	if typ != miINT32 {
		return nil, "", fmt.Errorf("bad dimensions element type %d", typ)
	}
	dims := make([]int, len(dimsData)/4)
	for i := range dims {
		dims[i] = int(int32(order.Uint32(dimsData[i*4:])))
	}

	_, nameData, err := r.element()
	if err != nil {
		return nil, "", fmt.Errorf("array name: %w", err)
	}
	name := string(bytes.TrimRight(nameData, "\x00"))

	if !numericClass(class) || len(dims) != 2 || complex {
		return nil, name, nil
	}

	typ, realData, err := r.element()
	if err != nil {
		return nil, name, fmt.Errorf("%s: real part: %w", name, err)
	}

	values, err := decodeNumeric(typ, realData, order)
	if err != nil {
		return nil, name, fmt.Errorf("%s: %w", name, err)
	}

	rows, cols := dims[0], dims[1]
	if rows < 0 || cols < 0 {
		return nil, name, fmt.Errorf("%s: invalid dimensions %dx%d", name, rows, cols)
	}
	if len(values) != rows*cols {
		return nil, name, fmt.Errorf("%s: %d values for %dx%d matrix", name, len(values), rows, cols)
	}

	// Stored column-major; convert to rows.
	out := make([][]float64, rows)
	for i := range out {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = values[j*rows+i]
		}
		out[i] = row
	}

	return &Variable{Name: name, Rows: rows, Cols: cols, Data: out}, name, nil
}

func numericClass(class int) bool {
	return class >= mxDOUBLE && class <= mxUINT64
}

func decodeNumeric(typ int, data []byte, order binary.ByteOrder) ([]float64, error) {
	width, ok := typeWidth(typ)
	if !ok {
		return nil, fmt.Errorf("unsupported numeric storage type %d", typ)
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("misaligned numeric data (%d bytes, width %d)", len(data), width)
	}

	n := len(data) / width
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		chunk := data[i*width:]
		switch typ {
		case miINT8:
			out[i] = float64(int8(chunk[0]))
		case miUINT8:
			out[i] = float64(chunk[0])
		case miINT16:
			out[i] = float64(int16(order.Uint16(chunk)))
		case miUINT16:
			out[i] = float64(order.Uint16(chunk))
		case miINT32:
			out[i] = float64(int32(order.Uint32(chunk)))
		case miUINT32:
			out[i] = float64(order.Uint32(chunk))
		case miINT64:
			out[i] = float64(int64(order.Uint64(chunk)))
		case miUINT64:
			out[i] = float64(order.Uint64(chunk))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(order.Uint32(chunk)))
		case miDOUBLE:
			out[i] = math.Float64frombits(order.Uint64(chunk))
		}
	}
	return out, nil
}

func typeWidth(typ int) (int, bool) {
	switch typ {
	case miINT8, miUINT8:
		return 1, true
	case miINT16, miUINT16:
		return 2, true
	case miINT32, miUINT32, miSINGLE:
		return 4, true
	case miINT64, miUINT64, miDOUBLE:
		return 8, true
	default:
		return 0, false
	}
}
