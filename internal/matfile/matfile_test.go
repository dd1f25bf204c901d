package matfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"math"
	"testing"
)

func writeElement(buf *bytes.Buffer, typ uint32, payload []byte) {
	binary.Write(buf, binary.LittleEndian, typ)
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	if pad := (8 - len(payload)%8) % 8; pad > 0 {
		buf.Write(make([]byte, pad))
	}
}

func buildMatrix(class uint32, rows, cols int, name string, values []float64) []byte {
	var body bytes.Buffer

	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, class)
	writeElement(&body, miUINT32, flags)

	dims := make([]byte, 8)
	binary.LittleEndian.PutUint32(dims, uint32(rows))
	binary.LittleEndian.PutUint32(dims[4:], uint32(cols))
	writeElement(&body, miINT32, dims)

	writeElement(&body, miINT8, []byte(name))

	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}
	writeElement(&body, miDOUBLE, data)

	return body.Bytes()
}

func buildFile(elements ...[]byte) []byte {
	var buf bytes.Buffer

	header := make([]byte, 128)
	copy(header, "MATLAB 5.0 MAT-file, written by amekit test")
	binary.LittleEndian.PutUint16(header[124:], 0x0100)
	copy(header[126:], "IM")
	buf.Write(header)

	for _, el := range elements {
		buf.Write(el)
	}
	return buf.Bytes()
}

func matrixElement(body []byte) []byte {
	var buf bytes.Buffer
	writeElement(&buf, miMATRIX, body)
	return buf.Bytes()
}

func TestReadDoubleMatrix(t *testing.T) {
	// 2x3, stored column-major: [[1 3 5], [2 4 6]].
	body := buildMatrix(mxDOUBLE, 2, 3, "data", []float64{1, 2, 3, 4, 5, 6})
	f, err := Read(buildFile(matrixElement(body)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	v, ok := f.Var("data")
	if !ok {
		t.Fatalf("variable data missing, have %v", f.Names())
	}
	if v.Rows != 2 || v.Cols != 3 {
		t.Fatalf("dims = %dx%d, want 2x3", v.Rows, v.Cols)
	}
	if v.Data[0][1] != 3 || v.Data[1][2] != 6 {
		t.Errorf("column-major conversion wrong: %v", v.Data)
	}
}

func TestReadSkipsNonNumeric(t *testing.T) {
	const mxChar = 4
	body := buildMatrix(mxChar, 1, 3, "label", []float64{65, 66, 67})
	f, err := Read(buildFile(matrixElement(body)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(f.Vars) != 0 {
		t.Errorf("char matrix should be skipped, got %v", f.Names())
	}
	if len(f.Skipped) != 1 || f.Skipped[0] != "label" {
		t.Errorf("skipped = %v, want [label]", f.Skipped)
	}
}

func TestReadCompressedMatrix(t *testing.T) {
	body := buildMatrix(mxDOUBLE, 1, 2, "z", []float64{3.5, -1})

	var raw bytes.Buffer
	writeElement(&raw, miMATRIX, body)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(raw.Bytes())
	zw.Close()

	var el bytes.Buffer
	binary.Write(&el, binary.LittleEndian, uint32(miCOMPRESSED))
	binary.Write(&el, binary.LittleEndian, uint32(compressed.Len()))
	el.Write(compressed.Bytes())

	f, err := Read(buildFile(el.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	v, ok := f.Var("z")
	if !ok {
		t.Fatalf("variable z missing, have %v", f.Names())
	}
	if v.Data[0][0] != 3.5 || v.Data[0][1] != -1 {
		t.Errorf("values = %v", v.Data)
	}
}

func TestReadIntegerStorage(t *testing.T) {
	var body bytes.Buffer

	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, mxINT16)
	writeElement(&body, miUINT32, flags)

	dims := make([]byte, 8)
	binary.LittleEndian.PutUint32(dims, 1)
	binary.LittleEndian.PutUint32(dims[4:], 2)
	writeElement(&body, miINT32, dims)

	writeElement(&body, miINT8, []byte("n"))

	data := make([]byte, 4)
	negative := int16(-7)
	binary.LittleEndian.PutUint16(data, uint16(negative))
	binary.LittleEndian.PutUint16(data[2:], 300)
	writeElement(&body, miINT16, data)

	f, err := Read(buildFile(matrixElement(body.Bytes())))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	v, ok := f.Var("n")
	if !ok {
		t.Fatal("variable n missing")
	}
	if v.Data[0][0] != -7 || v.Data[0][1] != 300 {
		t.Errorf("integer widening wrong: %v", v.Data)
	}
}

func TestReadRejectsBadHeader(t *testing.T) {
	data := make([]byte, 128)
	copy(data[126:], "XX")
	if _, err := Read(data); err == nil {
		t.Error("expected error for bad endian indicator")
	}
}

func TestReadRejectsNegativeDimensions(t *testing.T) {
	// -1 x -1 with one stored double would pass a bare rows*cols == 1
	// check and crash the column-major copy.
	body := buildMatrix(mxDOUBLE, -1, -1, "evil", []float64{1})
	if _, err := Read(buildFile(matrixElement(body))); err == nil {
		t.Error("expected error for negative dimensions")
	}
}
