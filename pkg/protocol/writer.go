package protocol

import (
	"bufio"
	"io"
)

// FlushWriter wraps a writer so each JSON-RPC message can be pushed to the
// peer as soon as it is encoded.
type FlushWriter struct {
	w *bufio.Writer
}

func NewFlushWriter(w io.Writer) *FlushWriter {
	return &FlushWriter{w: bufio.NewWriter(w)}
}

func (fw *FlushWriter) Write(p []byte) (int, error) {
	return fw.w.Write(p)
}

func (fw *FlushWriter) Flush() error {
	return fw.w.Flush()
}
