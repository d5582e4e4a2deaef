package protocol

import (
	"bufio"
	"io"
	"strconv"
)

const defaultWriterSize = 16 * 1024 // 16 KB

// Writer encodes commands into a buffered byte stream.
// Nothing reaches the underlying writer before Flush (or a full buffer).
type Writer struct {
	bw      *bufio.Writer
	scratch []byte
}

// NewWriter creates a Writer with the default buffer size
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		bw:      bufio.NewWriterSize(w, defaultWriterSize),
		scratch: make([]byte, 0, 24),
	}
}

// Reset discards any buffered data and switches to writing to w
func (w *Writer) Reset(wr io.Writer) {
	w.bw.Reset(wr)
}

// WriteCommand buffers the multi-bulk encoding of cmd
func (w *Writer) WriteCommand(cmd Command) error {
	if len(cmd) == 0 {
		return ErrEmptyCommand
	}
	if err := w.writeHeader(markerArray, len(cmd)); err != nil {
		return err
	}
	for _, arg := range cmd {
		if err := w.writeHeader(markerBulk, len(arg)); err != nil {
			return err
		}
		if _, err := w.bw.Write(arg); err != nil {
			return err
		}
		if _, err := w.bw.WriteString("\r\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes all buffered data to the underlying writer
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Buffered returns the number of bytes waiting for Flush
func (w *Writer) Buffered() int {
	return w.bw.Buffered()
}

func (w *Writer) writeHeader(marker byte, n int) error {
	w.scratch = append(w.scratch[:0], marker)
	w.scratch = strconv.AppendInt(w.scratch, int64(n), 10)
	w.scratch = append(w.scratch, '\r', '\n')
	_, err := w.bw.Write(w.scratch)
	return err
}
