package draw

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"golang.org/x/term"
)

// ChunkWriter collects one frame of terminal output: canvas cells written
// through Write and text overlays placed relative to the canvas origin.
// Nothing reaches the connection until Flush, which sends the frame in
// chunks so a slow SSH channel sees a steady stream of small writes.
type ChunkWriter struct {
	frame    []byte
	out      *bufio.Writer
	col, row int
}

// NewChunkWriter creates a ChunkWriter for w whose overlay coordinates are
// shifted by (col, row).
func NewChunkWriter(w io.Writer, col, row int) *ChunkWriter {
	return &ChunkWriter{
		frame: make([]byte, 0, 8192),
		out:   bufio.NewWriterSize(w, 8192),
		col:   col,
		row:   row,
	}
}

// SetOffset moves the overlay origin, e.g. after a resize.
func (cw *ChunkWriter) SetOffset(col, row int) {
	cw.col = col
	cw.row = row
}

// Write implements io.Writer for Canvas.Render.
func (cw *ChunkWriter) Write(p []byte) (int, error) {
	cw.frame = append(cw.frame, p...)
	return len(p), nil
}

// WriteString appends raw text or escape sequences.
func (cw *ChunkWriter) WriteString(s string) {
	cw.frame = append(cw.frame, s...)
}

// WriteAt places s at the 1-based overlay position (col, row) and returns
// the number of cells it covers.
func (cw *ChunkWriter) WriteAt(col, row int, s string) int {
	cw.moveTo(col, row)
	cw.frame = append(cw.frame, s...)
	return utf8.RuneCountInString(s)
}

// WriteStyled is WriteAt with s wrapped in an SGR style and a reset. The
// escape sequences do not count towards the returned width.
func (cw *ChunkWriter) WriteStyled(col, row int, style, s string) int {
	if style == "" {
		return cw.WriteAt(col, row, s)
	}
	cw.moveTo(col, row)
	cw.frame = append(cw.frame, style...)
	cw.frame = append(cw.frame, s...)
	cw.frame = append(cw.frame, ColorReset...)
	return utf8.RuneCountInString(s)
}

func (cw *ChunkWriter) moveTo(col, row int) {
	cw.frame = append(cw.frame, "\033["...)
	cw.frame = strconv.AppendInt(cw.frame, int64(row+cw.row), 10)
	cw.frame = append(cw.frame, ';')
	cw.frame = strconv.AppendInt(cw.frame, int64(col+cw.col), 10)
	cw.frame = append(cw.frame, 'H')
}

var _ io.Writer = (*ChunkWriter)(nil)

// Flush sends the collected frame and starts a new one.
func (cw *ChunkWriter) Flush() error {
	err := writeChunked(cw.out, string(cw.frame))
	cw.frame = cw.frame[:0]
	if err != nil {
		return err
	}
	return cw.out.Flush()
}

// TermSizeFunc reports the terminal size in cells.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc reads the size of os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}
