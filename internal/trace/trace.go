// Package trace reads and writes the simulation output:
//
//	N
//	time
//	id x y vx vy      (N lines, the state at time)
//	event             ("<A> W", "<A> O" or "<A> <B>")
//	time
//	...
//
// Each frame holds the state before an event and the event that ends it.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/physics"
)

// ErrTruncated is returned when the input ends in the middle of a frame.
var ErrTruncated = errors.New("truncated frame")

// State is the kinematic state of one particle in a frame.
type State struct {
	ID       int64
	Position physics.Vector
	Velocity physics.Vector
}

// EventRecord is an event as it appears in the trace.
type EventRecord struct {
	Kind board.Kind
	A    int64
	B    int64
}

// Record strips the timing of ev.
func Record(ev board.Event) EventRecord {
	return EventRecord{Kind: ev.Kind, A: ev.A, B: ev.B}
}

func (e EventRecord) String() string {
	return board.Event{Kind: e.Kind, A: e.A, B: e.B}.String()
}

// ParseEvent parses an event line.
func ParseEvent(line string) (EventRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return EventRecord{}, fmt.Errorf("event %q: expected 2 fields", line)
	}
	a, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return EventRecord{}, fmt.Errorf("event %q: %w", line, err)
	}

	switch fields[1] {
	case "W":
		return EventRecord{Kind: board.KindWall, A: a}, nil
	case "O":
		return EventRecord{Kind: board.KindObstacle, A: a}, nil
	}
	b, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return EventRecord{}, fmt.Errorf("event %q: %w", line, err)
	}
	return EventRecord{Kind: board.KindPair, A: a, B: b}, nil
}

// Frame is one step of the trace.
type Frame struct {
	Time   float64
	States []State
	Event  EventRecord
}

// Writer writes a trace. Output is buffered until Flush.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the particle count line.
func (w *Writer) WriteHeader(n int) error {
	_, err := fmt.Fprintln(w.w, n)
	return err
}

// WriteFrame writes the state of particles at time t followed by the event
// that ends the frame.
func (w *Writer) WriteFrame(t float64, particles []particle.Particle, ev board.Event) error {
	w.w.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	w.w.WriteByte('\n')
	for _, p := range particles {
		w.w.WriteString(p.StateLine())
		w.w.WriteByte('\n')
	}
	w.w.WriteString(ev.String())
	// bufio.Writer errors are sticky, the last write reports any of them.
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader streams frames from a trace.
type Reader struct {
	s    *bufio.Scanner
	line int
	n    int
	init bool
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{s: bufio.NewScanner(r)}
}

// Len returns the particle count from the header.
func (r *Reader) Len() (int, error) {
	if err := r.readHeader(); err != nil {
		return 0, err
	}
	return r.n, nil
}

func (r *Reader) readHeader() error {
	if r.init {
		return nil
	}
	text, err := r.nextLine()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("missing header: %w", io.ErrUnexpectedEOF)
		}
		return err
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return fmt.Errorf("line %d: invalid particle count %q", r.line, text)
	}
	r.n = n
	r.init = true
	return nil
}

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	if err := r.readHeader(); err != nil {
		return Frame{}, err
	}

	text, err := r.nextLine()
	if err != nil {
		return Frame{}, err
	}
	t, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("line %d: invalid time: %w", r.line, err)
	}

	f := Frame{Time: t, States: make([]State, r.n)}
	for i := range f.States {
		if text, err = r.frameLine(); err != nil {
			return Frame{}, err
		}
		if f.States[i], err = parseState(text); err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
	}

	if text, err = r.frameLine(); err != nil {
		return Frame{}, err
	}
	if f.Event, err = ParseEvent(text); err != nil {
		return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	return f, nil
}

// nextLine returns the next non-empty line or io.EOF.
func (r *Reader) nextLine() (string, error) {
	for r.s.Scan() {
		r.line++
		if text := strings.TrimSpace(r.s.Text()); text != "" {
			return text, nil
		}
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// frameLine is nextLine inside a frame, where the end of input is an error.
func (r *Reader) frameLine() (string, error) {
	text, err := r.nextLine()
	if err == io.EOF {
		return "", fmt.Errorf("line %d: %w", r.line, ErrTruncated)
	}
	return text, err
}

func parseState(line string) (State, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return State{}, fmt.Errorf("state %q: expected 5 fields", line)
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("state %q: %w", line, err)
	}
	var v [4]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
			return State{}, fmt.Errorf("state %q: %w", line, err)
		}
	}
	return State{ID: id, Position: physics.Vec(v[0], v[1]), Velocity: physics.Vec(v[2], v[3])}, nil
}

// ReadAll reads every remaining frame.
func (r *Reader) ReadAll() ([]Frame, error) {
	var frames []Frame
	for {
		f, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
