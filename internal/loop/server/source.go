package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/loop/config"
	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/particlefile"
	"github.com/tomz197/hardisks/internal/trace"
)

// Frame is the state of a source at one instant.
type Frame struct {
	Time      float64
	Events    int64
	Particles []particle.Particle
	LastEvent board.Event
	HasLast   bool
	Done      bool // Nothing happens after this frame
}

// Source produces particle states at increasing simulation times.
type Source interface {
	Radius() float64
	ObstacleRadius() float64
	// AdvanceTo resolves every event up to t and returns the state at t.
	// The returned Time may lag behind t when the source could not keep up.
	AdvanceTo(t float64) (Frame, error)
}

// LiveSource starts every run from setup.
func LiveSource(setup *particlefile.Setup) SourceFunc {
	return func() (Source, error) {
		return NewLive(board.New(setup.Diameter, setup.ObstacleRadius, setup.Particles)), nil
	}
}

// ReplaySource replays the trace at path from its first frame on every run.
func ReplaySource(path string, setup *particlefile.Setup) SourceFunc {
	return func() (Source, error) {
		return OpenReplay(path, setup)
	}
}

// Live runs a board in real time.
type Live struct {
	b *board.Board
}

var _ Source = (*Live)(nil)

// NewLive creates a source that steps b on demand.
func NewLive(b *board.Board) *Live {
	return &Live{b: b}
}

// Radius returns the container radius.
func (l *Live) Radius() float64 {
	return l.b.Radius()
}

// ObstacleRadius returns the obstacle radius.
func (l *Live) ObstacleRadius() float64 {
	return l.b.ObstacleRadius()
}

// AdvanceTo steps the board through every event before t, at most
// MaxEventsPerTick of them, and extrapolates the particles to t.
func (l *Live) AdvanceTo(t float64) (Frame, error) {
	for range config.MaxEventsPerTick {
		next, err := l.b.Predict()
		if err != nil {
			return l.frame(l.b.Time()), err
		}
		if l.b.Time()+next.Time > t {
			return l.frame(t), nil
		}
		if _, err := l.b.Step(); err != nil {
			return l.frame(l.b.Time()), err
		}
	}
	return l.frame(l.b.Time()), nil
}

func (l *Live) frame(t float64) Frame {
	last, ok := l.b.LastEvent()
	return Frame{
		Time:      t,
		Events:    l.b.Events(),
		Particles: l.b.Extrapolate(t - l.b.Time()),
		LastEvent: last,
		HasLast:   ok,
	}
}

// Replay plays back a recorded trace. Radii and masses come from the
// particle file the trace was produced from.
type Replay struct {
	r     *trace.Reader
	setup *particlefile.Setup
	byID  map[int64]particle.Particle

	cur     trace.Frame
	next    trace.Frame
	hasNext bool
	events  int64
	last    board.Event
	hasLast bool
	closer  io.Closer
}

var _ Source = (*Replay)(nil)

// OpenReplay replays the trace file at path. Close releases the file.
func OpenReplay(path string, setup *particlefile.Setup) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rp, err := NewReplay(trace.NewReader(bufio.NewReader(f)), setup)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("replay %s: %w", path, err)
	}
	rp.closer = f
	return rp, nil
}

// Close releases the underlying file, if any.
func (rp *Replay) Close() error {
	if rp.closer == nil {
		return nil
	}
	err := rp.closer.Close()
	rp.closer = nil
	return err
}

// NewReplay reads the first frames of r.
func NewReplay(r *trace.Reader, setup *particlefile.Setup) (*Replay, error) {
	n, err := r.Len()
	if err != nil {
		return nil, err
	}
	if n != len(setup.Particles) {
		return nil, fmt.Errorf("trace has %d particles, setup has %d", n, len(setup.Particles))
	}

	rp := &Replay{
		r:     r,
		setup: setup,
		byID:  make(map[int64]particle.Particle, n),
	}
	for _, p := range setup.Particles {
		rp.byID[p.ID] = p
	}

	if rp.cur, err = r.Next(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty trace: %w", io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	if err := rp.readNext(); err != nil {
		return nil, err
	}
	return rp, nil
}

func (rp *Replay) readNext() error {
	f, err := rp.r.Next()
	if err == io.EOF {
		rp.hasNext = false
		return nil
	}
	if err != nil {
		return err
	}
	rp.next = f
	rp.hasNext = true
	return nil
}

// Radius returns the container radius.
func (rp *Replay) Radius() float64 {
	return rp.setup.Diameter / 2
}

// ObstacleRadius returns the obstacle radius.
func (rp *Replay) ObstacleRadius() float64 {
	return rp.setup.ObstacleRadius
}

// AdvanceTo moves through the frames up to t. Between frames particles move
// ballistically; after the last frame the state stays frozen.
func (rp *Replay) AdvanceTo(t float64) (Frame, error) {
	for rp.hasNext && rp.next.Time <= t {
		rp.last = board.Event{Kind: rp.cur.Event.Kind, A: rp.cur.Event.A, B: rp.cur.Event.B, At: rp.next.Time}
		rp.hasLast = true
		rp.events++
		rp.cur = rp.next
		if err := rp.readNext(); err != nil {
			return rp.frame(rp.cur.Time), err
		}
	}

	if !rp.hasNext {
		f := rp.frame(rp.cur.Time)
		f.Done = true
		return f, nil
	}
	return rp.frame(max(t, rp.cur.Time)), nil
}

func (rp *Replay) frame(t float64) Frame {
	dt := t - rp.cur.Time
	ps := make([]particle.Particle, len(rp.cur.States))
	for i, s := range rp.cur.States {
		ref := rp.byID[s.ID]
		ps[i] = particle.New(s.ID, s.Position, s.Velocity, ref.Mass, ref.Radius)
		ps[i].Advance(dt)
	}
	return Frame{
		Time:      t,
		Events:    rp.events,
		Particles: ps,
		LastEvent: rp.last,
		HasLast:   rp.hasLast,
	}
}
