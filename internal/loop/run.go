// Package loop drives a board until a stop condition holds, recording every
// frame to a trace and feeding every resolved event to observers.
package loop

import (
	"context"
	"fmt"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/trace"
)

// StopCondition ends a run. A zero field means no limit on that axis; the run
// continues while the simulation time is below MaxTime and the event count
// is below MaxEvents.
type StopCondition struct {
	MaxTime   float64
	MaxEvents int64
}

// Continue reports whether a run at the given time and event count goes on.
func (s StopCondition) Continue(time float64, events int64) bool {
	if s.MaxTime > 0 && time >= s.MaxTime {
		return false
	}
	if s.MaxEvents > 0 && events >= s.MaxEvents {
		return false
	}
	return true
}

// Unbounded reports whether neither limit is set.
func (s StopCondition) Unbounded() bool {
	return s.MaxTime <= 0 && s.MaxEvents <= 0
}

// Observer receives every resolved event together with the board right after
// the collision response.
type Observer interface {
	Observe(ev board.Event, b *board.Board)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev board.Event, b *board.Board)

// Observe calls f.
func (f ObserverFunc) Observe(ev board.Event, b *board.Board) {
	f(ev, b)
}

// Summary describes a finished run.
type Summary struct {
	Events        int64
	Time          float64
	KineticEnergy float64
}

// Run steps b until stop no longer holds or ctx is done. Each frame written to
// w is the state before an event followed by that event. w may be nil.
//
// A core failure (no future event, bounce at the origin) ends the run with
// an error; the frames written so far are flushed.
func Run(ctx context.Context, b *board.Board, w *trace.Writer, stop StopCondition, observers ...Observer) (summary Summary, err error) {
	if w != nil {
		if err := w.WriteHeader(b.Len()); err != nil {
			return Summary{}, fmt.Errorf("write header: %w", err)
		}
		defer func() {
			if ferr := w.Flush(); ferr != nil && err == nil {
				err = fmt.Errorf("flush trace: %w", ferr)
			}
		}()
	}

	for stop.Continue(b.Time(), b.Events()) {
		if err := ctx.Err(); err != nil {
			return summarize(b), err
		}

		t, particles := b.Time(), b.Particles()
		ev, err := b.Step()
		if err != nil {
			return summarize(b), fmt.Errorf("step %d at t=%v: %w", b.Events(), b.Time(), err)
		}

		if w != nil {
			if err := w.WriteFrame(t, particles, ev); err != nil {
				return summarize(b), fmt.Errorf("write frame: %w", err)
			}
		}
		for _, o := range observers {
			o.Observe(ev, b)
		}
	}

	return summarize(b), nil
}

func summarize(b *board.Board) Summary {
	return Summary{
		Events:        b.Events(),
		Time:          b.Time(),
		KineticEnergy: b.KineticEnergy(),
	}
}
