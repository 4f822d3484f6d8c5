package analysis

import (
	"errors"
	"fmt"
	"io"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/loop"
	"github.com/tomz197/hardisks/internal/particlefile"
	"github.com/tomz197/hardisks/internal/trace"
)

// FromTrace replays the events of a recorded trace into observers and
// returns how many were replayed. The board passed to observers is nil.
//
// An event happens at the time of the frame after the one that names it, and
// its impulse is m·|Δv| of particle A across those two frames. The event of the
// last frame has no successor and is skipped.
func FromTrace(r *trace.Reader, setup *particlefile.Setup, observers ...loop.Observer) (int64, error) {
	masses := make(map[int64]float64, len(setup.Particles))
	for _, p := range setup.Particles {
		masses[p.ID] = p.Mass
	}

	prev, err := r.Next()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var n int64
	for {
		cur, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		ev, err := resolved(prev, cur, masses)
		if err != nil {
			return n, err
		}
		for _, o := range observers {
			o.Observe(ev, nil)
		}
		n++
		prev = cur
	}
}

// resolved rebuilds the event named by prev from the velocity change between
// the two frames.
func resolved(prev, cur trace.Frame, masses map[int64]float64) (board.Event, error) {
	rec := prev.Event
	mass, ok := masses[rec.A]
	if !ok {
		return board.Event{}, fmt.Errorf("frame at t=%v: unknown particle %d", prev.Time, rec.A)
	}

	before, ok := findState(prev.States, rec.A)
	if !ok {
		return board.Event{}, fmt.Errorf("frame at t=%v: no state for particle %d", prev.Time, rec.A)
	}
	after, ok := findState(cur.States, rec.A)
	if !ok {
		return board.Event{}, fmt.Errorf("frame at t=%v: no state for particle %d", cur.Time, rec.A)
	}

	return board.Event{
		Kind:    rec.Kind,
		A:       rec.A,
		B:       rec.B,
		Time:    cur.Time - prev.Time,
		At:      cur.Time,
		Impulse: mass * after.Velocity.Sub(before.Velocity).Magnitude(),
	}, nil
}

// findState looks up id; states are written in id order, so the index usually matches.
func findState(states []trace.State, id int64) (trace.State, bool) {
	for _, s := range states {
		if s.ID == id {
			return s, true
		}
	}
	return trace.State{}, false
}
