// Package analysis derives observables from a run: the pressure on the
// container wall and on the obstacle, and the obstacle collision counts.
// Both work on live events and on recorded traces.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/tomz197/hardisks/internal/board"
)

// ErrInvalidWindow is returned for a non-positive pressure window.
var ErrInvalidWindow = errors.New("pressure window must be positive")

// PressureSample is the mean pressure over [Start, End).
type PressureSample struct {
	Start    float64
	End      float64
	Wall     float64
	Obstacle float64
}

// Pressure accumulates boundary impulses into fixed windows of simulated
// time. Pressure is impulse / (window × perimeter).
type Pressure struct {
	window            float64
	wallPerimeter     float64
	obstaclePerimeter float64

	index           int64 // Window currently accumulating
	wallImpulse     float64
	obstacleImpulse float64
	samples         []PressureSample
}

// NewPressure creates a pressure observer for a container of the given
// diameter. Obstacle pressure is always 0 when obstacleRadius is 0.
func NewPressure(window, diameter, obstacleRadius float64) (*Pressure, error) {
	if window <= 0 || math.IsNaN(window) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidWindow, window)
	}
	return &Pressure{
		window:            window,
		wallPerimeter:     math.Pi * diameter,
		obstaclePerimeter: 2 * math.Pi * obstacleRadius,
	}, nil
}

// Observe implements loop.Observer.
func (p *Pressure) Observe(ev board.Event, _ *board.Board) {
	p.Add(ev.Kind, ev.At, ev.Impulse)
}

// Add records a collision of the given kind at absolute time at.
// Times must not decrease. Pair collisions do not act on the boundary and
// only advance the clock.
func (p *Pressure) Add(kind board.Kind, at, impulse float64) {
	p.Flush(at)

	switch kind {
	case board.KindWall:
		p.wallImpulse += impulse
	case board.KindObstacle:
		p.obstacleImpulse += impulse
	}
}

// Flush closes every window that ends at or before t, including empty ones.
func (p *Pressure) Flush(t float64) {
	target := int64(math.Floor(t / p.window))
	for p.index < target {
		p.samples = append(p.samples, p.sample(p.index))
		p.index++
		p.wallImpulse = 0
		p.obstacleImpulse = 0
	}
}

func (p *Pressure) sample(i int64) PressureSample {
	s := PressureSample{
		Start: float64(i) * p.window,
		End:   float64(i+1) * p.window,
		Wall:  p.wallImpulse / (p.window * p.wallPerimeter),
	}
	if p.obstaclePerimeter > 0 {
		s.Obstacle = p.obstacleImpulse / (p.window * p.obstaclePerimeter)
	}
	return s
}

// Samples returns the closed windows.
func (p *Pressure) Samples() []PressureSample {
	return p.samples
}

// Average returns the mean pressure over the closed windows starting at or
// after from. Use from to skip the transient before the gas reaches a
// stationary state. ok is false when no window qualifies.
func (p *Pressure) Average(from float64) (wall, obstacle float64, ok bool) {
	var n int
	for _, s := range p.samples {
		if s.Start < from {
			continue
		}
		wall += s.Wall
		obstacle += s.Obstacle
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return wall / float64(n), obstacle / float64(n), true
}

// WriteSamples writes one "start wall obstacle" line per sample.
func WriteSamples(w io.Writer, samples []PressureSample) error {
	for _, s := range samples {
		line := strconv.FormatFloat(s.Start, 'g', -1, 64) + " " +
			strconv.FormatFloat(s.Wall, 'g', -1, 64) + " " +
			strconv.FormatFloat(s.Obstacle, 'g', -1, 64) + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}
