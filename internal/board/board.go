// Package board implements the event-driven collision engine: it predicts the
// next wall, obstacle or pair collision, advances every particle to that
// instant and applies the collision response.
package board

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/physics"
)

// ErrNoEvent is returned when no particle will ever collide again. Inside a
// closed container with moving particles this means the state is invalid.
var ErrNoEvent = errors.New("no future collision")

// candidate is a predicted event plus the slice indices of its participants.
type candidate struct {
	Event
	ia, ib int
}

// Board owns the container geometry and the particle set for a whole run.
// Particles are only mutated by Step; every accessor returns copies.
type Board struct {
	radius         float64
	obstacleRadius float64
	particles      []particle.Particle // Sorted by id

	time   float64
	events int64

	// last is the most recently executed event. A Δt≈0 prediction of the same
	// event is floating-point residue of the bounce just applied.
	last    Event
	hasLast bool

	// next caches the prediction until the state changes.
	next    candidate
	hasNext bool
}

// New creates a board for a container of the given diameter. An obstacle
// radius of 0 disables the obstacle. The particles are copied and ordered by
// id; the caller is responsible for a physically valid configuration.
func New(diameter, obstacleRadius float64, particles []particle.Particle) *Board {
	ps := slices.Clone(particles)
	slices.SortFunc(ps, func(a, b particle.Particle) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return &Board{
		radius:         diameter / 2,
		obstacleRadius: obstacleRadius,
		particles:      ps,
	}
}

// Radius returns the container radius.
func (b *Board) Radius() float64 {
	return b.radius
}

// ObstacleRadius returns the obstacle radius (0 when disabled).
func (b *Board) ObstacleRadius() float64 {
	return b.obstacleRadius
}

// Time returns the simulation time.
func (b *Board) Time() float64 {
	return b.time
}

// Events returns the number of resolved events.
func (b *Board) Events() int64 {
	return b.events
}

// Len returns the number of particles.
func (b *Board) Len() int {
	return len(b.particles)
}

// LastEvent returns the most recently resolved event.
func (b *Board) LastEvent() (Event, bool) {
	return b.last, b.hasLast
}

// Particles returns a copy of the particles, ordered by id.
func (b *Board) Particles() []particle.Particle {
	return slices.Clone(b.particles)
}

// Particle returns a copy of the particle with the given id.
func (b *Board) Particle(id int64) (particle.Particle, bool) {
	i, ok := b.indexOf(id)
	if !ok {
		return particle.Particle{}, false
	}
	return b.particles[i], true
}

// Extrapolate returns copies of the particles moved ballistically by dt
// without touching the board. It is only meaningful for dt up to the next
// predicted event.
func (b *Board) Extrapolate(dt float64) []particle.Particle {
	ps := slices.Clone(b.particles)
	for i := range ps {
		ps[i].Advance(dt)
	}
	return ps
}

// KineticEnergy returns the total kinetic energy.
func (b *Board) KineticEnergy() float64 {
	var e float64
	for _, p := range b.particles {
		e += p.KineticEnergy()
	}
	return e
}

// Momentum returns the total momentum.
func (b *Board) Momentum() physics.Vector {
	var m physics.Vector
	for _, p := range b.particles {
		m = m.Add(p.Momentum())
	}
	return m
}

// Predict returns the soonest future event without applying it.
//
// Particles are visited in ascending id; for each one the wall, the obstacle
// and then every higher-id partner are considered, and a candidate only
// replaces the current best when strictly sooner.
func (b *Board) Predict() (Event, error) {
	if b.hasNext {
		return b.next.Event, nil
	}

	var (
		best  candidate
		found bool
	)
	consider := func(c candidate) {
		if b.hasLast && c.Time <= physics.Eps && c.Same(b.last) {
			return
		}
		if !found || c.Time < best.Time {
			best = c
			found = true
		}
	}

	for i := range b.particles {
		p := b.particles[i]

		if t, ok := b.wallTime(p); ok {
			consider(candidate{Event: Event{Kind: KindWall, A: p.ID, Time: t}, ia: i, ib: -1})
		}
		if t, ok := b.obstacleTime(p); ok {
			consider(candidate{Event: Event{Kind: KindObstacle, A: p.ID, Time: t}, ia: i, ib: -1})
		}
		for j := i + 1; j < len(b.particles); j++ {
			other := b.particles[j]
			if t, ok := pairTime(p, other); ok {
				consider(candidate{Event: Event{Kind: KindPair, A: p.ID, B: other.ID, Time: t}, ia: i, ib: j})
			}
		}
	}

	if !found {
		return Event{}, ErrNoEvent
	}

	b.next = best
	b.hasNext = true
	return best.Event, nil
}

// Step advances the board to the next event and resolves it: every particle
// moves by the event's Δt, then only the participants receive the collision
// response. Simultaneous events are resolved one per call, the later ones
// with Δt = 0.
func (b *Board) Step() (Event, error) {
	if _, err := b.Predict(); err != nil {
		return Event{}, err
	}
	c := b.next
	b.hasNext = false

	for i := range b.particles {
		b.particles[i].Advance(c.Time)
	}

	impulse, err := b.resolve(c)
	if err != nil {
		return Event{}, err
	}

	b.time += c.Time
	b.events++

	ev := c.Event
	ev.At = b.time
	ev.Impulse = impulse

	b.last = ev
	b.hasLast = true
	return ev, nil
}

// resolve applies the collision response for c and returns the impulse.
func (b *Board) resolve(c candidate) (float64, error) {
	switch c.Kind {
	case KindWall, KindObstacle:
		p := &b.particles[c.ia]
		before := p.Velocity
		if err := p.BounceOffBoundary(); err != nil {
			return 0, fmt.Errorf("resolve %s event: %w", c.Kind, err)
		}
		return p.Mass * p.Velocity.Sub(before).Magnitude(), nil
	case KindPair:
		return b.particles[c.ia].CollideWith(&b.particles[c.ib]), nil
	default:
		panic(fmt.Sprintf("board: unknown event kind %d", c.Kind))
	}
}

func (b *Board) wallTime(p particle.Particle) (float64, bool) {
	if wallContact(p, b.radius) {
		return 0, true
	}
	return WallTime(p, b.radius)
}

func (b *Board) obstacleTime(p particle.Particle) (float64, bool) {
	if obstacleContact(p, b.obstacleRadius) {
		return 0, true
	}
	return ObstacleTime(p, b.obstacleRadius)
}

func pairTime(a, b particle.Particle) (float64, bool) {
	if pairContact(a, b) {
		return 0, true
	}
	return PairTime(a, b)
}

func (b *Board) indexOf(id int64) (int, bool) {
	return slices.BinarySearchFunc(b.particles, id, func(p particle.Particle, id int64) int {
		return cmp.Compare(p.ID, id)
	})
}
