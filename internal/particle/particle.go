// Package particle defines the rigid disks moved by the collision engine.
package particle

import (
	"fmt"

	"github.com/tomz197/hardisks/internal/physics"
)

// Particle is a rigid disk. ID, Mass and Radius are fixed for the lifetime of
// the particle; Position and Velocity change only at event instants, through
// Advance and the collision responses below.
type Particle struct {
	ID       int64
	Position physics.Vector
	Velocity physics.Vector
	Mass     float64
	Radius   float64
}

// New creates a particle.
func New(id int64, position, velocity physics.Vector, mass, radius float64) Particle {
	return Particle{
		ID:       id,
		Position: position,
		Velocity: velocity,
		Mass:     mass,
		Radius:   radius,
	}
}

// Advance moves the particle ballistically by dt. Negative dt rewinds it.
func (p *Particle) Advance(dt float64) {
	p.Position = p.Position.Add(p.Velocity.Scale(dt))
}

// BounceOffBoundary reflects the velocity about the radial normal at the
// current position. The container wall and the obstacle are both circles
// centred at the origin, so the same normal serves both.
func (p *Particle) BounceOffBoundary() error {
	normal, err := p.Position.Normalize()
	if err != nil {
		return fmt.Errorf("particle %d bounce at %v: %w", p.ID, p.Position, err)
	}
	dot := p.Velocity.Dot(normal)
	p.Velocity = p.Velocity.Sub(normal.Scale(2 * dot))
	return nil
}

// CollideWith applies the elastic hard-disk impulse along the line of centres
// to p and other, and returns the impulse magnitude J.
// The pair must be in contact and approaching; the engine never schedules
// anything else.
func (p *Particle) CollideWith(other *Particle) float64 {
	sigma := p.Radius + other.Radius
	deltaR := p.Position.Sub(other.Position)
	deltaV := p.Velocity.Sub(other.Velocity)

	j := 2 * p.Mass * other.Mass * deltaV.Dot(deltaR) / (sigma * (p.Mass + other.Mass))
	impulse := deltaR.Scale(j / sigma)

	p.Velocity = p.Velocity.Sub(impulse.Scale(1 / p.Mass))
	other.Velocity = other.Velocity.Add(impulse.Scale(1 / other.Mass))

	if j < 0 {
		return -j
	}
	return j
}

// IsOverlapped reports whether the disks overlap or touch.
func (p Particle) IsOverlapped(other Particle) bool {
	return physics.CirclesOverlap(p.Position, p.Radius, other.Position, other.Radius)
}

// Momentum returns m·v.
func (p Particle) Momentum() physics.Vector {
	return p.Velocity.Scale(p.Mass)
}

// KineticEnergy returns ½·m·|v|².
func (p Particle) KineticEnergy() float64 {
	return 0.5 * p.Mass * p.Velocity.MagnitudeSquared()
}

// Speed returns |v|.
func (p Particle) Speed() float64 {
	return p.Velocity.Magnitude()
}

// String formats the full particle line: id x y vx vy mass radius.
func (p Particle) String() string {
	return fmt.Sprintf("%d %f %f %f %f %f %f",
		p.ID,
		p.Position.X,
		p.Position.Y,
		p.Velocity.X,
		p.Velocity.Y,
		p.Mass,
		p.Radius,
	)
}

// StateLine formats the kinematic state only: id x y vx vy.
func (p Particle) StateLine() string {
	return fmt.Sprintf("%d %f %f %f %f",
		p.ID,
		p.Position.X,
		p.Position.Y,
		p.Velocity.X,
		p.Velocity.Y,
	)
}
