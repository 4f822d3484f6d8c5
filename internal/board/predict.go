package board

import (
	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/physics"
)

// WallTime returns the time until p reaches the container wall, treating p as
// a point moving inside a circle of radius containerRadius - p.Radius.
func WallTime(p particle.Particle, containerRadius float64) (float64, bool) {
	target := containerRadius - p.Radius
	return circleTime(p, target)
}

// ObstacleTime returns the time until p reaches the central obstacle.
// An obstacle radius of zero disables the obstacle, and a particle moving
// away from the centre never reaches it.
func ObstacleTime(p particle.Particle, obstacleRadius float64) (float64, bool) {
	if obstacleRadius == 0 || p.Position.Dot(p.Velocity) >= 0 {
		return 0, false
	}
	target := obstacleRadius + p.Radius
	return circleTime(p, target)
}

// PairTime returns the time until a and b touch. Pairs that are separating or
// at rest relative to each other never collide.
func PairTime(a, b particle.Particle) (float64, bool) {
	deltaR := a.Position.Sub(b.Position)
	deltaV := a.Velocity.Sub(b.Velocity)
	dotRV := deltaR.Dot(deltaV)
	if dotRV >= 0 {
		return 0, false
	}

	sigma := a.Radius + b.Radius
	return physics.SmallestPositiveRoot(
		deltaV.MagnitudeSquared(),
		2*dotRV,
		deltaR.MagnitudeSquared()-sigma*sigma,
	)
}

// circleTime solves |pos + v·t| = target for the origin-centred circle.
func circleTime(p particle.Particle, target float64) (float64, bool) {
	return physics.SmallestPositiveRoot(
		p.Velocity.MagnitudeSquared(),
		2*p.Position.Dot(p.Velocity),
		p.Position.MagnitudeSquared()-target*target,
	)
}

// A contact is a touch the root solver cannot see: the first touching time
// is at most Eps, or already in the past, while the bodies still close in.
// The quadratics are the ones the predictors solve, evaluated at t = Eps.

// wallContact reports whether p reaches the wall within Eps while moving outward.
func wallContact(p particle.Particle, containerRadius float64) bool {
	if p.Position.Dot(p.Velocity) <= 0 {
		return false
	}
	target := containerRadius - p.Radius
	return circleGapAtEps(p, target) >= 0
}

// obstacleContact reports whether p reaches the obstacle within Eps while moving inward.
func obstacleContact(p particle.Particle, obstacleRadius float64) bool {
	if obstacleRadius == 0 || p.Position.Dot(p.Velocity) >= 0 {
		return false
	}
	target := obstacleRadius + p.Radius
	return circleGapAtEps(p, target) <= 0
}

// pairContact reports whether a and b touch within Eps while approaching.
func pairContact(a, b particle.Particle) bool {
	deltaR := a.Position.Sub(b.Position)
	deltaV := a.Velocity.Sub(b.Velocity)
	dotRV := deltaR.Dot(deltaV)
	if dotRV >= 0 {
		return false
	}
	sigma := a.Radius + b.Radius
	return quadraticAt(deltaV.MagnitudeSquared(), 2*dotRV, deltaR.MagnitudeSquared()-sigma*sigma, physics.Eps) <= 0
}

// circleGapAtEps is |pos + v·Eps|² - target², positive outside the circle.
func circleGapAtEps(p particle.Particle, target float64) float64 {
	return quadraticAt(
		p.Velocity.MagnitudeSquared(),
		2*p.Position.Dot(p.Velocity),
		p.Position.MagnitudeSquared()-target*target,
		physics.Eps,
	)
}

func quadraticAt(a, b, c, t float64) float64 {
	return c + t*(b+a*t)
}
