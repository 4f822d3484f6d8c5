// Package physics provides the vector math, root solving and circle geometry
// shared by the collision engine and the setup tools.
package physics

import "math"

// Eps is the numerical tolerance of the collision-time solver.
// Leading coefficients below it mean "no relative motion", discriminants in
// (-Eps, 0) are grazing contacts and roots must exceed it to count as future.
const Eps = 1e-12

// SmallestPositiveRoot solves a·t² + b·t + c = 0 and returns the smallest root
// strictly greater than Eps. ok is false when no such root exists, which is the
// normal outcome for most queries and not an error.
func SmallestPositiveRoot(a, b, c float64) (t float64, ok bool) {
	if a < Eps {
		return 0, false // no motion
	}

	disc := b*b - 4*a*c
	if disc < 0 && disc > -Eps {
		disc = 0 // tangential contact
	}
	if disc < 0 {
		return 0, false
	}

	sqrtD := math.Sqrt(disc)
	t1 := (-b + sqrtD) / (2 * a)
	t2 := (-b - sqrtD) / (2 * a)

	switch {
	case t1 > Eps && t2 > Eps:
		return math.Min(t1, t2), true
	case t1 > Eps:
		return t1, true
	case t2 > Eps:
		return t2, true
	}
	return 0, false
}

// CirclesOverlap reports whether two circles overlap. Touching circles count
// as overlapping, so a generator using it leaves a gap between particles.
func CirclesOverlap(pa Vector, ra float64, pb Vector, rb float64) bool {
	minDist := ra + rb
	return pa.Sub(pb).MagnitudeSquared() <= minDist*minDist
}

// PointInRing reports whether p lies in the closed annulus centred at the
// origin with the given inner and outer radii.
func PointInRing(p Vector, inner, outer float64) bool {
	d2 := p.MagnitudeSquared()
	return d2 >= inner*inner && d2 <= outer*outer
}
