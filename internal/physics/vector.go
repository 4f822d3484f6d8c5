package physics

import (
	"errors"
	"math"
	"strconv"
)

// ErrZeroVector is returned when a direction is requested from a zero-length vector.
var ErrZeroVector = errors.New("cannot normalize a zero vector")

// Vector is an immutable 2D vector. Every operation returns a new value.
type Vector struct {
	X, Y float64
}

// Vec creates a vector from its components.
func Vec(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

// FromPolar creates a vector with the given magnitude pointing at angle (radians).
func FromPolar(magnitude, angle float64) Vector {
	return Vector{X: magnitude * math.Cos(angle), Y: magnitude * math.Sin(angle)}
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v * k.
func (v Vector) Scale(k float64) Vector {
	return Vector{X: k * v.X, Y: k * v.Y}
}

// Dot returns the dot product of v and o.
func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Magnitude returns the Euclidean length sqrt(x² + y²).
func (v Vector) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// MagnitudeSquared returns x² + y². Use it when comparing lengths.
func (v Vector) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns the unit vector with the direction of v.
// A zero vector has no direction and yields ErrZeroVector.
func (v Vector) Normalize() (Vector, error) {
	mag := v.Magnitude()
	if mag == 0 {
		return Vector{}, ErrZeroVector
	}
	return Vector{X: v.X / mag, Y: v.Y / mag}, nil
}

// Distance returns the Euclidean distance between v and o.
func (v Vector) Distance(o Vector) float64 {
	return v.Sub(o).Magnitude()
}

func (v Vector) String() string {
	return "(" + strconv.FormatFloat(v.X, 'g', -1, 64) + ", " + strconv.FormatFloat(v.Y, 'g', -1, 64) + ")"
}
