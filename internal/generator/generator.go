// Package generator builds random initial configurations: equal disks placed
// uniformly in the free annulus between the obstacle and the container wall,
// each moving at the same speed in a random direction.
package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/particlefile"
	"github.com/tomz197/hardisks/internal/physics"
)

// ErrTooDense is returned when a particle cannot be placed without overlap.
var ErrTooDense = errors.New("cannot place particle without overlap")

// DefaultMaxAttempts bounds the placement retries per particle.
const DefaultMaxAttempts = 10000

// Config describes the configuration to generate.
type Config struct {
	Diameter       float64
	ObstacleRadius float64
	Count          int
	Mass           float64
	Radius         float64
	Speed          float64
	Seed           int64
	MaxAttempts    int // 0 means DefaultMaxAttempts
}

func (c Config) validate() error {
	switch {
	case c.Diameter <= 0:
		return fmt.Errorf("diameter must be positive, got %v", c.Diameter)
	case c.ObstacleRadius < 0:
		return fmt.Errorf("obstacle radius must not be negative, got %v", c.ObstacleRadius)
	case c.Count < 0:
		return fmt.Errorf("count must not be negative, got %d", c.Count)
	case c.Mass <= 0:
		return fmt.Errorf("mass must be positive, got %v", c.Mass)
	case c.Radius < 0:
		return fmt.Errorf("radius must not be negative, got %v", c.Radius)
	case c.Speed < 0:
		return fmt.Errorf("speed must not be negative, got %v", c.Speed)
	}

	inner, outer := c.ring()
	if inner > outer {
		return fmt.Errorf("no room for a particle of radius %v between obstacle %v and wall %v",
			c.Radius, c.ObstacleRadius, c.Diameter/2)
	}
	return nil
}

// ring returns the radii that bound particle centres.
func (c Config) ring() (inner, outer float64) {
	if c.ObstacleRadius > 0 {
		inner = c.ObstacleRadius + c.Radius
	}
	return inner, c.Diameter/2 - c.Radius
}

// Generate places Count particles with ids 0..Count-1. The result is
// deterministic for a given Seed.
func Generate(c Config) (*particlefile.Setup, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	rng := rand.New(rand.NewSource(c.Seed))
	inner, outer := c.ring()
	extent := c.Diameter / 2

	cellSize := 2 * c.Radius
	if cellSize <= 0 {
		cellSize = extent
	}
	grid := physics.NewSpatialGrid(extent, cellSize)

	particles := make([]particle.Particle, 0, c.Count)
	for id := 0; id < c.Count; id++ {
		placed := false
		for try := 0; try < attempts; try++ {
			pos := randomPosition(rng, inner, outer)

			overlaps := false
			grid.QueryAround(pos, func(i int) bool {
				overlaps = physics.CirclesOverlap(pos, c.Radius, particles[i].Position, particles[i].Radius)
				return overlaps
			})
			if overlaps {
				continue
			}

			vel := physics.FromPolar(c.Speed, rng.Float64()*2*math.Pi)
			grid.Insert(pos, len(particles))
			particles = append(particles, particle.New(int64(id), pos, vel, c.Mass, c.Radius))
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("particle %d after %d attempts: %w", id, attempts, ErrTooDense)
		}
	}

	return &particlefile.Setup{
		Diameter:       c.Diameter,
		ObstacleRadius: c.ObstacleRadius,
		Particles:      particles,
	}, nil
}

// randomPosition draws a point uniformly distributed over the annulus.
func randomPosition(rng *rand.Rand, inner, outer float64) physics.Vector {
	r := math.Sqrt(inner*inner + rng.Float64()*(outer*outer-inner*inner))
	return physics.FromPolar(r, rng.Float64()*2*math.Pi)
}
