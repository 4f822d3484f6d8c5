package generator

import (
	"errors"
	"math"
	"testing"
)

func TestGenerate(t *testing.T) {
	c := Config{
		Diameter:       100,
		ObstacleRadius: 5,
		Count:          200,
		Mass:           1,
		Radius:         1,
		Speed:          2,
		Seed:           1,
	}

	s, err := Generate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Particles) != c.Count {
		t.Fatalf("expected %d particles, got %d", c.Count, len(s.Particles))
	}
	if s.Diameter != c.Diameter || s.ObstacleRadius != c.ObstacleRadius {
		t.Errorf("expected geometry %v/%v, got %v/%v", c.Diameter, c.ObstacleRadius, s.Diameter, s.ObstacleRadius)
	}

	for i, p := range s.Particles {
		if p.ID != int64(i) {
			t.Errorf("expected id %d, got %d", i, p.ID)
		}
		if math.Abs(p.Speed()-c.Speed) > 1e-12 {
			t.Errorf("particle %d: expected speed %v, got %v", p.ID, c.Speed, p.Speed())
		}
		if p.Mass != c.Mass || p.Radius != c.Radius {
			t.Errorf("particle %d: expected mass/radius %v/%v, got %v/%v", p.ID, c.Mass, c.Radius, p.Mass, p.Radius)
		}
	}

	// Validate covers placement inside the annulus and pairwise overlap.
	if err := s.Validate(); err != nil {
		t.Errorf("expected a valid setup, got %v", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	c := Config{Diameter: 40, Count: 50, Mass: 1, Radius: 0.5, Speed: 1, Seed: 99}

	a, err := Generate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Generate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a.Particles {
		if a.Particles[i] != b.Particles[i] {
			t.Fatalf("particle %d differs: %v vs %v", i, a.Particles[i], b.Particles[i])
		}
	}

	c.Seed = 100
	other, err := Generate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Particles[0] == a.Particles[0] {
		t.Errorf("expected a different seed to give a different configuration")
	}
}

func TestGenerateTooDense(t *testing.T) {
	c := Config{Diameter: 10, Count: 100, Mass: 1, Radius: 1, Speed: 1, Seed: 3, MaxAttempts: 200}
	if _, err := Generate(c); !errors.Is(err, ErrTooDense) {
		t.Errorf("expected ErrTooDense, got %v", err)
	}
}

func TestGenerateInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		c    Config
	}{
		{"zero diameter", Config{Diameter: 0, Mass: 1}},
		{"zero mass", Config{Diameter: 10, Mass: 0}},
		{"negative count", Config{Diameter: 10, Mass: 1, Count: -1}},
		{"no room", Config{Diameter: 10, ObstacleRadius: 4, Mass: 1, Radius: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(tt.c); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
