package server

import (
	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/particle"
)

// Snapshot is an immutable view of the simulation for rendering.
// Readers must not modify Particles.
type Snapshot struct {
	Time           float64
	Events         int64
	Particles      []particle.Particle
	Radius         float64
	ObstacleRadius float64
	LastEvent      board.Event
	HasLast        bool
	Speed          float64
	Paused         bool
	Done           bool
	Err            error
	Clients        int
}

// KineticEnergy returns the total kinetic energy of the snapshot.
func (s *Snapshot) KineticEnergy() float64 {
	var e float64
	for _, p := range s.Particles {
		e += p.KineticEnergy()
	}
	return e
}
