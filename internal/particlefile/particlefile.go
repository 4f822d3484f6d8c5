// Package particlefile reads and writes the initial-state file:
//
//	boardDiameter
//	obstacleRadius
//	id1 x1 y1 vx1 vy1 m1 r1
//	id2 x2 y2 vx2 vy2 m2 r2
//	...
//
// Fields are separated by spaces or tabs. An obstacle radius of 0 disables
// the obstacle.
package particlefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/physics"
)

// Setup is the initial state of a simulation.
type Setup struct {
	Diameter       float64
	ObstacleRadius float64
	Particles      []particle.Particle
}

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrInvalidSetup wraps every validation failure.
var ErrInvalidSetup = errors.New("invalid setup")

// Read parses a setup. Blank lines between particles are ignored.
func Read(r io.Reader) (*Setup, error) {
	scanner := bufio.NewScanner(r)
	setup := &Setup{}
	lineNo := 0

	header := func(name string) (float64, error) {
		for scanner.Scan() {
			lineNo++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return 0, &ParseError{Line: lineNo, Msg: "invalid " + name, Err: err}
			}
			return v, nil
		}
		if err := scanner.Err(); err != nil {
			return 0, err
		}
		return 0, &ParseError{Line: lineNo, Msg: "missing " + name}
	}

	var err error
	if setup.Diameter, err = header("board diameter"); err != nil {
		return nil, err
	}
	if setup.ObstacleRadius, err = header("obstacle radius"); err != nil {
		return nil, err
	}

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		p, err := parseParticle(fields)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Msg: "invalid particle", Err: err}
		}
		setup.Particles = append(setup.Particles, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return setup, nil
}

func parseParticle(fields []string) (particle.Particle, error) {
	if len(fields) != 7 {
		return particle.Particle{}, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return particle.Particle{}, err
	}

	var v [6]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(fields[i+1], 64); err != nil {
			return particle.Particle{}, err
		}
	}

	return particle.New(id, physics.Vec(v[0], v[1]), physics.Vec(v[2], v[3]), v[4], v[5]), nil
}

// ReadFile reads a setup from path.
func ReadFile(path string) (*Setup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	setup, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return setup, nil
}

// Write writes s in the file format, one particle per line.
func Write(w io.Writer, s *Setup) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%f\n%f\n", s.Diameter, s.ObstacleRadius)
	for _, p := range s.Particles {
		bw.WriteString(p.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes s to path, replacing any existing file.
func WriteFile(path string, s *Setup) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Validate rejects physically invalid starting configurations: bad geometry,
// non-positive masses, negative radii, duplicate ids, particles outside the
// free annulus and overlapping particles.
func (s *Setup) Validate() error {
	if s.Diameter <= 0 {
		return fmt.Errorf("%w: board diameter %v must be positive", ErrInvalidSetup, s.Diameter)
	}
	if s.ObstacleRadius < 0 {
		return fmt.Errorf("%w: obstacle radius %v is negative", ErrInvalidSetup, s.ObstacleRadius)
	}
	if s.ObstacleRadius >= s.Diameter/2 {
		return fmt.Errorf("%w: obstacle radius %v does not fit a board of diameter %v",
			ErrInvalidSetup, s.ObstacleRadius, s.Diameter)
	}

	seen := make(map[int64]struct{}, len(s.Particles))
	for _, p := range s.Particles {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate particle id %d", ErrInvalidSetup, p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Mass <= 0 {
			return fmt.Errorf("%w: particle %d has non-positive mass %v", ErrInvalidSetup, p.ID, p.Mass)
		}
		if p.Radius < 0 {
			return fmt.Errorf("%w: particle %d has negative radius %v", ErrInvalidSetup, p.ID, p.Radius)
		}

		inner := 0.0
		if s.ObstacleRadius > 0 {
			inner = s.ObstacleRadius + p.Radius
		}
		if !physics.PointInRing(p.Position, inner, s.Diameter/2-p.Radius) {
			return fmt.Errorf("%w: particle %d at %v is outside the free area", ErrInvalidSetup, p.ID, p.Position)
		}
	}

	for i := range s.Particles {
		for j := i + 1; j < len(s.Particles); j++ {
			if s.Particles[i].IsOverlapped(s.Particles[j]) {
				return fmt.Errorf("%w: particles %d and %d overlap",
					ErrInvalidSetup, s.Particles[i].ID, s.Particles[j].ID)
			}
		}
	}
	return nil
}
