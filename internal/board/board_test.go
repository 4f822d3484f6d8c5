package board

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/physics"
)

func p(id int64, x, y, vx, vy, mass, radius float64) particle.Particle {
	return particle.New(id, physics.Vec(x, y), physics.Vec(vx, vy), mass, radius)
}

// latticeBoard places particles on a square lattice inside the annulus and
// gives them seeded random velocities and masses.
func latticeBoard(seed int64, diameter, obstacle, radius, spacing float64) *Board {
	rng := rand.New(rand.NewSource(seed))
	outer := diameter/2 - radius
	inner := obstacle + radius

	var ps []particle.Particle
	var id int64
	for x := -outer; x <= outer; x += spacing {
		for y := -outer; y <= outer; y += spacing {
			pos := physics.Vec(x, y)
			if !physics.PointInRing(pos, inner+0.01, outer-0.01) {
				continue
			}
			vel := physics.FromPolar(0.5+rng.Float64(), rng.Float64()*2*math.Pi)
			ps = append(ps, particle.New(id, pos, vel, 1+rng.Float64(), radius))
			id++
		}
	}
	return New(diameter, obstacle, ps)
}

func TestHeadOnCollision(t *testing.T) {
	b := New(100, 0, []particle.Particle{
		p(1, 5, 0, -1, 0, 1, 1),
		p(2, -5, 0, 1, 0, 1, 1),
	})

	ev, err := b.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindPair || ev.A != 1 || ev.B != 2 {
		t.Fatalf("expected pair event 1 2, got %v", ev)
	}
	if ev.Time != 4 || b.Time() != 4 {
		t.Errorf("expected event at t=4, got Δt=%v time=%v", ev.Time, b.Time())
	}
	if got := ev.String(); got != "1 2" {
		t.Errorf("expected event line %q, got %q", "1 2", got)
	}

	a, _ := b.Particle(1)
	c, _ := b.Particle(2)
	if a.Velocity != physics.Vec(1, 0) || c.Velocity != physics.Vec(-1, 0) {
		t.Errorf("expected velocities to reverse, got %v and %v", a.Velocity, c.Velocity)
	}
	if a.Position != physics.Vec(1, 0) || c.Position != physics.Vec(-1, 0) {
		t.Errorf("expected centres 2 apart, got %v and %v", a.Position, c.Position)
	}
	if b.Events() != 1 {
		t.Errorf("expected 1 event, got %d", b.Events())
	}
}

func TestWallBounceNearContact(t *testing.T) {
	const eps = 1e-6
	b := New(100, 0, []particle.Particle{p(1, 49-eps, 0, 1, 0, 1, 1)})

	ev, err := b.Predict()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindWall || math.Abs(ev.Time-eps) > 1e-12 {
		t.Fatalf("expected wall event after ≈%v, got %v after %v", eps, ev.Kind, ev.Time)
	}

	if _, err := b.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := b.Particle(1)
	if got.Velocity != physics.Vec(-1, 0) {
		t.Errorf("expected velocity (-1, 0), got %v", got.Velocity)
	}
}

func TestWallBounceTinyGap(t *testing.T) {
	for _, gap := range []float64{1e-8, 1e-9} {
		b := New(100, 0, []particle.Particle{p(1, 49-gap, 0, 1, 0, 1, 1)})

		ev, err := b.Predict()
		if err != nil {
			t.Fatalf("gap %v: unexpected error: %v", gap, err)
		}
		want, ok := WallTime(p(1, 49-gap, 0, 1, 0, 1, 1), 50)
		if !ok {
			t.Fatalf("gap %v: expected a wall time", gap)
		}
		if ev.Kind != KindWall || ev.Time != want {
			t.Fatalf("gap %v: expected wall event after %v, got %v after %v", gap, want, ev.Kind, ev.Time)
		}
		if math.Abs(ev.Time-gap) > gap*1e-6 {
			t.Errorf("gap %v: expected Δt ≈ gap, got %v", gap, ev.Time)
		}

		if _, err := b.Step(); err != nil {
			t.Fatalf("gap %v: unexpected error: %v", gap, err)
		}
		got, _ := b.Particle(1)
		if got.Velocity != physics.Vec(-1, 0) {
			t.Errorf("gap %v: expected velocity (-1, 0), got %v", gap, got.Velocity)
		}
		if math.Abs(b.Time()-gap) > gap*1e-6 {
			t.Errorf("gap %v: expected clock at ≈%v, got %v", gap, gap, b.Time())
		}
	}
}

func TestObstacleIgnoredWhenReceding(t *testing.T) {
	// Just inside the obstacle surface after rounding, moving away.
	q := p(1, 6-1e-13, 0, 0.01, 0, 1, 1)
	if dt, ok := ObstacleTime(q, 5); ok {
		t.Errorf("expected no obstacle event for a receding particle, got %v", dt)
	}
	if dt, ok := ObstacleTime(p(1, 20, 0, -2, 0, 1, 1), 5); !ok || dt != 7 {
		t.Errorf("expected obstacle after 7, got %v %v", dt, ok)
	}
}

func TestObstacleBounce(t *testing.T) {
	b := New(100, 5, []particle.Particle{p(3, 20, 0, -2, 0, 2, 1)})

	ev, err := b.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindObstacle || ev.String() != "3 O" {
		t.Fatalf("expected obstacle event, got %v", ev)
	}
	if ev.Time != 7 {
		t.Errorf("expected Δt=7, got %v", ev.Time)
	}
	if ev.Impulse != 8 {
		t.Errorf("expected impulse 2·m·|v|=8, got %v", ev.Impulse)
	}
	got, _ := b.Particle(3)
	if got.Velocity != physics.Vec(2, 0) {
		t.Errorf("expected velocity (2, 0), got %v", got.Velocity)
	}
}

func TestObstacleDisabled(t *testing.T) {
	b := New(100, 0, []particle.Particle{p(1, 20, 0, -1, 0, 1, 1)})
	ev, err := b.Predict()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindWall || ev.Time != 69 {
		t.Errorf("expected wall event after 69, got %v after %v", ev.Kind, ev.Time)
	}
}

func TestSimultaneousEventsResolvedOneAtATime(t *testing.T) {
	b := New(100, 0, []particle.Particle{
		p(2, -40, 0, -1, 0, 1, 1),
		p(1, 40, 0, 1, 0, 1, 1),
	})

	want := []struct {
		line string
		dt   float64
		at   float64
	}{
		{"1 W", 9, 9},
		{"2 W", 0, 9},
		{"1 2", 48, 57},
	}

	for i, w := range want {
		ev, err := b.Step()
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if ev.String() != w.line || ev.Time != w.dt || ev.At != w.at {
			t.Errorf("step %d: expected %q Δt=%v at=%v, got %q Δt=%v at=%v",
				i, w.line, w.dt, w.at, ev.String(), ev.Time, ev.At)
		}
	}
}

func TestGuardSkipsRepeatedEvent(t *testing.T) {
	b := New(100, 0, []particle.Particle{
		p(1, 49, 0, 1, 0, 1, 1),
		p(2, 0, 10, 0, 1, 1, 1),
	})
	b.last = Event{Kind: KindWall, A: 1}
	b.hasLast = true

	ev, err := b.Predict()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Same(Event{Kind: KindWall, A: 1}) {
		t.Fatalf("expected the just-executed wall event to be skipped")
	}
	if ev.Kind != KindWall || ev.A != 2 || ev.Time != 39 {
		t.Errorf("expected 2 W after 39, got %v after %v", ev, ev.Time)
	}
}

func TestNoEvent(t *testing.T) {
	b := New(100, 0, []particle.Particle{
		p(1, 10, 0, 0, 0, 1, 1),
		p(2, -10, 0, 0, 0, 1, 1),
	})
	if _, err := b.Step(); !errors.Is(err, ErrNoEvent) {
		t.Errorf("expected ErrNoEvent, got %v", err)
	}
	if b.Events() != 0 || b.Time() != 0 {
		t.Errorf("expected the board to stay untouched")
	}
}

func TestBounceAtOriginIsFatal(t *testing.T) {
	// A zero-radius container puts the wall on the origin.
	b := New(2, 0, []particle.Particle{p(1, -0.5, 0, 1, 0, 1, 1)})
	_, err := b.Step()
	if !errors.Is(err, physics.ErrZeroVector) {
		t.Errorf("expected ErrZeroVector, got %v", err)
	}
}

func TestParticlesAreCopies(t *testing.T) {
	b := New(100, 0, []particle.Particle{p(1, 0, 0, 1, 0, 1, 1)})
	ps := b.Particles()
	ps[0].Position = physics.Vec(30, 30)

	got, _ := b.Particle(1)
	if got.Position != physics.Vec(0, 0) {
		t.Errorf("expected board state to be unaffected, got %v", got.Position)
	}

	moved := b.Extrapolate(2)
	if moved[0].Position != physics.Vec(2, 0) {
		t.Errorf("expected extrapolated position (2, 0), got %v", moved[0].Position)
	}
	got, _ = b.Particle(1)
	if got.Position != physics.Vec(0, 0) {
		t.Errorf("expected Extrapolate to leave the board untouched, got %v", got.Position)
	}
}

func TestInvariantsOverManySteps(t *testing.T) {
	const (
		diameter = 40.0
		obstacle = 2.0
		radius   = 0.5
		steps    = 2000
		tol      = 1e-9
	)
	b := latticeBoard(42, diameter, obstacle, radius, 3)
	if b.Len() < 20 {
		t.Fatalf("expected a populated board, got %d particles", b.Len())
	}

	energy := b.KineticEnergy()
	lastTime := 0.0

	for i := 0; i < steps; i++ {
		before := b.Particles()
		ev, err := b.Step()
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}

		if ev.Time < 0 || b.Time() < lastTime {
			t.Fatalf("step %d: time went backwards (Δt=%v)", i, ev.Time)
		}
		lastTime = b.Time()

		if ev.Kind == KindPair {
			after := b.Particles()
			var mb, ma physics.Vector
			for _, q := range before {
				if q.ID == ev.A || q.ID == ev.B {
					mb = mb.Add(q.Momentum())
				}
			}
			for _, q := range after {
				if q.ID == ev.A || q.ID == ev.B {
					ma = ma.Add(q.Momentum())
				}
			}
			if mb.Sub(ma).Magnitude() > tol*math.Max(1, mb.Magnitude()) {
				t.Fatalf("step %d: pair momentum changed %v -> %v", i, mb, ma)
			}
		}

		for _, q := range b.Particles() {
			d := q.Position.Magnitude()
			if d > diameter/2-q.Radius+tol {
				t.Fatalf("step %d: particle %d escaped the container (d=%v)", i, q.ID, d)
			}
			if d < obstacle+q.Radius-tol {
				t.Fatalf("step %d: particle %d entered the obstacle (d=%v)", i, q.ID, d)
			}
		}
	}

	if got := b.KineticEnergy(); math.Abs(got-energy) > 1e-9*energy {
		t.Errorf("energy drifted from %v to %v", energy, got)
	}
	if b.Events() != steps {
		t.Errorf("expected %d events, got %d", steps, b.Events())
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	b1 := latticeBoard(7, 30, 1, 0.4, 2.5)
	b2 := latticeBoard(7, 30, 1, 0.4, 2.5)

	for i := 0; i < 500; i++ {
		e1, err1 := b1.Step()
		e2, err2 := b2.Step()
		if err1 != nil || err2 != nil {
			t.Fatalf("step %d: unexpected errors %v, %v", i, err1, err2)
		}
		if e1 != e2 {
			t.Fatalf("step %d: events diverged: %+v vs %+v", i, e1, e2)
		}
	}

	p1, p2 := b1.Particles(), b2.Particles()
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Errorf("particle %d diverged: %v vs %v", p1[i].ID, p1[i], p2[i])
		}
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: KindWall, A: 12}, "12 W"},
		{Event{Kind: KindObstacle, A: 0}, "0 O"},
		{Event{Kind: KindPair, A: 3, B: 40}, "3 40"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
