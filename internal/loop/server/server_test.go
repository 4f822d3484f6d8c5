package server

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/loop/config"
	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/particlefile"
	"github.com/tomz197/hardisks/internal/physics"
	"github.com/tomz197/hardisks/internal/trace"
)

func headOnParticles() []particle.Particle {
	return []particle.Particle{
		particle.New(1, physics.Vec(5, 0), physics.Vec(-1, 0), 1, 1),
		particle.New(2, physics.Vec(-5, 0), physics.Vec(1, 0), 1, 1),
	}
}

func liveSource() (Source, error) {
	return NewLive(board.New(100, 0, headOnParticles())), nil
}

func TestLiveAdvanceTo(t *testing.T) {
	src := NewLive(board.New(100, 0, headOnParticles()))

	f, err := src.AdvanceTo(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Events != 0 || f.HasLast {
		t.Errorf("expected no event before t=4, got %d", f.Events)
	}
	if f.Particles[0].Position != physics.Vec(3, 0) {
		t.Errorf("expected particle 1 extrapolated to (3, 0), got %v", f.Particles[0].Position)
	}

	f, err = src.AdvanceTo(6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Events != 1 || !f.HasLast || f.LastEvent.String() != "1 2" {
		t.Errorf("expected the pair event to be resolved, got %d events, last %v", f.Events, f.LastEvent)
	}
	if f.Particles[0].Position != physics.Vec(3, 0) || f.Time != 6 {
		t.Errorf("expected particle 1 back at (3, 0) at t=6, got %v at %v", f.Particles[0].Position, f.Time)
	}
}

func TestLiveAdvanceToReportsCoreErrors(t *testing.T) {
	src := NewLive(board.New(100, 0, []particle.Particle{
		particle.New(1, physics.Vec(3, 0), physics.Vector{}, 1, 1),
	}))
	if _, err := src.AdvanceTo(1); !errors.Is(err, board.ErrNoEvent) {
		t.Errorf("expected ErrNoEvent, got %v", err)
	}
}

func TestServerTick(t *testing.T) {
	s, err := NewServer(liveSource, Options{Speed: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.tick(time.Second)
	snap := s.GetSnapshot()
	if snap.Time != 2 || snap.Speed != 2 {
		t.Errorf("expected t=2 at speed 2, got t=%v speed %v", snap.Time, snap.Speed)
	}
	if snap.Radius != 50 || len(snap.Particles) != 2 {
		t.Errorf("unexpected snapshot geometry: radius %v, %d particles", snap.Radius, len(snap.Particles))
	}

	s.SendCommand(CommandPause)
	s.tick(time.Second)
	if snap := s.GetSnapshot(); snap.Time != 2 || !snap.Paused {
		t.Errorf("expected paused at t=2, got t=%v paused=%v", snap.Time, snap.Paused)
	}

	s.SendCommand(CommandPause)
	s.SendCommand(CommandFaster)
	s.tick(time.Second)
	if snap := s.GetSnapshot(); snap.Time != 6 || snap.Speed != 4 || snap.Events != 1 {
		t.Errorf("expected t=6 at speed 4 after 1 event, got t=%v speed %v events %d", snap.Time, snap.Speed, snap.Events)
	}

	s.SendCommand(CommandRestart)
	s.tick(0)
	if snap := s.GetSnapshot(); snap.Time != 0 || snap.Events != 0 {
		t.Errorf("expected a restart to rewind, got t=%v events %d", snap.Time, snap.Events)
	}
}

func TestServerSpeedLimits(t *testing.T) {
	s, err := NewServer(liveSource, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 100 {
		s.SendCommand(CommandSlower)
		s.tick(0)
	}
	if got := s.GetSnapshot().Speed; got != config.MinSpeed {
		t.Errorf("expected speed clamped to %v, got %v", config.MinSpeed, got)
	}
}

func TestServerClients(t *testing.T) {
	s, err := NewServer(func() (Source, error) {
		return NewLive(board.New(100, 0, []particle.Particle{
			particle.New(1, physics.Vec(3, 0), physics.Vector{}, 1, 1),
		})), nil
	}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The board is already stuck, so a new client learns about it on registration.
	h := s.RegisterClient("alice")
	s.tick(0)
	if s.GetSnapshot().Clients != 1 {
		t.Errorf("expected 1 client, got %d", s.GetSnapshot().Clients)
	}
	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventSimulationEnded || !errors.Is(ev.Err, board.ErrNoEvent) {
			t.Errorf("expected a simulation ended event with ErrNoEvent, got %+v", ev)
		}
	default:
		t.Errorf("expected an event for the new client")
	}
	if !s.GetSnapshot().Done {
		t.Errorf("expected the snapshot to be done")
	}

	s.UnregisterClient(h.ID)
	s.tick(0)
	if _, ok := <-h.EventsCh; ok {
		t.Errorf("expected the events channel to be closed")
	}
	if s.GetSnapshot().Clients != 0 {
		t.Errorf("expected no clients, got %d", s.GetSnapshot().Clients)
	}
}

func TestServerShutdownNotifiesClients(t *testing.T) {
	s, err := NewServer(liveSource, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := s.RegisterClient("bob")
	s.tick(0)

	s.Shutdown(10 * time.Millisecond)
	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventServerShutdown {
			t.Errorf("expected shutdown event, got %+v", ev)
		}
	default:
		t.Errorf("expected a shutdown event")
	}
}

func TestReplay(t *testing.T) {
	setup := &particlefile.Setup{Diameter: 100, Particles: headOnParticles()}
	b := board.New(setup.Diameter, setup.ObstacleRadius, setup.Particles)

	var buf bytes.Buffer
	w := trace.NewWriter(&buf)
	w.WriteHeader(b.Len())
	for range 3 {
		t0, ps := b.Time(), b.Particles()
		ev, err := b.Step()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w.WriteFrame(t0, ps, ev)
	}
	w.Flush()

	rp, err := NewReplay(trace.NewReader(&buf), setup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.Radius() != 50 {
		t.Errorf("expected radius 50, got %v", rp.Radius())
	}

	f, err := rp.AdvanceTo(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Particles[0].Position != physics.Vec(3, 0) || f.Particles[0].Radius != 1 || f.Events != 0 {
		t.Errorf("unexpected frame at t=2: %+v", f)
	}

	f, _ = rp.AdvanceTo(10)
	if f.Events != 1 || f.LastEvent.String() != "1 2" || f.Particles[0].Position != physics.Vec(7, 0) {
		t.Errorf("unexpected frame at t=10: events %d last %v pos %v", f.Events, f.LastEvent, f.Particles[0].Position)
	}

	f, _ = rp.AdvanceTo(1000)
	if !f.Done || f.Time != 52 || f.Events != 2 {
		t.Errorf("expected playback to end frozen at t=52 after 2 events, got done=%v t=%v events %d", f.Done, f.Time, f.Events)
	}
}

func TestReplayMismatchedSetup(t *testing.T) {
	setup := &particlefile.Setup{Diameter: 100, Particles: headOnParticles()[:1]}
	r := trace.NewReader(bytes.NewBufferString("2\n0\n1 0 0 0 0\n2 0 0 0 0\n1 2\n"))
	if _, err := NewReplay(r, setup); err == nil {
		t.Errorf("expected an error for a particle count mismatch")
	}
}

func TestReplaySourceRestart(t *testing.T) {
	setup := &particlefile.Setup{Diameter: 100, Particles: headOnParticles()}
	b := board.New(setup.Diameter, setup.ObstacleRadius, setup.Particles)

	var buf bytes.Buffer
	w := trace.NewWriter(&buf)
	w.WriteHeader(b.Len())
	for range 3 {
		t0, ps := b.Time(), b.Particles()
		ev, _ := b.Step()
		w.WriteFrame(t0, ps, ev)
	}
	w.Flush()

	path := filepath.Join(t.TempDir(), "output.txt")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := NewServer(ReplaySource(path, setup), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.tick(6 * time.Second)
	if got := s.GetSnapshot(); got.Events != 1 || got.Time != 6 {
		t.Fatalf("expected 1 event at t=6, got %d at %v", got.Events, got.Time)
	}

	s.SendCommand(CommandRestart)
	s.tick(0)
	if got := s.GetSnapshot(); got.Events != 0 || got.Time != 0 {
		t.Errorf("expected a rewound replay, got %d events at %v", got.Events, got.Time)
	}
	s.closeSource()
}

func TestOpenReplayMissingFile(t *testing.T) {
	setup := &particlefile.Setup{Diameter: 100, Particles: headOnParticles()}
	if _, err := OpenReplay(filepath.Join(t.TempDir(), "missing.txt"), setup); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
