package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/config"
	"github.com/tomz197/hardisks/internal/frame"
	"github.com/tomz197/hardisks/internal/loop"
	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/particlefile"
	"github.com/tomz197/hardisks/internal/trace"
)

type options struct {
	particlesPath string
	tracePath     string
	dir           string
	size          int
	every         int64
	maxEvents     int64
}

func main() {
	var o options
	flag.StringVar(&o.particlesPath, "particles", "particles.txt", "particle file")
	flag.StringVar(&o.tracePath, "trace", "", "render the frames of this trace instead of simulating")
	flag.StringVar(&o.dir, "dir", "frames", "output directory")
	flag.IntVar(&o.size, "size", 512, "image side in pixels")
	flag.Int64Var(&o.every, "every", 1, "render every k-th event")
	flag.Int64Var(&o.maxEvents, "max-events", 1000, "events to simulate when no trace is given")
	flag.Parse()

	logger := config.NewLogger("render")
	if err := run(logger, o); err != nil {
		logger.Fatal("render failed", "err", err)
	}
}

func run(logger *log.Logger, o options) error {
	if o.every < 1 {
		return fmt.Errorf("-every must be at least 1, got %d", o.every)
	}
	setup, err := particlefile.ReadFile(o.particlesPath)
	if err != nil {
		return err
	}
	r, err := frame.NewRenderer(o.size)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}

	d := &dumper{renderer: r, dir: o.dir, every: o.every, setup: setup}
	if o.tracePath != "" {
		err = d.fromTrace(o.tracePath)
	} else {
		err = d.fromSimulation(o.maxEvents)
	}
	logger.Info("frames written", "dir", o.dir, "count", d.written)
	return err
}

// dumper writes one numbered PNG per k-th event.
type dumper struct {
	renderer *frame.Renderer
	dir      string
	every    int64
	setup    *particlefile.Setup
	seen     int64
	written  int
	err      error
}

func (d *dumper) save(s frame.Scene) error {
	d.seen++
	if (d.seen-1)%d.every != 0 {
		return nil
	}
	path := filepath.Join(d.dir, fmt.Sprintf("frame_%06d.png", d.written))
	if err := d.renderer.SaveFile(path, s); err != nil {
		return err
	}
	d.written++
	return nil
}

func (d *dumper) scene(t float64, ps []particle.Particle, last *board.Event) frame.Scene {
	return frame.Scene{
		Radius:         d.setup.Diameter / 2,
		ObstacleRadius: d.setup.ObstacleRadius,
		Particles:      ps,
		Time:           t,
		Last:           last,
	}
}

// Observe renders the board right after an event, highlighting it.
func (d *dumper) Observe(ev board.Event, b *board.Board) {
	if d.err != nil {
		return
	}
	d.err = d.save(d.scene(ev.At, b.Particles(), &ev))
}

func (d *dumper) fromSimulation(maxEvents int64) error {
	if err := d.setup.Validate(); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b := board.New(d.setup.Diameter, d.setup.ObstacleRadius, d.setup.Particles)
	if err := d.save(d.scene(0, b.Particles(), nil)); err != nil {
		return err
	}
	if _, err := loop.Run(ctx, b, nil, loop.StopCondition{MaxEvents: maxEvents}, d); err != nil {
		return err
	}
	return d.err
}

// fromTrace renders the state at the start of every frame.
func (d *dumper) fromTrace(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	radii := make(map[int64]particle.Particle, len(d.setup.Particles))
	for _, p := range d.setup.Particles {
		radii[p.ID] = p
	}

	r := trace.NewReader(bufio.NewReader(f))
	for {
		fr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		ps := make([]particle.Particle, len(fr.States))
		for i, s := range fr.States {
			ref := radii[s.ID]
			ps[i] = particle.New(s.ID, s.Position, s.Velocity, ref.Mass, ref.Radius)
		}
		if err := d.save(d.scene(fr.Time, ps, nil)); err != nil {
			return err
		}
	}
}
