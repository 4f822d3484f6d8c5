package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/hardisks/internal/analysis"
	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/config"
	"github.com/tomz197/hardisks/internal/loop"
	"github.com/tomz197/hardisks/internal/particlefile"
	"github.com/tomz197/hardisks/internal/trace"
)

func main() {
	var (
		inPath         string
		outPath        string
		maxTime        float64
		maxEvents      int64
		pressureWindow float64
	)
	flag.StringVar(&inPath, "in", "particles.txt", "input particle file")
	flag.StringVar(&outPath, "out", "output.txt", "output trace file")
	flag.Float64Var(&maxTime, "max-time", 0, "stop once the simulated time reaches this value, 0 for no limit")
	flag.Int64Var(&maxEvents, "max-events", 0, "stop after this many events, 0 for no limit")
	flag.Float64Var(&pressureWindow, "pressure-window", 0, "log the mean pressure over windows of this length, 0 to disable")
	flag.Parse()

	logger := config.NewLogger("simulate").With("run", uuid.NewString())

	stop := loop.StopCondition{MaxTime: maxTime, MaxEvents: maxEvents}
	if stop.Unbounded() {
		logger.Warn("no -max-time or -max-events, running until interrupted")
	}

	if err := run(logger, inPath, outPath, stop, pressureWindow); err != nil {
		logger.Fatal("simulation failed", "err", err)
	}
}

func run(logger *log.Logger, inPath, outPath string, stop loop.StopCondition, pressureWindow float64) error {
	setup, err := particlefile.ReadFile(inPath)
	if err != nil {
		return err
	}
	if err := setup.Validate(); err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var (
		observers []loop.Observer
		pressure  *analysis.Pressure
	)
	hits := analysis.NewObstacleHits()
	observers = append(observers, hits)
	if pressureWindow > 0 {
		pressure, err = analysis.NewPressure(pressureWindow, setup.Diameter, setup.ObstacleRadius)
		if err != nil {
			return err
		}
		observers = append(observers, pressure)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting", "in", inPath, "out", outPath, "particles", len(setup.Particles),
		"maxTime", stop.MaxTime, "maxEvents", stop.MaxEvents)

	b := board.New(setup.Diameter, setup.ObstacleRadius, setup.Particles)
	summary, runErr := loop.Run(ctx, b, trace.NewWriter(out), stop, observers...)

	logger.Info("finished",
		"events", summary.Events,
		"time", summary.Time,
		"kineticEnergy", summary.KineticEnergy,
		"obstacleHits", hits.Total(),
		"distinctObstacleHits", hits.Distinct(),
	)
	if pressure != nil {
		pressure.Flush(summary.Time)
		if wall, obstacle, ok := pressure.Average(0); ok {
			logger.Info("pressure", "windows", len(pressure.Samples()), "wall", wall, "obstacle", obstacle)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		logger.Warn("interrupted, trace is complete up to the last event")
		return nil
	}
	if runErr != nil {
		return runErr
	}
	return out.Close()
}
