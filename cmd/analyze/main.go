package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hardisks/internal/analysis"
	"github.com/tomz197/hardisks/internal/config"
	"github.com/tomz197/hardisks/internal/loop"
	"github.com/tomz197/hardisks/internal/particlefile"
	"github.com/tomz197/hardisks/internal/trace"
)

type options struct {
	particlesPath string
	tracePath     string
	window        float64
	from          float64
	hitsPath      string
	firstOnly     bool
	every         int
}

func main() {
	var o options
	flag.StringVar(&o.particlesPath, "particles", "particles.txt", "particle file the trace was produced from")
	flag.StringVar(&o.tracePath, "trace", "output.txt", "trace file")
	flag.Float64Var(&o.window, "window", 1, "pressure window length")
	flag.Float64Var(&o.from, "from", 0, "average pressure over windows starting at or after this time")
	flag.StringVar(&o.hitsPath, "hits", "", "write obstacle hits as \"time count\" lines to this file")
	flag.BoolVar(&o.firstOnly, "first", false, "with -hits, only the first hit of each particle")
	flag.IntVar(&o.every, "every", 1, "with -hits, keep every k-th hit")
	flag.Parse()

	logger := config.NewLogger("analyze")
	if err := run(logger, o, os.Stdout); err != nil {
		logger.Fatal("analysis failed", "err", err)
	}
}

func run(logger *log.Logger, o options, stdout io.Writer) error {
	setup, err := particlefile.ReadFile(o.particlesPath)
	if err != nil {
		return err
	}

	f, err := os.Open(o.tracePath)
	if err != nil {
		return err
	}
	defer f.Close()

	pressure, err := analysis.NewPressure(o.window, setup.Diameter, setup.ObstacleRadius)
	if err != nil {
		return err
	}
	hits := analysis.NewObstacleHits()

	n, err := analysis.FromTrace(trace.NewReader(bufio.NewReader(f)), setup, []loop.Observer{pressure, hits}...)
	if err != nil {
		return fmt.Errorf("read %s: %w", o.tracePath, err)
	}

	out := bufio.NewWriter(stdout)
	if err := analysis.WriteSamples(out, pressure.Samples()); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}

	if o.hitsPath != "" {
		series := hits.Hits()
		if o.firstOnly {
			series = hits.FirstHits()
		}
		if err := writeHits(o.hitsPath, analysis.Every(series, o.every)); err != nil {
			return err
		}
	}

	logger.Info("trace analysed", "events", n, "windows", len(pressure.Samples()),
		"obstacleHits", hits.Total(), "distinctObstacleHits", hits.Distinct())
	if wall, obstacle, ok := pressure.Average(o.from); ok {
		logger.Info("mean pressure", "from", o.from, "wall", wall, "obstacle", obstacle)
	}
	for _, fraction := range []float64{0.5, 0.9, 1} {
		if at, ok := hits.TimeToFraction(fraction, len(setup.Particles)); ok {
			logger.Info("obstacle reached", "fraction", fraction, "time", at)
		}
	}
	return nil
}

func writeHits(path string, hits []analysis.Hit) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, h := range hits {
		fmt.Fprintf(w, "%v %d\n", h.Time, h.Count)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
