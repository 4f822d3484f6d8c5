package main

import (
	"flag"
	"time"

	"github.com/tomz197/hardisks/internal/config"
	"github.com/tomz197/hardisks/internal/generator"
	"github.com/tomz197/hardisks/internal/particlefile"
)

func main() {
	var (
		c       generator.Config
		outPath string
	)
	flag.Float64Var(&c.Diameter, "diameter", 0.1, "container diameter")
	flag.Float64Var(&c.ObstacleRadius, "obstacle-radius", 0, "radius of the central obstacle, 0 for none")
	flag.IntVar(&c.Count, "count", 201, "number of particles")
	flag.Float64Var(&c.Mass, "mass", 1, "particle mass")
	flag.Float64Var(&c.Radius, "radius", 0.0005, "particle radius")
	flag.Float64Var(&c.Speed, "speed", 0.01, "initial speed of every particle")
	flag.Int64Var(&c.Seed, "seed", time.Now().UnixNano(), "random seed")
	flag.IntVar(&c.MaxAttempts, "max-attempts", generator.DefaultMaxAttempts, "placement retries per particle")
	flag.StringVar(&outPath, "out", "particles.txt", "output particle file")
	flag.Parse()

	logger := config.NewLogger("generate")

	setup, err := generator.Generate(c)
	if err != nil {
		logger.Fatal("generation failed", "err", err)
	}
	if err := particlefile.WriteFile(outPath, setup); err != nil {
		logger.Fatal("writing particle file", "path", outPath, "err", err)
	}

	logger.Info("particles written",
		"path", outPath,
		"count", len(setup.Particles),
		"diameter", c.Diameter,
		"obstacle", c.ObstacleRadius,
		"seed", c.Seed,
	)
}
