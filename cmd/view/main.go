package main

import (
	"bufio"
	"context"
	"flag"
	"os"

	"golang.org/x/term"

	"github.com/tomz197/hardisks/internal/config"
	"github.com/tomz197/hardisks/internal/loop/client"
	"github.com/tomz197/hardisks/internal/loop/server"
	"github.com/tomz197/hardisks/internal/particlefile"
)

func main() {
	var (
		particlesPath string
		tracePath     string
		speed         float64
	)
	flag.StringVar(&particlesPath, "particles", "particles.txt", "particle file")
	flag.StringVar(&tracePath, "trace", "", "replay this trace instead of simulating live")
	flag.Float64Var(&speed, "speed", 0, "simulated seconds per second")
	flag.Parse()

	logger := config.NewLogger("view")

	setup, err := particlefile.ReadFile(particlesPath)
	if err != nil {
		logger.Fatal("reading particles", "err", err)
	}
	if err := setup.Validate(); err != nil {
		logger.Fatal("invalid particle file", "path", particlesPath, "err", err)
	}

	source := server.LiveSource(setup)
	if tracePath != "" {
		source = server.ReplaySource(tracePath, setup)
	}
	// The terminal is in raw mode while the server runs, so it does not log.
	sim, err := server.NewServer(source, server.Options{Speed: speed})
	if err != nil {
		logger.Fatal("starting simulation", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sim.Run(ctx)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Fatal("failed to enable raw mode", "err", err)
	}

	c := client.NewClient(sim, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{WatchForever: true})
	runErr := c.Run()
	_ = term.Restore(fd, oldState)

	if runErr != nil {
		logger.Fatal("viewer error", "err", runErr)
	}
	if snap := sim.GetSnapshot(); snap.Err != nil {
		logger.Error("simulation stopped", "time", snap.Time, "events", snap.Events, "err", snap.Err)
	}
}
