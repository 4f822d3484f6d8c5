package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hardisks/internal/config"
	"github.com/tomz197/hardisks/internal/frame"
	"github.com/tomz197/hardisks/internal/loop/server"
)

const (
	defaultHost      = "0.0.0.0"
	defaultPort      = "8080"
	defaultFrameSize = 512
	maxFrameSize     = 2048
)

//go:embed index.html
var htmlPage string

func main() {
	logger := config.NewLogger("web")

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")

	setup, err := config.LoadSetup()
	if err != nil {
		logger.Fatal("loading particles", "err", err)
	}
	speed, err := config.GetEnvFloat(config.PlaybackSpeedEnv, 0)
	if err != nil {
		logger.Fatal("invalid playback speed", "err", err)
	}

	sim, err := server.NewServer(server.LiveSource(setup), server.Options{
		Speed:  speed,
		Logger: logger.WithPrefix("sim"),
	})
	if err != nil {
		logger.Fatal("starting simulation", "err", err)
	}
	simCtx, cancelSim := context.WithCancel(context.Background())
	go sim.Run(simCtx)

	srv := &http.Server{
		Addr:    net.JoinHostPort(host, port),
		Handler: newSite(sim, sshHost, logger).routes(),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	logger.Info("starting web server", "addr", "http://"+srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	sim.Shutdown(5 * time.Second)
	cancelSim()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// site serves the landing page, PNG frames and the snapshot stream.
type site struct {
	sim     server.SimServer
	sshHost string
	logger  *log.Logger
}

func newSite(sim server.SimServer, sshHost string, logger *log.Logger) *site {
	return &site{sim: sim, sshHost: sshHost, logger: logger}
}

func (s *site) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /frame.png", s.handleFrame)
	mux.HandleFunc("GET /ws", s.handleWs)
	return mux
}

func (s *site) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", s.sshHost)
	_, _ = w.Write([]byte(page))
}

// handleFrame renders the current snapshot. ?size= sets the image side.
func (s *site) handleFrame(w http.ResponseWriter, r *http.Request) {
	size := defaultFrameSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < frame.MinSize || n > maxFrameSize {
			http.Error(w, "size must be an integer between 16 and 2048", http.StatusBadRequest)
			return
		}
		size = n
	}

	renderer, err := frame.NewRenderer(size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := s.sim.GetSnapshot()
	scene := frame.Scene{
		Radius:         snap.Radius,
		ObstacleRadius: snap.ObstacleRadius,
		Particles:      snap.Particles,
		Time:           snap.Time,
	}
	if snap.HasLast {
		last := snap.LastEvent
		scene.Last = &last
	}

	var buf bytes.Buffer
	if err := renderer.Encode(&buf, scene); err != nil {
		s.logger.Error("rendering frame", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
