// Package server runs one shared simulation against the wall clock and
// publishes immutable snapshots of it to any number of viewers.
package server

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hardisks/internal/loop/config"
)

// SimServer is the interface clients use to talk to the simulation server.
// It decouples the Client from the concrete Server implementation.
type SimServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	SendCommand(cmd Command)
	GetSnapshot() *Snapshot
}

// SourceFunc creates a fresh source. It is called once at start and again
// on every restart.
type SourceFunc func() (Source, error)

// Options configures a Server.
type Options struct {
	Speed  float64     // Simulated seconds per second, config.DefaultSpeed if 0
	Logger *log.Logger // Nil disables logging
}

// Server owns the simulation. Only the Run goroutine touches the source.
type Server struct {
	newSource SourceFunc
	source    Source
	logger    *log.Logger

	snapshot     atomic.Pointer[Snapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	commandCh    chan Command
	registerCh   chan *ClientHandle
	unregisterCh chan int
	mu           sync.RWMutex

	simTime float64
	speed   float64
	paused  bool
	frame   Frame
	done    bool
	err     error
}

var _ SimServer = (*Server)(nil)

// ClientHandle represents a client's connection to the server.
type ClientHandle struct {
	ID       int
	Username string
	EventsCh chan ClientEvent
}

// Command is a playback control sent by a client. Commands affect every
// viewer of the shared simulation.
type Command int

const (
	CommandPause   Command = iota // Toggle pause
	CommandFaster                 // Double the speed
	CommandSlower                 // Halve the speed
	CommandRestart                // Start over from a fresh source
)

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type ClientEventType
	Err  error // Cause of EventSimulationEnded, nil for a normal end
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventSimulationEnded ClientEventType = iota
	EventServerShutdown
)

// NewServer creates a server and its first source.
func NewServer(newSource SourceFunc, opts Options) (*Server, error) {
	source, err := newSource()
	if err != nil {
		return nil, err
	}

	speed := opts.Speed
	if speed <= 0 {
		speed = config.DefaultSpeed
	}

	s := &Server{
		newSource:    newSource,
		source:       source,
		logger:       opts.Logger,
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		commandCh:    make(chan Command, 64),
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
		speed:        speed,
	}

	s.advance()
	s.createSnapshot()
	return s, nil
}

// Run starts the server loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.closeSource()
			return
		default:
		}

		frameStart := time.Now()
		s.tick(frameStart.Sub(lastTime))
		lastTime = frameStart

		elapsed := time.Since(frameStart)
		if elapsed < config.ServerTickTime {
			time.Sleep(config.ServerTickTime - elapsed)
		}
	}
}

// tick runs one server iteration covering delta of wall-clock time.
func (s *Server) tick(delta time.Duration) {
	s.processRegistrations()
	s.collectCommands()

	if !s.paused && !s.done {
		s.simTime += delta.Seconds() * s.speed
		s.advance()
	}

	s.createSnapshot()
}

// advance brings the source to the current clock.
func (s *Server) advance() {
	frame, err := s.source.AdvanceTo(s.simTime)
	s.frame = frame
	s.simTime = frame.Time

	switch {
	case err != nil:
		s.finish(err)
		if s.logger != nil {
			s.logger.Error("simulation stopped", "time", frame.Time, "events", frame.Events, "err", err)
		}
	case frame.Done:
		s.finish(nil)
		if s.logger != nil {
			s.logger.Info("playback finished", "time", frame.Time, "events", frame.Events)
		}
	}
}

func (s *Server) finish(err error) {
	s.done = true
	s.err = err

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventSimulationEnded, Err: err}:
		default:
		}
	}
}

// restart replaces the source with a fresh one and rewinds the clock.
func (s *Server) restart() {
	source, err := s.newSource()
	if err != nil {
		if s.logger != nil {
			s.logger.Error("restart failed", "err", err)
		}
		return
	}

	s.closeSource()
	s.source = source
	s.simTime = 0
	s.done = false
	s.err = nil
	s.advance()
	if s.logger != nil {
		s.logger.Info("simulation restarted")
	}
}

// closeSource releases a source that holds an open file.
func (s *Server) closeSource() {
	c, ok := s.source.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil && s.logger != nil {
		s.logger.Warn("closing source", "err", err)
	}
}

// Shutdown notifies all connected clients and waits for them to disconnect,
// up to the given timeout. The caller should cancel the server context after
// Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.RLock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.clients)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the server.
func (s *Server) UnregisterClient(clientID int) {
	s.unregisterCh <- clientID
}

// SendCommand queues a playback command.
func (s *Server) SendCommand(cmd Command) {
	select {
	case s.commandCh <- cmd:
	default:
		// Command channel full, drop it
	}
}

// GetSnapshot returns the current snapshot.
func (s *Server) GetSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			if s.done {
				select {
				case handle.EventsCh <- ClientEvent{Type: EventSimulationEnded, Err: s.err}:
				default:
				}
			}
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				close(handle.EventsCh)
				delete(s.clients, clientID)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// collectCommands applies all pending commands.
func (s *Server) collectCommands() {
	for {
		select {
		case cmd := <-s.commandCh:
			switch cmd {
			case CommandPause:
				s.paused = !s.paused
			case CommandFaster:
				s.speed = min(s.speed*config.SpeedFactor, config.MaxSpeed)
			case CommandSlower:
				s.speed = max(s.speed/config.SpeedFactor, config.MinSpeed)
			case CommandRestart:
				s.restart()
			}
		default:
			return
		}
	}
}

// createSnapshot publishes the current state.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	clients := len(s.clients)
	s.mu.RUnlock()

	s.snapshot.Store(&Snapshot{
		Time:           s.frame.Time,
		Events:         s.frame.Events,
		Particles:      s.frame.Particles,
		Radius:         s.source.Radius(),
		ObstacleRadius: s.source.ObstacleRadius(),
		LastEvent:      s.frame.LastEvent,
		HasLast:        s.frame.HasLast,
		Speed:          s.speed,
		Paused:         s.paused,
		Done:           s.done,
		Err:            s.err,
		Clients:        clients,
	})
}
