package client

import (
	"time"

	"github.com/tomz197/hardisks/internal/input"
)

// ViewState represents the current phase of a client.
type ViewState int

const (
	ViewStateWatching ViewState = iota // Simulation on screen
	ViewStateEnded                     // Simulation finished or failed, last frame frozen
	ViewStateShutdown                  // Server is shutting down
)

// ClientState holds per-viewer state.
type ClientState struct {
	Input         input.Input
	ViewState     ViewState
	prevViewState ViewState
	EndErr        error // Why the simulation ended, nil for a normal end
	ShowHelp      bool
	Running       bool
	delta         time.Duration
	shutdownTimer float64 // Countdown before auto-disconnect on shutdown
	isInactive    bool
	wasInactive   bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		ViewState: ViewStateWatching,
		ShowHelp:  true,
		Running:   true,
	}
}
