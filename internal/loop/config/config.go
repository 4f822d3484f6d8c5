// Package config centralizes the tunables of the live viewers.
package config

import "time"

// View resolution of the board, in logical units. The board is square, and
// the client fits it to the largest square area the terminal allows.
const (
	ViewSize = 100.0
)

// Max render resolution in terminal cells. Larger terminals get a border.
const (
	MaxTermWidth  = 160
	MaxTermHeight = 80
)

// Playback speed in simulated seconds per wall-clock second.
const (
	DefaultSpeed = 1.0
	MinSpeed     = 1.0 / 64
	MaxSpeed     = 1024.0
	SpeedFactor  = 2.0 // Multiplier applied by each faster/slower key press
)

// MaxEventsPerTick bounds the events a server resolves in one tick so a
// dense board cannot stall snapshots. The clock catches up on later ticks.
const MaxEventsPerTick = 20000

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 30
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Server tick rate
const (
	ServerTickRate = 60
	ServerTickTime = time.Second / ServerTickRate
)
