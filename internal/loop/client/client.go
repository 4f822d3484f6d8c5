// Package client renders a shared simulation to one terminal and forwards
// the viewer's playback keys to the server.
package client

import (
	"bufio"
	"io"
	"time"

	"github.com/tomz197/hardisks/internal/draw"
	"github.com/tomz197/hardisks/internal/input"
	"github.com/tomz197/hardisks/internal/loop/config"
	"github.com/tomz197/hardisks/internal/loop/server"
)

// Client handles rendering and input for a single connection.
type Client struct {
	server       server.SimServer
	handle       *server.ClientHandle
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
	watchForever bool
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	// WatchForever disables the inactivity warning and disconnect.
	WatchForever bool
}

// NewClient creates a new client connected to the given server.
func NewClient(ss server.SimServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := fitSquare(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewSize, config.ViewSize)
	canvas.SetOffset(offsetCol, offsetRow)

	return &Client{
		server:       ss,
		handle:       ss.RegisterClient(opts.Username),
		state:        NewClientState(),
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		inputStream:  input.StartStream(r),
		lastInput:    time.Now(),
		termSizeFunc: termSizeFunc,
		watchForever: opts.WatchForever,
	}
}

// Run starts the client loop. Blocks until the viewer quits or the server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()
		c.updateScreen()

		if c.state.ViewState == ViewStateShutdown {
			c.state.shutdownTimer -= c.state.delta.Seconds()
			if c.state.shutdownTimer <= 0 {
				c.state.Running = false
			}
		}

		if err := c.drawFrame(); err != nil {
			c.server.UnregisterClient(c.handle.ID)
			return err
		}

		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads input and forwards playback commands to the server.
func (c *Client) processInput() {
	in := input.ReadInput(c.inputStream)
	c.state.Input = in

	idle := time.Since(c.lastInput).Seconds()
	switch {
	case len(in.Pressed) > 0:
		c.lastInput = time.Now()
		c.state.isInactive = false
		c.state.ShowHelp = false
	case c.watchForever:
	case idle > config.InactivityDisconnectUser:
		c.state.Running = false
	case idle > config.InactivityWarnUser:
		c.state.isInactive = true
	}

	if in.Pause%2 == 1 {
		c.server.SendCommand(server.CommandPause)
	}
	for range in.Faster {
		c.server.SendCommand(server.CommandFaster)
	}
	for range in.Slower {
		c.server.SendCommand(server.CommandSlower)
	}
	if in.Restart {
		c.server.SendCommand(server.CommandRestart)
		if c.state.ViewState == ViewStateEnded {
			c.state.ViewState = ViewStateWatching
			c.state.EndErr = nil
		}
	}

	// A closed stream means the terminal or session went away.
	if in.Quit || c.inputStream.Closed() {
		c.state.Running = false
	}
}

// processServerEvents handles events from the server.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventSimulationEnded:
				if c.state.ViewState != ViewStateShutdown {
					c.state.ViewState = ViewStateEnded
					c.state.EndErr = event.Err
				}
			case server.EventServerShutdown:
				c.state.ViewState = ViewStateShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize. On actual size changes the terminal is
// cleared to remove residual pixels outside the new canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := fitSquare(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.Resize(renderWidth, renderHeight)
		c.canvas.SetOffset(offsetCol, offsetRow)
		c.canvas.ForceRedraw()
		c.chunkWriter.SetOffset(offsetCol, offsetRow)
	}
}

// fitSquare picks the largest render area with square sub-pixels that fits the
// terminal and the max render resolution, and centers it. A terminal cell
// holds two sub-pixels stacked vertically, so a square board needs twice as
// many columns as rows.
func fitSquare(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	availWidth := min(termWidth, config.MaxTermWidth)
	availHeight := min(termHeight, config.MaxTermHeight)

	renderHeight = min(availHeight, availWidth/2)
	renderWidth = renderHeight * 2
	renderHeight = max(renderHeight, 0)
	renderWidth = max(renderWidth, 0)

	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}
