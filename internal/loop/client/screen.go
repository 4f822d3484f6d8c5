package client

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tomz197/hardisks/internal/draw"
	"github.com/tomz197/hardisks/internal/loop/config"
	"github.com/tomz197/hardisks/internal/loop/server"
)

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On view state or inactivity transitions, do a full terminal clear
	// so overlays from the previous state don't persist on screen.
	stateChanged := c.state.ViewState != c.state.prevViewState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	if stateChanged || inactiveChanged {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevViewState = c.state.ViewState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()

	snapshot := c.server.GetSnapshot()
	if snapshot != nil && snapshot.Radius > 0 {
		c.drawBoard(snapshot)
	}

	if err := c.canvas.Render(c.chunkWriter); err != nil {
		return err
	}
	if err := c.canvas.RenderBorder(c.chunkWriter); err != nil {
		return err
	}

	c.drawUI(snapshot)

	return c.chunkWriter.Flush()
}

// drawBoard draws the container, the obstacle and every particle.
func (c *Client) drawBoard(snapshot *server.Snapshot) {
	// One logical unit of margin keeps the container outline on the canvas.
	half := config.ViewSize/2 - 1
	scale := half / snapshot.Radius
	toView := func(x, y float64) draw.Point {
		return draw.Point{
			X: config.ViewSize/2 + x*scale,
			Y: config.ViewSize/2 - y*scale,
		}
	}

	center := toView(0, 0)
	c.canvas.DrawCircle(center, snapshot.Radius*scale)
	if snapshot.ObstacleRadius > 0 {
		c.canvas.FillCircle(center, snapshot.ObstacleRadius*scale)
	}

	for _, p := range snapshot.Particles {
		c.canvas.FillCircle(toView(p.Position.X, p.Position.Y), p.Radius*scale)
	}
}

// writeAt writes an overlay and marks its cells for repaint on the next frame.
func (c *Client) writeAt(col, row int, s string) {
	c.writeStyled(col, row, "", s)
}

// writeStyled is writeAt in an ANSI style. Only the visible cells are marked.
func (c *Client) writeStyled(col, row int, style, s string) {
	if row < 1 || row > c.canvas.TerminalHeight() || col < 1 {
		return
	}
	n := c.chunkWriter.WriteStyled(col, row, style, s)
	c.canvas.MarkTextDirty(col, row, n)
}

// writeCentered writes s centered on column centerX.
func (c *Client) writeCentered(centerX, row int, s string) {
	c.writeCenteredStyled(centerX, row, "", s)
}

func (c *Client) writeCenteredStyled(centerX, row int, style, s string) {
	c.writeStyled(max(centerX-len([]rune(s))/2, 1), row, style, s)
}

// drawUI draws the HUD and the overlay of the current view state.
func (c *Client) drawUI(snapshot *server.Snapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.ViewState == ViewStateShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	if snapshot != nil {
		c.drawHUD(termWidth, termHeight, snapshot)
	}

	switch {
	case c.state.ViewState == ViewStateEnded:
		c.drawEndedScreen(centerX, centerY)
	case c.state.ShowHelp:
		c.drawHelp(centerX, centerY)
	}
}

// drawHUD draws time, counters and playback state in the corners.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawHUD(termWidth, termHeight int, snapshot *server.Snapshot) {
	c.writeAt(2, 1, fmt.Sprintf("t = %-12s", strconv.FormatFloat(snapshot.Time, 'f', 3, 64)))
	c.writeAt(2, 2, fmt.Sprintf("events %-10d", snapshot.Events))

	speed, style := fmt.Sprintf("x%-8s", strconv.FormatFloat(snapshot.Speed, 'g', 4, 64)), ""
	if snapshot.Paused {
		speed, style = "PAUSED   ", draw.ColorBold
	}
	c.writeStyled(termWidth-len(speed)-1, 1, style, speed)

	if snapshot.HasLast {
		c.writeStyled(2, termHeight, draw.ColorYellow, fmt.Sprintf("last %-16s", snapshot.LastEvent.String()))
	}

	viewers := fmt.Sprintf("viewers %-4d", snapshot.Clients)
	c.writeStyled(termWidth-len(viewers)-1, termHeight, draw.ColorDim, viewers)
}

const titleStyle = draw.ColorBold + draw.ColorBrightCyan

// drawHelp lists the controls until the first key press.
func (c *Client) drawHelp(centerX, centerY int) {
	lines := []string{
		"Controls",
		"SPACE  . . .  Pause",
		"+ / Up . . .  Faster",
		"- / Down . .  Slower",
		"R  . . . . .  Restart",
		"Q  . . . . .  Quit",
	}
	top := centerY - len(lines)/2
	c.writeCenteredStyled(centerX, top, titleStyle, lines[0])
	for i, line := range lines[1:] {
		c.writeCentered(centerX, top+1+i, line)
	}
}

// drawEndedScreen explains why the simulation stopped.
func (c *Client) drawEndedScreen(centerX, centerY int) {
	title := "SIMULATION ENDED"
	if c.state.EndErr != nil {
		title = "SIMULATION FAILED"
	}
	c.writeCenteredStyled(centerX, centerY-2, titleStyle, title)

	if c.state.EndErr != nil {
		msg := c.state.EndErr.Error()
		if limit := c.canvas.TerminalWidth() - 4; limit > 3 && len(msg) > limit {
			msg = msg[:limit-3] + "..."
		}
		c.writeCentered(centerX, centerY, msg)
	}

	if time.Now().UnixMilli()/600%2 == 0 {
		c.writeCentered(centerX, centerY+2, ">>  Press R to restart, Q to quit  <<")
	} else {
		c.writeCentered(centerX, centerY+2, "                                      ")
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	c.writeCenteredStyled(centerX, centerY-2, draw.ColorBold+draw.ColorYellow, "INACTIVITY WARNING")

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	c.writeCentered(centerX, centerY, msg)
	c.writeCentered(centerX, centerY+2, "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	c.writeCenteredStyled(centerX, centerY-3, titleStyle, "SERVER SHUTTING DOWN")
	c.writeCentered(centerX, centerY-1, "The server is restarting for maintenance.")
	c.writeCentered(centerX, centerY, "Please reconnect in a moment.")

	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerX, centerY+2, fmt.Sprintf("Disconnecting in %d seconds...", remaining))
	c.writeCenteredStyled(centerX, centerY+4, draw.ColorDim, "Press Q to disconnect now")
}
