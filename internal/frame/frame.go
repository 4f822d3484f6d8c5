// Package frame rasterizes the board to PNG images.
package frame

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gogpu/gg"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/particle"
)

// MinSize is the smallest accepted image side in pixels.
const MinSize = 16

var ErrInvalidSize = errors.New("frame size too small")

// Scene is what one image shows.
type Scene struct {
	Radius         float64 // Container radius
	ObstacleRadius float64
	Particles      []particle.Particle
	Time           float64
	Last           *board.Event // Participants are highlighted when set
}

// Palette, components in [0, 1].
var (
	background = gg.RGB(0.04, 0.04, 0.07)
	wallColor  = [3]float64{0.85, 0.85, 0.85}
	obstacle   = [3]float64{0.45, 0.45, 0.5}
	gas        = [3]float64{0.2, 0.8, 1}
	highlight  = [3]float64{1, 0.85, 0.1}
)

// Renderer draws square images of a fixed size.
type Renderer struct {
	size   int
	margin float64
}

// NewRenderer creates a renderer for size×size images.
func NewRenderer(size int) (*Renderer, error) {
	if size < MinSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrInvalidSize, size, MinSize)
	}
	return &Renderer{size: size, margin: math.Max(2, float64(size)/64)}, nil
}

// Size returns the image side in pixels.
func (r *Renderer) Size() int {
	return r.size
}

// Encode draws s and writes it to w as PNG.
func (r *Renderer) Encode(w io.Writer, s Scene) error {
	dc := gg.NewContext(r.size, r.size)
	defer dc.Close()

	if err := r.draw(dc, s); err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SaveFile draws s into a PNG file at path.
func (r *Renderer) SaveFile(path string, s Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f, s); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func (r *Renderer) draw(dc *gg.Context, s Scene) error {
	dc.ClearWithColor(background)
	if s.Radius <= 0 {
		return nil
	}

	half := float64(r.size) / 2
	scale := (half - r.margin) / s.Radius
	toImage := func(x, y float64) (float64, float64) {
		return half + x*scale, half - y*scale
	}

	dc.SetLineWidth(math.Max(1, float64(r.size)/256))
	setRGB(dc, wallColor)
	dc.DrawCircle(half, half, s.Radius*scale)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("draw wall: %w", err)
	}

	if s.ObstacleRadius > 0 {
		setRGB(dc, obstacle)
		dc.DrawCircle(half, half, s.ObstacleRadius*scale)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("draw obstacle: %w", err)
		}
	}

	for _, p := range s.Particles {
		col := gas
		if s.Last != nil && involved(*s.Last, p.ID) {
			col = highlight
		}
		setRGB(dc, col)

		x, y := toImage(p.Position.X, p.Position.Y)
		dc.DrawCircle(x, y, math.Max(1, p.Radius*scale))
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("draw particle %d: %w", p.ID, err)
		}
	}
	return nil
}

func setRGB(dc *gg.Context, c [3]float64) {
	dc.SetRGB(c[0], c[1], c[2])
}

func involved(ev board.Event, id int64) bool {
	return ev.A == id || (ev.Kind == board.KindPair && ev.B == id)
}
