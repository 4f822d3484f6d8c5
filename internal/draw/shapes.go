package draw

import "math"

// DrawCircle draws the outline of a circle given in logical coordinates.
// With unequal axis scales the circle is drawn as the matching ellipse.
func (c *Canvas) DrawCircle(center Point, radius float64) {
	rx := radius * c.scaleX
	ry := radius * c.scaleY
	if rx < 0.5 && ry < 0.5 {
		c.SetFloat(center.X, center.Y)
		return
	}

	cx := center.X * c.scaleX
	cy := center.Y * c.scaleY

	// About one step per sub-pixel, a multiple of 4 so the extreme points are hit.
	steps := max(int(math.Ceil(2*math.Pi*math.Max(rx, ry))), 8)
	steps = (steps + 3) / 4 * 4
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		c.setPixel(int(math.Round(cx+rx*math.Cos(a))), int(math.Round(cy+ry*math.Sin(a))))
	}
}

// FillCircle fills a disk given in logical coordinates. Disks smaller than a
// sub-pixel still set the pixel under their centre.
func (c *Canvas) FillCircle(center Point, radius float64) {
	rx := radius * c.scaleX
	ry := radius * c.scaleY
	cx := center.X * c.scaleX
	cy := center.Y * c.scaleY

	if rx < 0.5 && ry < 0.5 {
		c.setPixel(int(math.Round(cx)), int(math.Round(cy)))
		return
	}

	yStart := int(math.Ceil(cy - ry - 0.5))
	yEnd := int(math.Floor(cy + ry - 0.5))
	for y := yStart; y <= yEnd; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		if dy*dy > 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		xStart := int(math.Ceil(cx - half - 0.5))
		xEnd := int(math.Floor(cx + half - 0.5))
		for x := xStart; x <= xEnd; x++ {
			c.setPixel(x, y)
		}
	}
}
