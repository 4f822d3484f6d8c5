package physics

import "math"

// SpatialGrid is a uniform grid over the square [-extent, extent]² used to
// find nearby circles without checking every pair.
// Items are inserted by position and index; QueryAround visits the 3x3 cell
// neighbourhood of a point.
//
// Cell size must be >= the largest interaction distance (for equal disks,
// twice the radius) so every candidate neighbour falls in the neighbourhood.
type SpatialGrid struct {
	extent      float64
	invCellSize float64
	cols        int
	cells       [][]int
}

// NewSpatialGrid creates a grid covering a square of half-width extent.
func NewSpatialGrid(extent, cellSize float64) *SpatialGrid {
	cols := int(math.Ceil(2 * extent / cellSize))
	if cols < 1 {
		cols = 1
	}
	return &SpatialGrid{
		extent:      extent,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		cells:       make([][]int, cols*cols),
	}
}

// Clear removes all items without releasing cell memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds the item index at position p.
func (g *SpatialGrid) Insert(p Vector, index int) {
	col, row := g.cellOf(p)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], index)
}

// QueryAround calls fn for every item in the 3x3 neighbourhood of p.
// Returning true from fn stops the iteration.
func (g *SpatialGrid) QueryAround(p Vector, fn func(index int) bool) {
	col, row := g.cellOf(p)

	for r := max(row-1, 0); r <= min(row+1, g.cols-1); r++ {
		for c := max(col-1, 0); c <= min(col+1, g.cols-1); c++ {
			for _, item := range g.cells[r*g.cols+c] {
				if fn(item) {
					return
				}
			}
		}
	}
}

// cellOf maps a position to its cell, clamping points on or past the border.
func (g *SpatialGrid) cellOf(p Vector) (col, row int) {
	col = clampCell(int((p.X+g.extent)*g.invCellSize), g.cols)
	row = clampCell(int((p.Y+g.extent)*g.invCellSize), g.cols)
	return col, row
}

func clampCell(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
