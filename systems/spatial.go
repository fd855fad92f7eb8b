package systems

import (
	"math"
	"slices"
)

// maxGridCells caps the number of cells along one axis so a tiny perception
// radius cannot blow up the grid's memory.
const maxGridCells = 32

// SpatialGrid buckets agents into uniform cubic cells covering the world.
// The world is not treated as toroidal here: neighbour distances in the
// flocking rules are plain Euclidean, so the query box is clamped at the faces.
type SpatialGrid struct {
	half     float64
	cellSize float64
	cols     int // cells per axis
	cells    [][]int
	agents   []AgentState
}

// NewSpatialGrid creates a grid covering [-halfExtent, +halfExtent]³.
// Cell size is chosen on Build from the largest perception radius.
func NewSpatialGrid(halfExtent float64) *SpatialGrid {
	return &SpatialGrid{half: halfExtent}
}

// Build clears the grid and inserts every agent.
func (g *SpatialGrid) Build(agents []AgentState) {
	g.agents = agents

	var maxRadius float64
	for i := range agents {
		if r := agents[i].Behavior.PerceptionRadius; r > maxRadius {
			maxRadius = r
		}
	}
	g.resize(maxRadius)

	// Clear
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}

	for i := range agents {
		p := agents[i].Pos
		idx := g.cellIndex(g.axisCell(p.X), g.axisCell(p.Y), g.axisCell(p.Z))
		g.cells[idx] = append(g.cells[idx], i)
	}
}

// resize picks a cell size of at least radius and reallocates when the layout changes.
func (g *SpatialGrid) resize(radius float64) {
	extent := 2 * g.half
	cellSize := math.Max(radius, extent/maxGridCells)
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(extent / cellSize))
	if cols < 1 {
		cols = 1
	}
	if cols == g.cols && g.cells != nil {
		g.cellSize = cellSize
		return
	}

	g.cellSize = cellSize
	g.cols = cols
	g.cells = make([][]int, cols*cols*cols)
	for i := range g.cells {
		g.cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}
}

// Candidates appends the indices of all agents in cells overlapping the
// query cube around agents[self], sorted ascending.
func (g *SpatialGrid) Candidates(dst []int, self int, radius float64) []int {
	if radius <= 0 || self < 0 || self >= len(g.agents) {
		return dst
	}
	start := len(dst)
	p := g.agents[self].Pos

	x0, x1 := g.axisCell(p.X-radius), g.axisCell(p.X+radius)
	y0, y1 := g.axisCell(p.Y-radius), g.axisCell(p.Y+radius)
	z0, z1 := g.axisCell(p.Z-radius), g.axisCell(p.Z+radius)

	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for cz := z0; cz <= z1; cz++ {
				for _, j := range g.cells[g.cellIndex(cx, cy, cz)] {
					if j != self {
						dst = append(dst, j)
					}
				}
			}
		}
	}

	slices.Sort(dst[start:])
	return dst
}

// axisCell returns the cell coordinate for one axis, clamped to the grid.
func (g *SpatialGrid) axisCell(v float64) int {
	c := int(math.Floor((v + g.half) / g.cellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

// cellIndex returns the flat index for a cell coordinate.
func (g *SpatialGrid) cellIndex(cx, cy, cz int) int {
	return (cz*g.cols+cy)*g.cols + cx
}
