package systems

import (
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// radiusSlack widens the k-d tree search slightly so rounding in the squared
// distance can never drop an agent the exact test would keep.
const radiusSlack = 1 + 1e-9

// KDTreeIndex answers radius queries with a gonum k-d tree rebuilt each tick.
type KDTreeIndex struct {
	agents []AgentState
	tree   *kdtree.Tree
}

// Build rebuilds the tree from the snapshot.
func (x *KDTreeIndex) Build(agents []AgentState) {
	x.agents = agents
	if len(agents) == 0 {
		x.tree = nil
		return
	}
	pts := make(agentPoints, len(agents))
	for i := range agents {
		pts[i] = agentPoint{index: i, pos: agents[i].Pos}
	}
	x.tree = kdtree.New(pts, false)
}

// Candidates appends the indices of agents within radius (plus slack) of
// agents[self], sorted ascending.
func (x *KDTreeIndex) Candidates(dst []int, self int, radius float64) []int {
	if x.tree == nil || radius <= 0 || self < 0 || self >= len(x.agents) {
		return dst
	}
	r := radius * radiusSlack
	keep := kdtree.NewDistKeeper(r * r)
	x.tree.NearestSet(keep, agentPoint{index: -1, pos: x.agents[self].Pos})

	start := len(dst)
	for _, c := range keep.Heap {
		p, ok := c.Comparable.(agentPoint)
		if !ok || p.index == self {
			continue
		}
		dst = append(dst, p.index)
	}
	slices.Sort(dst[start:])
	return dst
}

// agentPoint is a kdtree.Comparable carrying the agent's flock index.
type agentPoint struct {
	index int
	pos   r3.Vec
}

func (p agentPoint) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return p.pos.X
	case 1:
		return p.pos.Y
	default:
		return p.pos.Z
	}
}

// Compare returns the signed distance of p from the plane through c perpendicular to d.
func (p agentPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord(d) - c.(agentPoint).coord(d)
}

// Dims returns the number of dimensions.
func (p agentPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, matching kdtree.Point.
func (p agentPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.pos, c.(agentPoint).pos))
}

// agentPoints implements kdtree.Interface.
type agentPoints []agentPoint

func (p agentPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p agentPoints) Len() int                      { return len(p) }
func (p agentPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(agentPlane{dim: d, agentPoints: p}, kdtree.MedianOfMedians(agentPlane{dim: d, agentPoints: p}))
}
func (p agentPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// agentPlane sorts points along one dimension; it implements kdtree.SortSlicer.
type agentPlane struct {
	dim kdtree.Dim
	agentPoints
}

func (p agentPlane) Less(i, j int) bool {
	return p.agentPoints[i].coord(p.dim) < p.agentPoints[j].coord(p.dim)
}
func (p agentPlane) Swap(i, j int) {
	p.agentPoints[i], p.agentPoints[j] = p.agentPoints[j], p.agentPoints[i]
}
func (p agentPlane) Slice(start, end int) kdtree.SortSlicer {
	p.agentPoints = p.agentPoints[start:end]
	return p
}
