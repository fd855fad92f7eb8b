package systems

import (
	"fmt"
	"strings"
)

// Neighbour strategy names accepted by NewNeighborIndex.
const (
	StrategyNaive  = "naive"
	StrategyGrid   = "grid"
	StrategyKDTree = "kdtree"
)

// NeighborIndex narrows the set of agents an update has to look at.
//
// Build is called once per tick with that tick's snapshot. Candidates must
// then be safe to call from several goroutines at once, must return every
// agent within radius of agents[self] (extra agents are allowed, the flocking
// rules apply the exact distance test), and must return them in ascending
// index order so sums are accumulated in the same order as a full scan.
type NeighborIndex interface {
	Build(agents []AgentState)
	Candidates(dst []int, self int, radius float64) []int
}

// NewNeighborIndex returns the index for the named strategy.
func NewNeighborIndex(strategy string, halfExtent float64) (NeighborIndex, error) {
	switch strings.ToLower(strategy) {
	case "", StrategyNaive:
		return &NaiveIndex{}, nil
	case StrategyGrid:
		return NewSpatialGrid(halfExtent), nil
	case StrategyKDTree:
		return &KDTreeIndex{}, nil
	}
	return nil, fmt.Errorf("unknown neighbor strategy %q", strategy)
}

// NaiveIndex returns every agent as a candidate: the O(n²) full scan.
type NaiveIndex struct {
	n int
}

// Build records the flock size.
func (x *NaiveIndex) Build(agents []AgentState) {
	x.n = len(agents)
}

// Candidates appends every index except self.
func (x *NaiveIndex) Candidates(dst []int, self int, _ float64) []int {
	for j := 0; j < x.n; j++ {
		if j != self {
			dst = append(dst, j)
		}
	}
	return dst
}
