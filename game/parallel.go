package game

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/systems"
	"github.com/pthm-cable/boids/telemetry"
)

// defaultParallelThreshold is the minimum flock size to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const defaultParallelThreshold = 64

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	Vel r3.Vec
	Pos r3.Vec
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Candidates []int
}

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for the parallel flock pass.
type parallelState struct {
	snapshots  []systems.AgentState
	intents    []intent
	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(numWorkers int) *parallelState {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Candidates = make([]int, 0, 512)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]systems.AgentState, 0, 512),
		intents:    make([]intent, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// updateFlock advances every agent by one tick.
// Phase A snapshots the flock and rebuilds the neighbour index, phase B
// computes new state from the snapshot only, phase C writes it back in order.
// Results do not depend on how phase B is split across workers.
func (g *Game) updateFlock() {
	g.perf.StartPhase(telemetry.PhaseSnapshot)
	g.parallel.snapshots = g.flock.Snapshot(g.parallel.snapshots[:0])

	n := len(g.parallel.snapshots)
	if n == 0 {
		return
	}
	g.index.Build(g.parallel.snapshots)

	if cap(g.parallel.intents) < n {
		g.parallel.intents = make([]intent, n)
	}
	g.parallel.intents = g.parallel.intents[:n]

	g.perf.StartPhase(telemetry.PhaseFlock)
	if n < g.parallelThreshold {
		g.computeChunk(0, n, &g.parallel.scratches[0])
	} else {
		g.computeParallel(n)
	}

	g.perf.StartPhase(telemetry.PhaseApply)
	g.applyIntents()
}

// computeParallel dispatches work to the worker pool.
func (g *Game) computeParallel(n int) {
	if !g.parallel.running {
		g.parallel.startWorkers(g)
	}

	numWorkers := g.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		g.parallel.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-g.parallel.doneChan
	}
}

// applyIntents writes computed results back to the ECS components.
func (g *Game) applyIntents() {
	for i := range g.parallel.intents {
		in := &g.parallel.intents[i]
		g.flock.Set(i, in.Vel, in.Pos)
	}
}

// computeChunk processes a range of agents for a single worker.
// It reads only the snapshot, the neighbour index and the step params.
func (g *Game) computeChunk(i0, i1 int, scratch *workerScratch) {
	agents := g.parallel.snapshots
	for i := i0; i < i1; i++ {
		scratch.Candidates = g.index.Candidates(scratch.Candidates[:0], i, agents[i].Behavior.PerceptionRadius)
		in := &g.parallel.intents[i]
		in.Vel, in.Pos = systems.UpdateAgent(i, agents, scratch.Candidates, g.stepParams)
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
