package game

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/systems"
)

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Candidates []int32
}

// workChunk represents a range of agents for a worker to classify.
type workChunk struct {
	start, end int
}

// parallelState holds the step snapshot and the worker pool that classifies it.
// Workers read only snapshots and write only their own zones slots.
type parallelState struct {
	snapshots  []systems.AgentSnapshot
	zones      []components.Zones
	predator   r2.Vec // predator position at step start
	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// newParallelState sizes the pool. workers <= 0 means one per CPU.
func newParallelState(workers int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, workers)
	for i := range scratches {
		scratches[i].Candidates = make([]int32, 0, 64)
	}
	return &parallelState{
		numWorkers: workers,
		scratches:  scratches,
		snapshots:  make([]systems.AgentSnapshot, 0, 64),
		zones:      make([]components.Zones, 0, 64),
	}
}

// resize makes snapshots and zones hold n agents.
func (p *parallelState) resize(n int) {
	if cap(p.snapshots) < n {
		p.snapshots = append(p.snapshots[:cap(p.snapshots)], make([]systems.AgentSnapshot, n-cap(p.snapshots))...)
	}
	if cap(p.zones) < n {
		p.zones = make([]components.Zones, n)
	}
	p.snapshots = p.snapshots[:n]
	p.zones = p.zones[:n]
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Swarm) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
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
func (p *parallelState) worker(s *Swarm, workerID int) {
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
			s.classifyChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// classify fills p.zones for every snapshot, on the pool when it pays off.
func (s *Swarm) classify() {
	p := s.parallel
	n := len(p.snapshots)
	if n == 0 {
		return
	}

	if p.numWorkers <= 1 || n < s.cfg.Parallel.Threshold {
		s.classifyChunk(0, n, &p.scratches[0])
		return
	}
	s.classifyParallel(n)
}

// classifyParallel dispatches chunks to the worker pool and waits for all of
// them before returning.
func (s *Swarm) classifyParallel(n int) {
	p := s.parallel
	if !p.running {
		p.startWorkers(s)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// classifyChunk runs predator detection and neighbor classification for
// agents [i0, i1).
func (s *Swarm) classifyChunk(i0, i1 int, scratch *workerScratch) {
	p := s.parallel
	for i := i0; i < i1; i++ {
		z := &p.zones[i]
		snap := p.snapshots[i]

		if s.hasPredator && systems.DetectPredator(z, snap.Pos, p.predator, s.cfg.Predator.Radius) {
			continue
		}

		var candidates []int32
		if s.spatialGrid != nil {
			scratch.Candidates = s.spatialGrid.QueryInto(scratch.Candidates[:0], snap.Pos, s.radii.Attraction)
			candidates = scratch.Candidates
		}
		systems.ClassifyNeighbors(z, i, p.snapshots, candidates, s.radii)
	}
}
