package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/geom"
)

// parallelThreshold is the minimum car count to use parallel sensing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// carSnapshot captures the read-only state a worker needs to sense for one car.
type carSnapshot struct {
	Entity   ecs.Entity
	ID       uint32
	Pose     components.Pose
	Observer controls.Observer // nil if the source ignores readings
	Readings []*geom.Reading   // reused buffer from the Sensor component
}

// senseResult is one car's rays and readings, applied after the parallel phase.
type senseResult struct {
	Rays     []geom.Segment
	Readings []*geom.Reading
}

// workChunk represents a range of cars for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel sensing.
// Each car's network is owned by that car alone, so workers never share
// mutable state: they read the obstacle index and write their own result slot.
type parallelState struct {
	snapshots  []carSnapshot
	results    []senseResult
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState() *parallelState {
	return &parallelState{
		numWorkers: runtime.GOMAXPROCS(0),
		snapshots:  make([]carSnapshot, 0, 128),
		results:    make([]senseResult, 0, 128),
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
		go p.worker(g)
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
func (p *parallelState) worker(g *Game) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.senseChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// updateSensorsParallel senses for every network-driven car and runs its network.
func (g *Game) updateSensorsParallel() {
	// Phase A: Build snapshots (single-threaded)
	g.parallel.snapshots = g.parallel.snapshots[:0]

	query := g.carFilter.Query()
	for query.Next() {
		agent, pose, _, _ := query.Get()
		if agent.Kind != components.KindAI {
			continue
		}

		entity := query.Entity()
		obs, _ := g.driverMap.Get(entity).Source.(controls.Observer)
		g.parallel.snapshots = append(g.parallel.snapshots, carSnapshot{
			Entity:   entity,
			ID:       agent.ID,
			Pose:     *pose,
			Observer: obs,
			Readings: g.sensorMap.Get(entity).Readings,
		})
	}

	n := len(g.parallel.snapshots)
	if n == 0 {
		return
	}

	if cap(g.parallel.results) < n {
		g.parallel.results = make([]senseResult, n)
	}
	g.parallel.results = g.parallel.results[:n]

	// Phase B: Compute - choose single or parallel based on car count
	if n < parallelThreshold {
		g.senseChunk(0, n)
	} else {
		g.senseParallel(n)
	}

	// Phase C: Apply results (single-threaded)
	for i, snap := range g.parallel.snapshots {
		sensor := g.sensorMap.Get(snap.Entity)
		sensor.Rays = g.parallel.results[i].Rays
		sensor.Readings = g.parallel.results[i].Readings
	}
}

// senseParallel dispatches work to the worker pool.
func (g *Game) senseParallel(n int) {
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

// senseChunk processes a range of cars for a single worker.
func (g *Game) senseChunk(i0, i1 int) {
	rig := g.sensors.Rig()
	index := g.index

	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]
		res := &g.parallel.results[i]

		res.Rays, res.Readings = rig.Sense(snap.ID, snap.Pose, index, snap.Readings)
		if snap.Observer != nil {
			snap.Observer.Observe(res.Readings)
		}
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
