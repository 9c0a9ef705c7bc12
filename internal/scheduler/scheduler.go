package scheduler

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
	"sandfall/internal/rules"
	"sandfall/internal/world"
	"sandfall/pkg/core"
)

// State is the scheduler's position in the per-tick state machine.
type State uint8

const (
	Idle State = iota
	CollectActive
	Partition
	ParallelEvaluate
	Commit
	MarkDirty
	Halted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CollectActive:
		return "collect-active"
	case Partition:
		return "partition"
	case ParallelEvaluate:
		return "parallel-evaluate"
	case Commit:
		return "commit"
	case MarkDirty:
		return "mark-dirty"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// ErrHalted is returned by Step once a tick has faulted.
var ErrHalted = errors.New("scheduler: halted")

// Fault wraps a panic or error raised while evaluating one chunk.
type Fault struct {
	Tick  uint64
	Chunk chunk.Coord
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("tick %d chunk %v: %v", f.Tick, f.Chunk, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Config controls the worker pool and tick behaviour.
type Config struct {
	// Workers bounds the goroutines evaluating one phase. Zero or less uses
	// GOMAXPROCS.
	Workers int
	Seed    int64
	// Transactional snapshots every chunk a tick may write so a faulted tick
	// can be rolled back and resumed.
	Transactional bool
	// ActiveRadius limits evaluation to chunks within this Chebyshev
	// distance of the focus. Zero means unlimited; it has no effect until
	// SetFocus is called.
	ActiveRadius int
}

// Report summarises one tick.
type Report struct {
	Tick        uint64
	Collected   int
	Phases      [phases]int
	Touched     int
	Moves       int
	Reactions   int
	Transitions int
	Elapsed     time.Duration
}

// Scheduler drives the rule engine over the grid one tick at a time. Step
// must be called from a single goroutine; the grid must not be mutated while
// Step runs.
type Scheduler struct {
	grid *world.Grid
	eval rules.Evaluator
	cfg  Config
	log  *zap.Logger

	tick     uint64
	state    State
	err      error
	rollback bool

	focus    chunk.Coord
	hasFocus bool
}

// New builds a scheduler. A nil logger is replaced by a no-op logger.
func New(grid *world.Grid, eval rules.Evaluator, cfg Config, log *zap.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{grid: grid, eval: eval, cfg: cfg, log: log}
}

// Tick returns the number of the last committed tick.
func (s *Scheduler) Tick() uint64 { return s.tick }

// State returns the current state machine position.
func (s *Scheduler) State() State { return s.state }

// Err returns the fault that halted the scheduler, if any.
func (s *Scheduler) Err() error { return s.err }

// Workers returns the size of the worker pool.
func (s *Scheduler) Workers() int { return s.cfg.Workers }

// SetFocus restricts evaluation to chunks around c when ActiveRadius is set.
func (s *Scheduler) SetFocus(c chunk.Coord) {
	s.focus = c
	s.hasFocus = true
}

// ClearFocus removes the focus restriction.
func (s *Scheduler) ClearFocus() { s.hasFocus = false }

// Resume leaves the halted state after a transactional rollback. A fault
// without rollback leaves the grid in an unknown state and cannot be resumed.
func (s *Scheduler) Resume() error {
	if s.state != Halted {
		return nil
	}
	if !s.rollback {
		return fmt.Errorf("%w: tick %d was not rolled back: %w", ErrHalted, s.tick+1, s.err)
	}
	s.log.Info("scheduler resumed", zap.Uint64("tick", s.tick))
	s.state = Idle
	s.err = nil
	s.rollback = false
	return nil
}

// Step runs one full tick. A tick either commits completely or faults; after
// a fault the scheduler stays halted and every further Step returns
// ErrHalted.
func (s *Scheduler) Step() (Report, error) {
	if s.state == Halted {
		return Report{}, fmt.Errorf("%w: %w", ErrHalted, s.err)
	}
	start := time.Now()
	tick := s.tick + 1
	rep := Report{Tick: tick}

	s.state = CollectActive
	active := s.collect()
	rep.Collected = len(active)

	s.state = Partition
	groups, err := partition(active)
	if err != nil {
		return rep, s.halt(tick, err, nil)
	}
	for i, g := range groups {
		rep.Phases[i] = len(g)
	}

	var snap map[chunk.Coord]*[chunk.Area]particle.Cell
	if s.cfg.Transactional {
		snap = s.snapshot(active)
	}

	s.state = ParallelEvaluate
	changed := make(map[chunk.Coord]chunk.Rect)
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		results, err := s.evaluate(group, tick)
		if err != nil {
			return rep, s.halt(tick, err, snap)
		}
		for i, res := range results {
			s.merge(group[i], &res, changed)
			rep.Moves += res.Moves
			rep.Reactions += res.Reactions
			rep.Transitions += res.Transitions
		}
	}

	s.state = Commit
	for c, r := range changed {
		if ch, ok := s.grid.GetMut(c); ok {
			ch.Commit(r)
		}
	}
	rep.Touched = len(changed)

	s.state = MarkDirty
	for _, c := range active {
		if _, ok := changed[c]; ok {
			continue
		}
		if ch, ok := s.grid.GetMut(c); ok {
			ch.Settle()
		}
	}

	s.tick = tick
	s.state = Idle
	rep.Elapsed = time.Since(start)
	s.log.Debug("tick committed",
		zap.Uint64("tick", tick),
		zap.Int("collected", rep.Collected),
		zap.Int("touched", rep.Touched),
		zap.Int("moves", rep.Moves),
		zap.Int("reactions", rep.Reactions),
		zap.Duration("elapsed", rep.Elapsed),
	)
	return rep, nil
}

// collect returns, in row-major order, every chunk that is active or borders
// an active chunk, limited to the focus radius when one is set.
func (s *Scheduler) collect() []chunk.Coord {
	var out []chunk.Coord
	for _, c := range s.grid.Coords() {
		if !s.inRange(c) {
			continue
		}
		if s.wants(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Scheduler) wants(c chunk.Coord) bool {
	if ch, ok := s.grid.GetMut(c); ok && ch.Active() {
		return true
	}
	for _, off := range world.NeighborOffsets {
		if ch, ok := s.grid.GetMut(c.Add(off[0], off[1])); ok && ch.Active() {
			return true
		}
	}
	return false
}

func (s *Scheduler) inRange(c chunk.Coord) bool {
	if !s.hasFocus || s.cfg.ActiveRadius <= 0 {
		return true
	}
	r := int32(s.cfg.ActiveRadius)
	dx, dy := c.X-s.focus.X, c.Y-s.focus.Y
	return dx >= -r && dx <= r && dy >= -r && dy <= r
}

// evaluate runs one phase on the worker pool. Results are indexed like group.
func (s *Scheduler) evaluate(group []chunk.Coord, tick uint64) ([]rules.Result, error) {
	results := make([]rules.Result, len(group))
	var eg errgroup.Group
	eg.SetLimit(s.cfg.Workers)
	for i, c := range group {
		eg.Go(func() error {
			return s.evaluateChunk(c, tick, &results[i])
		})
	}
	return results, eg.Wait()
}

func (s *Scheduler) evaluateChunk(c chunk.Coord, tick uint64, out *rules.Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &Fault{Tick: tick, Chunk: c, Err: cause}
		}
	}()
	w := s.grid.Window(c)
	rng := core.Derive(s.cfg.Seed, tick, coordKey(c))
	*out = s.eval.Evaluate(&w, tick, rng)
	return nil
}

func coordKey(c chunk.Coord) uint64 {
	return uint64(uint32(c.X))<<32 | uint64(uint32(c.Y))
}

// merge folds one chunk's per-slot change rects into the tick-wide map.
func (s *Scheduler) merge(center chunk.Coord, res *rules.Result, changed map[chunk.Coord]chunk.Rect) {
	for slot, r := range res.Changed {
		if r.Empty() {
			continue
		}
		c := center.Add(int32(slot%3-1), int32(slot/3-1))
		if prev, ok := changed[c]; ok {
			r = prev.Union(r)
		}
		changed[c] = r
	}
}

// snapshot copies the cells of every chunk a tick may write: the collected
// chunks and their loaded neighbours.
func (s *Scheduler) snapshot(active []chunk.Coord) map[chunk.Coord]*[chunk.Area]particle.Cell {
	snap := make(map[chunk.Coord]*[chunk.Area]particle.Cell)
	save := func(c chunk.Coord) {
		if _, ok := snap[c]; ok {
			return
		}
		if ch, ok := s.grid.GetMut(c); ok {
			cells := *ch.Cells()
			snap[c] = &cells
		}
	}
	for _, c := range active {
		save(c)
		for _, off := range world.NeighborOffsets {
			save(c.Add(off[0], off[1]))
		}
	}
	return snap
}

func (s *Scheduler) halt(tick uint64, err error, snap map[chunk.Coord]*[chunk.Area]particle.Cell) error {
	s.state = Halted
	s.err = err
	if snap != nil {
		for c, cells := range snap {
			if ch, ok := s.grid.GetMut(c); ok {
				ch.Restore(cells)
			}
		}
		s.rollback = true
	}
	s.log.Error("tick aborted",
		zap.Uint64("tick", tick),
		zap.Bool("rolled_back", s.rollback),
		zap.Error(err),
	)
	return err
}
