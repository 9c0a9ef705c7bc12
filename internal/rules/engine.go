package rules

import (
	"fmt"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
	"sandfall/pkg/core"
)

// Options toggles rule families.
type Options struct {
	// PhaseChanges enables reactions, thermal and moisture thresholds and
	// lifetime decay. With it off only movement rules run and material counts
	// are conserved.
	PhaseChanges bool
}

// DefaultOptions enables every rule family.
func DefaultOptions() Options { return Options{PhaseChanges: true} }

// Result reports what one chunk evaluation changed. Changed holds, per window
// slot, the local rect of cells written; the scheduler merges them into chunk
// bookkeeping after the phase barrier.
type Result struct {
	Changed     [9]chunk.Rect
	Moves       int
	Reactions   int
	Transitions int
}

func newResult() Result {
	var r Result
	for i := range r.Changed {
		r.Changed[i] = chunk.EmptyRect()
	}
	return r
}

// Any reports whether any cell was written.
func (r *Result) Any() bool {
	for _, c := range r.Changed {
		if !c.Empty() {
			return true
		}
	}
	return false
}

// InvariantViolation is a programming fault inside the rule engine: an
// unbreakable cell was targeted, or a cell was claimed twice in one tick. It
// is raised with panic and recovered by the scheduler.
type InvariantViolation struct {
	Chunk    chunk.Coord
	X, Y     int
	Material particle.ID
	Reason   string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation at chunk %v (%d,%d) on %s: %s", e.Chunk, e.X, e.Y, e.Material, e.Reason)
}

// Evaluator advances the centre chunk of a window by one tick.
type Evaluator interface {
	Evaluate(w *chunk.Window, tick uint64, rng *core.RNG) Result
}

// Engine is the cellular automaton transition function. It holds only
// read-only configuration and is safe for concurrent use.
type Engine struct {
	table *particle.Table
	opts  Options
}

// New returns an engine over the given table. A nil table selects
// particle.Default().
func New(table *particle.Table, opts Options) *Engine {
	if table == nil {
		table = particle.Default()
	}
	return &Engine{table: table, opts: opts}
}

// Table returns the material table the engine reads.
func (e *Engine) Table() *particle.Table { return e.table }

// Options returns the engine options.
func (e *Engine) Options() Options { return e.opts }

// Evaluate runs every rule over the centre chunk of w. It writes the centre
// chunk and at most a one-cell ring of its neighbours, and never touches
// chunk bookkeeping. Rows run bottom-up; the column direction alternates per
// row and per tick.
func (e *Engine) Evaluate(w *chunk.Window, tick uint64, rng *core.RNG) Result {
	p := pass{
		table: e.table,
		opts:  e.opts,
		w:     w,
		tick:  tick,
		rng:   rng,
		res:   newResult(),
	}
	if w.Center() == nil {
		return p.res
	}
	for y := chunk.Size - 1; y >= 0; y-- {
		if (tick+uint64(y))&1 == 0 {
			for x := 0; x < chunk.Size; x++ {
				p.step(x, y)
			}
		} else {
			for x := chunk.Size - 1; x >= 0; x-- {
				p.step(x, y)
			}
		}
	}
	return p.res
}

// ref points at one cell of the window.
type ref struct {
	cell *particle.Cell
	slot int
	x, y int
}

// pass is the state of one chunk evaluation.
type pass struct {
	table *particle.Table
	opts  Options
	w     *chunk.Window
	tick  uint64
	rng   *core.RNG
	res   Result
}

// at resolves a centre-relative position. The returned ref has a nil cell
// when the owning chunk is not loaded.
func (p *pass) at(x, y int) ref {
	slot, lx, ly := chunk.Resolve(x, y)
	ch := p.w[slot]
	if ch == nil {
		return ref{slot: slot, x: lx, y: ly}
	}
	return ref{cell: &ch.Cells()[chunk.Index(lx, ly)], slot: slot, x: lx, y: ly}
}

func (p *pass) touch(r ref) {
	p.res.Changed[r.slot] = p.res.Changed[r.slot].Include(r.x, r.y)
}

func (p *pass) claimed(c *particle.Cell) bool {
	return c.LastTick == p.tick && !c.IsAir()
}

// claim panics when r may not be written this tick.
func (p *pass) claim(r ref, reason string) {
	c := r.cell
	switch {
	case p.table.Props(c.Material).Unbreakable:
		panic(p.violation(r, reason+": unbreakable target"))
	case p.claimed(c):
		panic(p.violation(r, reason+": cell already claimed this tick"))
	}
}

func (p *pass) violation(r ref, reason string) *InvariantViolation {
	v := &InvariantViolation{X: r.x, Y: r.y, Reason: reason}
	if ch := p.w[r.slot]; ch != nil {
		v.Chunk = ch.Origin()
	}
	if r.cell != nil {
		v.Material = r.cell.Material
	}
	return v
}

// swap moves the cell at from into to and the displaced cell back. The mover
// is stamped, and so is a displaced non-Air cell.
func (p *pass) swap(from, to ref) {
	p.claim(to, "swap")
	*from.cell, *to.cell = *to.cell, *from.cell
	to.cell.LastTick = p.tick
	if !from.cell.IsAir() {
		from.cell.LastTick = p.tick
	}
	p.touch(from)
	p.touch(to)
	p.res.Moves++
}

// become replaces the cell at r with a fresh cell of material into,
// optionally carrying over temperature or moisture.
func (p *pass) become(r ref, into particle.ID, keepTemperature, keepMoisture bool) {
	p.claim(r, "transition")
	old := *r.cell
	next := p.table.New(into)
	if keepTemperature {
		next.Temperature = old.Temperature
	}
	if keepMoisture {
		next.Moisture = old.Moisture
	}
	if !next.IsAir() {
		next.LastTick = p.tick
	}
	*r.cell = next
	p.touch(r)
}

func (p *pass) step(x, y int) {
	self := p.at(x, y)
	c := self.cell
	if c.IsAir() || p.claimed(c) {
		return
	}
	props := p.table.Props(c.Material)
	if props.Unbreakable {
		return
	}
	if p.opts.PhaseChanges && props.Lifetime > 0 && p.age(self, props) {
		return
	}
	if props.Movable() {
		if p.fall(self, x, y, props) {
			return
		}
		if props.Fluid() && p.flow(self, x, y, props) {
			return
		}
	}
	if p.opts.PhaseChanges {
		p.transform(self, x, y, props)
	}
}
