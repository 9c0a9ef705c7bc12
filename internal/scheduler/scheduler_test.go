package scheduler

import (
	"errors"
	"testing"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
	"sandfall/internal/rules"
	"sandfall/internal/world"
	"sandfall/pkg/core"
)

// scatter builds a 3x3-chunk world with terrain, a dungeon room and loose
// material spread over the air above the surface.
func scatter(t *testing.T, seed int64) *world.Grid {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Width, cfg.Height = 3, 3
	cfg.Seed = seed
	cfg.SurfaceLevel = 0.5
	g := world.Generate(cfg, nil)

	rng := core.NewRNG(seed)
	loose := []particle.ID{particle.Sand, particle.Water, particle.Steam, particle.Lava, particle.Acid, particle.Dirt}
	for y := 0; y < 30; y++ {
		for x := 0; x < 3*chunk.Size; x++ {
			if rng.Chance(0.3) {
				id := loose[rng.IntN(len(loose))]
				if err := g.Place(x, y, id); err != nil {
					t.Fatalf("Place: %v", err)
				}
			}
		}
	}
	return g
}

func run(t *testing.T, s *Scheduler, ticks int) {
	t.Helper()
	for i := 0; i < ticks; i++ {
		if _, err := s.Step(); err != nil {
			t.Fatalf("tick %d: %v", s.Tick()+1, err)
		}
	}
}

func TestMassConservedWithoutPhaseChanges(t *testing.T) {
	g := scatter(t, 11)
	s := New(g, rules.New(g.Table(), rules.Options{}), Config{Workers: 4, Seed: 5}, nil)
	before := g.Composition()
	for i := 0; i < 80; i++ {
		run(t, s, 1)
		if after := g.Composition(); after != before {
			t.Fatalf("tick %d changed composition:\nbefore %v\nafter  %v", s.Tick(), before, after)
		}
	}
}

func TestUnbreakableCellsNeverChange(t *testing.T) {
	g := scatter(t, 12)
	if err := g.Place(40, 20, particle.UnbreakableDungeon); err != nil {
		t.Fatal(err)
	}
	type pos struct{ x, y int }
	var dungeon []pos
	for y := 0; y < 3*chunk.Size; y++ {
		for x := 0; x < 3*chunk.Size; x++ {
			if g.CellAt(x, y).Material == particle.UnbreakableDungeon {
				dungeon = append(dungeon, pos{x, y})
			}
		}
	}
	s := New(g, rules.New(g.Table(), rules.DefaultOptions()), Config{Workers: 3, Seed: 1}, nil)
	run(t, s, 100)
	for _, p := range dungeon {
		if got := g.CellAt(p.x, p.y); got.Material != particle.UnbreakableDungeon || got.LastTick != 0 {
			t.Fatalf("dungeon cell (%d,%d) changed: %+v", p.x, p.y, got)
		}
	}
	if g.Composition()[particle.UnbreakableDungeon] != len(dungeon) {
		t.Fatal("dungeon cell count changed")
	}
}

func TestDeterministicAcrossWorkerCounts(t *testing.T) {
	a, b := scatter(t, 21), scatter(t, 21)
	sa := New(a, rules.New(a.Table(), rules.DefaultOptions()), Config{Workers: 1, Seed: 9}, nil)
	sb := New(b, rules.New(b.Table(), rules.DefaultOptions()), Config{Workers: 8, Seed: 9}, nil)
	run(t, sa, 60)
	run(t, sb, 60)
	for _, c := range a.Coords() {
		ca, _ := a.GetMut(c)
		cb, ok := b.GetMut(c)
		if !ok {
			t.Fatalf("chunk %v missing in second run", c)
		}
		if *ca.Cells() != *cb.Cells() {
			t.Fatalf("chunk %v diverged between worker counts", c)
		}
		if ca.Generation() != cb.Generation() || ca.Active() != cb.Active() {
			t.Fatalf("chunk %v bookkeeping diverged", c)
		}
	}
}

func TestNoCellMovesTwicePerTick(t *testing.T) {
	g := world.New(nil)
	for cy := int32(0); cy < 2; cy++ {
		for cx := int32(0); cx < 2; cx++ {
			g.GetOrCreate(chunk.Coord{X: cx, Y: cy})
		}
	}
	// Temperature is untouched without phase changes, so it tags each grain.
	type pos struct{ x, y int }
	where := map[float32]pos{}
	tag := float32(1)
	for y := 0; y < 20; y += 2 {
		for x := 0; x < 2*chunk.Size; x += 3 {
			if err := g.SetCell(x, y, particle.Cell{Material: particle.Sand, Temperature: tag}); err != nil {
				t.Fatal(err)
			}
			where[tag] = pos{x, y}
			tag++
		}
	}
	s := New(g, rules.New(g.Table(), rules.Options{}), Config{Workers: 4, Seed: 2}, nil)
	for i := 0; i < 70; i++ {
		run(t, s, 1)
		seen := 0
		for y := 0; y < 2*chunk.Size; y++ {
			for x := 0; x < 2*chunk.Size; x++ {
				c := g.CellAt(x, y)
				if c.IsAir() {
					continue
				}
				seen++
				prev, ok := where[c.Temperature]
				if !ok {
					t.Fatalf("unknown grain %v at (%d,%d)", c.Temperature, x, y)
				}
				if dx, dy := x-prev.x, y-prev.y; dx < -1 || dx > 1 || dy < -1 || dy > 1 {
					t.Fatalf("tick %d: grain %v jumped from %v to (%d,%d)", s.Tick(), c.Temperature, prev, x, y)
				}
				where[c.Temperature] = pos{x, y}
			}
		}
		if seen != len(where) {
			t.Fatalf("tick %d: saw %d grains, want %d", s.Tick(), seen, len(where))
		}
	}
}

func TestSettledWorldGoesIdle(t *testing.T) {
	g := world.New(nil)
	if err := g.Place(3, 3, particle.Sand); err != nil {
		t.Fatal(err)
	}
	s := New(g, rules.New(g.Table(), rules.DefaultOptions()), Config{Workers: 2}, nil)
	run(t, s, 40)
	rep, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	if rep.Collected != 0 || rep.Touched != 0 {
		t.Fatalf("settled world still evaluated: %+v", rep)
	}
	if g.CellAt(3, chunk.Size-1).Material != particle.Sand {
		t.Fatal("sand did not settle on the chunk floor")
	}
	ch, _ := g.GetMut(chunk.Coord{})
	if r, ok := ch.Dirty(); !ok || !r.Contains(3, 3) || !r.Contains(3, chunk.Size-1) {
		t.Fatalf("dirty rect does not cover the fall: %+v", r)
	}
}

func TestFocusRadiusLimitsEvaluation(t *testing.T) {
	g := world.New(nil)
	for _, c := range []chunk.Coord{{X: 0, Y: 0}, {X: 10, Y: 0}} {
		x, y := c.WorldOrigin()
		if err := g.Place(x+1, y+1, particle.Sand); err != nil {
			t.Fatal(err)
		}
	}
	s := New(g, rules.New(g.Table(), rules.Options{}), Config{Workers: 2, ActiveRadius: 2}, nil)
	s.SetFocus(chunk.Coord{})
	run(t, s, 3)
	if got := g.CellAt(10*chunk.Size+1, 1).Material; got != particle.Sand {
		t.Fatalf("chunk outside the radius was evaluated (found %s)", got)
	}
	if got := g.CellAt(1, 4).Material; got != particle.Sand {
		t.Fatalf("chunk inside the radius did not advance (found %s)", got)
	}
}

// faulty wraps an evaluator and panics on one tick.
type faulty struct {
	inner  rules.Evaluator
	tick   uint64
	target chunk.Coord
	armed  bool
}

func (f *faulty) Evaluate(w *chunk.Window, tick uint64, rng *core.RNG) rules.Result {
	res := f.inner.Evaluate(w, tick, rng)
	if f.armed && tick == f.tick && w.Center().Origin() == f.target {
		panic(&rules.InvariantViolation{Chunk: f.target, Reason: "injected"})
	}
	return res
}

func TestFaultHaltsAndRollsBack(t *testing.T) {
	g := scatter(t, 31)
	f := &faulty{inner: rules.New(g.Table(), rules.DefaultOptions()), tick: 3, target: chunk.Coord{X: 1, Y: 1}, armed: true}
	s := New(g, f, Config{Workers: 4, Seed: 3, Transactional: true}, nil)
	run(t, s, 2)

	before := map[chunk.Coord][chunk.Area]particle.Cell{}
	gens := map[chunk.Coord]uint64{}
	for _, c := range g.Coords() {
		ch, _ := g.GetMut(c)
		before[c] = *ch.Cells()
		gens[c] = ch.Generation()
	}

	_, err := s.Step()
	var iv *rules.InvariantViolation
	var fault *Fault
	if !errors.As(err, &iv) || !errors.As(err, &fault) || fault.Tick != 3 {
		t.Fatalf("expected wrapped invariant violation, got %v", err)
	}
	if s.State() != Halted || s.Tick() != 2 {
		t.Fatalf("state=%v tick=%d after fault", s.State(), s.Tick())
	}
	for _, c := range g.Coords() {
		ch, _ := g.GetMut(c)
		if *ch.Cells() != before[c] || ch.Generation() != gens[c] {
			t.Fatalf("chunk %v not rolled back", c)
		}
	}
	if _, err := s.Step(); !errors.Is(err, ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}

	f.armed = false
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	run(t, s, 1)
	if s.Tick() != 3 {
		t.Fatalf("tick after resume = %d", s.Tick())
	}
}

func TestFaultWithoutRollbackCannotResume(t *testing.T) {
	g := scatter(t, 32)
	f := &faulty{inner: rules.New(g.Table(), rules.DefaultOptions()), tick: 1, target: chunk.Coord{X: 0, Y: 0}, armed: true}
	s := New(g, f, Config{Workers: 2}, nil)
	if _, err := s.Step(); err == nil {
		t.Fatal("expected fault")
	}
	if err := s.Resume(); !errors.Is(err, ErrHalted) {
		t.Fatalf("expected ErrHalted from Resume, got %v", err)
	}
}

func TestPartitionSeparatesNeighbours(t *testing.T) {
	var coords []chunk.Coord
	for y := int32(-3); y <= 3; y++ {
		for x := int32(-3); x <= 3; x++ {
			coords = append(coords, chunk.Coord{X: x, Y: y})
		}
	}
	groups, err := partition(coords)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	total := 0
	for p, group := range groups {
		total += len(group)
		for i, a := range group {
			for _, b := range group[i+1:] {
				dx, dy := a.X-b.X, a.Y-b.Y
				if dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1 {
					t.Fatalf("phase %d holds neighbours %v and %v", p, a, b)
				}
			}
		}
	}
	if total != len(coords) {
		t.Fatalf("partition lost chunks: %d of %d", total, len(coords))
	}
}
