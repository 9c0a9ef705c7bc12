package world

import (
	"errors"
	"testing"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

func TestCellAtDoesNotCreateChunks(t *testing.T) {
	g := New(nil)
	if got := g.CellAt(-100, 4000); !got.IsAir() {
		t.Fatalf("expected air, got %+v", got)
	}
	if g.Len() != 0 {
		t.Fatalf("read created %d chunks", g.Len())
	}
	if _, ok := g.Get(chunk.Coord{X: -4, Y: 125}); ok {
		t.Fatal("unexpected chunk")
	}
}

func TestSetCellCreatesChunkAndMarksDirty(t *testing.T) {
	g := New(nil)
	if err := g.Place(-1, 33, particle.Sand); err != nil {
		t.Fatalf("Place: %v", err)
	}
	coord := chunk.Coord{X: -1, Y: 1}
	ch, ok := g.GetMut(coord)
	if !ok {
		t.Fatal("chunk not created by write")
	}
	if !ch.Active() || ch.Generation() != 1 {
		t.Fatalf("active=%v generation=%d", ch.Active(), ch.Generation())
	}
	if r, ok := ch.Dirty(); !ok || !r.Contains(31, 1) {
		t.Fatalf("dirty rect %+v", r)
	}
	if got := g.CellAt(-1, 33); got.Material != particle.Sand {
		t.Fatalf("read back %s", got.Material)
	}
}

func TestSetCellRejectsUnbreakableTargets(t *testing.T) {
	g := New(nil)
	if err := g.Place(2, 2, particle.UnbreakableDungeon); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := g.Place(2, 2, particle.Sand); !errors.Is(err, ErrUnbreakable) {
		t.Fatalf("expected ErrUnbreakable, got %v", err)
	}
	if err := g.SetCell(0, 0, particle.Cell{Material: particle.Count}); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	n, err := g.ApplyBrush(Brush{X: 2, Y: 2, Radius: 1, Shape: BrushSquare, Material: particle.Air, Replace: true})
	if err != nil {
		t.Fatalf("ApplyBrush: %v", err)
	}
	if n != 0 || g.CellAt(2, 2).Material != particle.UnbreakableDungeon {
		t.Fatalf("brush erased unbreakable cell (wrote %d)", n)
	}
}

func TestApplyBrushCircle(t *testing.T) {
	g := New(nil)
	n, err := g.ApplyBrush(Brush{X: 0, Y: 0, Radius: 2, Material: particle.Water})
	if err != nil {
		t.Fatalf("ApplyBrush: %v", err)
	}
	if n != 13 {
		t.Fatalf("circle of radius 2 wrote %d cells, want 13", n)
	}
	// Without Replace the brush leaves existing material alone.
	n, _ = g.ApplyBrush(Brush{X: 0, Y: 0, Radius: 0, Material: particle.Sand})
	if n != 0 || g.CellAt(0, 0).Material != particle.Water {
		t.Fatal("brush overwrote water without Replace")
	}
	if g.Len() != 4 {
		t.Fatalf("brush around the origin should touch 4 chunks, got %d", g.Len())
	}
}

func TestInsertRemoveAndNeighbors(t *testing.T) {
	g := New(nil)
	g.GetOrCreate(chunk.Coord{X: 0, Y: 0})
	g.GetOrCreate(chunk.Coord{X: 1, Y: 1})
	if err := g.Insert(chunk.New(chunk.Coord{X: 0, Y: 0})); !errors.Is(err, ErrDuplicateChunk) {
		t.Fatalf("expected ErrDuplicateChunk, got %v", err)
	}
	ns := g.Neighbors(chunk.Coord{X: 0, Y: 0})
	present := 0
	for _, n := range ns {
		if n.Present {
			present++
			if n.Coord != (chunk.Coord{X: 1, Y: 1}) {
				t.Fatalf("unexpected neighbour %v", n.Coord)
			}
		}
	}
	if present != 1 {
		t.Fatalf("present neighbours = %d", present)
	}

	other, _ := g.GetMut(chunk.Coord{X: 1, Y: 1})
	other.Settle()
	if _, ok := g.Remove(chunk.Coord{X: 0, Y: 0}); !ok {
		t.Fatal("Remove reported missing chunk")
	}
	if !other.Active() {
		t.Fatal("removing a chunk must wake its neighbours")
	}
	if got := g.Coords(); len(got) != 1 || got[0] != (chunk.Coord{X: 1, Y: 1}) {
		t.Fatalf("coords after remove = %v", got)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 4, 5
	a := Generate(cfg, nil)
	b := Generate(cfg, nil)
	if a.Len() != 20 || b.Len() != 20 {
		t.Fatalf("expected 20 chunks, got %d and %d", a.Len(), b.Len())
	}
	if a.Composition() != b.Composition() {
		t.Fatal("same seed produced different worlds")
	}
	comp := a.Composition()
	if comp[particle.Stone] == 0 || comp[particle.Dirt] == 0 {
		t.Fatalf("terrain bands missing: %v", comp)
	}
	// The top row sits above the surface for every column.
	for x := 0; x < cfg.Width*chunk.Size; x++ {
		if !a.CellAt(x, 0).IsAir() {
			t.Fatalf("column %d is solid at the top row", x)
		}
	}
}
