package chunk

import (
	"errors"
	"testing"

	"sandfall/internal/particle"
)

func TestFromWorldFloorsNegativePositions(t *testing.T) {
	cases := []struct {
		x, y   int
		coord  Coord
		lx, ly int
	}{
		{0, 0, Coord{0, 0}, 0, 0},
		{31, 32, Coord{0, 1}, 31, 0},
		{-1, -1, Coord{-1, -1}, 31, 31},
		{-32, -33, Coord{-1, -2}, 0, 31},
		{65, -64, Coord{2, -2}, 1, 0},
	}
	for _, tc := range cases {
		c, lx, ly := FromWorld(tc.x, tc.y)
		if c != tc.coord || lx != tc.lx || ly != tc.ly {
			t.Fatalf("FromWorld(%d,%d) = %v %d %d, want %v %d %d", tc.x, tc.y, c, lx, ly, tc.coord, tc.lx, tc.ly)
		}
		ox, oy := c.WorldOrigin()
		if ox+lx != tc.x || oy+ly != tc.y {
			t.Fatalf("round trip of (%d,%d) gave (%d,%d)", tc.x, tc.y, ox+lx, oy+ly)
		}
	}
}

func TestSetTracksDirtyActiveAndGeneration(t *testing.T) {
	c := New(Coord{1, 2})
	if c.Active() || c.Generation() != 0 {
		t.Fatal("new chunk must be idle at generation 0")
	}
	if _, ok := c.Dirty(); ok {
		t.Fatal("new chunk must not be dirty")
	}

	sand := particle.Cell{Material: particle.Sand}
	if err := c.Set(3, 4, sand); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(10, 1, sand); err != nil {
		t.Fatalf("Set: %v", err)
	}
	r, ok := c.Dirty()
	if !ok || r != (Rect{MinX: 3, MinY: 1, MaxX: 10, MaxY: 4}) {
		t.Fatalf("dirty rect = %+v (%v)", r, ok)
	}
	if !c.Active() || c.Generation() != 2 {
		t.Fatalf("active=%v generation=%d", c.Active(), c.Generation())
	}

	// Writing an identical cell is not a mutation.
	if err := c.Set(3, 4, sand); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if c.Generation() != 2 {
		t.Fatalf("identical write advanced generation to %d", c.Generation())
	}

	c.ClearDirty()
	c.Settle()
	if _, ok := c.Dirty(); ok || c.Active() {
		t.Fatal("ClearDirty/Settle did not reset bookkeeping")
	}
}

func TestBoundsErrors(t *testing.T) {
	c := New(Coord{})
	var be *BoundsError
	if _, err := c.Cell(Size, 0); !errors.As(err, &be) {
		t.Fatalf("expected BoundsError, got %v", err)
	}
	if err := c.Set(-1, 5, particle.Cell{Material: particle.Sand}); !errors.As(err, &be) || be.X != -1 {
		t.Fatalf("expected BoundsError for x=-1, got %v", err)
	}
	if c.Generation() != 0 {
		t.Fatal("rejected write must not mutate")
	}
}

func TestLoadStartsAtGenerationZero(t *testing.T) {
	var cells [Area]particle.Cell
	cells[Index(5, 6)] = particle.Cell{Material: particle.Water}
	c := Load(Coord{-3, 7}, &cells)
	if c.Generation() != 0 || c.Origin() != (Coord{-3, 7}) {
		t.Fatalf("loaded chunk origin=%v generation=%d", c.Origin(), c.Generation())
	}
	got, err := c.Cell(5, 6)
	if err != nil || got.Material != particle.Water {
		t.Fatalf("loaded cell = %+v, %v", got, err)
	}
	comp := c.Composition()
	if comp[particle.Water] != 1 || comp[particle.Air] != Area-1 {
		t.Fatalf("composition = %v", comp)
	}
}

func TestRectUnion(t *testing.T) {
	r := EmptyRect()
	if !r.Empty() || r.Cells() != 0 {
		t.Fatal("EmptyRect must be empty")
	}
	r = r.Union(Rect{MinX: 2, MinY: 2, MaxX: 3, MaxY: 3})
	r = r.Union(EmptyRect())
	r = r.Include(0, 5)
	if r != (Rect{MinX: 0, MinY: 2, MaxX: 3, MaxY: 5}) || r.Cells() != 16 {
		t.Fatalf("unexpected rect %+v", r)
	}
	if !r.Contains(1, 4) || r.Contains(4, 4) {
		t.Fatal("Contains disagrees with bounds")
	}
}
