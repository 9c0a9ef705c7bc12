package chunk

import (
	"fmt"

	"sandfall/internal/particle"
)

const (
	// Size is the edge length of a chunk in cells.
	Size = 32
	// Area is the number of cells in a chunk.
	Area = Size * Size

	shift = 5
	mask  = Size - 1
)

// Coord is a chunk position on the chunk grid.
type Coord struct {
	X, Y int32
}

// Add offsets c by (dx, dy) chunks.
func (c Coord) Add(dx, dy int32) Coord { return Coord{X: c.X + dx, Y: c.Y + dy} }

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// WorldOrigin returns the world position of the chunk's top-left cell.
func (c Coord) WorldOrigin() (int, int) { return int(c.X) * Size, int(c.Y) * Size }

// FromWorld splits a world position into a chunk coordinate and a local
// position, flooring towards negative infinity.
func FromWorld(x, y int) (Coord, int, int) {
	cx, lx := floorDivMod(x)
	cy, ly := floorDivMod(y)
	return Coord{X: int32(cx), Y: int32(cy)}, lx, ly
}

func floorDivMod(v int) (int, int) {
	return v >> shift, v & mask
}

// Index returns the linear index for local coordinates (x, y).
func Index(x, y int) int { return y<<shift | x }

// InBounds reports whether (x, y) lies inside a chunk.
func InBounds(x, y int) bool { return x >= 0 && x < Size && y >= 0 && y < Size }

// BoundsError reports a local coordinate outside the chunk extent.
type BoundsError struct {
	X, Y int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("chunk: local position (%d,%d) outside %dx%d", e.X, e.Y, Size, Size)
}

// Reader is the read-only view of a chunk handed to external readers.
type Reader interface {
	Origin() Coord
	Cell(x, y int) (particle.Cell, error)
	Generation() uint64
	Active() bool
	Dirty() (Rect, bool)
}

// Chunk is a fixed 32x32 block of cells plus the bookkeeping the scheduler and
// the render bridge rely on.
type Chunk struct {
	origin Coord
	cells  [Area]particle.Cell

	dirty      Rect
	active     bool
	generation uint64
}

// New allocates an all-Air chunk at origin.
func New(origin Coord) *Chunk {
	return &Chunk{origin: origin, dirty: EmptyRect()}
}

// Origin returns the chunk coordinate.
func (c *Chunk) Origin() Coord { return c.origin }

// Cells exposes the backing array so the rule engine can read and write
// cells directly. Writes through it must be followed by Commit.
func (c *Chunk) Cells() *[Area]particle.Cell { return &c.cells }

// Cell returns the cell at local (x, y).
func (c *Chunk) Cell(x, y int) (particle.Cell, error) {
	if !InBounds(x, y) {
		return particle.Cell{}, &BoundsError{X: x, Y: y}
	}
	return c.cells[Index(x, y)], nil
}

// Set writes a cell at local (x, y), marking the chunk active and dirty.
func (c *Chunk) Set(x, y int, cell particle.Cell) error {
	if !InBounds(x, y) {
		return &BoundsError{X: x, Y: y}
	}
	i := Index(x, y)
	if c.cells[i] == cell {
		return nil
	}
	c.cells[i] = cell
	c.Commit(Rect{MinX: x, MinY: y, MaxX: x, MaxY: y})
	return nil
}

// Commit records that the cells inside r changed: the dirty rect grows, the
// chunk becomes active and the generation advances. An empty rect is a no-op.
func (c *Chunk) Commit(r Rect) {
	if r.Empty() {
		return
	}
	c.dirty = c.dirty.Union(r)
	c.active = true
	c.generation++
}

// Settle marks the chunk inactive after a tick in which none of its cells
// changed.
func (c *Chunk) Settle() { c.active = false }

// Wake marks the chunk for evaluation on the next tick without changing cells.
func (c *Chunk) Wake() { c.active = true }

// Active reports whether any cell changed during the last tick.
func (c *Chunk) Active() bool { return c.active }

// Generation returns the mutation counter.
func (c *Chunk) Generation() uint64 { return c.generation }

// Dirty returns the bounding box of cells changed since the last ClearDirty.
func (c *Chunk) Dirty() (Rect, bool) { return c.dirty, !c.dirty.Empty() }

// ClearDirty resets the dirty rect after a render sync.
func (c *Chunk) ClearDirty() { c.dirty = EmptyRect() }

// Restore replaces every cell with the snapshot and leaves the bookkeeping
// untouched. It is used to roll back an aborted tick.
func (c *Chunk) Restore(cells *[Area]particle.Cell) { c.cells = *cells }

// Load builds a chunk from persisted cells. The generation starts at zero.
func Load(origin Coord, cells *[Area]particle.Cell) *Chunk {
	ch := New(origin)
	ch.cells = *cells
	ch.active = true
	ch.dirty = FullRect()
	return ch
}

// Composition counts cells per material.
func (c *Chunk) Composition() [particle.Count]int {
	var out [particle.Count]int
	for i := range c.cells {
		if m := c.cells[i].Material; m.Valid() {
			out[m]++
		}
	}
	return out
}
