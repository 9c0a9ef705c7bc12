package world

import (
	"errors"
	"fmt"
	"slices"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

var (
	// ErrRejected is returned for writes the grid refuses, such as an
	// unknown material.
	ErrRejected = errors.New("world: write rejected")
	// ErrUnbreakable is returned when an edit targets an unbreakable cell.
	ErrUnbreakable = errors.New("world: cell is unbreakable")
	// ErrDuplicateChunk is returned when inserting over an occupied coordinate.
	ErrDuplicateChunk = errors.New("world: chunk coordinate already occupied")
)

// NeighborOffsets lists the eight neighbour directions in row-major order.
var NeighborOffsets = [8][2]int32{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Neighbor is one entry of Grid.Neighbors.
type Neighbor struct {
	Coord   chunk.Coord
	Present bool
}

// Grid is the sparse chunk container. It owns every chunk; callers reach a
// chunk only through its coordinate. Structural changes (create, insert,
// remove) must happen on the coordinating goroutine between ticks.
type Grid struct {
	table  *particle.Table
	chunks map[chunk.Coord]*chunk.Chunk
}

// New returns an empty grid using the given material table. A nil table
// selects particle.Default().
func New(table *particle.Table) *Grid {
	if table == nil {
		table = particle.Default()
	}
	return &Grid{table: table, chunks: make(map[chunk.Coord]*chunk.Chunk)}
}

// Table returns the material table shared by every chunk in the grid.
func (g *Grid) Table() *particle.Table { return g.table }

// Get returns a read-only view of the chunk at c.
func (g *Grid) Get(c chunk.Coord) (chunk.Reader, bool) {
	ch, ok := g.chunks[c]
	if !ok {
		return nil, false
	}
	return ch, true
}

// GetMut returns the chunk at c for mutation.
func (g *Grid) GetMut(c chunk.Coord) (*chunk.Chunk, bool) {
	ch, ok := g.chunks[c]
	return ch, ok
}

// GetOrCreate returns the chunk at c, allocating an all-Air chunk if needed.
func (g *Grid) GetOrCreate(c chunk.Coord) *chunk.Chunk {
	if ch, ok := g.chunks[c]; ok {
		return ch
	}
	ch := chunk.New(c)
	g.chunks[c] = ch
	return ch
}

// Insert adds a fully built chunk, typically one produced by chunk.Load.
func (g *Grid) Insert(ch *chunk.Chunk) error {
	c := ch.Origin()
	if _, ok := g.chunks[c]; ok {
		return fmt.Errorf("insert %v: %w", c, ErrDuplicateChunk)
	}
	g.chunks[c] = ch
	return nil
}

// Remove detaches the chunk at c and returns it. Eviction policy belongs to
// the caller.
func (g *Grid) Remove(c chunk.Coord) (*chunk.Chunk, bool) {
	ch, ok := g.chunks[c]
	if ok {
		delete(g.chunks, c)
		// A neighbour that was resting against the removed chunk now has an
		// open edge and must be re-evaluated.
		for _, off := range NeighborOffsets {
			if n, ok := g.chunks[c.Add(off[0], off[1])]; ok {
				n.Wake()
			}
		}
	}
	return ch, ok
}

// Neighbors returns the eight neighbouring coordinates of c and whether a
// chunk is loaded at each.
func (g *Grid) Neighbors(c chunk.Coord) [8]Neighbor {
	var out [8]Neighbor
	for i, off := range NeighborOffsets {
		nc := c.Add(off[0], off[1])
		_, ok := g.chunks[nc]
		out[i] = Neighbor{Coord: nc, Present: ok}
	}
	return out
}

// Window gathers the 3x3 block of chunks centred on c.
func (g *Grid) Window(c chunk.Coord) chunk.Window {
	var w chunk.Window
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			w[(dy+1)*3+dx+1] = g.chunks[c.Add(dx, dy)]
		}
	}
	return w
}

// Len returns the number of loaded chunks.
func (g *Grid) Len() int { return len(g.chunks) }

// Coords returns the loaded coordinates in row-major order.
func (g *Grid) Coords() []chunk.Coord {
	out := make([]chunk.Coord, 0, len(g.chunks))
	for c := range g.chunks {
		out = append(out, c)
	}
	slices.SortFunc(out, compareCoords)
	return out
}

func compareCoords(a, b chunk.Coord) int {
	if a.Y != b.Y {
		if a.Y < b.Y {
			return -1
		}
		return 1
	}
	if a.X < b.X {
		return -1
	}
	if a.X > b.X {
		return 1
	}
	return 0
}

// CellAt returns the cell at a world position. Positions outside the loaded
// chunks read as Air and never create a chunk.
func (g *Grid) CellAt(x, y int) particle.Cell {
	c, lx, ly := chunk.FromWorld(x, y)
	ch, ok := g.chunks[c]
	if !ok {
		return particle.Cell{}
	}
	cell, err := ch.Cell(lx, ly)
	if err != nil {
		return particle.Cell{}
	}
	return cell
}

// Composition sums the material histogram over every loaded chunk.
func (g *Grid) Composition() [particle.Count]int {
	var out [particle.Count]int
	for _, ch := range g.chunks {
		comp := ch.Composition()
		for i, n := range comp {
			out[i] += n
		}
	}
	return out
}
