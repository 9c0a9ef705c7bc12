package world

import (
	"fmt"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

// SetCell writes a cell at a world position, creating the chunk if needed and
// marking it active and dirty. Unbreakable cells cannot be overwritten.
func (g *Grid) SetCell(x, y int, cell particle.Cell) error {
	if !cell.Material.Valid() {
		return fmt.Errorf("set (%d,%d) material %d: %w", x, y, cell.Material, ErrRejected)
	}
	c, lx, ly := chunk.FromWorld(x, y)
	if ch, ok := g.chunks[c]; ok {
		cur, err := ch.Cell(lx, ly)
		if err != nil {
			return fmt.Errorf("set (%d,%d): %v: %w", x, y, err, ErrRejected)
		}
		if g.table.Props(cur.Material).Unbreakable {
			return fmt.Errorf("set (%d,%d): %w", x, y, ErrUnbreakable)
		}
	}
	cell.LastTick = 0
	if err := g.GetOrCreate(c).Set(lx, ly, cell); err != nil {
		return fmt.Errorf("set (%d,%d): %v: %w", x, y, err, ErrRejected)
	}
	return nil
}

// Place writes a fresh cell of material id at a world position.
func (g *Grid) Place(x, y int, id particle.ID) error {
	return g.SetCell(x, y, g.table.New(id))
}

// BrushShape selects the footprint of a brush stroke.
type BrushShape uint8

const (
	BrushCircle BrushShape = iota
	BrushSquare
)

// Brush describes a bulk edit centred on (X, Y).
type Brush struct {
	X, Y     int
	Radius   int
	Shape    BrushShape
	Material particle.ID
	// Replace allows the brush to overwrite non-Air cells. Unbreakable cells
	// are always skipped.
	Replace bool
}

// ApplyBrush paints the brush footprint and returns the number of cells
// written.
func (g *Grid) ApplyBrush(b Brush) (int, error) {
	if !b.Material.Valid() {
		return 0, fmt.Errorf("brush material %d: %w", b.Material, ErrRejected)
	}
	r := b.Radius
	if r < 0 {
		r = 0
	}
	written := 0
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if b.Shape == BrushCircle && dx*dx+dy*dy > r*r {
				continue
			}
			x, y := b.X+dx, b.Y+dy
			cur := g.CellAt(x, y)
			if g.table.Props(cur.Material).Unbreakable {
				continue
			}
			if !b.Replace && !cur.IsAir() && b.Material != particle.Air {
				continue
			}
			if cur.Material == b.Material {
				continue
			}
			if b.Material == particle.Air && cur.IsAir() {
				continue
			}
			if err := g.Place(x, y, b.Material); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// Fill writes material id over the inclusive world rectangle, skipping
// unbreakable cells, and returns the number of cells written.
func (g *Grid) Fill(x0, y0, x1, y1 int, id particle.ID) (int, error) {
	if !id.Valid() {
		return 0, fmt.Errorf("fill material %d: %w", id, ErrRejected)
	}
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	written := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if g.table.Props(g.CellAt(x, y).Material).Unbreakable {
				continue
			}
			if err := g.Place(x, y, id); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}
