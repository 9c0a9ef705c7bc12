package render

import (
	"sync"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

// SpriteIndex selects an entry of the shading stage's sprite atlas. Zero is
// the empty sprite.
type SpriteIndex uint8

// Buffer is the per-chunk index array uploaded to the shading stage.
type Buffer [chunk.Area]SpriteIndex

// Stats counts bridge work since construction.
type Stats struct {
	Syncs    int
	Rebuilds int
	Cells    int
}

type entry struct {
	src *chunk.Chunk
	gen uint64
	buf Buffer
}

// Bridge turns chunk materials into sprite index buffers. It remembers the
// generation it last saw per chunk and only regenerates when the chunk has
// advanced, limited to the chunk's dirty rect.
type Bridge struct {
	table *particle.Table

	mu      sync.Mutex
	entries map[chunk.Coord]*entry
	stats   Stats
}

// NewBridge returns a bridge reading sprite slots from table. A nil table
// selects particle.Default().
func NewBridge(table *particle.Table) *Bridge {
	if table == nil {
		table = particle.Default()
	}
	return &Bridge{table: table, entries: make(map[chunk.Coord]*entry)}
}

// SpriteOf returns the sprite slot for a cell.
func (b *Bridge) SpriteOf(c particle.Cell) SpriteIndex {
	if c.IsAir() {
		return 0
	}
	return SpriteIndex(b.table.Props(c.Material).Sprite)
}

// Sync returns the current index buffer for c, regenerating the cells inside
// the dirty rect when the chunk generation moved since the last call. It
// clears the chunk's dirty rect. Calls must not overlap with a tick.
func (b *Bridge) Sync(c *chunk.Chunk) Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Syncs++

	e, ok := b.entries[c.Origin()]
	switch {
	case !ok || e.src != c:
		// First sight of this chunk, or a chunk reloaded at the same
		// coordinate: its generation restarted, so nothing cached applies.
		e = &entry{src: c}
		b.entries[c.Origin()] = e
		b.rebuild(e, c, chunk.FullRect())
	case e.gen == c.Generation():
		return e.buf
	default:
		r, dirty := c.Dirty()
		if !dirty {
			r = chunk.FullRect()
		}
		b.rebuild(e, c, r)
	}
	e.gen = c.Generation()
	c.ClearDirty()
	return e.buf
}

func (b *Bridge) rebuild(e *entry, c *chunk.Chunk, r chunk.Rect) {
	cells := c.Cells()
	for y := r.MinY; y <= r.MaxY; y++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			i := chunk.Index(x, y)
			e.buf[i] = b.SpriteOf(cells[i])
		}
	}
	b.stats.Rebuilds++
	b.stats.Cells += r.Cells()
}

// Generation returns the generation recorded at the last sync of coord.
func (b *Bridge) Generation(coord chunk.Coord) (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[coord]
	if !ok {
		return 0, false
	}
	return e.gen, true
}

// Forget drops the cached buffer of an evicted chunk.
func (b *Bridge) Forget(coord chunk.Coord) {
	b.mu.Lock()
	delete(b.entries, coord)
	b.mu.Unlock()
}

// Stats returns a copy of the work counters.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Pack lays a buffer out as 256 four-component vectors, the layout of the
// shading stage's fixed-size uniform array.
func Pack(buf *Buffer) [chunk.Area / 4][4]uint32 {
	var out [chunk.Area / 4][4]uint32
	for i, s := range buf {
		out[i>>2][i&3] = uint32(s)
	}
	return out
}
