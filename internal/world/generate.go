package world

import (
	"math"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
	"sandfall/pkg/core"
)

// GenConfig controls terrain generation. Width and Height are in chunks.
type GenConfig struct {
	Width, Height int
	Seed          int64

	// SurfaceLevel is the fraction of the world height at which the surface
	// sits; rows above it are Air.
	SurfaceLevel float64
	Amplitude    float64
	Frequency    float64

	// DirtDepth is the depth below the surface at which Dirt gives way to
	// Stone.
	DirtDepth int

	Ores     bool
	Pockets  int
	Dungeons int
}

// DefaultGenConfig returns a small, fully featured world.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:        8,
		Height:       6,
		Seed:         1,
		SurfaceLevel: 0.25,
		Amplitude:    10,
		Frequency:    0.05,
		DirtDepth:    12,
		Ores:         true,
		Pockets:      6,
		Dungeons:     2,
	}
}

// special describes a rare material rolled per cell in a depth window.
type special struct {
	id       particle.ID
	minDepth int
	maxDepth int
	weight   int // out of 1000
	vein     bool
}

var specials = []special{
	{id: particle.Ruby, minDepth: 80, maxDepth: 150, weight: 3},
	{id: particle.Gold, minDepth: 23, maxDepth: math.MaxInt, weight: 20, vein: true},
}

// Generate builds a terrain grid covering Width x Height chunks from the
// origin. Output depends only on cfg.
func Generate(cfg GenConfig, table *particle.Table) *Grid {
	g := New(table)
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return g
	}
	for cy := 0; cy < cfg.Height; cy++ {
		for cx := 0; cx < cfg.Width; cx++ {
			g.GetOrCreate(chunk.Coord{X: int32(cx), Y: int32(cy)})
		}
	}
	gen := generator{cfg: cfg, g: g, rng: core.NewRNG(cfg.Seed), w: cfg.Width * chunk.Size, h: cfg.Height * chunk.Size}
	gen.terrain()
	for i := 0; i < cfg.Pockets; i++ {
		gen.pocket()
	}
	for i := 0; i < cfg.Dungeons; i++ {
		gen.dungeon()
	}
	return g
}

type generator struct {
	cfg  GenConfig
	g    *Grid
	rng  *core.RNG
	w, h int
}

func (gen *generator) surface(x int) int {
	base := float64(gen.h) * gen.cfg.SurfaceLevel
	return int(base + math.Sin(float64(x)*gen.cfg.Frequency)*gen.cfg.Amplitude)
}

// put writes directly into a chunk inside the generated area. Positions
// outside the area are dropped.
func (gen *generator) put(x, y int, id particle.ID) {
	if x < 0 || y < 0 || x >= gen.w || y >= gen.h {
		return
	}
	c, lx, ly := chunk.FromWorld(x, y)
	ch, ok := gen.g.chunks[c]
	if !ok {
		return
	}
	_ = ch.Set(lx, ly, gen.g.table.New(id))
}

func (gen *generator) terrain() {
	for x := 0; x < gen.w; x++ {
		top := gen.surface(x)
		if top < 0 {
			top = 0
		}
		for y := top; y < gen.h; y++ {
			depth := y - top
			if gen.cfg.Ores {
				if sp, ok := gen.roll(depth); ok {
					gen.placeSpecial(x, y, sp)
					continue
				}
			}
			// Common material never overwrites a special placed by a vein.
			if !gen.g.CellAt(x, y).IsAir() {
				continue
			}
			if depth < gen.cfg.DirtDepth {
				gen.put(x, y, particle.Dirt)
			} else {
				gen.put(x, y, particle.Stone)
			}
		}
	}
}

// roll picks a special for depth by weighted selection out of 1000.
func (gen *generator) roll(depth int) (special, bool) {
	total := 0
	for _, sp := range specials {
		if depth >= sp.minDepth && depth < sp.maxDepth {
			total += sp.weight
		}
	}
	if total == 0 || gen.rng.IntN(1000) >= total {
		return special{}, false
	}
	pick := gen.rng.IntN(total)
	for _, sp := range specials {
		if depth < sp.minDepth || depth >= sp.maxDepth {
			continue
		}
		if pick < sp.weight {
			return sp, true
		}
		pick -= sp.weight
	}
	return special{}, false
}

func (gen *generator) placeSpecial(x, y int, sp special) {
	gen.put(x, y, sp.id)
	if !sp.vein {
		return
	}
	extra := 3 + gen.rng.IntN(4)
	for i := 0; i < extra; i++ {
		dx, dy := gen.rng.IntN(3)-1, gen.rng.IntN(3)-1
		if dx == 0 && dy == 0 {
			continue
		}
		// Veins stay below the surface of the column they spill into.
		if gen.rng.Chance(0.7) && y+dy >= gen.surface(x+dx) {
			gen.put(x+dx, y+dy, sp.id)
		}
	}
}

// pocket carves an elliptical liquid pocket below the dirt band. Deep
// pockets hold lava, shallow ones water.
func (gen *generator) pocket() {
	x := gen.rng.IntN(gen.w)
	top := gen.surface(x) + gen.cfg.DirtDepth
	if top >= gen.h-4 {
		return
	}
	y := top + gen.rng.IntN(gen.h-top)
	rx, ry := 2+gen.rng.IntN(5), 2+gen.rng.IntN(3)
	id := particle.Water
	if y-top > gen.h/3 {
		id = particle.Lava
	}
	for dy := -ry; dy <= ry; dy++ {
		for dx := -rx; dx <= rx; dx++ {
			if float64(dx*dx)/float64(rx*rx)+float64(dy*dy)/float64(ry*ry) > 1 {
				continue
			}
			if gen.g.table.Props(gen.g.CellAt(x+dx, y+dy).Material).Unbreakable {
				continue
			}
			gen.put(x+dx, y+dy, id)
		}
	}
}

// dungeon places a hollow room walled with unbreakable material.
func (gen *generator) dungeon() {
	rw, rh := 10+gen.rng.IntN(11), 6+gen.rng.IntN(5)
	if gen.w <= rw || gen.h <= rh {
		return
	}
	x0 := gen.rng.IntN(gen.w - rw)
	top := gen.surface(x0) + gen.cfg.DirtDepth
	if top >= gen.h-rh {
		return
	}
	y0 := top + gen.rng.IntN(gen.h-rh-top)
	gen.room(x0, y0, rw, rh)
}

// room walls the rw x rh rectangle at x0,y0 and hollows its interior.
// Overlapping rooms keep each other's walls.
func (gen *generator) room(x0, y0, rw, rh int) {
	for y := y0; y < y0+rh; y++ {
		for x := x0; x < x0+rw; x++ {
			wall := x == x0 || y == y0 || x == x0+rw-1 || y == y0+rh-1
			if wall {
				gen.put(x, y, particle.UnbreakableDungeon)
				continue
			}
			if gen.g.table.Props(gen.g.CellAt(x, y).Material).Unbreakable {
				continue
			}
			gen.put(x, y, particle.Air)
		}
	}
}
