//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"sandfall/internal/chunk"
	"sandfall/internal/world"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type gridProvider interface {
	Grid() *world.Grid
}

type chunkMark struct {
	coord  chunk.Coord
	active bool
	dirty  chunk.Rect
}

// Overlay draws scheduler debugging visuals on top of the world: chunk
// borders, active chunks and pending dirty rects.
type Overlay struct {
	sim        gridProvider
	scale      int
	showChunks bool
	showDirty  bool

	marks []chunkMark
	pixel *ebiten.Image
}

// NewOverlay constructs an overlay for a sim exposing its grid.
func NewOverlay(sim gridProvider, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: scale, showChunks: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles layers.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		o.showChunks = !o.showChunks
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		o.showDirty = !o.showDirty
	}
}

// Capture records chunk state. Call it before anything syncs the render
// bridge, which clears dirty rects.
func (o *Overlay) Capture() {
	o.marks = o.marks[:0]
	if !o.showChunks && !o.showDirty {
		return
	}
	g := o.sim.Grid()
	for _, c := range g.Coords() {
		r, _ := g.Get(c)
		d, _ := r.Dirty()
		o.marks = append(o.marks, chunkMark{coord: c, active: r.Active(), dirty: d})
	}
}

// Draw renders the captured marks.
func (o *Overlay) Draw(screen *ebiten.Image) {
	scale := float64(max(o.scale, 1))
	span := float64(chunk.Size) * scale
	for _, m := range o.marks {
		ox, oy := m.coord.WorldOrigin()
		x, y := float64(ox)*scale, float64(oy)*scale
		if o.showChunks {
			border := color.RGBA{R: 70, G: 70, B: 80, A: 160}
			if m.active {
				o.fillRect(screen, x, y, span, span, color.RGBA{R: 40, G: 200, B: 90, A: 40})
				border = color.RGBA{R: 60, G: 220, B: 110, A: 200}
			}
			o.strokeRect(screen, x, y, span, span, border)
		}
		if o.showDirty && !m.dirty.Empty() {
			dx := x + float64(m.dirty.MinX)*scale
			dy := y + float64(m.dirty.MinY)*scale
			w := float64(m.dirty.MaxX-m.dirty.MinX+1) * scale
			h := float64(m.dirty.MaxY-m.dirty.MinY+1) * scale
			o.strokeRect(screen, dx, dy, w, h, color.RGBA{R: 250, G: 210, B: 60, A: 230})
		}
	}
}

func (o *Overlay) fillRect(screen *ebiten.Image, x, y, w, h float64, col color.RGBA) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorM.Scale(float64(col.R)/255.0, float64(col.G)/255.0, float64(col.B)/255.0, float64(col.A)/255.0)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) strokeRect(screen *ebiten.Image, x, y, w, h float64, col color.RGBA) {
	o.drawLine(screen, x, y, x+w, y, 1, col)
	o.drawLine(screen, x, y+h, x+w, y+h, 1, col)
	o.drawLine(screen, x, y, x, y+h, 1, col)
	o.drawLine(screen, x+w, y, x+w, y+h, 1, col)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorM.Scale(float64(col.R)/255.0, float64(col.G)/255.0, float64(col.B)/255.0, float64(col.A)/255.0)
	screen.DrawImage(o.pixel, op)
}
