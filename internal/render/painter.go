//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"sandfall/internal/chunk"
)

// GridPainter updates a single RGBA image from palette-indexed cell data.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a painter for a grid of size w*h.
func NewGridPainter(w, h int) *GridPainter {
	gp := &GridPainter{w: w, h: h, buf: make([]byte, 4*w*h)}
	gp.img = ebiten.NewImage(w, h)
	return gp
}

// Blit uploads the provided cells into the painter image and draws it.
func (gp *GridPainter) Blit(dst *ebiten.Image, cells []uint8, palette []color.RGBA, scale int) {
	if len(cells) != gp.w*gp.h {
		return
	}
	FillPalette(gp.buf, cells, palette)
	gp.img.WritePixels(gp.buf)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }

// ChunkPainter draws per-chunk sprite index buffers with a palette, keeping
// one small image per chunk.
type ChunkPainter struct {
	palette []color.RGBA
	imgs    map[chunk.Coord]*ebiten.Image
	buf     []byte
}

// NewChunkPainter returns a painter using palette, or the atlas palette when
// palette is nil.
func NewChunkPainter(palette []color.RGBA) *ChunkPainter {
	if palette == nil {
		palette = AtlasPalette()
	}
	return &ChunkPainter{
		palette: palette,
		imgs:    make(map[chunk.Coord]*ebiten.Image),
		buf:     make([]byte, 4*chunk.Area),
	}
}

// Draw uploads buf for the chunk at coord and draws it at its world origin.
func (cp *ChunkPainter) Draw(dst *ebiten.Image, coord chunk.Coord, buf *Buffer, scale int) {
	img, ok := cp.imgs[coord]
	if !ok {
		img = ebiten.NewImage(chunk.Size, chunk.Size)
		cp.imgs[coord] = img
	}
	FillBuffer(cp.buf, buf, cp.palette)
	img.WritePixels(cp.buf)

	ox, oy := coord.WorldOrigin()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	op.GeoM.Translate(float64(ox*scale), float64(oy*scale))
	dst.DrawImage(img, op)
}

// Forget drops the image cached for coord.
func (cp *ChunkPainter) Forget(coord chunk.Coord) {
	if img, ok := cp.imgs[coord]; ok {
		img.Dispose()
		delete(cp.imgs, coord)
	}
}
