package render

import (
	"image/color"

	"sandfall/internal/particle"
)

// AtlasPalette returns one representative color per atlas slot. Viewers that
// have no sprite texture draw index buffers with it.
func AtlasPalette() []color.RGBA {
	return []color.RGBA{
		particle.SpriteEmpty:    {R: 0, G: 0, B: 0, A: 0},
		particle.SpriteGranular: {R: 214, G: 182, B: 112, A: 255},
		particle.SpriteSolid:    {R: 128, G: 128, B: 128, A: 255},
		particle.SpriteLiquid:   {R: 40, G: 96, B: 220, A: 255},
		particle.SpriteGas:      {R: 220, G: 220, B: 230, A: 160},
	}
}

// MaterialPalette returns the table color of every material indexed by ID.
func MaterialPalette(t *particle.Table) []color.RGBA {
	out := make([]color.RGBA, particle.Count)
	for id := particle.ID(0); id < particle.Count; id++ {
		out[id] = t.Props(id).Color
	}
	out[particle.Air] = color.RGBA{}
	return out
}

// FillBuffer converts a sprite index buffer into RGBA pixels using palette.
func FillBuffer(buf []byte, b *Buffer, palette []color.RGBA) {
	idx := make([]uint8, len(b))
	for i, s := range b {
		idx[i] = uint8(s)
	}
	FillPalette(buf, idx, palette)
}

// FillPalette converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func FillPalette(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		for i := range cells {
			base := i * 4
			buf[base+0] = 0
			buf[base+1] = 0
			buf[base+2] = 0
			buf[base+3] = 0
		}
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
