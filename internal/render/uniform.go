package render

import (
	"image/color"
	"math"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

// Flag bits of ChunkUniform.Flags. The alpha mode lives in the top two bits.
const (
	FlagTexture uint32 = 1 << 0

	alphaModeBits  uint32 = 0b11
	alphaModeShift        = 32 - 2

	FlagAlphaReserved = alphaModeBits << alphaModeShift
	FlagAlphaOpaque   = uint32(0) << alphaModeShift
	FlagAlphaMask     = uint32(1) << alphaModeShift
	FlagAlphaBlend    = uint32(2) << alphaModeShift
)

// DefaultAlphaCutoff is used for alpha-mask materials.
const DefaultAlphaCutoff float32 = 0.5

// ChunkUniform is the per-instance uniform block sent next to the index
// array. Color is linear RGBA.
type ChunkUniform struct {
	Color       [4]float32
	Flags       uint32
	AlphaCutoff float32
	ChunkSize   float32
}

// AlphaFlags encodes an alpha mode into its reserved bits.
func AlphaFlags(m particle.AlphaMode) uint32 {
	switch m {
	case particle.AlphaMask:
		return FlagAlphaMask
	case particle.AlphaBlend:
		return FlagAlphaBlend
	default:
		return FlagAlphaOpaque
	}
}

// AlphaModeOf decodes the alpha mode bits of flags.
func AlphaModeOf(flags uint32) particle.AlphaMode {
	return particle.AlphaMode((flags & FlagAlphaReserved) >> alphaModeShift)
}

// DefaultUniform is the uniform for a textured chunk drawn through the atlas
// with no tint.
func DefaultUniform() ChunkUniform {
	return ChunkUniform{
		Color:       [4]float32{1, 1, 1, 1},
		Flags:       FlagTexture | FlagAlphaBlend,
		AlphaCutoff: DefaultAlphaCutoff,
		ChunkSize:   chunk.Size,
	}
}

// UniformFor builds the uniform for drawing one material with a flat color.
func UniformFor(p *particle.Properties, textured bool) ChunkUniform {
	u := ChunkUniform{
		Color:       linear(p.Color),
		Flags:       AlphaFlags(p.AlphaMode),
		AlphaCutoff: DefaultAlphaCutoff,
		ChunkSize:   chunk.Size,
	}
	if textured {
		u.Flags |= FlagTexture
	}
	return u
}

func linear(c color.RGBA) [4]float32 {
	return [4]float32{toLinear(c.R), toLinear(c.G), toLinear(c.B), float32(c.A) / 255}
}

func toLinear(v uint8) float32 {
	s := float64(v) / 255
	if s <= 0.04045 {
		return float32(s / 12.92)
	}
	return float32(math.Pow((s+0.055)/1.055, 2.4))
}
