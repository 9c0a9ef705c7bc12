package particle

import "image/color"

// Sprite slots of the default five-entry atlas. Slot 0 is reserved for empty.
const (
	SpriteEmpty uint8 = iota
	SpriteGranular
	SpriteSolid
	SpriteLiquid
	SpriteGas

	// AtlasSlots is the number of equal-width sprites in the default atlas.
	AtlasSlots = 5
)

// DefaultProperties returns the compiled-in material rows. Threshold fields
// left at zero disable the corresponding transition.
func DefaultProperties() [Count]Properties {
	var p [Count]Properties

	p[Air] = Properties{
		Kind:            KindEmpty,
		Density:         1,
		BaseTemperature: AmbientTemperature,
		Sprite:          SpriteEmpty,
	}
	p[Sand] = Properties{
		Kind:            KindPowder,
		Density:         15,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.05,
		Absorbency:      0.05,
		Cohesion:        0.5,
		Sprite:          SpriteGranular,
		Color:           color.RGBA{R: 214, G: 182, B: 112, A: 255},
	}
	p[Water] = Properties{
		Kind:            KindLiquid,
		Density:         10,
		FlowChance:      0.9,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.2,
		BoilAbove:       100,
		BoilInto:        Steam,
		Sprite:          SpriteLiquid,
		Color:           color.RGBA{R: 40, G: 96, B: 220, A: 200},
		AlphaMode:       AlphaBlend,
	}
	p[Lava] = Properties{
		Kind:            KindLiquid,
		Density:         25,
		Viscosity:       0.6,
		FlowChance:      0.5,
		BaseTemperature: 1200,
		Conductivity:    0.01,
		FreezeBelow:     700,
		FreezeInto:      Stone,
		Sprite:          SpriteLiquid,
		Color:           color.RGBA{R: 255, G: 90, B: 30, A: 255},
	}
	p[Stone] = Properties{
		Kind:            KindStatic,
		Density:         40,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.1,
		MeltAbove:       1400,
		MeltInto:        Lava,
		Sprite:          SpriteSolid,
		Color:           color.RGBA{R: 128, G: 128, B: 128, A: 255},
	}
	p[UnbreakableDungeon] = Properties{
		Kind:            KindStatic,
		Density:         100,
		Unbreakable:     true,
		BaseTemperature: AmbientTemperature,
		Sprite:          SpriteSolid,
		Color:           color.RGBA{R: 52, G: 44, B: 70, A: 255},
	}
	p[Dirt] = Properties{
		Kind:            KindPowder,
		Density:         16,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.05,
		Absorbency:      0.08,
		Cohesion:        0.3,
		WetAbove:        0.8,
		WetInto:         Mud,
		Sprite:          SpriteGranular,
		Color:           color.RGBA{R: 153, G: 102, B: 51, A: 255},
	}
	p[Mud] = Properties{
		Kind:            KindLiquid,
		Density:         14,
		Viscosity:       0.85,
		FlowChance:      0.3,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.1,
		Absorbency:      0.08,
		DryBelow:        0.2,
		DryInto:         Dirt,
		Sprite:          SpriteLiquid,
		Color:           color.RGBA{R: 96, G: 66, B: 40, A: 255},
	}
	p[Obsidian] = Properties{
		Kind:            KindStatic,
		Density:         45,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.1,
		Sprite:          SpriteSolid,
		Color:           color.RGBA{R: 30, G: 20, B: 45, A: 255},
	}
	p[Steam] = Properties{
		Kind:            KindGas,
		Density:         0.5,
		FlowChance:      0.7,
		BaseTemperature: 110,
		Lifetime:        240,
		DecayInto:       Water,
		Sprite:          SpriteGas,
		Color:           color.RGBA{R: 220, G: 220, B: 230, A: 120},
		AlphaMode:       AlphaBlend,
	}
	p[Acid] = Properties{
		Kind:            KindLiquid,
		Density:         11,
		FlowChance:      0.8,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.1,
		Sprite:          SpriteLiquid,
		Color:           color.RGBA{R: 120, G: 230, B: 40, A: 210},
		AlphaMode:       AlphaBlend,
	}
	p[Gold] = Properties{
		Kind:            KindStatic,
		Density:         60,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.3,
		Sprite:          SpriteSolid,
		Color:           color.RGBA{R: 255, G: 214, B: 0, A: 255},
	}
	p[Ruby] = Properties{
		Kind:            KindStatic,
		Density:         50,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.05,
		Sprite:          SpriteSolid,
		Color:           color.RGBA{R: 230, G: 26, B: 26, A: 255},
		AlphaMode:       AlphaMask,
	}
	p[Wood] = Properties{
		Kind:            KindStatic,
		Density:         8,
		Flammability:    0.05,
		IgniteAbove:     300,
		BaseTemperature: AmbientTemperature,
		Conductivity:    0.05,
		Sprite:          SpriteSolid,
		Color:           color.RGBA{R: 110, G: 74, B: 38, A: 255},
	}

	for id := range p {
		p[id].Name = ID(id).String()
	}
	return p
}

// DefaultReactions returns the compiled-in contact reactions.
func DefaultReactions() []Reaction {
	return []Reaction{
		{A: Water, B: Lava, IntoA: Steam, IntoB: Obsidian, Chance: 1},
		{A: Acid, B: Stone, IntoA: Air, IntoB: Air, Chance: 0.02},
		{A: Acid, B: Dirt, IntoA: Air, IntoB: Air, Chance: 0.05},
		{A: Acid, B: Sand, IntoA: Air, IntoB: Air, Chance: 0.03},
		{A: Acid, B: Wood, IntoA: Air, IntoB: Air, Chance: 0.05},
		{A: Lava, B: Wood, IntoA: Lava, IntoB: Air, Chance: 0.1},
	}
}
