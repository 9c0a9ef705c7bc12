package particle

import (
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk tuning format. Materials are keyed by name and may
// only tune constants; the set of materials and their kinds are fixed.
type tableFile struct {
	Materials map[string]materialOverride `yaml:"materials"`
	Reactions *[]reactionRow              `yaml:"reactions"`
}

type materialOverride struct {
	Density      *float32 `yaml:"density"`
	Viscosity    *float32 `yaml:"viscosity"`
	FlowChance   *float32 `yaml:"flow_chance"`
	Flammability *float32 `yaml:"flammability"`
	IgniteAbove  *float32 `yaml:"ignite_above"`

	BaseTemperature *float32 `yaml:"base_temperature"`
	Conductivity    *float32 `yaml:"conductivity"`
	MeltAbove       *float32 `yaml:"melt_above"`
	MeltInto        *string  `yaml:"melt_into"`
	FreezeBelow     *float32 `yaml:"freeze_below"`
	FreezeInto      *string  `yaml:"freeze_into"`
	BoilAbove       *float32 `yaml:"boil_above"`
	BoilInto        *string  `yaml:"boil_into"`

	Absorbency *float32 `yaml:"absorbency"`
	Cohesion   *float32 `yaml:"cohesion"`
	WetAbove   *float32 `yaml:"wet_above"`
	WetInto    *string  `yaml:"wet_into"`
	DryBelow   *float32 `yaml:"dry_below"`
	DryInto    *string  `yaml:"dry_into"`

	Lifetime  *uint16 `yaml:"lifetime"`
	DecayInto *string `yaml:"decay_into"`

	Sprite    *uint8    `yaml:"sprite"`
	Color     *[4]uint8 `yaml:"color"`
	AlphaMode *string   `yaml:"alpha_mode"`
}

type reactionRow struct {
	A      string  `yaml:"a"`
	B      string  `yaml:"b"`
	IntoA  string  `yaml:"into_a"`
	IntoB  string  `yaml:"into_b"`
	Chance float32 `yaml:"chance"`
}

// LoadTable reads a YAML tuning file and applies it over the compiled-in
// defaults. An empty path returns the default table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := ParseTable(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTable applies YAML tuning data over the compiled-in defaults.
func ParseTable(raw []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("materials yaml: %w", err)
	}
	props := DefaultProperties()
	for name, o := range f.Materials {
		id, ok := Parse(name)
		if !ok {
			return nil, fmt.Errorf("unknown material %q", name)
		}
		if err := o.apply(&props[id]); err != nil {
			return nil, fmt.Errorf("material %s: %w", name, err)
		}
	}
	reactions := DefaultReactions()
	if f.Reactions != nil {
		reactions = reactions[:0]
		for i, row := range *f.Reactions {
			r, err := row.resolve()
			if err != nil {
				return nil, fmt.Errorf("reaction %d: %w", i, err)
			}
			reactions = append(reactions, r)
		}
	}
	return NewTable(props, reactions)
}

func (o materialOverride) apply(p *Properties) error {
	setF := func(dst *float32, src *float32) {
		if src != nil {
			*dst = *src
		}
	}
	setF(&p.Density, o.Density)
	setF(&p.Viscosity, o.Viscosity)
	setF(&p.FlowChance, o.FlowChance)
	setF(&p.Flammability, o.Flammability)
	setF(&p.IgniteAbove, o.IgniteAbove)
	setF(&p.BaseTemperature, o.BaseTemperature)
	setF(&p.Conductivity, o.Conductivity)
	setF(&p.MeltAbove, o.MeltAbove)
	setF(&p.FreezeBelow, o.FreezeBelow)
	setF(&p.BoilAbove, o.BoilAbove)
	setF(&p.Absorbency, o.Absorbency)
	setF(&p.Cohesion, o.Cohesion)
	setF(&p.WetAbove, o.WetAbove)
	setF(&p.DryBelow, o.DryBelow)

	products := []struct {
		dst  *ID
		name *string
	}{
		{&p.MeltInto, o.MeltInto},
		{&p.FreezeInto, o.FreezeInto},
		{&p.BoilInto, o.BoilInto},
		{&p.WetInto, o.WetInto},
		{&p.DryInto, o.DryInto},
		{&p.DecayInto, o.DecayInto},
	}
	for _, prod := range products {
		if prod.name == nil {
			continue
		}
		id, ok := Parse(*prod.name)
		if !ok {
			return fmt.Errorf("unknown product %q", *prod.name)
		}
		*prod.dst = id
	}

	if o.Lifetime != nil {
		p.Lifetime = *o.Lifetime
	}
	if o.Sprite != nil {
		if *o.Sprite >= AtlasSlots {
			return fmt.Errorf("sprite %d outside atlas of %d slots", *o.Sprite, AtlasSlots)
		}
		p.Sprite = *o.Sprite
	}
	if o.Color != nil {
		c := *o.Color
		p.Color = color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
	}
	if o.AlphaMode != nil {
		switch *o.AlphaMode {
		case "opaque":
			p.AlphaMode = AlphaOpaque
		case "mask":
			p.AlphaMode = AlphaMask
		case "blend":
			p.AlphaMode = AlphaBlend
		default:
			return fmt.Errorf("unknown alpha mode %q", *o.AlphaMode)
		}
	}
	return nil
}

func (r reactionRow) resolve() (Reaction, error) {
	var out Reaction
	names := []struct {
		dst  *ID
		name string
	}{
		{&out.A, r.A}, {&out.B, r.B}, {&out.IntoA, r.IntoA}, {&out.IntoB, r.IntoB},
	}
	for _, n := range names {
		id, ok := Parse(n.name)
		if !ok {
			return out, fmt.Errorf("unknown material %q", n.name)
		}
		*n.dst = id
	}
	if r.Chance < 0 || r.Chance > 1 {
		return out, fmt.Errorf("chance %.3f outside [0,1]", r.Chance)
	}
	out.Chance = r.Chance
	return out, nil
}
