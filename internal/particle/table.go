package particle

import (
	"fmt"
	"image/color"
	"sync"
)

// Kind classifies how a material moves.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindStatic
	KindPowder
	KindLiquid
	KindGas
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindStatic:
		return "static"
	case KindPowder:
		return "powder"
	case KindLiquid:
		return "liquid"
	case KindGas:
		return "gas"
	default:
		return "unknown"
	}
}

// AlphaMode selects how the shading stage composites a material.
type AlphaMode uint8

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// AmbientTemperature is the temperature assumed for Air and for positions
// outside the loaded world.
const AmbientTemperature float32 = 20

// Properties holds the physical constants of one material. Every transition
// rule is parameterised by these fields rather than by material identity.
type Properties struct {
	Name string
	Kind Kind

	Density    float32
	Viscosity  float32 // chance per tick that a liquid holds still
	FlowChance float32 // chance per tick that a blocked liquid or gas moves sideways

	Flammability float32 // chance per tick to burn away once IgniteAbove is reached
	IgniteAbove  float32

	Unbreakable bool

	BaseTemperature float32
	Conductivity    float32

	MeltAbove   float32
	MeltInto    ID
	FreezeBelow float32
	FreezeInto  ID
	BoilAbove   float32
	BoilInto    ID

	Absorbency float32 // moisture gained per tick next to water
	Cohesion   float32 // moisture above which a powder stops sliding diagonally
	WetAbove   float32
	WetInto    ID
	DryBelow   float32
	DryInto    ID

	Lifetime  uint16
	DecayInto ID

	Sprite    uint8
	Color     color.RGBA
	AlphaMode AlphaMode
}

// Movable reports whether gravity or flow may move the material.
func (p *Properties) Movable() bool {
	return p.Kind == KindPowder || p.Kind == KindLiquid || p.Kind == KindGas
}

// Fluid reports whether the material spreads sideways.
func (p *Properties) Fluid() bool {
	return p.Kind == KindLiquid || p.Kind == KindGas
}

// Reaction converts a touching pair of materials into a product pair.
type Reaction struct {
	A, B         ID
	IntoA, IntoB ID
	Chance       float32
}

// Table is the immutable material configuration shared by every worker.
// It is built once at startup and never mutated afterwards.
type Table struct {
	props     [Count]Properties
	reactions []Reaction
	// pair holds index+1 into reactions for both orderings of a pair.
	pair [Count][Count]int16
}

// Props returns the constants for id. It never allocates or locks; unknown
// ids resolve to Air.
func (t *Table) Props(id ID) *Properties {
	if id >= Count {
		return &t.props[Air]
	}
	return &t.props[id]
}

// Reaction returns the products produced when a touches b, oriented so that
// intoA replaces a and intoB replaces b.
func (t *Table) Reaction(a, b ID) (intoA, intoB ID, chance float32, ok bool) {
	if a >= Count || b >= Count {
		return 0, 0, 0, false
	}
	idx := t.pair[a][b]
	if idx == 0 {
		return 0, 0, 0, false
	}
	r := &t.reactions[idx-1]
	if r.A == a && r.B == b {
		return r.IntoA, r.IntoB, r.Chance, true
	}
	return r.IntoB, r.IntoA, r.Chance, true
}

// Reacts reports whether a and b have a reaction entry.
func (t *Table) Reacts(a, b ID) bool {
	if a >= Count || b >= Count {
		return false
	}
	return t.pair[a][b] != 0
}

// Reactions returns a copy of the reaction list.
func (t *Table) Reactions() []Reaction {
	return append([]Reaction(nil), t.reactions...)
}

// NewTable validates the rows and reactions and returns an immutable table.
func NewTable(props [Count]Properties, reactions []Reaction) (*Table, error) {
	t := &Table{props: props}
	for id := ID(0); id < Count; id++ {
		p := &t.props[id]
		if p.Name == "" {
			p.Name = id.String()
		}
		if err := validateRow(id, p); err != nil {
			return nil, err
		}
	}
	for _, r := range reactions {
		if !r.A.Valid() || !r.B.Valid() || !r.IntoA.Valid() || !r.IntoB.Valid() {
			return nil, fmt.Errorf("reaction %v+%v: unknown material", r.A, r.B)
		}
		if t.props[r.A].Unbreakable || t.props[r.B].Unbreakable {
			return nil, fmt.Errorf("reaction %v+%v: unbreakable materials cannot react", r.A, r.B)
		}
		if t.props[r.IntoA].Unbreakable || t.props[r.IntoB].Unbreakable {
			return nil, fmt.Errorf("reaction %v+%v: cannot produce unbreakable material", r.A, r.B)
		}
		if r.A == Air || r.B == Air {
			return nil, fmt.Errorf("reaction %v+%v: air does not react", r.A, r.B)
		}
		if t.pair[r.A][r.B] != 0 {
			return nil, fmt.Errorf("reaction %v+%v: duplicate pair", r.A, r.B)
		}
		t.reactions = append(t.reactions, r)
		idx := int16(len(t.reactions))
		t.pair[r.A][r.B] = idx
		t.pair[r.B][r.A] = idx
	}
	return t, nil
}

func validateRow(id ID, p *Properties) error {
	if id == Air && p.Kind != KindEmpty {
		return fmt.Errorf("material %s: air must be empty", p.Name)
	}
	if p.Unbreakable && p.Kind != KindStatic {
		return fmt.Errorf("material %s: unbreakable materials must be static", p.Name)
	}
	if p.Viscosity < 0 || p.Viscosity >= 1 {
		return fmt.Errorf("material %s: viscosity %.3f outside [0,1)", p.Name, p.Viscosity)
	}
	if p.FlowChance < 0 || p.FlowChance > 1 {
		return fmt.Errorf("material %s: flow chance %.3f outside [0,1]", p.Name, p.FlowChance)
	}
	if p.Conductivity < 0 || p.Conductivity > 1 {
		return fmt.Errorf("material %s: conductivity %.3f outside [0,1]", p.Name, p.Conductivity)
	}
	for _, into := range []ID{p.MeltInto, p.FreezeInto, p.BoilInto, p.WetInto, p.DryInto, p.DecayInto} {
		if !into.Valid() {
			return fmt.Errorf("material %s: unknown product %d", p.Name, into)
		}
	}
	return nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the process-wide table built from the compiled-in rows.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := NewTable(DefaultProperties(), DefaultReactions())
		if err != nil {
			panic(fmt.Sprintf("particle: invalid default table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}
