package particle

// ID enumerates the closed set of simulated materials.
type ID uint8

const (
	Air ID = iota
	Sand
	Water
	Lava
	Stone
	UnbreakableDungeon
	Dirt
	Mud
	Obsidian
	Steam
	Acid
	Gold
	Ruby
	Wood

	// Count is the number of material variants.
	Count
)

var idNames = [Count]string{
	Air:                "air",
	Sand:               "sand",
	Water:              "water",
	Lava:               "lava",
	Stone:              "stone",
	UnbreakableDungeon: "unbreakable_dungeon",
	Dirt:               "dirt",
	Mud:                "mud",
	Obsidian:           "obsidian",
	Steam:              "steam",
	Acid:               "acid",
	Gold:               "gold",
	Ruby:               "ruby",
	Wood:               "wood",
}

// String returns the snake_case material name used in config files.
func (id ID) String() string {
	if id >= Count {
		return "unknown"
	}
	return idNames[id]
}

// Valid reports whether id names a known material.
func (id ID) Valid() bool { return id < Count }

// Parse resolves a material name as written in config files and scripts.
func Parse(name string) (ID, bool) {
	for i, n := range idNames {
		if n == name {
			return ID(i), true
		}
	}
	return Air, false
}

// Cell is one simulated pixel: a material plus its per-instance physical state.
// The zero value is Air.
type Cell struct {
	Material ID

	// VX holds the remembered lateral flow direction for liquids and gases
	// (-1, 0, 1). VY counts consecutive ticks spent falling.
	VX, VY float32

	Temperature float32
	Moisture    float32

	// Lifetime counts down for materials with a finite lifetime; zero means
	// the counter has not been armed yet.
	Lifetime uint16

	// LastTick is the tick in which this cell was last moved or consumed.
	LastTick uint64
}

// New returns a cell of the given material initialised from the table's
// defaults.
func (t *Table) New(id ID) Cell {
	if id == Air || !id.Valid() {
		return Cell{}
	}
	p := &t.props[id]
	c := Cell{
		Material:    id,
		Temperature: p.BaseTemperature,
		Lifetime:    p.Lifetime,
	}
	// Materials that dry out start saturated.
	if p.DryBelow > 0 {
		c.Moisture = 1
	}
	return c
}

// IsAir reports whether the cell holds no material.
func (c Cell) IsAir() bool { return c.Material == Air }
