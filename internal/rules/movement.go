package rules

import "sandfall/internal/particle"

// displaces reports whether mover may swap into t. dy is the vertical
// direction of the move: +1 sinking, -1 rising, 0 lateral.
func (p *pass) displaces(mover *particle.Cell, props *particle.Properties, t ref, dy int) bool {
	if t.cell == nil || p.claimed(t.cell) {
		return false
	}
	tp := p.table.Props(t.cell.Material)
	if tp.Unbreakable {
		return false
	}
	switch tp.Kind {
	case particle.KindEmpty, particle.KindLiquid, particle.KindGas:
	default:
		return false
	}
	// Reactive pairs meet instead of passing through each other.
	if p.table.Reacts(mover.Material, t.cell.Material) {
		return false
	}
	switch {
	case dy > 0:
		return tp.Density < props.Density
	case dy < 0:
		return tp.Density > props.Density
	case props.Kind == particle.KindGas:
		return t.cell.IsAir()
	default:
		return tp.Density < props.Density
	}
}

// fall moves a cell one step along its buoyancy direction: straight first,
// then diagonally in a random order.
func (p *pass) fall(self ref, x, y int, props *particle.Properties) bool {
	c := self.cell
	dy := 1
	if props.Kind == particle.KindGas {
		dy = -1
	}
	if t := p.at(x, y+dy); p.displaces(c, props, t, dy) {
		c.VY++
		p.swap(self, t)
		return true
	}
	wet := props.Kind == particle.KindPowder && props.Cohesion > 0 && c.Moisture >= props.Cohesion
	if !wet {
		first := 1
		if p.rng.Bool() {
			first = -1
		}
		for _, dx := range [2]int{first, -first} {
			if t := p.at(x+dx, y+dy); p.displaces(c, props, t, dy) {
				c.VY++
				p.swap(self, t)
				return true
			}
		}
	}
	if c.VY != 0 {
		c.VY = 0
		p.touch(self)
	}
	return false
}

// flow moves a liquid or gas sideways. The remembered direction is kept in
// the sign of VX and reversed when that side is blocked.
func (p *pass) flow(self ref, x, y int, props *particle.Properties) bool {
	c := self.cell
	if p.rng.Chance(props.Viscosity) || !p.rng.Chance(props.FlowChance) {
		return false
	}
	var dir int
	switch {
	case c.VX > 0:
		dir = 1
	case c.VX < 0:
		dir = -1
	case p.rng.Bool():
		dir = 1
	default:
		dir = -1
	}
	for _, dx := range [2]int{dir, -dir} {
		if t := p.at(x+dx, y); p.displaces(c, props, t, 0) {
			c.VX = float32(dx)
			p.swap(self, t)
			return true
		}
	}
	if c.VX != 0 {
		c.VX = 0
		p.touch(self)
	}
	return false
}
