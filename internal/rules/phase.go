package rules

import (
	"math"

	"sandfall/internal/particle"
)

var dirs4 = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

// minTemperatureStep is the smallest temperature change worth writing.
// Smaller deltas would keep a settled chunk active forever.
const minTemperatureStep = 0.01

// age counts down a finite lifetime and reports whether the cell decayed.
func (p *pass) age(self ref, props *particle.Properties) bool {
	c := self.cell
	if c.Lifetime == 0 {
		c.Lifetime = props.Lifetime
	}
	c.Lifetime--
	p.touch(self)
	if c.Lifetime > 0 {
		return false
	}
	p.become(self, props.DecayInto, false, false)
	p.res.Transitions++
	return true
}

// transform applies contact reactions, then heat exchange and temperature
// thresholds, then moisture exchange and moisture thresholds. At most one
// material change happens per cell per tick.
func (p *pass) transform(self ref, x, y int, props *particle.Properties) {
	if p.react(self, x, y) {
		return
	}
	if p.thermal(self, x, y, props) {
		return
	}
	p.moisture(self, x, y, props)
}

func (p *pass) react(self ref, x, y int) bool {
	c := self.cell
	start := p.rng.IntN(4)
	for i := 0; i < 4; i++ {
		d := dirs4[(start+i)&3]
		n := p.at(x+d[0], y+d[1])
		if n.cell == nil || n.cell.IsAir() || p.claimed(n.cell) {
			continue
		}
		intoA, intoB, chance, ok := p.table.Reaction(c.Material, n.cell.Material)
		if !ok || !p.rng.Chance(chance) {
			continue
		}
		p.become(n, intoB, false, false)
		p.become(self, intoA, false, false)
		p.res.Reactions++
		return true
	}
	return false
}

func (p *pass) thermal(self ref, x, y int, props *particle.Properties) bool {
	c := self.cell
	if props.Conductivity > 0 {
		var sum float32
		n := 0
		for _, d := range dirs4 {
			nb := p.at(x+d[0], y+d[1])
			if nb.cell == nil || nb.cell.IsAir() {
				continue
			}
			sum += nb.cell.Temperature
			n++
		}
		if n > 0 {
			delta := props.Conductivity * (sum/float32(n) - c.Temperature)
			if math.Abs(float64(delta)) >= minTemperatureStep {
				c.Temperature += delta
				p.touch(self)
			}
		}
	}

	t := c.Temperature
	switch {
	case props.MeltAbove > 0 && t > props.MeltAbove:
		p.become(self, props.MeltInto, true, false)
	case props.FreezeBelow > 0 && t < props.FreezeBelow:
		p.become(self, props.FreezeInto, true, false)
	case props.BoilAbove > 0 && t > props.BoilAbove:
		p.become(self, props.BoilInto, false, false)
	case props.IgniteAbove > 0 && t > props.IgniteAbove && p.rng.Chance(props.Flammability):
		p.become(self, particle.Air, false, false)
	default:
		return false
	}
	p.res.Transitions++
	return true
}

func (p *pass) moisture(self ref, x, y int, props *particle.Properties) {
	if props.Absorbency <= 0 {
		return
	}
	c := self.cell
	wet := 0
	for _, d := range dirs4 {
		if nb := p.at(x+d[0], y+d[1]); nb.cell != nil && nb.cell.Material == particle.Water {
			wet++
		}
	}
	m := c.Moisture
	if wet > 0 {
		m = min(1, m+props.Absorbency*float32(wet))
	} else {
		m = max(0, m-props.Absorbency/4)
	}
	if m != c.Moisture {
		c.Moisture = m
		p.touch(self)
	}

	switch {
	case props.WetAbove > 0 && m > props.WetAbove:
		p.become(self, props.WetInto, false, true)
	case props.DryBelow > 0 && m < props.DryBelow:
		p.become(self, props.DryInto, false, true)
	default:
		return
	}
	p.res.Transitions++
}
