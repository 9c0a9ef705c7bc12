package scheduler

import (
	"fmt"

	"sandfall/internal/chunk"
	"sandfall/internal/world"
)

// phases is the number of checkerboard groups of the 2x2 super-cell tiling.
const phases = 4

// SchedulingConflict reports two chunks that border each other in the same
// phase. The parity tiling makes this impossible, so it is always fatal.
type SchedulingConflict struct {
	Phase int
	A, B  chunk.Coord
}

func (e *SchedulingConflict) Error() string {
	return fmt.Sprintf("scheduling conflict in phase %d: %v borders %v", e.Phase, e.A, e.B)
}

// phaseOf assigns a chunk to a group by coordinate parity. Two chunks in the
// same group are at least two chunks apart on some axis, so their one-cell
// write rings never overlap.
func phaseOf(c chunk.Coord) int {
	return int(c.X&1) | int(c.Y&1)<<1
}

// partition splits coords into conflict-free phases, keeping input order
// within each phase.
func partition(coords []chunk.Coord) ([phases][]chunk.Coord, error) {
	var groups [phases][]chunk.Coord
	member := make(map[chunk.Coord]int, len(coords))
	for _, c := range coords {
		p := phaseOf(c)
		groups[p] = append(groups[p], c)
		member[c] = p
	}
	for p, group := range groups {
		for _, c := range group {
			for _, off := range world.NeighborOffsets {
				n := c.Add(off[0], off[1])
				if q, ok := member[n]; ok && q == p {
					return groups, &SchedulingConflict{Phase: p, A: c, B: n}
				}
			}
		}
	}
	return groups, nil
}
