package chunk

// Window is a 3x3 block of chunks centred on index 4. Missing neighbours are
// nil.
type Window [9]*Chunk

// CenterSlot is the index of the evaluated chunk inside a Window.
const CenterSlot = 4

// At returns the chunk at offset (dx, dy) from the centre, dx and dy in
// [-1, 1].
func (w *Window) At(dx, dy int) *Chunk { return w[(dy+1)*3+dx+1] }

// Center returns the chunk being evaluated.
func (w *Window) Center() *Chunk { return w[CenterSlot] }

// Resolve maps a position relative to the centre chunk, at most one chunk
// outside it, to a window slot and the local position inside that slot.
func Resolve(x, y int) (slot, lx, ly int) {
	sx, sy := 1, 1
	switch {
	case x < 0:
		sx, x = 0, x+Size
	case x >= Size:
		sx, x = 2, x-Size
	}
	switch {
	case y < 0:
		sy, y = 0, y+Size
	case y >= Size:
		sy, y = 2, y-Size
	}
	return sy*3 + sx, x, y
}
