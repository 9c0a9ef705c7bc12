package chunk

// Rect is an inclusive rectangle of local cell positions. A rect with
// MinX > MaxX is empty.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

// EmptyRect returns the identity element for Union.
func EmptyRect() Rect { return Rect{MinX: Size, MinY: Size, MaxX: -1, MaxY: -1} }

// FullRect covers the whole chunk.
func FullRect() Rect { return Rect{MinX: 0, MinY: 0, MaxX: Size - 1, MaxY: Size - 1} }

// Empty reports whether the rect covers no cells.
func (r Rect) Empty() bool { return r.MinX > r.MaxX || r.MinY > r.MaxY }

// Include grows the rect to contain (x, y).
func (r Rect) Include(x, y int) Rect {
	if x < r.MinX {
		r.MinX = x
	}
	if x > r.MaxX {
		r.MaxX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if y > r.MaxY {
		r.MaxY = y
	}
	return r
}

// Union returns the smallest rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	if o.Empty() {
		return r
	}
	if r.Empty() {
		return o
	}
	r = r.Include(o.MinX, o.MinY)
	return r.Include(o.MaxX, o.MaxY)
}

// Contains reports whether (x, y) lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Cells returns the number of cells covered.
func (r Rect) Cells() int {
	if r.Empty() {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}
