package core

import (
	"testing"
	"time"
)

func TestFixedStepDueIsCapped(t *testing.T) {
	clock := time.Unix(0, 0)
	fs := NewFixedStep(10)
	fs.now = func() time.Time { return clock }
	fs.accumulator = 0

	if n := fs.Due(5); n != 0 {
		t.Fatalf("due before time passed = %d", n)
	}
	clock = clock.Add(350 * time.Millisecond)
	if n := fs.Due(5); n != 3 {
		t.Fatalf("due after 350ms at 10 TPS = %d, want 3", n)
	}
	clock = clock.Add(10 * time.Second)
	if n := fs.Due(5); n != 5 {
		t.Fatalf("due after stall = %d, want cap 5", n)
	}
}

func TestByteGridClearRectClips(t *testing.T) {
	g := NewByteGrid(4, 3)
	for i := range g.Cells() {
		g.Cells()[i] = 7
	}
	g.ClearRect(-2, 1, 2, 10)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			want := uint8(7)
			if y >= 1 && x < 2 {
				want = 0
			}
			if got := g.At(x, y); got != want {
				t.Fatalf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
	g.Set(9, 9, 1)
	if g.At(9, 9) != 0 {
		t.Fatal("out-of-bounds write landed")
	}
}
