package persist

import (
	"context"
	"path/filepath"
	"testing"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

func sample(t *testing.T, origin chunk.Coord) *chunk.Chunk {
	t.Helper()
	tbl := particle.Default()
	c := chunk.New(origin)
	for x := 0; x < chunk.Size; x++ {
		if err := c.Set(x, chunk.Size-1, tbl.New(particle.Stone)); err != nil {
			t.Fatal(err)
		}
	}
	lava := tbl.New(particle.Lava)
	lava.VX = -1
	if err := c.Set(7, 3, lava); err != nil {
		t.Fatal(err)
	}
	steam := tbl.New(particle.Steam)
	steam.Lifetime = 17
	steam.LastTick = 99
	if err := c.Set(8, 3, steam); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestChunkCodecReproducesCellsAtGenerationZero(t *testing.T) {
	c := sample(t, chunk.Coord{X: -2, Y: 5})
	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}
	got, err := UnmarshalChunk(data)
	if err != nil {
		t.Fatalf("UnmarshalChunk: %v", err)
	}
	if got.Origin() != c.Origin() || got.Generation() != 0 {
		t.Fatalf("decoded origin=%v generation=%d", got.Origin(), got.Generation())
	}
	for i := range c.Cells() {
		want := c.Cells()[i]
		want.LastTick = 0
		if got.Cells()[i] != want {
			t.Fatalf("cell %d = %+v, want %+v", i, got.Cells()[i], want)
		}
	}
	if !got.Active() {
		t.Fatal("a loaded chunk must be scheduled for evaluation")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalChunk([]byte("not zstd at all")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(filepath.Join(t.TempDir(), "world", "chunks.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	a := sample(t, chunk.Coord{X: 1, Y: 1})
	b := sample(t, chunk.Coord{X: -1, Y: 0})
	for _, c := range []*chunk.Chunk{a, b} {
		if err := s.Save(ctx, c); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	// Saving again replaces the row.
	if err := a.Set(0, 0, particle.Cell{Material: particle.Sand}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	coords, err := s.Coords(ctx)
	if err != nil {
		t.Fatalf("Coords: %v", err)
	}
	if len(coords) != 2 || coords[0] != (chunk.Coord{X: -1, Y: 0}) || coords[1] != (chunk.Coord{X: 1, Y: 1}) {
		t.Fatalf("coords = %v", coords)
	}

	got, ok, err := s.Load(ctx, chunk.Coord{X: 1, Y: 1})
	if err != nil || !ok {
		t.Fatalf("Load: %v %v", ok, err)
	}
	if cell, _ := got.Cell(0, 0); cell.Material != particle.Sand {
		t.Fatalf("stale chunk loaded: %+v", cell)
	}

	if err := s.Delete(ctx, chunk.Coord{X: 1, Y: 1}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := s.Load(ctx, chunk.Coord{X: 1, Y: 1}); ok || err != nil {
		t.Fatalf("deleted chunk still present: %v %v", ok, err)
	}

	if err := s.SetMeta(ctx, "seed", "42"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if v, ok, err := s.Meta(ctx, "seed"); v != "42" || !ok || err != nil {
		t.Fatalf("Meta = %q %v %v", v, ok, err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if coords, err := s.Coords(ctx); len(coords) != 0 || err != nil {
		t.Fatalf("coords after reset = %v %v", coords, err)
	}
	if v, ok, _ := s.Meta(ctx, "seed"); v != "42" || !ok {
		t.Fatal("reset dropped meta")
	}
}
