package render

import (
	"testing"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

func TestAllAirChunkIsAllZero(t *testing.T) {
	b := NewBridge(nil)
	buf := b.Sync(chunk.New(chunk.Coord{X: 3, Y: -2}))
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("index %d = %d, want 0", i, s)
		}
	}
	packed := Pack(&buf)
	if packed != ([chunk.Area / 4][4]uint32{}) {
		t.Fatal("packed air buffer is not zero")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	b := NewBridge(nil)
	c := chunk.New(chunk.Coord{})
	if err := c.Set(4, 5, particle.Cell{Material: particle.Water}); err != nil {
		t.Fatal(err)
	}
	first := b.Sync(c)
	gen, ok := b.Generation(c.Origin())
	if !ok || gen != c.Generation() {
		t.Fatalf("cached generation %d (%v), chunk at %d", gen, ok, c.Generation())
	}
	if _, dirty := c.Dirty(); dirty {
		t.Fatal("sync must clear the dirty rect")
	}
	rebuilds := b.Stats().Rebuilds

	second := b.Sync(c)
	if first != second {
		t.Fatal("second sync returned a different buffer")
	}
	if g2, _ := b.Generation(c.Origin()); g2 != gen {
		t.Fatalf("generation marker moved from %d to %d", gen, g2)
	}
	if b.Stats().Rebuilds != rebuilds {
		t.Fatal("unchanged chunk was rebuilt")
	}
	if first[chunk.Index(4, 5)] != SpriteIndex(particle.SpriteLiquid) {
		t.Fatalf("water sprite = %d", first[chunk.Index(4, 5)])
	}
}

func TestSyncRegeneratesOnlyTheDirtyRect(t *testing.T) {
	b := NewBridge(nil)
	c := chunk.New(chunk.Coord{})
	b.Sync(c)
	before := b.Stats().Cells

	if err := c.Set(10, 10, particle.Cell{Material: particle.Sand}); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(11, 12, particle.Cell{Material: particle.Steam}); err != nil {
		t.Fatal(err)
	}
	buf := b.Sync(c)
	if got := b.Stats().Cells - before; got != 6 {
		t.Fatalf("regenerated %d cells, want 6", got)
	}
	if buf[chunk.Index(10, 10)] != SpriteIndex(particle.SpriteGranular) || buf[chunk.Index(11, 12)] != SpriteIndex(particle.SpriteGas) {
		t.Fatal("dirty cells not regenerated")
	}
}

func TestReloadedChunkIsRebuilt(t *testing.T) {
	b := NewBridge(nil)
	c := chunk.New(chunk.Coord{X: 1})
	b.Sync(c)

	var cells [chunk.Area]particle.Cell
	cells[0] = particle.Cell{Material: particle.Stone}
	reloaded := chunk.Load(chunk.Coord{X: 1}, &cells)
	buf := b.Sync(reloaded)
	if buf[0] != SpriteIndex(particle.SpriteSolid) {
		t.Fatal("reloaded chunk served a stale buffer")
	}
}

func TestUniformFlags(t *testing.T) {
	tbl := particle.Default()
	cases := []struct {
		id   particle.ID
		mode particle.AlphaMode
	}{
		{particle.Stone, particle.AlphaOpaque},
		{particle.Ruby, particle.AlphaMask},
		{particle.Water, particle.AlphaBlend},
	}
	for _, tc := range cases {
		u := UniformFor(tbl.Props(tc.id), true)
		if AlphaModeOf(u.Flags) != tc.mode {
			t.Fatalf("%s: alpha mode %d, want %d", tc.id, AlphaModeOf(u.Flags), tc.mode)
		}
		if u.Flags&FlagTexture == 0 || u.Flags&^(FlagTexture|FlagAlphaReserved) != 0 {
			t.Fatalf("%s: unexpected flag bits %032b", tc.id, u.Flags)
		}
		if u.ChunkSize != chunk.Size || u.AlphaCutoff != DefaultAlphaCutoff {
			t.Fatalf("%s: uniform %+v", tc.id, u)
		}
	}
	if FlagAlphaBlend != 2<<30 {
		t.Fatalf("blend flag = %#x", FlagAlphaBlend)
	}
}

func TestFillBufferUsesAtlasPalette(t *testing.T) {
	var b Buffer
	b[1] = SpriteIndex(particle.SpriteLiquid)
	px := make([]byte, 4*chunk.Area)
	FillBuffer(px, &b, AtlasPalette())
	if px[3] != 0 {
		t.Fatal("empty sprite must be transparent")
	}
	want := AtlasPalette()[particle.SpriteLiquid]
	if px[4] != want.R || px[5] != want.G || px[6] != want.B || px[7] != want.A {
		t.Fatalf("liquid pixel = %v", px[4:8])
	}
}
