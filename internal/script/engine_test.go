package script

import (
	"os"
	"path/filepath"
	"testing"

	"sandfall/internal/particle"
	"sandfall/internal/world"
)

func TestSceneEditsWorld(t *testing.T) {
	g := world.New(nil)
	e := NewEngine(g, nil)
	defer e.Close()

	err := e.RunString(`
		n = fill(0, 10, 9, 10, "stone")
		assert(n == 10, "fill count " .. n)
		assert(place(3, 2, "sand"))
		b = brush(20, 20, 1, "water", {square = true})
		assert(b == 9, "brush count " .. b)
		assert(cell(3, 2) == "sand")
		assert(cell(-500, -500) == "air")
		assert(#materials() == 14)
	`)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if got := g.CellAt(9, 10).Material; got != particle.Stone {
		t.Fatalf("fill wrote %s", got)
	}
	if got := g.CellAt(21, 21).Material; got != particle.Water {
		t.Fatalf("brush wrote %s", got)
	}
}

func TestPlaceOnUnbreakableReturnsFalse(t *testing.T) {
	g := world.New(nil)
	if err := g.Place(1, 1, particle.UnbreakableDungeon); err != nil {
		t.Fatal(err)
	}
	e := NewEngine(g, nil)
	defer e.Close()
	if err := e.RunString(`ok = place(1, 1, "sand")`); err != nil {
		t.Fatal(err)
	}
	if e.vm.GetGlobal("ok").String() != "false" {
		t.Fatalf("place over unbreakable returned %v", e.vm.GetGlobal("ok"))
	}
	if got := g.CellAt(1, 1).Material; got != particle.UnbreakableDungeon {
		t.Fatalf("unbreakable cell became %s", got)
	}
}

func TestUnknownMaterialIsAnError(t *testing.T) {
	e := NewEngine(world.New(nil), nil)
	defer e.Close()
	if err := e.RunString(`place(0, 0, "plasma")`); err == nil {
		t.Fatal("expected error for unknown material")
	}
}

func TestTickHookFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emitter.lua")
	src := `function on_tick(t) place(5, 0, "sand") last = t end`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	g := world.New(nil)
	e := NewEngine(g, nil)
	defer e.Close()
	if err := e.RunFile(path); err != nil {
		t.Fatal(err)
	}
	if !e.HasTickHook() {
		t.Fatal("on_tick not detected")
	}
	if err := e.Tick(7); err != nil {
		t.Fatal(err)
	}
	if g.CellAt(5, 0).Material != particle.Sand || e.vm.GetGlobal("last").String() != "7" {
		t.Fatal("on_tick did not run")
	}
}
