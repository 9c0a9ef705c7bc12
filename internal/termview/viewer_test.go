package termview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"sandfall/internal/particle"
	"sandfall/internal/sims/sand"
)

func setup(t *testing.T) (tcell.SimulationScreen, *sand.Sim, *Viewer) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(40, 12)
	sim := sand.New(sand.FromMap(map[string]string{"w": "2", "h": "1", "seed": "3"}), nil, nil)
	// Blank sky so the drawn glyphs are predictable.
	if _, err := sim.Grid().Fill(0, 0, 63, 10, particle.Air); err != nil {
		t.Fatal(err)
	}
	return screen, sim, New(screen, sim, nil)
}

func TestDrawUsesSpriteGlyphs(t *testing.T) {
	screen, sim, v := setup(t)
	for x, id := range []particle.ID{particle.Sand, particle.Stone, particle.Water} {
		if err := sim.Grid().Place(x, 2, id); err != nil {
			t.Fatal(err)
		}
	}
	v.Draw()
	for x, want := range []rune{':', '#', '~', ' '} {
		if got, _, _, _ := screen.GetContent(x, 2); got != want {
			t.Fatalf("glyph at x=%d is %q, want %q", x, got, want)
		}
	}
	// The last row is the status line.
	if got, _, _, _ := screen.GetContent(1, 11); got != 't' {
		t.Fatalf("status line starts with %q", got)
	}
}

func TestKeysSelectMaterialPauseAndQuit(t *testing.T) {
	_, sim, v := setup(t)
	if !v.Handle(tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone)) {
		t.Fatal("material key quit the viewer")
	}
	if sim.Brush().Material != particle.Water {
		t.Fatalf("brush = %s", sim.Brush().Material)
	}
	v.Handle(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	if !v.Paused() {
		t.Fatal("space did not pause")
	}
	v.Tick()
	if sim.Report().Tick != 0 {
		t.Fatal("paused viewer ticked")
	}
	v.Handle(tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone))
	v.Tick()
	if sim.Report().Tick != 1 {
		t.Fatalf("single step ran to tick %d", sim.Report().Tick)
	}
	v.Handle(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	if x, _ := v.Camera(); x != 4 {
		t.Fatalf("camera x = %d", x)
	}
	if v.Handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("q did not quit")
	}
}

func TestMousePaints(t *testing.T) {
	_, sim, v := setup(t)
	sim.SetIntParameter("brush_radius", 0)
	v.Handle(tcell.NewEventMouse(5, 3, tcell.Button1, tcell.ModNone))
	if got := sim.Grid().CellAt(5, 3).Material; got != particle.Sand {
		t.Fatalf("painted %s", got)
	}
	v.Handle(tcell.NewEventMouse(5, 3, tcell.Button3, tcell.ModNone))
	if got := sim.Grid().CellAt(5, 3).Material; got != particle.Air {
		t.Fatalf("erase left %s", got)
	}
}

func TestPollStopsWhenViewerIsDone(t *testing.T) {
	screen, _, v := setup(t)
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	// Nobody reads events, as after Run has returned.
	events := make(chan tcell.Event)
	done := make(chan struct{})
	close(done)
	finished := make(chan struct{})
	go func() {
		v.poll(events, done)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("poll blocked on an unread event")
	}
	if _, ok := <-events; ok {
		t.Fatal("events left open")
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	_, _, v := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Run(ctx, 40); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
}
