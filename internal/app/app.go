//go:build ebiten

package app

import (
	"image/color"
	"time"

	"sandfall/internal/render"
	"sandfall/internal/sims/sand"
	"sandfall/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const hudWidth = 240

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// Game adapts the sand simulation to the ebiten.Game interface.
type Game struct {
	sim     *sand.Sim
	painter *render.GridPainter
	chunks  *render.ChunkPainter
	palette []color.RGBA
	overlay *ui.Overlay
	hud     *ui.HUD

	scale    int
	paused   bool
	tickOnce bool
	atlas    bool
	seed     int64
}

// New constructs a Game for the provided simulation.
func New(sim *sand.Sim, scale int, seed int64) *Game {
	size := sim.Size()
	return &Game{
		sim:     sim,
		painter: render.NewGridPainter(size.W, size.H),
		chunks:  render.NewChunkPainter(nil),
		palette: render.MaterialPalette(sim.Table()),
		overlay: ui.NewOverlay(sim, scale),
		hud:     ui.NewHUD(sim, hudWidth),
		scale:   scale,
		seed:    seed,
	}
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// Update handles per-frame input and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.atlas = !g.atlas
	}
	for i, k := range digitKeys {
		if inpututil.IsKeyJustPressed(k) && i < len(sand.BrushMaterials) {
			g.sim.SetBrushMaterial(sand.BrushMaterials[i])
		}
	}
	g.paint()

	g.overlay.Update()
	g.hud.Update(g.sim.Size().W * g.scale)

	if !g.paused || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

// paint applies the brush under the cursor: left button paints, right
// button erases.
func (g *Game) paint() {
	mx, my := ebiten.CursorPosition()
	size := g.sim.Size()
	x, y := mx/g.scale, my/g.scale
	if x < 0 || y < 0 || x >= size.W || y >= size.H {
		return
	}
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		_, _ = g.sim.Paint(x, y)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		_, _ = g.sim.Erase(x, y)
	}
}

// Draw renders the world, the debug overlay and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	g.overlay.Capture()
	if g.atlas {
		grid, bridge := g.sim.Grid(), g.sim.Bridge()
		for _, c := range grid.Coords() {
			ch, _ := grid.GetMut(c)
			buf := bridge.Sync(ch)
			g.chunks.Draw(screen, c, &buf, g.scale)
		}
	} else {
		g.painter.Blit(screen, g.sim.Cells(), g.palette, g.scale)
	}
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.sim.Size().W*g.scale, g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hud.Width(), s.H * g.scale
}
