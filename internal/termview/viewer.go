package termview

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
	"sandfall/internal/render"
	"sandfall/internal/sims/sand"
)

// glyphs maps atlas slots to terminal runes.
var glyphs = [...]rune{
	particle.SpriteEmpty:    ' ',
	particle.SpriteGranular: ':',
	particle.SpriteSolid:    '#',
	particle.SpriteLiquid:   '~',
	particle.SpriteGas:      '.',
}

// Viewer draws a sand sim into a terminal, one world cell per character, and
// paints with the mouse.
type Viewer struct {
	screen tcell.Screen
	sim    *sand.Sim
	log    *zap.Logger

	styles [len(glyphs)]tcell.Style

	camX, camY int
	paused     bool
	step       bool
}

// New builds a viewer over an initialised screen.
func New(screen tcell.Screen, sim *sand.Sim, log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	v := &Viewer{screen: screen, sim: sim, log: log}
	for i, c := range render.AtlasPalette() {
		st := tcell.StyleDefault
		if c.A > 0 {
			st = st.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		}
		v.styles[i] = st
	}
	return v
}

// Pan moves the camera by (dx, dy) world cells.
func (v *Viewer) Pan(dx, dy int) {
	v.camX += dx
	v.camY += dy
}

// Camera returns the world position of the top-left character.
func (v *Viewer) Camera() (int, int) { return v.camX, v.camY }

// Paused reports whether ticking is suspended.
func (v *Viewer) Paused() bool { return v.paused }

// Draw renders the visible world and a status line. The last row is
// reserved for the status line.
func (v *Viewer) Draw() {
	w, h := v.screen.Size()
	v.screen.Clear()
	rows := h - 1
	bufs := make(map[chunk.Coord]*render.Buffer)
	bridge := v.sim.Bridge()
	grid := v.sim.Grid()
	for sy := 0; sy < rows; sy++ {
		for sx := 0; sx < w; sx++ {
			c, lx, ly := chunk.FromWorld(v.camX+sx, v.camY+sy)
			buf, ok := bufs[c]
			if !ok {
				if ch, present := grid.GetMut(c); present {
					b := bridge.Sync(ch)
					buf = &b
				}
				bufs[c] = buf
			}
			if buf == nil {
				continue
			}
			s := int(buf[chunk.Index(lx, ly)])
			if s >= len(glyphs) {
				s = int(particle.SpriteSolid)
			}
			v.screen.SetContent(sx, sy, glyphs[s], nil, v.styles[s])
		}
	}
	v.drawStatus(w, h-1)
	v.screen.Show()
}

func (v *Viewer) drawStatus(w, y int) {
	if y < 0 {
		return
	}
	rep := v.sim.Report()
	state := "run"
	if v.paused {
		state = "paused"
	}
	line := fmt.Sprintf(" tick %d  %s  brush %s r%d  active %d  moves %d  cam %d,%d ",
		rep.Tick, state, v.sim.Brush().Material, v.sim.Brush().Radius, rep.Collected, rep.Moves, v.camX, v.camY)
	if err := v.sim.Err(); err != nil {
		line += " fault: " + err.Error()
	}
	st := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		if x >= w {
			break
		}
		v.screen.SetContent(x, y, r, nil, st)
		x++
	}
}

// Handle applies one input event. It returns false when the viewer should
// exit.
func (v *Viewer) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			v.Pan(-4, 0)
		case tcell.KeyRight:
			v.Pan(4, 0)
		case tcell.KeyUp:
			v.Pan(0, -4)
		case tcell.KeyDown:
			v.Pan(0, 4)
		case tcell.KeyRune:
			return v.handleRune(ev.Rune())
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		wx, wy := v.camX+x, v.camY+y
		switch {
		case ev.Buttons()&tcell.Button1 != 0:
			if _, err := v.sim.Paint(wx, wy); err != nil {
				v.log.Warn("paint rejected", zap.Int("x", wx), zap.Int("y", wy), zap.Error(err))
			}
		case ev.Buttons()&(tcell.Button2|tcell.Button3) != 0:
			if _, err := v.sim.Erase(wx, wy); err != nil {
				v.log.Warn("erase rejected", zap.Int("x", wx), zap.Int("y", wy), zap.Error(err))
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) handleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case ' ':
		v.paused = !v.paused
	case 'n':
		v.step = true
	case '+':
		v.sim.SetIntParameter("brush_radius", v.sim.Brush().Radius+1)
	case '-':
		v.sim.SetIntParameter("brush_radius", v.sim.Brush().Radius-1)
	default:
		if i := int(r - '1'); i >= 0 && i < len(sand.BrushMaterials) {
			v.sim.SetBrushMaterial(sand.BrushMaterials[i])
		}
	}
	return true
}

// Tick advances the sim once unless paused; a pending single step runs even
// while paused.
func (v *Viewer) Tick() {
	if v.paused && !v.step {
		return
	}
	v.step = false
	v.sim.Step()
}

// Run drives input, ticks and drawing until the user quits or ctx ends.
func (v *Viewer) Run(ctx context.Context, tps int) error {
	if tps <= 0 {
		tps = 40
	}
	v.screen.EnableMouse()
	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go v.poll(events, done)

	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()
	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok || !v.Handle(ev) {
				return nil
			}
		case <-ticker.C:
			v.Tick()
			v.Draw()
		}
	}
}

// poll forwards screen events until the screen is finalized or done is
// closed.
func (v *Viewer) poll(events chan<- tcell.Event, done <-chan struct{}) {
	defer close(events)
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}
