package script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"sandfall/internal/particle"
	"sandfall/internal/world"
)

// Engine runs Lua scene scripts against a world grid. Scripts see these
// globals:
//
//	place(x, y, material)                 -> bool
//	fill(x0, y0, x1, y1, material)        -> count
//	brush(x, y, radius, material[, opts]) -> count   opts: {square=bool, replace=bool}
//	cell(x, y)                            -> material name
//	materials()                           -> list of material names
//	log(msg)
//
// A script may define on_tick(tick); Tick calls it between simulation ticks.
// Single-goroutine access only.
type Engine struct {
	vm   *lua.LState
	grid *world.Grid
	log  *zap.Logger
}

// NewEngine creates a VM bound to grid.
func NewEngine(grid *world.Grid, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	e := &Engine{vm: vm, grid: grid, log: log}

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("CHUNK_SIZE", lua.LNumber(32))
	for name, fn := range map[string]lua.LGFunction{
		"place":     e.luaPlace,
		"fill":      e.luaFill,
		"brush":     e.luaBrush,
		"cell":      e.luaCell,
		"materials": e.luaMaterials,
		"log":       e.luaLog,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
	return e
}

// Close releases the VM.
func (e *Engine) Close() { e.vm.Close() }

// RunFile executes a scene script.
func (e *Engine) RunFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run scene %s: %w", path, err)
	}
	e.log.Debug("ran scene script", zap.String("file", path))
	return nil
}

// RunString executes inline Lua source.
func (e *Engine) RunString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run scene: %w", err)
	}
	return nil
}

// HasTickHook reports whether the loaded scripts define on_tick.
func (e *Engine) HasTickHook() bool {
	return e.vm.GetGlobal("on_tick").Type() == lua.LTFunction
}

// Tick calls on_tick(tick) if defined. It must not run while the scheduler
// is inside a tick.
func (e *Engine) Tick(tick uint64) error {
	fn := e.vm.GetGlobal("on_tick")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(tick)); err != nil {
		return fmt.Errorf("on_tick(%d): %w", tick, err)
	}
	return nil
}

func (e *Engine) material(L *lua.LState, n int) particle.ID {
	name := L.CheckString(n)
	id, ok := particle.Parse(name)
	if !ok {
		L.ArgError(n, fmt.Sprintf("unknown material %q", name))
	}
	return id
}

func (e *Engine) luaPlace(L *lua.LState) int {
	x, y := L.CheckInt(1), L.CheckInt(2)
	id := e.material(L, 3)
	err := e.grid.Place(x, y, id)
	switch {
	case err == nil:
		L.Push(lua.LTrue)
	case errors.Is(err, world.ErrUnbreakable):
		L.Push(lua.LFalse)
	default:
		L.RaiseError("%s", err.Error())
	}
	return 1
}

func (e *Engine) luaFill(L *lua.LState) int {
	x0, y0, x1, y1 := L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4)
	id := e.material(L, 5)
	n, err := e.grid.Fill(x0, y0, x1, y1, id)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LNumber(n))
	return 1
}

func (e *Engine) luaBrush(L *lua.LState) int {
	b := world.Brush{
		X:        L.CheckInt(1),
		Y:        L.CheckInt(2),
		Radius:   L.CheckInt(3),
		Material: e.material(L, 4),
	}
	if opts := L.OptTable(5, nil); opts != nil {
		if lua.LVAsBool(opts.RawGetString("square")) {
			b.Shape = world.BrushSquare
		}
		b.Replace = lua.LVAsBool(opts.RawGetString("replace"))
	}
	n, err := e.grid.ApplyBrush(b)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LNumber(n))
	return 1
}

func (e *Engine) luaCell(L *lua.LState) int {
	c := e.grid.CellAt(L.CheckInt(1), L.CheckInt(2))
	L.Push(lua.LString(c.Material.String()))
	return 1
}

func (e *Engine) luaMaterials(L *lua.LState) int {
	t := L.NewTable()
	for id := particle.ID(0); id < particle.Count; id++ {
		t.Append(lua.LString(id.String()))
	}
	L.Push(t)
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("scene", zap.String("msg", L.CheckString(1)))
	return 0
}
