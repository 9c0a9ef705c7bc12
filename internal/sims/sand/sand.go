package sand

import (
	"errors"
	"strconv"

	"go.uber.org/zap"

	"sandfall/internal/chunk"
	"sandfall/internal/config"
	"sandfall/internal/core"
	"sandfall/internal/particle"
	"sandfall/internal/render"
	"sandfall/internal/rules"
	"sandfall/internal/scheduler"
	"sandfall/internal/world"
)

// FromMap populates an engine configuration from a string map. Width and
// height are in chunks.
func FromMap(cfg map[string]string) *config.Config {
	c := config.Defaults()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.World.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.World.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Simulation.Seed = parsed
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Simulation.Workers = parsed
		}
	}
	if v, ok := cfg["phase_changes"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Simulation.PhaseChanges = parsed
		}
	}
	return c
}

// Sim runs the chunked world behind the core.Sim contract. Cells returns the
// material id of every pixel of the generated region.
type Sim struct {
	cfg   *config.Config
	table *particle.Table
	log   *zap.Logger

	grid   *world.Grid
	engine *rules.Engine
	sched  *scheduler.Scheduler
	bridge *render.Bridge

	raster *core.ByteGrid
	seen   map[chunk.Coord]rasterEntry

	report scheduler.Report
	err    error
	brush  world.Brush
}

type rasterEntry struct {
	src *chunk.Chunk
	gen uint64
}

// New builds a sim and generates its world. A nil table selects the
// defaults; a nil logger discards output.
func New(cfg *config.Config, table *particle.Table, log *zap.Logger) *Sim {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if table == nil {
		table = particle.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sim{
		cfg:    cfg,
		table:  table,
		log:    log,
		engine: rules.New(table, rules.Options{PhaseChanges: cfg.Simulation.PhaseChanges}),
		bridge: render.NewBridge(table),
		raster: core.NewByteGrid(cfg.World.Width*chunk.Size, cfg.World.Height*chunk.Size),
		brush:  world.Brush{Radius: 3, Material: particle.Sand},
	}
	s.Reset(cfg.Simulation.Seed)
	return s
}

// Name returns the simulation identifier.
func (s *Sim) Name() string { return "sand" }

// Size returns the raster dimensions in cells.
func (s *Sim) Size() core.Size { return core.Size{W: s.raster.W, H: s.raster.H} }

// Reset regenerates the world from seed and restarts the tick counter.
func (s *Sim) Reset(seed int64) {
	s.cfg.Simulation.Seed = seed
	s.grid = world.Generate(s.cfg.Gen(), s.table)
	s.sched = scheduler.New(s.grid, s.engine, s.cfg.Scheduler(), s.log)
	s.seen = make(map[chunk.Coord]rasterEntry)
	s.raster.Clear()
	s.report = scheduler.Report{}
	s.err = nil
	s.log.Info("world generated",
		zap.Int64("seed", seed),
		zap.Int("chunks", s.grid.Len()),
	)
}

// Step advances one tick. Faults are kept in Err; a transactional fault is
// rolled back and the scheduler resumed so the next Step retries.
func (s *Sim) Step() {
	if _, err := s.Advance(); err != nil && !errors.Is(err, scheduler.ErrHalted) {
		if rerr := s.sched.Resume(); rerr != nil {
			s.log.Warn("scheduler stays halted", zap.Error(rerr))
		}
	}
}

// Advance runs one scheduler tick and reports it.
func (s *Sim) Advance() (scheduler.Report, error) {
	rep, err := s.sched.Step()
	if err != nil {
		s.err = err
		return rep, err
	}
	s.report = rep
	return rep, nil
}

// Cells refreshes the raster from chunks whose generation moved and returns
// it.
func (s *Sim) Cells() []uint8 {
	for _, c := range s.grid.Coords() {
		ch, _ := s.grid.GetMut(c)
		prev, ok := s.seen[c]
		if ok && prev.src == ch && prev.gen == ch.Generation() {
			continue
		}
		s.seen[c] = rasterEntry{src: ch, gen: ch.Generation()}
		ox, oy := c.WorldOrigin()
		cells := ch.Cells()
		for y := 0; y < chunk.Size; y++ {
			for x := 0; x < chunk.Size; x++ {
				s.raster.Set(ox+x, oy+y, uint8(cells[chunk.Index(x, y)].Material))
			}
		}
	}
	for c := range s.seen {
		if _, ok := s.grid.GetMut(c); ok {
			continue
		}
		delete(s.seen, c)
		ox, oy := c.WorldOrigin()
		s.raster.ClearRect(ox, oy, ox+chunk.Size, oy+chunk.Size)
	}
	return s.raster.Cells()
}

// Grid exposes the world for edits between ticks.
func (s *Sim) Grid() *world.Grid { return s.grid }

// Bridge returns the render bridge shared by viewers of this sim.
func (s *Sim) Bridge() *render.Bridge { return s.bridge }

// Scheduler returns the tick driver.
func (s *Sim) Scheduler() *scheduler.Scheduler { return s.sched }

// Table returns the material table.
func (s *Sim) Table() *particle.Table { return s.table }

// Report returns the last committed tick report.
func (s *Sim) Report() scheduler.Report { return s.report }

// Err returns the last tick fault, if any.
func (s *Sim) Err() error { return s.err }

// Brush returns the current paint brush.
func (s *Sim) Brush() world.Brush { return s.brush }

// SetBrushMaterial selects the material painted by Paint.
func (s *Sim) SetBrushMaterial(id particle.ID) bool {
	if !id.Valid() || s.table.Props(id).Unbreakable {
		return false
	}
	s.brush.Material = id
	return true
}

// Paint applies the brush at a world position.
func (s *Sim) Paint(x, y int) (int, error) {
	b := s.brush
	b.X, b.Y = x, y
	return s.grid.ApplyBrush(b)
}

// Erase clears the brush footprint at a world position.
func (s *Sim) Erase(x, y int) (int, error) {
	b := s.brush
	b.X, b.Y, b.Material, b.Replace = x, y, particle.Air, true
	return s.grid.ApplyBrush(b)
}

func init() {
	core.Register("sand", func(cfg map[string]string) core.Sim {
		return New(FromMap(cfg), nil, nil)
	})
}

// BrushMaterials is the order in which front ends bind number keys 1-9.
var BrushMaterials = []particle.ID{
	particle.Sand,
	particle.Water,
	particle.Lava,
	particle.Stone,
	particle.Dirt,
	particle.Acid,
	particle.Steam,
	particle.Wood,
	particle.Gold,
}
