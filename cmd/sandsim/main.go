package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sandfall/internal/chunk"
	"sandfall/internal/config"
	"sandfall/internal/core"
	"sandfall/internal/logging"
	"sandfall/internal/particle"
	"sandfall/internal/persist"
	"sandfall/internal/rules"
	"sandfall/internal/scheduler"
	"sandfall/internal/script"
	"sandfall/internal/stream"
	"sandfall/internal/world"
)

const streamEvery = 32

func main() {
	fs := flag.NewFlagSet("sandsim", flag.ExitOnError)
	ticks := fs.Int("ticks", 1000, "ticks to run (0 = until interrupted)")
	scene := fs.String("scene", "", "Lua scene script run before the first tick")
	realtime := fs.Bool("realtime", false, "pace ticks at simulation.tps instead of running flat out")
	every := fs.Int("report", 100, "ticks between stats lines")
	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *ticks, *scene, *realtime, *every); err != nil {
		log.Fatal("sandsim failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, ticks int, scene string, realtime bool, every int) error {
	table := particle.Default()
	if cfg.Materials.Path != "" {
		t, err := particle.LoadTable(cfg.Materials.Path)
		if err != nil {
			return err
		}
		table = t
		log.Info("material table loaded", zap.String("path", cfg.Materials.Path))
	}

	gen := cfg.Gen()
	focus := chunk.Coord{X: int32(gen.Width / 2), Y: int32(gen.Height / 2)}

	var (
		grid     *world.Grid
		store    *persist.Store
		streamer *stream.Streamer
	)
	if cfg.Store.Path != "" {
		var err error
		store, err = persist.OpenStore(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		grid, err = openWorld(ctx, store, cfg, table, log)
		if err != nil {
			return err
		}
		streamer, err = stream.New(ctx, grid, store, cfg.Store.StreamRadius, log)
		if err != nil {
			return err
		}
		if _, err := streamer.Update(ctx, focus); err != nil {
			return err
		}
	} else {
		grid = world.Generate(gen, table)
	}

	var lua *script.Engine
	if scene != "" {
		lua = script.NewEngine(grid, log)
		defer lua.Close()
		if err := lua.RunFile(scene); err != nil {
			return err
		}
	}

	eng := rules.New(table, rules.Options{PhaseChanges: cfg.Simulation.PhaseChanges})
	sched := scheduler.New(grid, eng, cfg.Scheduler(), log)
	sched.SetFocus(focus)
	log.Info("simulation starting",
		zap.Int("chunks", grid.Len()),
		zap.Int("workers", sched.Workers()),
		zap.Int64("seed", cfg.Simulation.Seed),
		zap.Bool("phase_changes", cfg.Simulation.PhaseChanges),
		zap.String("store", cfg.Store.Path),
	)

	pace := core.NewFixedStep(cfg.Simulation.TPS)
	var (
		totals scheduler.Report
		faults int
		start  = time.Now()
	)
	for n := 1; ticks == 0 || n <= ticks; n++ {
		if ctx.Err() != nil {
			log.Info("interrupted", zap.Uint64("tick", sched.Tick()))
			break
		}
		if realtime {
			for !pace.ShouldStep() {
				time.Sleep(pace.Interval() / 8)
			}
		}
		if lua != nil {
			if err := lua.Tick(sched.Tick() + 1); err != nil {
				return err
			}
		}
		rep, err := sched.Step()
		if err != nil {
			faults++
			if rerr := sched.Resume(); rerr != nil {
				return errors.Join(err, rerr)
			}
			continue
		}
		totals.Moves += rep.Moves
		totals.Reactions += rep.Reactions
		totals.Transitions += rep.Transitions
		totals.Touched += rep.Touched

		if streamer != nil && rep.Tick%streamEvery == 0 {
			if _, err := streamer.Update(ctx, focus); err != nil {
				return err
			}
		}
		if every > 0 && rep.Tick%uint64(every) == 0 {
			logStats(log, grid, rep, totals)
		}
	}

	if streamer != nil {
		if err := streamer.Flush(ctx); err != nil {
			return err
		}
	}
	log.Info("simulation finished",
		zap.Uint64("ticks", sched.Tick()),
		zap.Int("faults", faults),
		zap.Int("moves", totals.Moves),
		zap.Int("reactions", totals.Reactions),
		zap.Int("transitions", totals.Transitions),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// openWorld reuses the stored world when its seed matches, otherwise
// clears the store, generates a fresh world and records the seed.
func openWorld(ctx context.Context, store *persist.Store, cfg *config.Config, table *particle.Table, log *zap.Logger) (*world.Grid, error) {
	seed := strconv.FormatInt(cfg.Simulation.Seed, 10)
	stored, ok, err := store.Meta(ctx, "seed")
	if err != nil {
		return nil, err
	}
	if ok && stored == seed {
		log.Info("resuming stored world", zap.String("seed", seed))
		return world.New(table), nil
	}
	if ok {
		log.Warn("stored world has a different seed, regenerating", zap.String("stored", stored), zap.String("seed", seed))
	}
	// Chunks of any previous world would be streamed back in.
	if err := store.Reset(ctx); err != nil {
		return nil, err
	}
	grid := world.Generate(cfg.Gen(), table)
	for _, c := range grid.Coords() {
		ch, _ := grid.GetMut(c)
		if err := store.Save(ctx, ch); err != nil {
			return nil, err
		}
	}
	if err := store.SetMeta(ctx, "seed", seed); err != nil {
		return nil, err
	}
	return grid, nil
}

func logStats(log *zap.Logger, grid *world.Grid, rep, totals scheduler.Report) {
	comp := grid.Composition()
	fields := []zap.Field{
		zap.Uint64("tick", rep.Tick),
		zap.Int("collected", rep.Collected),
		zap.Int("touched", rep.Touched),
		zap.Duration("tick_time", rep.Elapsed),
		zap.Int("moves_total", totals.Moves),
	}
	for id := particle.ID(1); id < particle.Count; id++ {
		if comp[id] > 0 {
			fields = append(fields, zap.Int(id.String(), comp[id]))
		}
	}
	log.Info("stats", fields...)
}
