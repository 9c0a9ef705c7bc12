package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"sandfall/internal/config"
	"sandfall/internal/logging"
	"sandfall/internal/particle"
	"sandfall/internal/script"
	"sandfall/internal/sims/sand"
	"sandfall/internal/termview"
)

func main() {
	fs := flag.NewFlagSet("sandterm", flag.ExitOnError)
	scene := fs.String("scene", "", "Lua scene script run after world generation")
	logPath := fs.String("log", "", "append JSON logs to this file")
	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// The terminal is busy drawing, so logs only go to a file.
	log := zap.NewNop()
	if *logPath != "" {
		if log, err = logging.NewFile(cfg.Logging.Level, *logPath); err != nil {
			fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
	}

	if err := run(cfg, log, *scene); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger, scene string) error {
	table := particle.Default()
	if cfg.Materials.Path != "" {
		t, err := particle.LoadTable(cfg.Materials.Path)
		if err != nil {
			return err
		}
		table = t
	}
	sim := sand.New(cfg, table, log)
	if scene != "" {
		lua := script.NewEngine(sim.Grid(), log)
		defer lua.Close()
		if err := lua.RunFile(scene); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = termview.New(screen, sim, log).Run(ctx, cfg.Simulation.TPS)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
