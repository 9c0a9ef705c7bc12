//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"sandfall/internal/app"
	"sandfall/internal/config"
	"sandfall/internal/logging"
	"sandfall/internal/particle"
	"sandfall/internal/sims/sand"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

func main() {
	fs := flag.NewFlagSet("sand", flag.ExitOnError)
	scale := fs.Int("scale", 3, "pixel scale multiplier")
	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Must(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()

	table := particle.Default()
	if cfg.Materials.Path != "" {
		if table, err = particle.LoadTable(cfg.Materials.Path); err != nil {
			logger.Fatal("load materials", zap.Error(err))
		}
	}

	sim := sand.New(cfg, table, logger)
	game := app.New(sim, *scale, cfg.Simulation.Seed)

	ebiten.SetWindowTitle("sandfall: " + sim.Name())
	ebiten.SetTPS(cfg.Simulation.TPS)
	ebiten.SetWindowSize(game.Layout(0, 0))

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("run", zap.Error(err))
	}
}
