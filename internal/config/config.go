package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"sandfall/internal/scheduler"
	"sandfall/internal/world"
)

// Config is the engine configuration read from a TOML file.
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	World      WorldConfig      `toml:"world"`
	Materials  MaterialsConfig  `toml:"materials"`
	Store      StoreConfig      `toml:"store"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	TPS           int   `toml:"tps"`
	Workers       int   `toml:"workers"` // 0 = GOMAXPROCS
	Seed          int64 `toml:"seed"`
	Transactional bool  `toml:"transactional"`
	PhaseChanges  bool  `toml:"phase_changes"`
	ActiveRadius  int   `toml:"active_radius"` // in chunks, 0 = unlimited
}

type WorldConfig struct {
	Width        int     `toml:"width"`  // chunks
	Height       int     `toml:"height"` // chunks
	SurfaceLevel float64 `toml:"surface_level"`
	Amplitude    float64 `toml:"amplitude"`
	Frequency    float64 `toml:"frequency"`
	DirtDepth    int     `toml:"dirt_depth"`
	Ores         bool    `toml:"ores"`
	Pockets      int     `toml:"pockets"`
	Dungeons     int     `toml:"dungeons"`
}

type MaterialsConfig struct {
	Path string `toml:"path"` // optional YAML overrides
}

type StoreConfig struct {
	Path         string `toml:"path"` // empty disables persistence
	StreamRadius int    `toml:"stream_radius"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path and decodes it over Defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	gen := world.DefaultGenConfig()
	return &Config{
		Simulation: SimulationConfig{
			TPS:           40,
			Seed:          gen.Seed,
			Transactional: true,
			PhaseChanges:  true,
			ActiveRadius:  12,
		},
		World: WorldConfig{
			Width:        gen.Width,
			Height:       gen.Height,
			SurfaceLevel: gen.SurfaceLevel,
			Amplitude:    gen.Amplitude,
			Frequency:    gen.Frequency,
			DirtDepth:    gen.DirtDepth,
			Ores:         gen.Ores,
			Pockets:      gen.Pockets,
			Dungeons:     gen.Dungeons,
		},
		Store: StoreConfig{
			StreamRadius: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch {
	case c.Simulation.TPS <= 0:
		return fmt.Errorf("simulation.tps must be positive, got %d", c.Simulation.TPS)
	case c.Simulation.Workers < 0:
		return fmt.Errorf("simulation.workers must not be negative, got %d", c.Simulation.Workers)
	case c.Simulation.ActiveRadius < 0:
		return fmt.Errorf("simulation.active_radius must not be negative, got %d", c.Simulation.ActiveRadius)
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("world size %dx%d must be positive", c.World.Width, c.World.Height)
	case c.World.SurfaceLevel < 0 || c.World.SurfaceLevel > 1:
		return fmt.Errorf("world.surface_level %v outside [0,1]", c.World.SurfaceLevel)
	case c.Store.StreamRadius < 1:
		return fmt.Errorf("store.stream_radius must be at least 1, got %d", c.Store.StreamRadius)
	}
	return nil
}

// Bind attaches the most frequently overridden settings to fs.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Simulation.TPS, "tps", c.Simulation.TPS, "ticks per second")
	fs.IntVar(&c.Simulation.Workers, "workers", c.Simulation.Workers, "worker goroutines per phase (0 = GOMAXPROCS)")
	fs.Int64Var(&c.Simulation.Seed, "seed", c.Simulation.Seed, "world and rule seed")
	fs.BoolVar(&c.Simulation.PhaseChanges, "phase-changes", c.Simulation.PhaseChanges, "enable reactions and thresholds")
	fs.StringVar(&c.Materials.Path, "materials", c.Materials.Path, "YAML material overrides")
	fs.StringVar(&c.Store.Path, "store", c.Store.Path, "sqlite chunk store path")
	fs.StringVar(&c.Logging.Level, "log-level", c.Logging.Level, "log level")
}

// Gen converts the world section to generator settings.
func (c *Config) Gen() world.GenConfig {
	return world.GenConfig{
		Width:        c.World.Width,
		Height:       c.World.Height,
		Seed:         c.Simulation.Seed,
		SurfaceLevel: c.World.SurfaceLevel,
		Amplitude:    c.World.Amplitude,
		Frequency:    c.World.Frequency,
		DirtDepth:    c.World.DirtDepth,
		Ores:         c.World.Ores,
		Pockets:      c.World.Pockets,
		Dungeons:     c.World.Dungeons,
	}
}

// Scheduler converts the simulation section to scheduler settings.
func (c *Config) Scheduler() scheduler.Config {
	return scheduler.Config{
		Workers:       c.Simulation.Workers,
		Seed:          c.Simulation.Seed,
		Transactional: c.Simulation.Transactional,
		ActiveRadius:  c.Simulation.ActiveRadius,
	}
}

// Parse binds a default config and a -config flag to fs and parses args.
// When -config names a file it is loaded, and flags given explicitly on the
// command line are applied over it. Commands register their own flags on fs
// before calling Parse.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	c := Defaults()
	var path string
	fs.StringVar(&path, "config", "", "TOML config file")
	c.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if path == "" {
		return c, c.Validate()
	}
	set := map[string]string{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
	loaded, err := Load(path)
	if err != nil {
		return nil, err
	}
	*c = *loaded
	for name, v := range set {
		if err := fs.Set(name, v); err != nil {
			return nil, fmt.Errorf("reapply -%s: %w", name, err)
		}
	}
	return c, c.Validate()
}
