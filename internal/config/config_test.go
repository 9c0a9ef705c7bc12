package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sandfall.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := write(t, `
[simulation]
workers = 3
seed = 99
phase_changes = false

[world]
width = 4

[logging]
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Workers != 3 || cfg.Simulation.Seed != 99 || cfg.Simulation.PhaseChanges {
		t.Fatalf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Simulation.TPS != 40 {
		t.Fatalf("tps default lost: %d", cfg.Simulation.TPS)
	}
	if cfg.World.Width != 4 || cfg.World.Height != Defaults().World.Height {
		t.Fatalf("world = %+v", cfg.World)
	}
	if g := cfg.Gen(); g.Seed != 99 || g.Width != 4 {
		t.Fatalf("gen = %+v", g)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"tps":     "[simulation]\ntps = 0\n",
		"workers": "[simulation]\nworkers = -1\n",
		"surface": "[world]\nsurface_level = 1.5\n",
		"syntax":  "[simulation\n",
	}
	for name, body := range cases {
		if _, err := Load(write(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBindOverridesFile(t *testing.T) {
	cfg := Defaults()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.Bind(fs)
	if err := fs.Parse(strings.Fields("-workers 2 -seed 7 -store /tmp/x.db")); err != nil {
		t.Fatal(err)
	}
	s := cfg.Scheduler()
	if s.Workers != 2 || s.Seed != 7 || cfg.Store.Path != "/tmp/x.db" {
		t.Fatalf("bound config = %+v store=%q", s, cfg.Store.Path)
	}
}

func TestParseAppliesFlagsOverFile(t *testing.T) {
	path := write(t, "[simulation]\nworkers = 3\nseed = 99\n")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	ticks := fs.Int("ticks", 10, "")
	cfg, err := Parse(fs, []string{"-config", path, "-seed", "5", "-ticks", "20"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Simulation.Workers != 3 {
		t.Fatalf("file value lost: workers=%d", cfg.Simulation.Workers)
	}
	if cfg.Simulation.Seed != 5 {
		t.Fatalf("flag did not win: seed=%d", cfg.Simulation.Seed)
	}
	if *ticks != 20 {
		t.Fatalf("command flag = %d", *ticks)
	}
}
