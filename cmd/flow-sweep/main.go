package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"sandfall/internal/particle"
	"sandfall/internal/rules"
	"sandfall/internal/scheduler"
	"sandfall/internal/world"
)

type paramSet struct {
	material   particle.ID
	viscosity  float32
	flowChance float32
}

func (p paramSet) String() string {
	return fmt.Sprintf("%s viscosity=%.2f flow=%.2f", p.material, p.viscosity, p.flowChance)
}

type scenarioResult struct {
	params    paramSet
	reach     int // rightmost column the liquid reached
	settledAt int // tick at which no chunk was active, 0 if never
	surface   int // max minus min liquid column height at the end
	err       error
}

const (
	basinW = 4 * 32
	basinH = 2 * 32
	pourW  = 12
)

func main() {
	steps := flag.Int("steps", 400, "ticks to simulate per scenario")
	workers := flag.Int("workers", runtime.NumCPU(), "number of scenarios run concurrently")
	seed := flag.Int64("seed", 1337, "rule seed")
	flag.Parse()

	viscosities := []float32{0, 0.2, 0.5, 0.8}
	flowChances := []float32{0.25, 0.5, 0.75, 1}

	var sets []paramSet
	for _, m := range []particle.ID{particle.Water, particle.Lava, particle.Acid} {
		for _, v := range viscosities {
			for _, f := range flowChances {
				sets = append(sets, paramSet{material: m, viscosity: v, flowChance: f})
			}
		}
	}

	fmt.Printf("Sweeping %d parameter sets (%d workers, %d steps)\n", len(sets), *workers, *steps)

	jobs := make(chan paramSet)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- runScenario(params, *steps, *seed)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	start := time.Now()
	var all []scenarioResult
	failed := 0
	for res := range results {
		if res.err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.params, res.err)
			failed++
			continue
		}
		all = append(all, res)
	}

	// Fastest to level out first; unsettled runs last, ordered by reach.
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if (a.settledAt == 0) != (b.settledAt == 0) {
			return b.settledAt == 0
		}
		if a.settledAt != b.settledAt {
			return a.settledAt < b.settledAt
		}
		return a.reach > b.reach
	})

	fmt.Printf("\nResults (elapsed %s):\n", time.Since(start).Round(time.Millisecond))
	for i, res := range all {
		settled := "never"
		if res.settledAt > 0 {
			settled = fmt.Sprintf("%d", res.settledAt)
		}
		fmt.Printf("%2d) settled=%-5s reach=%3d surface=%2d %s\n", i+1, settled, res.reach, res.surface, res.params)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runScenario(params paramSet, steps int, seed int64) scenarioResult {
	res := scenarioResult{params: params}
	props := particle.DefaultProperties()
	props[params.material].Viscosity = params.viscosity
	props[params.material].FlowChance = params.flowChance
	table, err := particle.NewTable(props, particle.DefaultReactions())
	if err != nil {
		res.err = err
		return res
	}

	g := world.New(table)
	if _, err := g.Fill(0, basinH-1, basinW-1, basinH-1, particle.Stone); err != nil {
		res.err = err
		return res
	}
	if _, err := g.Fill(0, 0, 0, basinH-2, particle.Stone); err != nil {
		res.err = err
		return res
	}
	if _, err := g.Fill(basinW-1, 0, basinW-1, basinH-2, particle.Stone); err != nil {
		res.err = err
		return res
	}
	if _, err := g.Fill(1, basinH-2-pourW, pourW, basinH-2, params.material); err != nil {
		res.err = err
		return res
	}

	// Phase changes off so the poured volume is conserved.
	eng := rules.New(table, rules.Options{})
	sched := scheduler.New(g, eng, scheduler.Config{Workers: 1, Seed: seed}, nil)
	for step := 1; step <= steps; step++ {
		rep, err := sched.Step()
		if err != nil {
			res.err = err
			return res
		}
		if rep.Collected == 0 {
			res.settledAt = step
			break
		}
	}

	lo, hi := basinH, 0
	for x := 1; x < basinW-1; x++ {
		height := 0
		for y := basinH - 2; y >= 0; y-- {
			if g.CellAt(x, y).Material != params.material {
				break
			}
			height++
		}
		if height > 0 {
			res.reach = x
		}
		lo, hi = min(lo, height), max(hi, height)
	}
	res.surface = hi - lo
	return res
}
