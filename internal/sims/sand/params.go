package sand

import (
	"strconv"

	"sandfall/internal/core"
	"sandfall/internal/particle"
)

// Parameters reports the world, scheduler and brush state for the HUD.
func (s *Sim) Parameters() core.ParameterSnapshot {
	rep := s.report
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width (chunks)", s.cfg.World.Width),
				intParam("h", "Height (chunks)", s.cfg.World.Height),
				int64Param("seed", "Seed", s.cfg.Simulation.Seed),
				intParam("resident", "Resident chunks", s.grid.Len()),
			},
		},
		{
			Name:    "Scheduler",
			Summary: s.sched.State().String(),
			Params: []core.Parameter{
				uint64Param("tick", "Tick", s.sched.Tick()),
				intParam("workers", "Workers", s.sched.Workers()),
				boolParam("phase_changes", "Phase changes", s.engine.Options().PhaseChanges),
				intParam("collected", "Collected", rep.Collected),
				intParam("touched", "Touched", rep.Touched),
				intParam("moves", "Moves", rep.Moves),
				intParam("reactions", "Reactions", rep.Reactions),
				floatParam("tick_ms", "Tick time (ms)", float64(rep.Elapsed.Microseconds())/1000),
			},
		},
		{
			Name:    "Brush",
			Summary: s.brush.Material.String(),
			Params: []core.Parameter{
				intParam("brush_radius", "Brush radius", s.brush.Radius),
				intParam("brush_material", "Brush material", int(s.brush.Material)),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the HUD-adjustable values.
func (s *Sim) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "brush_radius", Label: "Brush radius", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: 16, HasMin: true, HasMax: true},
		{Key: "brush_material", Label: "Brush material", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: float64(particle.Count - 1), HasMin: true, HasMax: true},
	}
}

// SetIntParameter updates a HUD-adjustable integer, clamping to its bounds.
func (s *Sim) SetIntParameter(key string, value int) bool {
	switch key {
	case "brush_radius":
		s.brush.Radius = min(max(value, 0), 16)
		return true
	case "brush_material":
		id := particle.ID(min(max(value, 0), int(particle.Count)-1))
		// Skip materials the brush may not paint.
		for s.table.Props(id).Unbreakable && id > 0 {
			id--
		}
		return s.SetBrushMaterial(id)
	}
	return false
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.Itoa(value)}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.FormatInt(value, 10)}
}

func uint64Param(key, label string, value uint64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.FormatUint(value, 10)}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeFloat, Value: strconv.FormatFloat(value, 'f', 2, 64)}
}

func boolParam(key, label string, value bool) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeBool, Value: strconv.FormatBool(value)}
}
