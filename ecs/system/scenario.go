package system

import (
	"fmt"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"go.uber.org/zap"
)

// Spawner builds prefab-backed entities on behalf of a scenario script.
type Spawner interface {
	SpawnSquad(squad, unit string, origin cp.Vector, count int, spacing float64) ([]ecs.Entity, error)
	AddObstacleBox(bb cp.BB) (ecs.Entity, error)
	AddObstacleCircle(center cp.Vector, radius float64) (ecs.Entity, error)
}

const scenarioDispatchScript = `
if __phase == "setup" {
	setup(__engine, __state)
} else if __phase == "tick" {
	tick(__engine, __state, __tick)
}
`

// ScenarioSystem drives a tengo script. setup(engine, state) runs on the
// first tick and tick(engine, state, n) on every tick after it. Top-level
// script statements run on every call, so anything that must persist goes
// in state. A script error disables the scenario for the rest of the run.
type ScenarioSystem struct {
	nav     *Navigation
	spawner Spawner
	name    string

	compiled *tengo.Compiled
	state    *tengo.Map
	setupRun bool
	failed   bool
	done     bool
}

func NewScenarioSystem(name string, src []byte, spawner Spawner, n *Navigation) (*ScenarioSystem, error) {
	script := tengo.NewScript([]byte(string(src) + "\n" + scenarioDispatchScript))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__tick", 0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: compile: %w", name, err)
	}
	return &ScenarioSystem{
		nav:      n,
		spawner:  spawner,
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

// Done reports whether the script called finish().
func (ss *ScenarioSystem) Done() bool {
	return ss != nil && ss.done
}

func (ss *ScenarioSystem) Failed() bool {
	return ss != nil && ss.failed
}

func (ss *ScenarioSystem) Update(w *ecs.World) {
	if ss == nil || ss.compiled == nil || ss.failed || ss.done || w == nil {
		return
	}
	engine := ss.buildEngine(w)
	phase := "tick"
	if !ss.setupRun {
		phase = "setup"
		ss.setupRun = true
	}
	if err := ss.runPhase(phase, engine); err != nil {
		ss.failed = true
		ss.nav.Logger.Error("scenario script failed",
			zap.String("scenario", ss.name),
			zap.String("phase", phase),
			zap.Error(err),
		)
	}
}

func (ss *ScenarioSystem) runPhase(phase string, engine *tengo.ImmutableMap) error {
	if err := ss.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := ss.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := ss.compiled.Set("__state", ss.state); err != nil {
		return err
	}
	if err := ss.compiled.Set("__tick", int64(ss.nav.Tick)); err != nil {
		return err
	}
	return ss.compiled.Run()
}

func (ss *ScenarioSystem) buildEngine(w *ecs.World) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		ss.nav.Logger.Info(strings.Join(parts, " "), zap.String("scenario", ss.name))
		return tengo.UndefinedValue, nil
	}}

	values["tick"] = &tengo.UserFunction{Name: "tick", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(ss.nav.Tick)}, nil
	}}

	values["grid_ready"] = &tengo.UserFunction{Name: "grid_ready", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return boolObject(ss.nav.Ready()), nil
	}}

	values["finish"] = &tengo.UserFunction{Name: "finish", Value: func(args ...tengo.Object) (tengo.Object, error) {
		ss.done = true
		return tengo.TrueValue, nil
	}}

	values["spawn_squad"] = &tengo.UserFunction{Name: "spawn_squad", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if ss.spawner == nil || len(args) < 5 {
			return tengo.FalseValue, nil
		}
		squad := objectAsString(args[0])
		unit := objectAsString(args[1])
		x, _ := tengo.ToFloat64(args[2])
		y, _ := tengo.ToFloat64(args[3])
		count, _ := tengo.ToInt(args[4])
		spacing := 0.0
		if len(args) > 5 {
			spacing, _ = tengo.ToFloat64(args[5])
		}
		ents, err := ss.spawner.SpawnSquad(squad, unit, cpv(x, y), count, spacing)
		if err != nil {
			return nil, err
		}
		return entityArray(ents), nil
	}}

	values["obstacle_box"] = &tengo.UserFunction{Name: "obstacle_box", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if ss.spawner == nil || len(args) < 4 {
			return tengo.FalseValue, nil
		}
		x, _ := tengo.ToFloat64(args[0])
		y, _ := tengo.ToFloat64(args[1])
		bw, _ := tengo.ToFloat64(args[2])
		bh, _ := tengo.ToFloat64(args[3])
		if _, err := ss.spawner.AddObstacleBox(cp.BB{L: x, B: y, R: x + bw, T: y + bh}); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	}}

	values["obstacle_circle"] = &tengo.UserFunction{Name: "obstacle_circle", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if ss.spawner == nil || len(args) < 3 {
			return tengo.FalseValue, nil
		}
		x, _ := tengo.ToFloat64(args[0])
		y, _ := tengo.ToFloat64(args[1])
		r, _ := tengo.ToFloat64(args[2])
		if _, err := ss.spawner.AddObstacleCircle(cpv(x, y), r); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	}}

	values["order"] = &tengo.UserFunction{Name: "order", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return tengo.FalseValue, nil
		}
		members := squadMembers(w, objectAsString(args[0]))
		x, _ := tengo.ToFloat64(args[1])
		y, _ := tengo.ToFloat64(args[2])
		if len(members) == 0 {
			return tengo.FalseValue, nil
		}
		w.Events().Push(ecs.Event{
			Kind: ecs.EventMoveOrder,
			Data: ecs.MoveOrderEvent{Agents: members, Destination: cpv(x, y)},
		})
		return tengo.TrueValue, nil
	}}

	values["idle"] = &tengo.UserFunction{Name: "idle", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		for _, e := range squadMembers(w, objectAsString(args[0])) {
			if agent, ok := ecs.Get(w, e, component.AgentComponent.Kind()); ok && agent.State.IsFollowing() {
				return tengo.FalseValue, nil
			}
		}
		return tengo.TrueValue, nil
	}}

	values["centroid"] = &tengo.UserFunction{Name: "centroid", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.UndefinedValue, nil
		}
		members := squadMembers(w, objectAsString(args[0]))
		if len(members) == 0 {
			return tengo.UndefinedValue, nil
		}
		var sum cp.Vector
		for _, e := range members {
			if tr, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
				sum = sum.Add(cpv(tr.X, tr.Y))
			}
		}
		c := sum.Mult(1 / float64(len(members)))
		return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: c.X}, &tengo.Float{Value: c.Y}}}, nil
	}}

	values["despawn"] = &tengo.UserFunction{Name: "despawn", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return &tengo.Int{Value: 0}, nil
		}
		members := squadMembers(w, objectAsString(args[0]))
		n, _ := tengo.ToInt(args[1])
		removed := 0
		for i := len(members) - 1; i >= 0 && removed < n; i-- {
			if w.DestroyEntity(members[i]) {
				removed++
			}
		}
		return &tengo.Int{Value: int64(removed)}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

// squadMembers returns the live agents of squad in entity order.
func squadMembers(w *ecs.World, squad string) []ecs.Entity {
	var out []ecs.Entity
	ecs.ForEach(w, component.AgentComponent.Kind(), func(e ecs.Entity, agent *component.Agent) {
		if squad == "*" || agent.Squad == squad {
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func entityArray(ents []ecs.Entity) *tengo.Array {
	arr := &tengo.Array{Value: make([]tengo.Object, 0, len(ents))}
	for _, e := range ents {
		arr.Value = append(arr.Value, &tengo.Int{Value: int64(e)})
	}
	return arr
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
