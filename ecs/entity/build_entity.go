package entity

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/prefabs"
)

type buildContext struct {
	PrefabPath string
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"transform":    addTransform,
	"physics_body": addPhysicsBody,
	"agent":        addAgent,
	"obstacle_tag": addObstacleTag,
	"camera":       addCamera,
}

// Transform goes first so later builders can read the spawn position.
var componentBuildOrder = []string{
	"transform",
	"obstacle_tag",
	"camera",
	"physics_body",
	"agent",
}

func BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}

	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", prefabPath)
	}

	e := ecs.CreateEntity(w)
	ctx := &buildContext{PrefabPath: prefabPath}

	remaining := make(map[string]any, len(spec.Components))
	for k, v := range spec.Components {
		remaining[k] = v
	}

	for _, name := range componentBuildOrder {
		raw, ok := remaining[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](w, e, raw, ctx); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("build entity: %q: add %q: %w", prefabPath, name, err)
		}
		delete(remaining, name)
	}

	if len(remaining) > 0 {
		names := make([]string, 0, len(remaining))
		for name := range remaining {
			names = append(names, name)
		}
		sort.Strings(names)
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("build entity: %q: no builder for component %q", prefabPath, names[0])
	}

	return e, nil
}

// BuildUnit spawns a unit prefab at x, y as a member of squad.
func BuildUnit(w *ecs.World, kind, squad string, tint color.RGBA, x, y float64) (ecs.Entity, error) {
	e, err := BuildEntity(w, prefabs.UnitPath(kind))
	if err != nil {
		return 0, err
	}
	agent, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok {
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("build unit: %q has no agent component", kind)
	}
	agent.Squad = squad
	agent.Color = tint
	if err := SetEntityTransform(w, e, x, y, 0); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, err
	}
	return e, nil
}

// BuildObstacle adds a static obstacle. Boxes are given by their top-left
// corner, circles by their centre.
func BuildObstacle(w *ecs.World, spec prefabs.ObstacleSpec) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build obstacle: world is nil")
	}
	body := &component.PhysicsBody{Static: true}
	tr := &component.Transform{X: spec.X, Y: spec.Y}
	switch spec.Shape {
	case "", "box":
		if !(spec.Width > 0) || !(spec.Height > 0) {
			return 0, fmt.Errorf("build obstacle: box needs width and height")
		}
		body.Width, body.Height = spec.Width, spec.Height
		tr.X += spec.Width / 2
		tr.Y += spec.Height / 2
	case "circle":
		if !(spec.Radius > 0) {
			return 0, fmt.Errorf("build obstacle: circle needs radius")
		}
		body.Radius = spec.Radius
	default:
		return 0, fmt.Errorf("build obstacle: unknown shape %q", spec.Shape)
	}

	e := ecs.CreateEntity(w)
	for _, add := range []func() error{
		func() error { return ecs.Add(w, e, component.TransformComponent.Kind(), tr) },
		func() error { return ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), body) },
		func() error { return ecs.Add(w, e, component.ObstacleTagComponent.Kind(), &component.ObstacleTag{}) },
	} {
		if err := add(); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("build obstacle: %w", err)
		}
	}
	return e, nil
}

// ObstacleFromBB converts a world-space box to an obstacle spec.
func ObstacleFromBB(bb cp.BB) prefabs.ObstacleSpec {
	return prefabs.ObstacleSpec{Shape: "box", X: bb.L, Y: bb.B, Width: bb.R - bb.L, Height: bb.T - bb.B}
}

func BuildCamera(w *ecs.World, x, y, zoom float64) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y}); err != nil {
		return 0, err
	}
	if zoom <= 0 {
		zoom = 1
	}
	if err := ecs.Add(w, e, component.CameraComponent.Kind(), &component.Camera{Zoom: zoom}); err != nil {
		return 0, err
	}
	return e, nil
}

// RetuneUnits reloads the prefab for kind and replaces the tuning of every
// live agent of that kind. It returns the number of agents updated.
func RetuneUnits(w *ecs.World, kind string) (int, error) {
	spec, err := prefabs.LoadEntityBuildSpec(prefabs.UnitPath(kind))
	if err != nil {
		return 0, fmt.Errorf("retune %q: %w", kind, err)
	}
	agentSpec, err := prefabs.DecodeComponentSpec[agentSpec](spec.Components["agent"])
	if err != nil {
		return 0, fmt.Errorf("retune %q: decode agent spec: %w", kind, err)
	}
	tuning, err := tuningFromSpec(agentSpec)
	if err != nil {
		return 0, fmt.Errorf("retune %q: %w", kind, err)
	}

	updated := 0
	ecs.ForEach(w, component.AgentComponent.Kind(), func(_ ecs.Entity, agent *component.Agent) {
		if agent.Kind != kind {
			return
		}
		agent.Tuning = tuning
		updated++
	})
	return updated, nil
}

func SetEntityTransform(w *ecs.World, e ecs.Entity, x, y, rotation float64) error {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok || t == nil {
		t = &component.Transform{}
	}
	t.X = x
	t.Y = y
	t.Rotation = rotation
	return ecs.Add(w, e, component.TransformComponent.Kind(), t)
}

type transformSpec = prefabs.TransformComponentSpec

func addTransform(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[transformSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		X:        spec.X,
		Y:        spec.Y,
		Rotation: spec.Rotation,
	})
}

type physicsBodySpec = prefabs.PhysicsBodyComponentSpec

func addPhysicsBody(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[physicsBodySpec](raw)
	if err != nil {
		return fmt.Errorf("decode physics body spec: %w", err)
	}
	if spec.Static {
		if spec.Radius <= 0 && (spec.Width <= 0 || spec.Height <= 0) {
			return fmt.Errorf("static body needs a radius or a width and height")
		}
	} else {
		if spec.Radius <= 0 {
			return fmt.Errorf("dynamic body needs a radius")
		}
		if spec.Mass == 0 {
			spec.Mass = 1
		}
	}

	return ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:    spec.Width,
		Height:   spec.Height,
		Radius:   spec.Radius,
		Mass:     spec.Mass,
		Friction: spec.Friction,
		Static:   spec.Static,
	})
}

type agentSpec = prefabs.AgentComponentSpec

func addAgent(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[agentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode agent spec: %w", err)
	}
	tuning, err := tuningFromSpec(spec)
	if err != nil {
		return err
	}
	kind := spec.Kind
	if kind == "" && ctx != nil {
		kind = ctx.PrefabPath
	}
	return ecs.Add(w, e, component.AgentComponent.Kind(), &component.Agent{
		Kind:   kind,
		State:  movement.Idle(),
		Tuning: tuning,
	})
}

func tuningFromSpec(spec agentSpec) (movement.Tuning, error) {
	d := movement.DefaultTuning()
	t := movement.Tuning{
		MaxSpeed:         spec.MaxSpeed,
		NeighborRadius:   spec.NeighborRadius,
		SeparationWeight: d.SeparationWeight,
		CohesionWeight:   d.CohesionWeight,
		AlignmentWeight:  d.AlignmentWeight,
		MaxSteering:      spec.MaxSteering,
		ArrivalRadius:    spec.ArrivalRadius,
	}
	if spec.SeparationWeight != nil {
		t.SeparationWeight = *spec.SeparationWeight
	}
	if spec.CohesionWeight != nil {
		t.CohesionWeight = *spec.CohesionWeight
	}
	if spec.AlignmentWeight != nil {
		t.AlignmentWeight = *spec.AlignmentWeight
	}
	t = t.WithDefaults()
	if err := t.Validate(); err != nil {
		return movement.Tuning{}, err
	}
	return t, nil
}

func addObstacleTag(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.ObstacleTagComponent.Kind(), &component.ObstacleTag{})
}

type cameraSpec = prefabs.CameraComponentSpec

func addCamera(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[cameraSpec](raw)
	if err != nil {
		return fmt.Errorf("decode camera spec: %w", err)
	}
	if spec.Zoom <= 0 {
		spec.Zoom = 1
	}
	return ecs.Add(w, e, component.CameraComponent.Kind(), &component.Camera{Zoom: spec.Zoom})
}
