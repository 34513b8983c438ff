package system

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/movement"
)

type testSim struct {
	w         *ecs.World
	nav       *Navigation
	bootstrap *GridBootstrapSystem
	steering  *SteeringSystem
	sched     *ecs.Scheduler
}

func newTestSim(t *testing.T, width, height, cellSize float64) *testSim {
	t.Helper()
	pw := ecs.NewPhysicsWorld(ecs.PhysicsConfig{}, nil)
	n := NewNavigation(cp.BB{L: 0, B: 0, R: width, T: height}, cellSize, pw, nil)
	s := &testSim{
		w:         ecs.NewWorld(),
		nav:       n,
		bootstrap: NewGridBootstrapSystem(n),
		steering:  NewSteeringSystem(n),
	}
	s.steering.Debug = true
	s.sched = ecs.NewScheduler(
		NewDespawnSystem(n),
		s.bootstrap,
		NewOrderSystem(n),
		NewArrivalSystem(n),
		s.steering,
		NewPhysicsSystem(n),
	)
	return s
}

func (s *testSim) run(ticks int) {
	for i := 0; i < ticks; i++ {
		s.sched.Update(s.w)
	}
}

func (s *testSim) spawnAgent(t *testing.T, squad string, x, y float64) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(s.w)
	if err := ecs.Add(s.w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y}); err != nil {
		t.Fatalf("add transform: %v", err)
	}
	if err := ecs.Add(s.w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Radius: 4, Mass: 1}); err != nil {
		t.Fatalf("add body: %v", err)
	}
	if err := ecs.Add(s.w, e, component.AgentComponent.Kind(), &component.Agent{
		Kind:   "test",
		Squad:  squad,
		State:  movement.Idle(),
		Tuning: movement.DefaultTuning(),
	}); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	return e
}

func (s *testSim) spawnWall(t *testing.T, bb cp.BB) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(s.w)
	c := bb.Center()
	if err := ecs.Add(s.w, e, component.TransformComponent.Kind(), &component.Transform{X: c.X, Y: c.Y}); err != nil {
		t.Fatalf("add transform: %v", err)
	}
	if err := ecs.Add(s.w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:  bb.R - bb.L,
		Height: bb.T - bb.B,
		Static: true,
	}); err != nil {
		t.Fatalf("add body: %v", err)
	}
	if err := ecs.Add(s.w, e, component.ObstacleTagComponent.Kind(), &component.ObstacleTag{}); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	return e
}

func (s *testSim) order(dest cp.Vector, agents ...ecs.Entity) {
	s.w.Events().Push(ecs.Event{
		Kind: ecs.EventMoveOrder,
		Data: ecs.MoveOrderEvent{Agents: agents, Destination: dest},
	})
}

func (s *testSim) agent(t *testing.T, e ecs.Entity) *component.Agent {
	t.Helper()
	agent, ok := ecs.Get(s.w, e, component.AgentComponent.Kind())
	if !ok {
		t.Fatalf("entity %v has no agent", e)
	}
	return agent
}
