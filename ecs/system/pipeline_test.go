package system

import (
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
)

func TestGridBootstrapWaitsForStaticObstacles(t *testing.T) {
	s := newTestSim(t, 100, 100, 10)
	s.spawnWall(t, cp.BB{L: 40, B: 0, R: 50, T: 60})

	s.run(1)
	if s.nav.Grid != nil {
		t.Fatalf("grid built before obstacles were registered")
	}
	s.run(1)
	if s.nav.Grid == nil || s.nav.Registry == nil {
		t.Fatalf("grid not built after obstacles were registered")
	}
	if got := s.bootstrap.Attempts(); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}

	for row := 0; row < 6; row++ {
		if s.nav.Grid.Walkable(nav.Coord{Row: row, Col: 4}) {
			t.Fatalf("cell (%d,4) under the wall is walkable", row)
		}
	}
	if !s.nav.Grid.Walkable(nav.Coord{Row: 6, Col: 4}) {
		t.Fatalf("cell (6,4) below the wall should be walkable")
	}
	if !s.nav.Grid.Walkable(nav.Coord{Row: 0, Col: 3}) {
		t.Fatalf("cell touching the wall edge should be walkable")
	}
}

func TestGridBootstrapWithoutPhysicsStaysPending(t *testing.T) {
	n := NewNavigation(cp.BB{R: 50, T: 50}, 10, nil, nil)
	gb := NewGridBootstrapSystem(n)
	w := ecs.NewWorld()
	for i := 0; i < 3; i++ {
		gb.Update(w)
	}
	if n.Grid != nil {
		t.Fatalf("grid built without an obstacle source")
	}
	if gb.Attempts() != 3 {
		t.Fatalf("attempts = %d, want 3", gb.Attempts())
	}
	if n.LastError != nil {
		t.Fatalf("deferred grid should not record an error, got %v", n.LastError)
	}
}

func TestGridBootstrapInvalidBoundsStopsRetrying(t *testing.T) {
	pw := ecs.NewPhysicsWorld(ecs.PhysicsConfig{}, nil)
	pw.MarkStaticReady()
	n := NewNavigation(cp.BB{R: 50, T: 50}, 0, pw, nil)
	gb := NewGridBootstrapSystem(n)
	gb.Update(ecs.NewWorld())
	gb.Update(ecs.NewWorld())
	if !errors.Is(n.LastError, nav.ErrInvalidGrid) {
		t.Fatalf("LastError = %v, want ErrInvalidGrid", n.LastError)
	}
	if gb.Attempts() != 1 {
		t.Fatalf("attempts = %d, want 1", gb.Attempts())
	}
}

func TestOrderWaitsForGrid(t *testing.T) {
	s := newTestSim(t, 100, 100, 10)
	a := s.spawnAgent(t, "red", 15, 15)
	s.order(cp.Vector{X: 85, Y: 85}, a)

	s.run(1)
	if s.agent(t, a).State.IsFollowing() {
		t.Fatalf("agent following before the grid exists")
	}
	if s.w.Events().Len() != 1 {
		t.Fatalf("pending order was dropped")
	}

	s.run(1)
	state := s.agent(t, a).State
	if !state.IsFollowing() {
		t.Fatalf("agent not following after grid became ready: %v", state)
	}
	if got := s.nav.Registry.State(movement.AgentID(a)); got != state {
		t.Fatalf("registry state %v, agent state %v", got, state)
	}
}

func TestOrderOutsideGridIsRejected(t *testing.T) {
	s := newTestSim(t, 100, 100, 10)
	a := s.spawnAgent(t, "red", 15, 15)
	s.run(2)

	s.order(cp.Vector{X: 85, Y: 85}, a)
	s.run(1)
	first := s.agent(t, a).State

	s.order(cp.Vector{X: -5, Y: 50}, a)
	s.run(1)

	if !errors.Is(s.nav.LastError, movement.ErrInvalidDestination) {
		t.Fatalf("LastError = %v, want ErrInvalidDestination", s.nav.LastError)
	}
	if got := s.agent(t, a).State; got != first {
		t.Fatalf("rejected order changed state from %v to %v", first, got)
	}
	rejected := s.w.Events().DrainKind(ecs.EventOrderRejected)
	if len(rejected) != 1 {
		t.Fatalf("rejected events = %d, want 1", len(rejected))
	}
	evt := rejected[0].Data.(ecs.OrderRejectedEvent)
	if evt.Destination.X != -5 {
		t.Fatalf("rejected destination = %v", evt.Destination)
	}
}

func TestOrderRecordsDebugPath(t *testing.T) {
	s := newTestSim(t, 100, 100, 10)
	s.spawnWall(t, cp.BB{L: 40, B: 0, R: 50, T: 80})
	a := s.spawnAgent(t, "red", 15, 15)
	b := s.spawnAgent(t, "red", 25, 15)
	s.run(2)

	s.order(cp.Vector{X: 85, Y: 15}, b, a)
	s.run(1)

	order, ok := s.nav.Registry.OrderFor(movement.AgentID(a))
	if !ok {
		t.Fatalf("no order for agent")
	}
	if len(order.DebugPath) == 0 {
		t.Fatalf("debug path not recorded")
	}
	if order.DebugPath[0] != (nav.Coord{Row: 1, Col: 1}) {
		t.Fatalf("debug path should start at the lowest-ID member, got %v", order.DebugPath[0])
	}
	for _, c := range order.DebugPath {
		if !s.nav.Grid.Walkable(c) && c != order.Goal {
			t.Fatalf("debug path crosses blocked cell %v", c)
		}
	}
}

func TestSteeringPushesAlongFlow(t *testing.T) {
	s := newTestSim(t, 200, 100, 10)
	a := s.spawnAgent(t, "red", 15, 55)
	s.run(2)

	s.order(cp.Vector{X: 185, Y: 55}, a)
	s.run(1)

	vel, ok := s.nav.Physics.Velocity(a)
	if !ok {
		t.Fatalf("agent has no body")
	}
	if vel.X <= 0 || math.Abs(vel.Y) > 1e-9 {
		t.Fatalf("velocity = %v, want +X only", vel)
	}
	agent := s.agent(t, a)
	if math.Abs(agent.Heading.X-1) > 1e-9 {
		t.Fatalf("heading = %v, want +X", agent.Heading)
	}
}

func TestCoincidentAgentsStayFinite(t *testing.T) {
	s := newTestSim(t, 100, 100, 10)
	a := s.spawnAgent(t, "red", 50, 50)
	b := s.spawnAgent(t, "red", 50, 50)
	s.run(2)

	s.order(cp.Vector{X: 90, Y: 90}, a, b)
	s.run(5)

	for _, e := range []ecs.Entity{a, b} {
		pos, _ := s.nav.Physics.Position(e)
		if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) {
			t.Fatalf("agent %v position not finite: %v", e, pos)
		}
	}
}

func TestAgentsArriveAndOrderRetires(t *testing.T) {
	s := newTestSim(t, 200, 200, 10)
	agents := []ecs.Entity{
		s.spawnAgent(t, "red", 30, 30),
		s.spawnAgent(t, "red", 45, 30),
		s.spawnAgent(t, "red", 30, 45),
	}
	s.run(2)

	s.order(cp.Vector{X: 155, Y: 155}, agents...)
	arrivals := 0
	for i := 0; i < 1800; i++ {
		s.run(1)
		arrivals += len(s.w.Events().DrainKind(ecs.EventAgentArrived))
		if arrivals == len(agents) {
			break
		}
	}

	if arrivals != len(agents) {
		t.Fatalf("arrivals = %d, want %d", arrivals, len(agents))
	}
	for _, e := range agents {
		if s.agent(t, e).State.IsFollowing() {
			t.Fatalf("agent %v still following after arrival", e)
		}
	}
	if n := len(s.nav.Registry.ActiveOrders()); n != 0 {
		t.Fatalf("active orders = %d, want 0", n)
	}
}

func TestReorderSubsetKeepsOthersFollowing(t *testing.T) {
	s := newTestSim(t, 200, 200, 10)
	a := s.spawnAgent(t, "red", 20, 20)
	b := s.spawnAgent(t, "red", 35, 20)
	c := s.spawnAgent(t, "blue", 20, 35)
	d := s.spawnAgent(t, "blue", 35, 35)
	s.run(2)

	s.order(cp.Vector{X: 185, Y: 185}, a, b, c, d)
	s.run(1)
	first := s.agent(t, a).State.Order

	s.order(cp.Vector{X: 185, Y: 15}, c, d)
	s.run(1)

	for _, e := range []ecs.Entity{a, b} {
		if got := s.agent(t, e).State; got != movement.Following(first) {
			t.Fatalf("agent %v state = %v, want following %d", e, got, first)
		}
	}
	for _, e := range []ecs.Entity{c, d} {
		got := s.agent(t, e).State
		if !got.IsFollowing() || got.Order == first {
			t.Fatalf("agent %v state = %v, want the new order", e, got)
		}
	}
	order, ok := s.nav.Registry.Order(first)
	if !ok || order.Size() != 2 {
		t.Fatalf("first order should keep two members")
	}
}

func TestDespawnLeavesOrder(t *testing.T) {
	s := newTestSim(t, 100, 100, 10)
	a := s.spawnAgent(t, "red", 15, 15)
	s.run(2)
	s.order(cp.Vector{X: 85, Y: 85}, a)
	s.run(1)
	id := s.agent(t, a).State.Order

	ecs.DestroyEntity(s.w, a)
	s.run(1)

	if _, ok := s.nav.Registry.OrderFor(movement.AgentID(a)); ok {
		t.Fatalf("despawned agent still has an order")
	}
	if _, ok := s.nav.Registry.Order(id); ok {
		t.Fatalf("order with no members was not retired")
	}
	if s.nav.Physics.HasAgent(a) {
		t.Fatalf("physics body not removed")
	}
}

func TestUnreachableAgentsFlockWithoutFlow(t *testing.T) {
	s := newTestSim(t, 100, 100, 10)
	// Seal the right half off completely.
	s.spawnWall(t, cp.BB{L: 50, B: 0, R: 60, T: 100})
	a := s.spawnAgent(t, "red", 15, 15)
	b := s.spawnAgent(t, "red", 30, 15)
	s.run(2)

	s.order(cp.Vector{X: 85, Y: 50}, a, b)
	s.run(3)

	for _, e := range []ecs.Entity{a, b} {
		if !s.agent(t, e).State.IsFollowing() {
			t.Fatalf("agent %v should stay in its order", e)
		}
	}
	order, _ := s.nav.Registry.OrderFor(movement.AgentID(a))
	if len(order.DebugPath) != 0 {
		t.Fatalf("no path should exist to a sealed goal")
	}
}
