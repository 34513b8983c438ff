package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
	"github.com/milk9111/skirmish/prefabs"
)

func newSim(t *testing.T, battlefield string) *Simulation {
	t.Helper()
	s, err := New(Config{Battlefield: battlefield, Scenario: NoScenario}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func TestNewLoadsBattlefield(t *testing.T) {
	s := newSim(t, DefaultBattlefield)

	counts := map[string]int{}
	for _, u := range s.Units() {
		counts[u.Squad]++
		if u.State.IsFollowing() {
			t.Fatalf("unit %v should start idle", u.Entity)
		}
	}
	want := map[string]int{"red": 12, "blue": 8, "green": 6}
	for squad, n := range want {
		if counts[squad] != n {
			t.Fatalf("squad %s = %d units, want %d", squad, counts[squad], n)
		}
	}
	if s.Grid() != nil {
		t.Fatalf("grid should not exist before the first step")
	}

	s.Step()
	s.Step()
	if s.Grid() == nil {
		t.Fatalf("grid not built after two steps")
	}
	// Inside the central ridge.
	c, _ := s.Grid().CellFromWorld(cp.Vector{X: 480, Y: 100})
	if s.Grid().Walkable(c) {
		t.Fatalf("ridge cell %v should be blocked", c)
	}
	// Inside the northern pass.
	c, _ = s.Grid().CellFromWorld(cp.Vector{X: 480, Y: 230})
	if !s.Grid().Walkable(c) {
		t.Fatalf("pass cell %v should be open", c)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(Config{Battlefield: "missing.yaml"}, nil); err == nil {
		t.Fatalf("expected error for missing battlefield")
	}
	spec := prefabs.BattlefieldSpec{
		Width: 100, Height: 100, CellSize: 10,
		Squads: []prefabs.SquadSpec{{Name: "x", Unit: "dragon", Count: 2}},
	}
	if _, err := NewFromSpec(spec, Config{Scenario: NoScenario}, nil); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
	spec.Squads = nil
	if _, err := NewFromSpec(spec, Config{Scenario: "nope"}, nil); err == nil {
		t.Fatalf("expected error for missing scenario")
	}
}

func TestOrderSquadFollowsThenRejects(t *testing.T) {
	s := newSim(t, DefaultBattlefield)
	s.Step()
	s.Step()

	if n := s.OrderSquad("red", cp.Vector{X: 760, Y: 96}); n != 12 {
		t.Fatalf("ordered %d units, want 12", n)
	}
	s.Step()

	snap := s.Snapshot()
	if len(snap.Orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(snap.Orders))
	}
	if len(snap.Orders[0].Members) != 12 || len(snap.Orders[0].Path) == 0 {
		t.Fatalf("order = %+v", snap.Orders[0])
	}
	for _, u := range snap.Units {
		if (u.Squad == "red") != u.State.IsFollowing() {
			t.Fatalf("unit %v squad %s state %v", u.Entity, u.Squad, u.State)
		}
	}

	s.OrderSquad("blue", cp.Vector{X: 5000, Y: 5000})
	s.Step()
	notices := s.DrainNotices()
	if len(notices) != 1 || notices[0].Kind != ecs.EventOrderRejected {
		t.Fatalf("notices = %+v", notices)
	}
	if !errors.Is(s.Snapshot().LastError, movement.ErrInvalidDestination) {
		t.Fatalf("LastError = %v", s.Snapshot().LastError)
	}
}

func TestSealedKeepDegradesToFlocking(t *testing.T) {
	s := newSim(t, "fortress.yaml")
	s.Step()
	s.Step()

	keep := cp.Vector{X: 480, Y: 240}
	goal, ok := s.Grid().CellFromWorld(keep)
	if !ok || !s.Grid().Walkable(goal) {
		t.Fatalf("keep interior should be an open cell")
	}
	outside, _ := s.Grid().CellFromWorld(cp.Vector{X: 48, Y: 64})
	if _, found := nav.FindPath(s.Grid(), outside, goal); found {
		t.Fatalf("keep should be sealed")
	}

	s.OrderSquad("north", keep)
	s.Step()
	snap := s.Snapshot()
	if len(snap.Orders) != 1 || len(snap.Orders[0].Path) != 0 {
		t.Fatalf("sealed order should have no path: %+v", snap.Orders)
	}

	for i := 0; i < 120; i++ {
		s.Step()
	}
	for _, u := range s.Units() {
		if math.IsNaN(u.Position.X) || math.IsNaN(u.Position.Y) {
			t.Fatalf("unit %v position NaN", u.Entity)
		}
		if u.Squad == "north" && !u.State.IsFollowing() {
			t.Fatalf("north unit %v left its order without arriving", u.Entity)
		}
		c, ok := s.Grid().CellFromWorld(u.Position)
		if ok && c.Col >= 26 && c.Col <= 33 && c.Row >= 11 && c.Row <= 18 {
			t.Fatalf("unit %v got inside the sealed keep at %v", u.Entity, c)
		}
	}
}

func TestSelectAndDespawn(t *testing.T) {
	s := newSim(t, DefaultBattlefield)
	s.Step()
	s.Step()

	picked := s.Select(cp.BB{L: 0, B: 0, R: 200, T: 200}, "")
	if len(picked) != 12 {
		t.Fatalf("selected %d, want the 12 red units", len(picked))
	}
	if got := s.Select(cp.BB{L: 0, B: 0, R: 960, T: 640}, "blue"); len(got) != 8 {
		t.Fatalf("selected %d blue units, want 8", len(got))
	}
	if len(s.Selected()) != 8 {
		t.Fatalf("previous selection not cleared")
	}

	blue := s.Selected()
	s.IssueOrder(blue, cp.Vector{X: 760, Y: 540})
	s.Step()
	order, ok := s.ActiveField()
	if !ok || order.Size() != 8 {
		t.Fatalf("active field should belong to the blue order")
	}

	for _, e := range blue {
		s.Despawn(e)
	}
	s.Step()
	if _, ok := s.Registry().Order(order.ID); ok {
		t.Fatalf("order should retire once every member despawned")
	}
	if len(s.Squad("blue")) != 0 {
		t.Fatalf("blue squad should be empty")
	}
}

func TestRunWithScenario(t *testing.T) {
	s, err := New(Config{Battlefield: DefaultBattlefield}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Run(context.Background(), 30); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Scenario() == nil || s.Scenario().Failed() {
		t.Fatalf("scenario should be loaded and healthy")
	}
	following := 0
	for _, u := range s.Units() {
		if u.State.IsFollowing() {
			following++
		}
	}
	if following != 20 {
		t.Fatalf("following = %d, want red and blue (20)", following)
	}
}

func TestRunHonoursContext(t *testing.T) {
	s := newSim(t, DefaultBattlefield)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if err := s.Run(context.Background(), 0); err == nil {
		t.Fatalf("unbounded run without a scenario should fail")
	}
}
