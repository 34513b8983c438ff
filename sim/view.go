package sim

import (
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
)

type UnitView struct {
	Entity   ecs.Entity
	Squad    string
	Kind     string
	Position cp.Vector
	State    movement.AgentState
}

type OrderView struct {
	ID      movement.OrderID
	Goal    nav.Coord
	Members []movement.AgentID
	Path    nav.Path
}

// Snapshot is a read-only summary of one tick.
type Snapshot struct {
	Tick      uint64
	GridReady bool
	Units     []UnitView
	Orders    []OrderView
	LastError error
}

func (s *Simulation) Units() []UnitView {
	var out []UnitView
	ecs.ForEach2(s.world, component.AgentComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, agent *component.Agent, tr *component.Transform) {
		out = append(out, UnitView{
			Entity:   e,
			Squad:    agent.Squad,
			Kind:     agent.Kind,
			Position: cp.Vector{X: tr.X, Y: tr.Y},
			State:    agent.State,
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:      s.nav.Tick,
		GridReady: s.nav.Ready(),
		Units:     s.Units(),
		LastError: s.nav.LastError,
	}
	if s.nav.Registry != nil {
		for _, o := range s.nav.Registry.ActiveOrders() {
			snap.Orders = append(snap.Orders, OrderView{
				ID:      o.ID,
				Goal:    o.Goal,
				Members: o.Members(),
				Path:    append(nav.Path(nil), o.DebugPath...),
			})
		}
	}
	return snap
}

// Idle reports whether no unit is following an order.
func (snap Snapshot) Idle() bool {
	for _, u := range snap.Units {
		if u.State.IsFollowing() {
			return false
		}
	}
	return true
}

// Select tags the agents inside bb as selected and clears the rest. When
// squad is non-empty only that squad is considered.
func (s *Simulation) Select(bb cp.BB, squad string) []ecs.Entity {
	var picked []ecs.Entity
	ecs.ForEach2(s.world, component.AgentComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, agent *component.Agent, tr *component.Transform) {
		inside := bb.ContainsVect(cp.Vector{X: tr.X, Y: tr.Y}) && (squad == "" || agent.Squad == squad)
		if !inside {
			ecs.Remove(s.world, e, component.SelectedTagComponent.Kind())
			return
		}
		picked = append(picked, e)
	})
	for _, e := range picked {
		_ = ecs.Add(s.world, e, component.SelectedTagComponent.Kind(), &component.SelectedTag{})
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })
	return picked
}

func (s *Simulation) Selected() []ecs.Entity {
	out := s.world.Query(component.SelectedTagComponent.Kind())
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ActiveField returns the flow field of the lowest-ID active order that one
// of the selected agents follows, falling back to any active order.
func (s *Simulation) ActiveField() (*movement.Order, bool) {
	reg := s.nav.Registry
	if reg == nil {
		return nil, false
	}
	for _, e := range s.Selected() {
		if o, ok := reg.OrderFor(movement.AgentID(e)); ok {
			return o, true
		}
	}
	orders := reg.ActiveOrders()
	if len(orders) == 0 {
		return nil, false
	}
	return orders[0], true
}
