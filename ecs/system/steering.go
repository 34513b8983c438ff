package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
)

// SteeringSystem blends the flow field with boid rules for every following
// agent. All intents are computed from one snapshot before any is applied.
type SteeringSystem struct {
	nav   *Navigation
	index *movement.NeighborIndex
	// Debug keeps a SteeringDebug component up to date on each agent.
	Debug bool
}

func NewSteeringSystem(n *Navigation) *SteeringSystem {
	return &SteeringSystem{
		nav:   n,
		index: movement.NewNeighborIndex(movement.DefaultNeighborRadius),
	}
}

type steeringSnapshot struct {
	e      ecs.Entity
	group  movement.OrderID
	field  *nav.FlowField
	pos    cp.Vector
	tuning movement.Tuning
}

type steeringResult struct {
	e      ecs.Entity
	intent movement.Intent
}

func (ss *SteeringSystem) Update(w *ecs.World) {
	if ss == nil || ss.nav == nil || w == nil || !ss.nav.Ready() {
		return
	}
	reg := ss.nav.Registry
	dt := ss.nav.dt()

	var agents []steeringSnapshot
	ss.index.Reset()
	ecs.ForEach2(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, agent *component.Agent, tr *component.Transform) {
		if !agent.State.IsFollowing() {
			return
		}
		order, ok := reg.OrderFor(agentID(e))
		if !ok {
			return
		}
		pos := cpv(tr.X, tr.Y)
		ss.index.Insert(movement.Neighbor{ID: agentID(e), Position: pos, Heading: agent.Heading}, order.ID)
		agents = append(agents, steeringSnapshot{
			e:      e,
			group:  order.ID,
			field:  order.Field,
			pos:    pos,
			tuning: agent.Tuning,
		})
	})

	results := make([]steeringResult, 0, len(agents))
	for _, a := range agents {
		in := movement.SteeringInput{
			Position:  a.pos,
			Flow:      a.field.DirectionAt(a.pos),
			Neighbors: ss.index.Query(agentID(a.e), a.pos, a.tuning.NeighborRadius, a.group),
			Tuning:    a.tuning,
		}
		results = append(results, steeringResult{e: a.e, intent: movement.ComputeIntent(in, dt)})
	}

	for _, r := range results {
		ss.apply(w, r.e, r.intent)
	}
}

func (ss *SteeringSystem) apply(w *ecs.World, e ecs.Entity, intent movement.Intent) {
	if ss.nav.Physics != nil {
		ss.nav.Physics.ApplyImpulse(e, intent.Impulse)
	}
	if intent.Turn {
		if ss.nav.Physics != nil {
			ss.nav.Physics.SetYaw(e, intent.Yaw)
		}
		if agent, ok := ecs.Get(w, e, component.AgentComponent.Kind()); ok {
			agent.Heading = intent.Total.Normalize()
		}
		if tr, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			tr.Rotation = intent.Yaw
		}
	}
	if !ss.Debug {
		return
	}
	dbg, ok := ecs.Get(w, e, component.SteeringDebugComponent.Kind())
	if !ok {
		dbg = &component.SteeringDebug{}
		if err := ecs.Add(w, e, component.SteeringDebugComponent.Kind(), dbg); err != nil {
			return
		}
	}
	dbg.Forces = intent.Forces
	dbg.Impulse = intent.Impulse
}
