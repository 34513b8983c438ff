package system

import (
	"math"

	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/movement"
	"go.uber.org/zap"
)

// ArrivalSystem returns agents to Idle once they reach their order's goal.
// The accepted radius grows with every group mate that already arrived so a
// crowd settles around the goal instead of fighting over one cell.
type ArrivalSystem struct {
	nav     *Navigation
	arrived map[movement.OrderID]int
}

func NewArrivalSystem(n *Navigation) *ArrivalSystem {
	return &ArrivalSystem{nav: n, arrived: make(map[movement.OrderID]int)}
}

func (as *ArrivalSystem) Update(w *ecs.World) {
	if as == nil || as.nav == nil || w == nil || !as.nav.Ready() {
		return
	}
	reg := as.nav.Registry

	ecs.ForEach2(w, component.AgentComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, agent *component.Agent, tr *component.Transform) {
		if !agent.State.IsFollowing() {
			return
		}
		order, ok := reg.OrderFor(agentID(e))
		if !ok || order.ID != agent.State.Order {
			agent.State = reg.State(agentID(e))
			return
		}

		pos := cpv(tr.X, tr.Y)
		cell, inGrid := as.nav.Grid.CellFromWorld(pos)
		radius := agent.Tuning.ArrivalRadius * math.Sqrt(float64(as.arrived[order.ID]+1))
		if !(inGrid && cell == order.Goal) && !movement.Arrived(pos, order.Field.GoalPosition(), radius) {
			return
		}

		orderID := order.ID
		reg.OnAgentArrived(agentID(e))
		agent.State = movement.Idle()
		if as.nav.Physics != nil {
			as.nav.Physics.Stop(e)
		}
		if _, active := reg.Order(orderID); active {
			as.arrived[orderID]++
		} else {
			delete(as.arrived, orderID)
		}

		as.nav.Logger.Debug("agent arrived",
			zap.Stringer("entity", e),
			zap.Uint64("order", uint64(orderID)),
		)
		w.Events().Push(ecs.Event{
			Kind: ecs.EventAgentArrived,
			Data: ecs.ArrivalEvent{Agent: e, Order: uint64(orderID)},
		})
	})

	for id := range as.arrived {
		if _, ok := reg.Order(id); !ok {
			delete(as.arrived, id)
		}
	}
}
