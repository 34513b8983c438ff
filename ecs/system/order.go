package system

import (
	"errors"

	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
	"go.uber.org/zap"
)

// OrderSystem turns queued move orders into flow fields. It runs before
// steering so a field built this tick is followed this tick.
type OrderSystem struct {
	nav *Navigation
}

func NewOrderSystem(n *Navigation) *OrderSystem {
	return &OrderSystem{nav: n}
}

func (o *OrderSystem) Update(w *ecs.World) {
	if o == nil || o.nav == nil || w == nil {
		return
	}
	events := w.Events().DrainKind(ecs.EventMoveOrder)
	if len(events) == 0 {
		return
	}
	if !o.nav.Ready() {
		// Orders wait for the grid instead of being dropped.
		for _, evt := range events {
			w.Events().Push(evt)
		}
		return
	}

	for _, evt := range events {
		req, ok := evt.Data.(ecs.MoveOrderEvent)
		if !ok {
			continue
		}
		o.issue(w, req)
	}
}

func (o *OrderSystem) issue(w *ecs.World, req ecs.MoveOrderEvent) {
	ids := make([]movement.AgentID, 0, len(req.Agents))
	for _, e := range req.Agents {
		if !ecs.Has(w, e, component.AgentComponent.Kind()) {
			continue
		}
		ids = append(ids, agentID(e))
	}

	result, err := o.nav.Registry.IssueOrder(ids, req.Destination)
	if err != nil {
		o.nav.LastError = err
		if errors.Is(err, movement.ErrInvalidDestination) {
			o.nav.Logger.Warn("order rejected",
				zap.Float64("x", req.Destination.X),
				zap.Float64("y", req.Destination.Y),
				zap.Error(err),
			)
		} else {
			o.nav.Logger.Debug("order ignored", zap.Error(err))
		}
		w.Events().Push(ecs.Event{
			Kind: ecs.EventOrderRejected,
			Data: ecs.OrderRejectedEvent{Destination: req.Destination, Err: err},
		})
		return
	}
	o.nav.LastError = nil

	for _, id := range result.Members {
		if agent, ok := ecs.Get(w, entityOf(id), component.AgentComponent.Kind()); ok {
			agent.State = movement.Following(result.Order)
		}
	}

	order, ok := o.nav.Registry.Order(result.Order)
	if !ok {
		return
	}
	o.recordPath(w, order)
}

// recordPath stores an A* path from the lowest-ID member for overlays and
// logs members that cannot reach the goal. Those agents keep flocking
// without a flow contribution.
func (o *OrderSystem) recordPath(w *ecs.World, order *movement.Order) {
	grid := o.nav.Grid
	unreachable := 0
	pathed := false
	for _, id := range order.Members() {
		tr, ok := ecs.Get(w, entityOf(id), component.TransformComponent.Kind())
		if !ok {
			continue
		}
		cell, ok := grid.CellFromWorld(cpv(tr.X, tr.Y))
		if !ok || !order.Field.Reachable(cell) {
			unreachable++
			continue
		}
		if pathed {
			continue
		}
		if path, ok := nav.FindPath(grid, cell, order.Goal); ok {
			order.DebugPath = path
			pathed = true
		}
	}
	if unreachable > 0 {
		o.nav.Logger.Info("goal unreachable for some agents",
			zap.Uint64("order", uint64(order.ID)),
			zap.Int("unreachable", unreachable),
			zap.Int("members", order.Size()),
		)
	}
}
