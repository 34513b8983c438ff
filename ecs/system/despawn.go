package system

import (
	"github.com/milk9111/skirmish/ecs"
	"go.uber.org/zap"
)

// DespawnSystem releases registry membership and physics bodies of entities
// destroyed since the last tick.
type DespawnSystem struct {
	nav *Navigation
}

func NewDespawnSystem(n *Navigation) *DespawnSystem {
	return &DespawnSystem{nav: n}
}

func (ds *DespawnSystem) Update(w *ecs.World) {
	if ds == nil || ds.nav == nil || w == nil {
		return
	}
	for _, e := range w.DrainDestroyed() {
		if ds.nav.Registry != nil && ds.nav.Registry.OnAgentRemoved(agentID(e)) {
			ds.nav.Logger.Debug("agent removed from order", zap.Stringer("entity", e))
		}
		if ds.nav.Physics != nil {
			ds.nav.Physics.RemoveEntity(e)
		}
	}
}
