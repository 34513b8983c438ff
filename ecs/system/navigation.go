package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
	"go.uber.org/zap"
)

const defaultDt = 1.0 / 60.0

// Navigation is the state shared by the movement systems. It is owned by the
// simulation and passed to each system explicitly.
type Navigation struct {
	Bounds   cp.BB
	CellSize float64
	Physics  *ecs.PhysicsWorld
	Logger   *zap.Logger

	// Grid and Registry stay nil until GridBootstrapSystem succeeds.
	Grid     *nav.Grid
	Registry *movement.Registry

	Dt   float64
	Tick uint64
	// LastError is the most recent rejected order or grid failure.
	LastError error
}

func NewNavigation(bounds cp.BB, cellSize float64, physics *ecs.PhysicsWorld, logger *zap.Logger) *Navigation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigation{
		Bounds:   bounds,
		CellSize: cellSize,
		Physics:  physics,
		Logger:   logger,
		Dt:       defaultDt,
	}
}

func (n *Navigation) Ready() bool {
	return n != nil && n.Grid != nil && n.Registry != nil
}

func (n *Navigation) dt() float64 {
	if n == nil || n.Dt <= 0 {
		return defaultDt
	}
	return n.Dt
}

func agentID(e ecs.Entity) movement.AgentID {
	return movement.AgentID(e)
}

func entityOf(a movement.AgentID) ecs.Entity {
	return ecs.Entity(a)
}

func cpv(x, y float64) cp.Vector {
	return cp.Vector{X: x, Y: y}
}
