package component

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/movement"
)

// SteeringDebug keeps the last computed forces for overlays and tests.
type SteeringDebug struct {
	Forces  movement.Forces
	Impulse cp.Vector
}

var SteeringDebugComponent = NewComponent[SteeringDebug]()
