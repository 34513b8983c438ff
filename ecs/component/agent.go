package component

import (
	"image/color"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/movement"
)

// Agent marks a steerable unit. State mirrors the movement registry and is
// only written by the order and arrival systems.
type Agent struct {
	Kind    string
	Squad   string
	Color   color.RGBA
	State   movement.AgentState
	Heading cp.Vector
	Tuning  movement.Tuning
}

var AgentComponent = NewComponent[Agent]()
