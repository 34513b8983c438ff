package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
)

// PhysicsSystem creates bodies for new PhysicsBody components, steps the
// space and copies body poses back into transforms. Static obstacles are
// reported ready after the first sync so grid construction can start on
// the following tick.
type PhysicsSystem struct {
	nav *Navigation
}

func NewPhysicsSystem(n *Navigation) *PhysicsSystem {
	return &PhysicsSystem{nav: n}
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || ps.nav == nil || ps.nav.Physics == nil || w == nil {
		return
	}
	pw := ps.nav.Physics

	ps.syncEntities(w)
	pw.MarkStaticReady()

	pw.Step(ps.nav.dt())
	ps.nav.Tick++

	ps.syncTransforms(w)
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	pw := ps.nav.Physics
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, pb *component.PhysicsBody, tr *component.Transform) {
		if pb.Static {
			if pb.Shape != nil {
				return
			}
			center := cpv(tr.X, tr.Y)
			if pb.Radius > 0 {
				pb.Shape = pw.AddStaticCircle(e, center, pb.Radius)
				return
			}
			halfW, halfH := pb.Width/2, pb.Height/2
			pb.Shape = pw.AddStaticBox(e, cp.BB{L: center.X - halfW, B: center.Y - halfH, R: center.X + halfW, T: center.Y + halfH})
			return
		}

		maxSpeed := 0.0
		if agent, ok := ecs.Get(w, e, component.AgentComponent.Kind()); ok {
			maxSpeed = agent.Tuning.MaxSpeed
		}
		if pb.Body == nil {
			pb.Body, pb.Shape = pw.EnsureAgentBody(e, ecs.AgentBodyConfig{
				Position: cpv(tr.X, tr.Y),
				Radius:   pb.Radius,
				Mass:     pb.Mass,
				Friction: pb.Friction,
				MaxSpeed: maxSpeed,
			})
			pw.SetYaw(e, tr.Rotation)
			return
		}
		pw.SetMaxSpeed(e, maxSpeed)
	})
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, pb *component.PhysicsBody, tr *component.Transform) {
		if pb.Static || pb.Body == nil {
			return
		}
		pos := pb.Body.Position()
		tr.X = pos.X
		tr.Y = pos.Y
		tr.Rotation = pb.Body.Angle()
	})
}
