package ecs

import (
	"math"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

const (
	collisionTypeObstacle cp.CollisionType = iota + 1
	collisionTypeAgent
)

// Shape filter categories. The overlap query only sees obstacle shapes, so
// agent bodies never block grid cells.
const (
	categoryObstacle uint = 1 << iota
	categoryAgent
	categoryQuery
)

const (
	defaultIterations = 10
	defaultDamping    = 0.2
)

type PhysicsConfig struct {
	Iterations int
	// Damping is the fraction of velocity kept after one second.
	Damping float64
}

type agentBody struct {
	body     *cp.Body
	shape    *cp.Shape
	maxSpeed float64
}

// PhysicsWorld wraps a Chipmunk space. It answers static obstacle queries
// for grid construction and applies the impulses and yaw computed by
// steering.
type PhysicsWorld struct {
	space       *cp.Space
	logger      *zap.Logger
	staticReady bool

	statics map[Entity][]*cp.Shape
	agents  map[Entity]*agentBody
}

func NewPhysicsWorld(cfg PhysicsConfig, logger *zap.Logger) *PhysicsWorld {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = defaultIterations
	}
	if cfg.Damping <= 0 || cfg.Damping > 1 {
		cfg.Damping = defaultDamping
	}
	space := cp.NewSpace()
	space.Iterations = uint(cfg.Iterations)
	space.SetGravity(cp.Vector{})
	space.SetDamping(cfg.Damping)

	return &PhysicsWorld{
		space:   space,
		logger:  logger,
		statics: make(map[Entity][]*cp.Shape),
		agents:  make(map[Entity]*agentBody),
	}
}

func (pw *PhysicsWorld) Space() *cp.Space {
	if pw == nil {
		return nil
	}
	return pw.space
}

// Ready reports whether static obstacles have been registered.
func (pw *PhysicsWorld) Ready() bool {
	return pw != nil && pw.staticReady
}

// MarkStaticReady is called once the first batch of obstacles is in the space.
func (pw *PhysicsWorld) MarkStaticReady() {
	if pw == nil || pw.staticReady {
		return
	}
	pw.staticReady = true
	pw.logger.Debug("static obstacles ready", zap.Int("obstacles", len(pw.statics)))
}

// QueryOverlap reports whether any static obstacle overlaps bb. Sensors and
// agent bodies are ignored.
func (pw *PhysicsWorld) QueryOverlap(bb cp.BB) bool {
	if pw == nil || pw.space == nil {
		return false
	}
	sample := cp.NewBox2(cp.NewStaticBody(), bb, 0)
	sample.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryQuery, categoryObstacle))
	hit := false
	pw.space.ShapeQuery(sample, func(shape *cp.Shape, _ *cp.ContactPointSet) {
		if shape.Sensor() {
			return
		}
		hit = true
	})
	return hit
}

// AddStaticBox adds an axis-aligned obstacle box owned by e.
func (pw *PhysicsWorld) AddStaticBox(e Entity, bb cp.BB) *cp.Shape {
	shape := cp.NewBox2(pw.space.StaticBody, bb, 0)
	return pw.addStatic(e, shape)
}

// AddStaticCircle adds a round obstacle owned by e.
func (pw *PhysicsWorld) AddStaticCircle(e Entity, center cp.Vector, radius float64) *cp.Shape {
	shape := cp.NewCircle(pw.space.StaticBody, radius, center)
	return pw.addStatic(e, shape)
}

func (pw *PhysicsWorld) addStatic(e Entity, shape *cp.Shape) *cp.Shape {
	shape.SetFriction(0.8)
	shape.SetCollisionType(collisionTypeObstacle)
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryObstacle, cp.ALL_CATEGORIES))
	shape.UserData = e
	pw.space.AddShape(shape)
	pw.statics[e] = append(pw.statics[e], shape)
	return shape
}

type AgentBodyConfig struct {
	Position cp.Vector
	Radius   float64
	Mass     float64
	Friction float64
	MaxSpeed float64
}

// EnsureAgentBody creates the dynamic circle body for e if it has none.
// Rotation is driven only by SetYaw, so the moment is infinite.
func (pw *PhysicsWorld) EnsureAgentBody(e Entity, cfg AgentBodyConfig) (*cp.Body, *cp.Shape) {
	if ab, ok := pw.agents[e]; ok {
		return ab.body, ab.shape
	}
	if cfg.Mass <= 0 {
		cfg.Mass = 1
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 6
	}

	body := cp.NewBody(cfg.Mass, math.Inf(1))
	body.SetPosition(cfg.Position)
	body.UserData = e
	shape := cp.NewCircle(body, cfg.Radius, cp.Vector{})
	shape.SetFriction(cfg.Friction)
	shape.SetElasticity(0)
	shape.SetCollisionType(collisionTypeAgent)
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryAgent, categoryAgent|categoryObstacle))
	shape.UserData = e

	ab := &agentBody{body: body, shape: shape, maxSpeed: cfg.MaxSpeed}
	body.SetVelocityUpdateFunc(func(b *cp.Body, gravity cp.Vector, damping, dt float64) {
		cp.BodyUpdateVelocity(b, gravity, damping, dt)
		if ab.maxSpeed > 0 {
			v := b.Velocity()
			if v.LengthSq() > ab.maxSpeed*ab.maxSpeed {
				b.SetVelocityVector(v.Clamp(ab.maxSpeed))
			}
		}
	})

	pw.space.AddBody(body)
	pw.space.AddShape(shape)
	pw.agents[e] = ab
	pw.logger.Debug("agent body created",
		zap.Stringer("entity", e),
		zap.Float64("x", cfg.Position.X),
		zap.Float64("y", cfg.Position.Y),
	)
	return body, shape
}

func (pw *PhysicsWorld) HasAgent(e Entity) bool {
	_, ok := pw.agents[e]
	return ok
}

// SetMaxSpeed changes the velocity clamp for e.
func (pw *PhysicsWorld) SetMaxSpeed(e Entity, maxSpeed float64) {
	if ab, ok := pw.agents[e]; ok {
		ab.maxSpeed = maxSpeed
	}
}

// RemoveEntity drops every body and shape owned by e.
func (pw *PhysicsWorld) RemoveEntity(e Entity) bool {
	removed := false
	if ab, ok := pw.agents[e]; ok {
		pw.space.RemoveShape(ab.shape)
		pw.space.RemoveBody(ab.body)
		delete(pw.agents, e)
		removed = true
	}
	if shapes, ok := pw.statics[e]; ok {
		for _, s := range shapes {
			pw.space.RemoveShape(s)
		}
		delete(pw.statics, e)
		removed = true
	}
	return removed
}

func (pw *PhysicsWorld) ApplyImpulse(e Entity, impulse cp.Vector) {
	ab, ok := pw.agents[e]
	if !ok {
		return
	}
	ab.body.ApplyImpulseAtWorldPoint(impulse, ab.body.Position())
}

// SetYaw turns e to face angle radians.
func (pw *PhysicsWorld) SetYaw(e Entity, angle float64) {
	if ab, ok := pw.agents[e]; ok {
		ab.body.SetAngle(angle)
	}
}

// Stop zeroes the velocity of e.
func (pw *PhysicsWorld) Stop(e Entity) {
	if ab, ok := pw.agents[e]; ok {
		ab.body.SetVelocity(0, 0)
	}
}

func (pw *PhysicsWorld) Position(e Entity) (cp.Vector, bool) {
	ab, ok := pw.agents[e]
	if !ok {
		return cp.Vector{}, false
	}
	return ab.body.Position(), true
}

func (pw *PhysicsWorld) Velocity(e Entity) (cp.Vector, bool) {
	ab, ok := pw.agents[e]
	if !ok {
		return cp.Vector{}, false
	}
	return ab.body.Velocity(), true
}

func (pw *PhysicsWorld) Step(dt float64) {
	if pw == nil || pw.space == nil || dt <= 0 {
		return
	}
	pw.space.Step(dt)
}
