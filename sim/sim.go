package sim

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/ecs"
	"github.com/milk9111/skirmish/ecs/component"
	"github.com/milk9111/skirmish/ecs/entity"
	"github.com/milk9111/skirmish/ecs/system"
	"github.com/milk9111/skirmish/movement"
	"github.com/milk9111/skirmish/nav"
	"github.com/milk9111/skirmish/prefabs"
	"go.uber.org/zap"
)

const DefaultBattlefield = "battlefield.yaml"

// NoScenario disables the battlefield's scenario script.
const NoScenario = "none"

type Config struct {
	Battlefield string
	// Scenario overrides the battlefield's script. NoScenario disables it.
	Scenario string
	Dt       float64
	// DebugForces records per-agent steering forces for overlays.
	DebugForces bool
}

// Simulation owns one battlefield: the ECS world, the physics space and the
// navigation state, stepped in a fixed system order.
type Simulation struct {
	logger *zap.Logger
	spec   prefabs.BattlefieldSpec

	world     *ecs.World
	physics   *ecs.PhysicsWorld
	nav       *system.Navigation
	scheduler *ecs.Scheduler
	scenario  *system.ScenarioSystem
	bootstrap *system.GridBootstrapSystem
	steering  *system.SteeringSystem
	camera    ecs.Entity
}

func New(cfg Config, logger *zap.Logger) (*Simulation, error) {
	if cfg.Battlefield == "" {
		cfg.Battlefield = DefaultBattlefield
	}
	spec, err := prefabs.LoadBattlefieldSpec(cfg.Battlefield)
	if err != nil {
		return nil, err
	}
	return NewFromSpec(spec, cfg, logger)
}

func NewFromSpec(spec prefabs.BattlefieldSpec, cfg Config, logger *zap.Logger) (*Simulation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("battlefield", spec.Name))

	physics := ecs.NewPhysicsWorld(ecs.PhysicsConfig{
		Iterations: spec.Physics.Iterations,
		Damping:    spec.Physics.Damping,
	}, logger)
	bounds := cp.BB{L: 0, B: 0, R: spec.Width, T: spec.Height}
	n := system.NewNavigation(bounds, spec.CellSize, physics, logger)
	if cfg.Dt > 0 {
		n.Dt = cfg.Dt
	}

	s := &Simulation{
		logger:    logger,
		spec:      spec,
		world:     ecs.NewWorld(),
		physics:   physics,
		nav:       n,
		bootstrap: system.NewGridBootstrapSystem(n),
		steering:  system.NewSteeringSystem(n),
	}
	s.steering.Debug = cfg.DebugForces

	for i, o := range spec.Obstacles {
		if _, err := entity.BuildObstacle(s.world, o); err != nil {
			return nil, fmt.Errorf("sim: obstacle %d: %w", i, err)
		}
	}
	for _, sq := range spec.Squads {
		if _, err := s.spawnFormation(sq.Name, sq.Unit, sq.Color.RGBA8(), cp.Vector{X: sq.X, Y: sq.Y}, sq.Count, sq.Spacing, sq.Columns); err != nil {
			return nil, fmt.Errorf("sim: squad %s: %w", sq.Name, err)
		}
	}
	camera, err := entity.BuildCamera(s.world, 0, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("sim: camera: %w", err)
	}
	s.camera = camera

	scenario := spec.Scenario
	if cfg.Scenario != "" {
		scenario = cfg.Scenario
	}
	if scenario != "" && scenario != NoScenario {
		src, err := prefabs.LoadScript(scenario)
		if err != nil {
			return nil, fmt.Errorf("sim: scenario %s: %w", scenario, err)
		}
		s.scenario, err = system.NewScenarioSystem(scenario, src, s, n)
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
	}

	s.scheduler = ecs.NewScheduler()
	if s.scenario != nil {
		s.scheduler.Add(s.scenario)
	}
	s.scheduler.Add(system.NewDespawnSystem(n))
	s.scheduler.Add(s.bootstrap)
	s.scheduler.Add(system.NewOrderSystem(n))
	s.scheduler.Add(system.NewArrivalSystem(n))
	s.scheduler.Add(s.steering)
	s.scheduler.Add(system.NewPhysicsSystem(n))

	logger.Info("battlefield loaded",
		zap.Float64("width", spec.Width),
		zap.Float64("height", spec.Height),
		zap.Int("obstacles", len(spec.Obstacles)),
		zap.Int("squads", len(spec.Squads)),
		zap.String("scenario", scenario),
	)
	return s, nil
}

func (s *Simulation) World() *ecs.World                { return s.world }
func (s *Simulation) Physics() *ecs.PhysicsWorld       { return s.physics }
func (s *Simulation) Navigation() *system.Navigation   { return s.nav }
func (s *Simulation) Spec() prefabs.BattlefieldSpec    { return s.spec }
func (s *Simulation) Grid() *nav.Grid                  { return s.nav.Grid }
func (s *Simulation) Registry() *movement.Registry     { return s.nav.Registry }
func (s *Simulation) Scenario() *system.ScenarioSystem { return s.scenario }
func (s *Simulation) Camera() ecs.Entity               { return s.camera }
func (s *Simulation) Tick() uint64                     { return s.nav.Tick }

func (s *Simulation) SetDebugForces(on bool) {
	s.steering.Debug = on
}

// ScenarioDone reports whether a scenario ran to completion or failed.
func (s *Simulation) ScenarioDone() bool {
	return s.scenario != nil && (s.scenario.Done() || s.scenario.Failed())
}

// Step advances one tick.
func (s *Simulation) Step() {
	s.scheduler.Update(s.world)
}

// Run steps until ticks have elapsed, the scenario finishes or ctx ends.
// ticks <= 0 runs until the scenario finishes.
func (s *Simulation) Run(ctx context.Context, ticks int) error {
	if ticks <= 0 && s.scenario == nil {
		return errors.New("sim: unbounded run without a scenario")
	}
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
		if s.ScenarioDone() {
			break
		}
	}
	if s.scenario != nil && s.scenario.Failed() {
		return errors.New("sim: scenario failed")
	}
	return nil
}

// IssueOrder queues a move order. It takes effect on the next Step.
func (s *Simulation) IssueOrder(agents []ecs.Entity, destination cp.Vector) {
	if len(agents) == 0 {
		return
	}
	s.world.Events().Push(ecs.Event{
		Kind: ecs.EventMoveOrder,
		Data: ecs.MoveOrderEvent{Agents: append([]ecs.Entity(nil), agents...), Destination: destination},
	})
}

func (s *Simulation) OrderSquad(squad string, destination cp.Vector) int {
	members := s.Squad(squad)
	s.IssueOrder(members, destination)
	return len(members)
}

// Squad returns the live agents of squad in entity order.
func (s *Simulation) Squad(squad string) []ecs.Entity {
	var out []ecs.Entity
	ecs.ForEach(s.world, component.AgentComponent.Kind(), func(e ecs.Entity, agent *component.Agent) {
		if agent.Squad == squad {
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Despawn destroys e. Registry and physics cleanup runs on the next Step.
func (s *Simulation) Despawn(e ecs.Entity) bool {
	return s.world.DestroyEntity(e)
}

// DrainNotices returns rejection and arrival events raised since the last call.
func (s *Simulation) DrainNotices() []ecs.Event {
	events := s.world.Events().DrainKind(ecs.EventOrderRejected)
	return append(events, s.world.Events().DrainKind(ecs.EventAgentArrived)...)
}

// RetuneKind reloads the unit prefab for kind into every live agent.
func (s *Simulation) RetuneKind(kind string) (int, error) {
	n, err := entity.RetuneUnits(s.world, kind)
	if err != nil {
		return 0, err
	}
	s.logger.Info("units retuned", zap.String("kind", kind), zap.Int("agents", n))
	return n, nil
}

// SpawnSquad places count units of kind in rows of ceil(sqrt(count)).
func (s *Simulation) SpawnSquad(squad, unit string, origin cp.Vector, count int, spacing float64) ([]ecs.Entity, error) {
	return s.spawnFormation(squad, unit, s.squadColor(squad), origin, count, spacing, 0)
}

func (s *Simulation) AddObstacleBox(bb cp.BB) (ecs.Entity, error) {
	return s.addObstacle(entity.ObstacleFromBB(bb))
}

func (s *Simulation) AddObstacleCircle(center cp.Vector, radius float64) (ecs.Entity, error) {
	return s.addObstacle(prefabs.ObstacleSpec{Shape: "circle", X: center.X, Y: center.Y, Radius: radius})
}

func (s *Simulation) addObstacle(spec prefabs.ObstacleSpec) (ecs.Entity, error) {
	if s.nav.Grid != nil {
		s.logger.Warn("obstacle added after grid build; it will collide but not route",
			zap.String("shape", spec.Shape),
			zap.Float64("x", spec.X),
			zap.Float64("y", spec.Y),
		)
	}
	return entity.BuildObstacle(s.world, spec)
}

func (s *Simulation) spawnFormation(squad, unit string, tint color.RGBA, origin cp.Vector, count int, spacing float64, columns int) ([]ecs.Entity, error) {
	if count <= 0 {
		return nil, nil
	}
	if spacing <= 0 {
		spacing = 16
	}
	if columns <= 0 {
		columns = int(math.Ceil(math.Sqrt(float64(count))))
	}
	out := make([]ecs.Entity, 0, count)
	for i := 0; i < count; i++ {
		x := origin.X + float64(i%columns)*spacing
		y := origin.Y + float64(i/columns)*spacing
		e, err := entity.BuildUnit(s.world, unit, squad, tint, x, y)
		if err != nil {
			for _, made := range out {
				s.world.DestroyEntity(made)
			}
			return nil, err
		}
		out = append(out, e)
	}
	s.logger.Debug("squad spawned",
		zap.String("squad", squad),
		zap.String("unit", unit),
		zap.Int("count", count),
	)
	return out, nil
}

// squadColor reuses the colour of an existing squad member, or the
// battlefield's colour for that squad.
func (s *Simulation) squadColor(squad string) color.RGBA {
	if members := s.Squad(squad); len(members) > 0 {
		if agent, ok := ecs.Get(s.world, members[0], component.AgentComponent.Kind()); ok {
			return agent.Color
		}
	}
	for _, sq := range s.spec.Squads {
		if sq.Name == squad {
			return sq.Color.RGBA8()
		}
	}
	var none *prefabs.YAMLColor
	return none.RGBA8()
}
