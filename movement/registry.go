package movement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/skirmish/nav"
	"go.uber.org/zap"
)

var (
	ErrInvalidDestination = errors.New("movement: destination outside grid")
	ErrNoAgents           = errors.New("movement: order has no agents")
	ErrNoGrid             = errors.New("movement: registry has no grid")
)

// Order is one move command: a destination, the flow field built for it and
// the agents currently following that field.
type Order struct {
	ID          OrderID
	Destination cp.Vector
	Goal        nav.Coord
	Field       *nav.FlowField
	Status      OrderStatus
	// DebugPath is a representative A* path recorded for visualization.
	DebugPath nav.Path

	members map[AgentID]struct{}
}

func (o *Order) Size() int {
	return len(o.members)
}

func (o *Order) Has(a AgentID) bool {
	_, ok := o.members[a]
	return ok
}

// Members returns the followers sorted by ID.
func (o *Order) Members() []AgentID {
	out := make([]AgentID, 0, len(o.members))
	for a := range o.members {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type OrderResult struct {
	Order   OrderID
	Goal    nav.Coord
	Members []AgentID
	// Retired lists earlier orders left without followers by this one.
	Retired []OrderID
}

// Registry maps agents to the single order each one follows and retires
// orders once nobody follows them.
type Registry struct {
	grid   *nav.Grid
	logger *zap.Logger

	nextID     OrderID
	orders     map[OrderID]*Order
	membership map[AgentID]OrderID
}

func NewRegistry(grid *nav.Grid, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		grid:       grid,
		logger:     logger,
		orders:     make(map[OrderID]*Order),
		membership: make(map[AgentID]OrderID),
	}
}

func (r *Registry) Grid() *nav.Grid {
	return r.grid
}

// IssueOrder builds a fresh flow field toward destination and moves every
// listed agent onto it. On error the registry is left untouched.
func (r *Registry) IssueOrder(agents []AgentID, destination cp.Vector) (OrderResult, error) {
	if r.grid == nil {
		return OrderResult{}, ErrNoGrid
	}
	members := dedupeAgents(agents)
	if len(members) == 0 {
		return OrderResult{}, ErrNoAgents
	}
	goal, ok := r.grid.CellFromWorld(destination)
	if !ok {
		return OrderResult{}, fmt.Errorf("%w: %v", ErrInvalidDestination, destination)
	}
	field, err := nav.BuildFlowField(r.grid, goal)
	if err != nil {
		return OrderResult{}, fmt.Errorf("movement: build field: %w", err)
	}

	r.nextID++
	order := &Order{
		ID:          r.nextID,
		Destination: destination,
		Goal:        goal,
		Field:       field,
		Status:      OrderActive,
		members:     make(map[AgentID]struct{}, len(members)),
	}

	result := OrderResult{Order: order.ID, Goal: goal, Members: members}
	for _, a := range members {
		if prev, ok := r.detach(a); ok && prev.Size() == 0 {
			r.retire(prev, OrderStale)
			result.Retired = append(result.Retired, prev.ID)
		}
		order.members[a] = struct{}{}
		r.membership[a] = order.ID
	}
	r.orders[order.ID] = order

	r.logger.Debug("order issued",
		zap.Uint64("order", uint64(order.ID)),
		zap.Int("members", len(members)),
		zap.Int("goal_row", goal.Row),
		zap.Int("goal_col", goal.Col),
		zap.Int("retired", len(result.Retired)),
	)
	return result, nil
}

// OnAgentArrived detaches a from its order; an emptied order completes.
func (r *Registry) OnAgentArrived(a AgentID) bool {
	prev, ok := r.detach(a)
	if !ok {
		return false
	}
	if prev.Size() == 0 {
		r.retire(prev, OrderCompleted)
	}
	return true
}

// OnAgentRemoved detaches a despawned agent; an emptied order goes stale.
func (r *Registry) OnAgentRemoved(a AgentID) bool {
	prev, ok := r.detach(a)
	if !ok {
		return false
	}
	if prev.Size() == 0 {
		r.retire(prev, OrderStale)
	}
	return true
}

func (r *Registry) OrderFor(a AgentID) (*Order, bool) {
	id, ok := r.membership[a]
	if !ok {
		return nil, false
	}
	return r.Order(id)
}

func (r *Registry) Order(id OrderID) (*Order, bool) {
	o, ok := r.orders[id]
	return o, ok
}

func (r *Registry) State(a AgentID) AgentState {
	if id, ok := r.membership[a]; ok {
		return Following(id)
	}
	return Idle()
}

// ActiveOrders returns live orders sorted by ID.
func (r *Registry) ActiveOrders() []*Order {
	out := make([]*Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) detach(a AgentID) (*Order, bool) {
	id, ok := r.membership[a]
	if !ok {
		return nil, false
	}
	delete(r.membership, a)
	o, ok := r.orders[id]
	if !ok {
		return nil, false
	}
	delete(o.members, a)
	return o, true
}

func (r *Registry) retire(o *Order, status OrderStatus) {
	o.Status = status
	o.Field.Retire()
	delete(r.orders, o.ID)
	r.logger.Debug("order retired",
		zap.Uint64("order", uint64(o.ID)),
		zap.Stringer("status", o.Status),
	)
}

func dedupeAgents(agents []AgentID) []AgentID {
	if len(agents) == 0 {
		return nil
	}
	out := append([]AgentID(nil), agents...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
