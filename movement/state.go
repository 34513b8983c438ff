package movement

import "fmt"

// AgentID identifies a moving unit. ECS entity handles convert directly.
type AgentID uint64

// OrderID identifies one issued move order and the flow field it owns.
type OrderID uint64

type Mode uint8

const (
	ModeIdle Mode = iota
	ModeFollowing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeFollowing:
		return "following"
	default:
		return "unknown"
	}
}

// AgentState is Idle or Following a single order.
type AgentState struct {
	Mode  Mode
	Order OrderID
}

func Idle() AgentState {
	return AgentState{Mode: ModeIdle}
}

func Following(id OrderID) AgentState {
	return AgentState{Mode: ModeFollowing, Order: id}
}

func (s AgentState) IsFollowing() bool {
	return s.Mode == ModeFollowing
}

func (s AgentState) String() string {
	if s.Mode == ModeFollowing {
		return fmt.Sprintf("following(%d)", s.Order)
	}
	return s.Mode.String()
}

type OrderStatus uint8

const (
	OrderActive OrderStatus = iota
	OrderStale
	OrderCompleted
)

func (s OrderStatus) String() string {
	switch s {
	case OrderActive:
		return "active"
	case OrderStale:
		return "stale"
	case OrderCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
