package ecs

import "github.com/jakecoffman/cp"

type EventKind string

const (
	// EventMoveOrder carries a MoveOrderEvent.
	EventMoveOrder EventKind = "move_order"
	// EventOrderRejected carries an OrderRejectedEvent.
	EventOrderRejected EventKind = "order_rejected"
	// EventAgentArrived carries an ArrivalEvent.
	EventAgentArrived EventKind = "agent_arrived"
)

// Event is a queued message between systems.
type Event struct {
	Kind EventKind
	Data any
}

type MoveOrderEvent struct {
	Agents      []Entity
	Destination cp.Vector
}

type OrderRejectedEvent struct {
	Destination cp.Vector
	Err         error
}

type ArrivalEvent struct {
	Agent Entity
	Order uint64
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// DrainKind removes and returns only events of kind, keeping the rest in order.
func (q *EventQueue) DrainKind(kind EventKind) []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	var out []Event
	kept := q.items[:0]
	for _, evt := range q.items {
		if evt.Kind == kind {
			out = append(out, evt)
			continue
		}
		kept = append(kept, evt)
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = Event{}
	}
	q.items = kept
	return out
}
