package ecs

import (
	"testing"

	"github.com/jakecoffman/cp"
)

func TestEventQueueDrainKind(t *testing.T) {
	var q EventQueue
	q.Push(Event{Kind: EventMoveOrder, Data: MoveOrderEvent{Destination: cp.Vector{X: 1}}})
	q.Push(Event{Kind: EventAgentArrived, Data: ArrivalEvent{Order: 1}})
	q.Push(Event{Kind: EventMoveOrder, Data: MoveOrderEvent{Destination: cp.Vector{X: 2}}})

	orders := q.DrainKind(EventMoveOrder)
	if len(orders) != 2 {
		t.Fatalf("expected 2 move orders, got %d", len(orders))
	}
	if got := orders[1].Data.(MoveOrderEvent).Destination.X; got != 2 {
		t.Fatalf("move orders out of order, second has x=%v", got)
	}
	if q.Len() != 1 {
		t.Fatalf("expected arrival to stay queued, len=%d", q.Len())
	}
	if rest := q.Drain(); len(rest) != 1 || rest[0].Kind != EventAgentArrived {
		t.Fatalf("unexpected remainder %v", rest)
	}
	if q.Drain() != nil {
		t.Fatalf("queue should be empty")
	}
}

func TestDrainDestroyed(t *testing.T) {
	w := NewWorld()
	a := CreateEntity(w)
	b := CreateEntity(w)

	DestroyEntity(w, b)
	DestroyEntity(w, b)
	DestroyEntity(w, a)

	got := w.DrainDestroyed()
	if len(got) != 2 || got[0] != b || got[1] != a {
		t.Fatalf("expected [b a], got %v", got)
	}
	if w.DrainDestroyed() != nil {
		t.Fatalf("second drain should be empty")
	}

	c := CreateEntity(w)
	if c == a || c.id() != a.id() {
		t.Fatalf("expected recycled slot with new generation, got %v (old %v)", c, a)
	}
}

type recordSystem struct {
	name string
	log  *[]string
}

func (r recordSystem) Update(*World) { *r.log = append(*r.log, r.name) }

func TestSchedulerKeepsOrder(t *testing.T) {
	var log []string
	s := NewScheduler(recordSystem{"a", &log}, nil, recordSystem{"b", &log})
	s.Add(recordSystem{"c", &log})
	s.Update(NewWorld())
	s.Update(NewWorld())

	want := []string{"a", "b", "c", "a", "b", "c"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log = %v, want %v", log, want)
		}
	}
}
