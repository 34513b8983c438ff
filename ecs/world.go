package ecs

import (
	"fmt"

	"github.com/milk9111/skirmish/ecs/component"
)

// World owns entities, their components and the event queue.
type World struct {
	entities   entityStore
	components componentStorage
	events     EventQueue
	destroyed  []Entity
}

func NewWorld() *World {
	return &World{}
}

func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity removes e and all of its components. The handle is queued
// for DrainDestroyed so owners of external resources can release them.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.destroy(e) {
		return false
	}
	w.components.removeAll(e)
	w.destroyed = append(w.destroyed, e)
	return true
}

func (w *World) IsAlive(e Entity) bool {
	return w != nil && w.entities.isAlive(e)
}

// Entities returns every live entity in slot order.
func (w *World) Entities() []Entity {
	if w == nil {
		return nil
	}
	return w.entities.live()
}

// DrainDestroyed returns entities destroyed since the last call.
func (w *World) DrainDestroyed() []Entity {
	if w == nil || len(w.destroyed) == 0 {
		return nil
	}
	out := w.destroyed
	w.destroyed = nil
	return out
}

func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) AddComponent(e Entity, kind component.ComponentID, value any) error {
	if w == nil || !w.entities.isAlive(e) {
		return fmt.Errorf("%w: %v", component.ErrEntityNotAlive, e)
	}
	if kind == 0 {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	w.components.set(kind, true).Set(e, value)
	return nil
}

func (w *World) GetComponent(e Entity, kind component.ComponentID) (any, bool) {
	if w == nil || !w.entities.isAlive(e) {
		return nil, false
	}
	return w.components.set(kind, false).Get(e)
}

func (w *World) HasComponent(e Entity, kind component.ComponentID) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	return w.components.set(kind, false).Has(e)
}

func (w *World) RemoveComponent(e Entity, kind component.ComponentID) bool {
	if w == nil {
		return false
	}
	return w.components.set(kind, false).Remove(e)
}
