package ecs

import "github.com/milk9111/skirmish/ecs/component"

// Query returns live entities carrying every listed kind, in the dense
// order of the smallest matching store.
func (w *World) Query(kinds ...component.Kind) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	ids := make([]component.ComponentID, len(kinds))
	for i, k := range kinds {
		ids[i] = k.ID()
	}
	base := w.components.smallest(ids)
	if base == nil {
		return nil
	}
	out := make([]Entity, 0, base.Len())
	for _, e := range base.Entities() {
		if !w.entities.isAlive(e) {
			continue
		}
		match := true
		for _, id := range ids {
			if !w.components.set(id, false).Has(e) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out
}

func (w *World) First(kinds ...component.Kind) (Entity, bool) {
	matches := w.Query(kinds...)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0], true
}
