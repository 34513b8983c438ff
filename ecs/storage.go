package ecs

import "github.com/milk9111/skirmish/ecs/component"

// componentStorage owns one sparse set per component kind.
type componentStorage struct {
	sets map[component.ComponentID]*SparseSet
}

func (s *componentStorage) set(id component.ComponentID, create bool) *SparseSet {
	if s.sets == nil {
		if !create {
			return nil
		}
		s.sets = make(map[component.ComponentID]*SparseSet)
	}
	set, ok := s.sets[id]
	if !ok && create {
		set = &SparseSet{}
		s.sets[id] = set
	}
	return set
}

// removeAll strips every component from e.
func (s *componentStorage) removeAll(e Entity) {
	for _, set := range s.sets {
		set.Remove(e)
	}
}

// smallest returns the set with the fewest members among ids, or nil when
// any of them has never been populated.
func (s *componentStorage) smallest(ids []component.ComponentID) *SparseSet {
	var best *SparseSet
	for _, id := range ids {
		set := s.set(id, false)
		if set == nil {
			return nil
		}
		if best == nil || set.Len() < best.Len() {
			best = set
		}
	}
	return best
}
