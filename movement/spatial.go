package movement

import (
	"math"
	"sort"

	"github.com/jakecoffman/cp"
)

// NeighborIndex is a uniform bucket grid for radius queries. Buckets are
// keyed by integer cell so agents outside any map bounds still index.
type NeighborIndex struct {
	cellSize float64
	buckets  map[[2]int][]Neighbor
	groups   map[AgentID]OrderID
}

func NewNeighborIndex(cellSize float64) *NeighborIndex {
	if cellSize <= 0 {
		cellSize = DefaultNeighborRadius
	}
	return &NeighborIndex{
		cellSize: cellSize,
		buckets:  make(map[[2]int][]Neighbor),
		groups:   make(map[AgentID]OrderID),
	}
}

// Reset clears all buckets and keeps their capacity.
func (idx *NeighborIndex) Reset() {
	for k, b := range idx.buckets {
		idx.buckets[k] = b[:0]
	}
	clear(idx.groups)
}

func (idx *NeighborIndex) Insert(n Neighbor, group OrderID) {
	if !isFinite(n.Position) {
		return
	}
	k := idx.key(n.Position)
	idx.buckets[k] = append(idx.buckets[k], n)
	idx.groups[n.ID] = group
}

// Query returns agents of the same group within radius of p, excluding self,
// sorted by ID so results do not depend on insertion order.
func (idx *NeighborIndex) Query(self AgentID, p cp.Vector, radius float64, group OrderID) []Neighbor {
	if !(radius > 0) || math.IsInf(radius, 0) || !isFinite(p) {
		return nil
	}
	r2 := radius * radius
	var out []Neighbor
	collect := func(bucket []Neighbor) {
		for _, n := range bucket {
			if n.ID == self || idx.groups[n.ID] != group {
				continue
			}
			if n.Position.DistanceSq(p) > r2 {
				continue
			}
			out = append(out, n)
		}
	}

	// Span is computed in float64 so a very large radius cannot overflow int.
	loX, hiX := math.Floor((p.X-radius)/idx.cellSize), math.Floor((p.X+radius)/idx.cellSize)
	loY, hiY := math.Floor((p.Y-radius)/idx.cellSize), math.Floor((p.Y+radius)/idx.cellSize)
	if (hiX-loX+1)*(hiY-loY+1) > float64(len(idx.buckets)) {
		for _, b := range idx.buckets {
			collect(b)
		}
	} else {
		for cx := int(loX); cx <= int(hiX); cx++ {
			for cy := int(loY); cy <= int(hiY); cy++ {
				collect(idx.buckets[[2]int{cx, cy}])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (idx *NeighborIndex) key(p cp.Vector) [2]int {
	return [2]int{
		int(math.Floor(p.X / idx.cellSize)),
		int(math.Floor(p.Y / idx.cellSize)),
	}
}

func isFinite(v cp.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
