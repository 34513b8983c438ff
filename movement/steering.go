package movement

import (
	"math"

	"github.com/jakecoffman/cp"
)

const (
	// MinSeparationDistance skips neighbours so close that a direction
	// cannot be derived from the offset.
	MinSeparationDistance = 1e-4
	// SteeringEpsilon is the smallest steering magnitude that turns an agent.
	SteeringEpsilon = 1e-6
)

type Neighbor struct {
	ID       AgentID
	Position cp.Vector
	Heading  cp.Vector
}

type SteeringInput struct {
	Position  cp.Vector
	Flow      cp.Vector
	Neighbors []Neighbor
	Tuning    Tuning
}

// Forces breaks a steering result down by rule for debug drawing.
type Forces struct {
	Separation cp.Vector
	Cohesion   cp.Vector
	Alignment  cp.Vector
	Flow       cp.Vector
	Total      cp.Vector
}

// Intent is what one agent wants to do this tick.
type Intent struct {
	Forces
	Impulse cp.Vector
	Yaw     float64
	Turn    bool
}

// Steer blends separation, cohesion, alignment and the flow direction.
// The total is clamped to Tuning.MaxSteering.
func Steer(in SteeringInput) Forces {
	var f Forces
	f.Flow = finite(in.Flow)

	if len(in.Neighbors) > 0 {
		var sep, centroid, heading cp.Vector
		for _, n := range in.Neighbors {
			offset := in.Position.Sub(n.Position)
			dist := offset.Length()
			centroid = centroid.Add(n.Position)
			heading = heading.Add(n.Heading)
			if dist < MinSeparationDistance {
				continue
			}
			sep = sep.Add(offset.Mult(1 / (dist * dist)))
		}
		count := float64(len(in.Neighbors))

		// Coincident neighbours add no push but still count toward every average.
		f.Separation = sep.Mult(in.Tuning.SeparationWeight / count)

		toCenter := centroid.Mult(1 / count).Sub(in.Position)
		if toCenter.Length() > MinSeparationDistance {
			f.Cohesion = toCenter.Normalize().Mult(in.Tuning.CohesionWeight)
		}

		avgHeading := heading.Mult(1 / count)
		if avgHeading.Length() > SteeringEpsilon {
			f.Alignment = avgHeading.Normalize().Mult(in.Tuning.AlignmentWeight)
		}
	}

	total := f.Separation.Add(f.Cohesion).Add(f.Alignment).Add(f.Flow)
	f.Total = finite(total).Clamp(in.Tuning.MaxSteering)
	return f
}

// ComputeIntent turns the steering blend into an impulse scaled by
// MaxSpeed and dt, and a yaw facing the steering direction.
func ComputeIntent(in SteeringInput, dt float64) Intent {
	intent := Intent{Forces: Steer(in)}
	if dt <= 0 || math.IsNaN(dt) {
		return intent
	}
	intent.Impulse = intent.Total.Mult(in.Tuning.MaxSpeed * dt)
	if intent.Total.Length() > SteeringEpsilon {
		intent.Turn = true
		intent.Yaw = math.Atan2(intent.Total.Y, intent.Total.X)
	}
	return intent
}

// Arrived reports whether position is within radius of goal.
func Arrived(position, goal cp.Vector, radius float64) bool {
	return position.Distance(goal) <= radius
}

func finite(v cp.Vector) cp.Vector {
	if !isFinite(v) {
		return cp.Vector{}
	}
	return v
}
