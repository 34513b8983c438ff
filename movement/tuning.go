package movement

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidTuning = errors.New("movement: invalid tuning")

const (
	DefaultMaxSpeed         = 90.0
	DefaultNeighborRadius   = 40.0
	DefaultSeparationWeight = 1.5
	DefaultCohesionWeight   = 0.4
	DefaultAlignmentWeight  = 0.3
	DefaultMaxSteering      = 1.0
	DefaultArrivalRadius    = 8.0
)

// Tuning holds the per-unit boid constants.
type Tuning struct {
	MaxSpeed         float64
	NeighborRadius   float64
	SeparationWeight float64
	CohesionWeight   float64
	AlignmentWeight  float64
	MaxSteering      float64
	ArrivalRadius    float64
}

func DefaultTuning() Tuning {
	return Tuning{
		MaxSpeed:         DefaultMaxSpeed,
		NeighborRadius:   DefaultNeighborRadius,
		SeparationWeight: DefaultSeparationWeight,
		CohesionWeight:   DefaultCohesionWeight,
		AlignmentWeight:  DefaultAlignmentWeight,
		MaxSteering:      DefaultMaxSteering,
		ArrivalRadius:    DefaultArrivalRadius,
	}
}

// WithDefaults fills zero fields from DefaultTuning. Weights are left alone
// so a prefab can switch a rule off with an explicit zero.
func (t Tuning) WithDefaults() Tuning {
	d := DefaultTuning()
	if t.MaxSpeed == 0 {
		t.MaxSpeed = d.MaxSpeed
	}
	if t.NeighborRadius == 0 {
		t.NeighborRadius = d.NeighborRadius
	}
	if t.MaxSteering == 0 {
		t.MaxSteering = d.MaxSteering
	}
	if t.ArrivalRadius == 0 {
		t.ArrivalRadius = d.ArrivalRadius
	}
	return t
}

func (t Tuning) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"max_speed", t.MaxSpeed},
		{"neighbor_radius", t.NeighborRadius},
		{"separation_weight", t.SeparationWeight},
		{"cohesion_weight", t.CohesionWeight},
		{"alignment_weight", t.AlignmentWeight},
		{"max_steering", t.MaxSteering},
		{"arrival_radius", t.ArrivalRadius},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidTuning, f.name, f.value)
		}
	}
	if t.MaxSpeed == 0 || t.MaxSteering == 0 {
		return fmt.Errorf("%w: max_speed and max_steering must be positive", ErrInvalidTuning)
	}
	return nil
}
