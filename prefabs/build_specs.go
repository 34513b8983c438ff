package prefabs

import "gopkg.in/yaml.v3"

// EntityBuildSpec is a prefab as a bag of named component specs.
type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
}

type PhysicsBodyComponentSpec struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Radius   float64 `yaml:"radius"`
	Mass     float64 `yaml:"mass"`
	Friction float64 `yaml:"friction"`
	Static   bool    `yaml:"static"`
}

// AgentComponentSpec holds the boid tuning of a unit. Omitted speeds and
// radii fall back to movement defaults; weights are taken as written.
type AgentComponentSpec struct {
	Kind             string   `yaml:"kind"`
	MaxSpeed         float64  `yaml:"max_speed"`
	NeighborRadius   float64  `yaml:"neighbor_radius"`
	SeparationWeight *float64 `yaml:"separation_weight"`
	CohesionWeight   *float64 `yaml:"cohesion_weight"`
	AlignmentWeight  *float64 `yaml:"alignment_weight"`
	MaxSteering      float64  `yaml:"max_steering"`
	ArrivalRadius    float64  `yaml:"arrival_radius"`
}

type CameraComponentSpec struct {
	Zoom float64 `yaml:"zoom"`
}
