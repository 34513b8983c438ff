package component

// Transform is the world-space pose of an entity. Rotation is the yaw in
// radians, measured from +X toward +Y.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

var TransformComponent = NewComponent[Transform]()
