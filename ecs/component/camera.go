package component

// Camera is paired with a Transform holding the world point shown at the
// top-left of the screen.
type Camera struct {
	Zoom float64
}

var CameraComponent = NewComponent[Camera]()
