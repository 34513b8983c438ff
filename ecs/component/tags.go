package component

type ObstacleTag struct{}

var ObstacleTagComponent = NewComponent[ObstacleTag]()

type SelectedTag struct{}

var SelectedTagComponent = NewComponent[SelectedTag]()
