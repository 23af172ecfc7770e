package component

import "github.com/milk9111/locationgame/controller"

// Transform is the camera pose of the entity that carries it.
type Transform = controller.Transform

var TransformComponent = NewComponent[Transform]()
