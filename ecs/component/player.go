package component

import "github.com/milk9111/locationgame/controller"

type Player struct {
	Controller *controller.Controller
	// Saved holds the pose taken when a conversation starts.
	Saved *controller.Transform
	// Captured mirrors the last pointer capture reported to the controller.
	Captured bool
	// Started flips on the first pointer lock of the scene.
	Started bool
	// Focus names what the crosshair rests on, if it is in reach.
	Focus     string
	FocusKind controller.Kind
}

var PlayerComponent = NewComponent[Player]()

type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()
