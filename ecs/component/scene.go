package component

// SceneInfo is the singleton describing the loaded scene.
type SceneInfo struct {
	Name       string
	Title      string
	AutoPickup bool
	Collision  bool
	// Shopping is the list the player is asked to collect, if any.
	Shopping []string
}

var SceneInfoComponent = NewComponent[SceneInfo]()
