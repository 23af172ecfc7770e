package component

import (
	"image/color"

	"github.com/milk9111/locationgame/collision"
)

// Collider is a footprint drawn on the plan. Solid ones are also registered
// in the collision world.
type Collider struct {
	Box   collision.Box
	Solid bool
	Color color.RGBA
}

var ColliderComponent = NewComponent[Collider]()
