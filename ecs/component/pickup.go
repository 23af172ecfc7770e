package component

import (
	"image/color"

	"github.com/milk9111/locationgame/controller"
)

// Pickup is a product that can be taken off a shelf.
type Pickup struct {
	Name     string
	Bounds   controller.AABB
	Distance float64
	Color    color.RGBA
}

var PickupComponent = NewComponent[Pickup]()

// Hidden marks entities that are no longer drawn or interactable.
type Hidden struct{}

var HiddenComponent = NewComponent[Hidden]()

type Inventory struct {
	Items []string
}

var InventoryComponent = NewComponent[Inventory]()
