package system

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/locationgame/controller"
)

// KeyCode maps an ebiten key to the code strings the controller binds,
// e.g. KeyW -> "KeyW", KeyArrowUp -> "ArrowUp", KeyDigit1 -> "Digit1".
func KeyCode(k ebiten.Key) string {
	return controller.NormalizeCode(k.String())
}
