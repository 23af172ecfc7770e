package system

import (
	"github.com/milk9111/locationgame/controller"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
)

// ControllerSystem feeds the frame's input to each player's controller and
// ticks it against the player's transform.
type ControllerSystem struct{}

func NewControllerSystem() *ControllerSystem { return &ControllerSystem{} }

func (s *ControllerSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach3(w, component.PlayerComponent.Kind(), component.InputComponent.Kind(), component.TransformComponent.Kind(),
		func(e ecs.Entity, p *component.Player, in *component.Input, t *component.Transform) {
			c := p.Controller
			if c == nil {
				return
			}

			if in.Captured != p.Captured {
				p.Captured = in.Captured
				c.OnPointerLockChange(in.Captured)
			}
			if in.Escape {
				c.OnEscape()
			}
			if in.Click && c.State() == controller.Unlocked {
				c.RequestLock()
			}

			for _, code := range in.Pressed {
				c.OnKeyDown(code)
			}
			for _, code := range in.Released {
				c.OnKeyUp(code)
			}
			if in.DX != 0 || in.DY != 0 {
				c.OnMouseMove(in.DX, in.DY)
			}

			c.Tick(t)

			if c.State() == controller.Locked {
				p.Started = true
			}
		})
}
