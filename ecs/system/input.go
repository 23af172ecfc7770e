package system

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
)

// InputSystem polls ebiten once per tick and fills every Input component.
type InputSystem struct {
	// TextFocused reports whether a text field owns the keyboard. Key
	// presses are withheld from the scene while it does.
	TextFocused func() bool

	lastX, lastY int
	primed       bool
	pressed      []ebiten.Key
	released     []ebiten.Key
}

func NewInputSystem(textFocused func() bool) *InputSystem {
	return &InputSystem{TextFocused: textFocused}
}

func (s *InputSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	captured := ebiten.CursorMode() == ebiten.CursorModeCaptured && ebiten.IsFocused()

	mx, my := ebiten.CursorPosition()
	dx, dy := 0, 0
	if s.primed && captured {
		dx, dy = mx-s.lastX, my-s.lastY
	}
	s.lastX, s.lastY, s.primed = mx, my, true

	typing := s.TextFocused != nil && s.TextFocused()
	s.pressed = inpututil.AppendJustPressedKeys(s.pressed[:0])
	s.released = inpututil.AppendJustReleasedKeys(s.released[:0])
	click := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	ecs.ForEach(w, component.InputComponent.Kind(), func(e ecs.Entity, in *component.Input) {
		in.Reset()
		in.Captured = captured
		in.DX = float64(dx)
		in.DY = float64(dy)
		in.Click = click && !typing

		if !typing {
			for _, k := range s.pressed {
				in.Pressed = append(in.Pressed, KeyCode(k))
				switch k {
				case ebiten.KeyEscape:
					in.Escape = true
				case ebiten.KeyE:
					in.Interact = true
				case ebiten.KeyQ:
					in.Talk = true
				case ebiten.KeyX:
					in.Close = true
				}
			}
		}
		for _, k := range s.released {
			in.Released = append(in.Released, KeyCode(k))
		}
	})
}
