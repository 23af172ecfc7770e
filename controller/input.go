package controller

import (
	"strings"
)

// Action is a logical movement direction a key can be bound to.
type Action int

const (
	ActionNone Action = iota
	ActionForward
	ActionBackward
	ActionLeft
	ActionRight
)

func (a Action) String() string {
	switch a {
	case ActionForward:
		return "forward"
	case ActionBackward:
		return "backward"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	default:
		return "none"
	}
}

// ParseAction resolves the names used in scene key bindings.
func ParseAction(name string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "forward":
		return ActionForward, true
	case "backward":
		return ActionBackward, true
	case "left":
		return ActionLeft, true
	case "right":
		return ActionRight, true
	}
	return ActionNone, false
}

// InputState holds which movement actions are currently held.
type InputState struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
}

func (s *InputState) set(a Action, held bool) {
	switch a {
	case ActionForward:
		s.Forward = held
	case ActionBackward:
		s.Backward = held
	case ActionLeft:
		s.Left = held
	case ActionRight:
		s.Right = held
	}
}

// Held reports whether the action is held.
func (s InputState) Held(a Action) bool {
	switch a {
	case ActionForward:
		return s.Forward
	case ActionBackward:
		return s.Backward
	case ActionLeft:
		return s.Left
	case ActionRight:
		return s.Right
	}
	return false
}

// Any reports whether at least one action is held.
func (s InputState) Any() bool {
	return s.Forward || s.Backward || s.Left || s.Right
}

// Clear releases every action.
func (s *InputState) Clear() {
	*s = InputState{}
}

// KeyMap binds key codes ("KeyW", "ArrowUp") to actions.
type KeyMap map[string]Action

func DefaultKeyMap() KeyMap {
	return KeyMap{
		"KeyW":       ActionForward,
		"ArrowUp":    ActionForward,
		"KeyS":       ActionBackward,
		"ArrowDown":  ActionBackward,
		"KeyA":       ActionLeft,
		"ArrowLeft":  ActionLeft,
		"KeyD":       ActionRight,
		"ArrowRight": ActionRight,
	}
}

// Lookup returns the action bound to code, if any.
func (m KeyMap) Lookup(code string) (Action, bool) {
	if len(m) == 0 {
		return ActionNone, false
	}
	a, ok := m[NormalizeCode(code)]
	if !ok || a == ActionNone {
		return ActionNone, false
	}
	return a, true
}

// Bind maps code to a. Binding ActionNone removes the code.
func (m KeyMap) Bind(code string, a Action) {
	if m == nil {
		return
	}
	code = NormalizeCode(code)
	if code == "" {
		return
	}
	if a == ActionNone {
		delete(m, code)
		return
	}
	m[code] = a
}

// NormalizeCode turns key names into the code form used by KeyMap.
// Single letters become "KeyX" and single digits "DigitN"; everything
// else is returned trimmed.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) != 1 {
		return code
	}
	c := code[0]
	switch {
	case c >= 'a' && c <= 'z':
		return "Key" + string(c-'a'+'A')
	case c >= 'A' && c <= 'Z':
		return "Key" + code
	case c >= '0' && c <= '9':
		return "Digit" + code
	}
	return code
}
