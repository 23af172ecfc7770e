package controller

// SessionState is the pointer-lock session of a scene. Exactly one holds at a time.
type SessionState int

const (
	Unlocked SessionState = iota
	Locked
	MenuOpen
	DialogueOpen
)

func (s SessionState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	case MenuOpen:
		return "menu"
	case DialogueOpen:
		return "dialogue"
	default:
		return "unknown"
	}
}

// Suspended reports whether movement, look and key input are frozen.
func (s SessionState) Suspended() bool {
	return s == MenuOpen || s == DialogueOpen
}
