package component

import (
	"image/color"

	"github.com/milk9111/locationgame/controller"
)

// Dialogue makes an entity someone the player can talk to.
type Dialogue struct {
	Name     string
	Greeting string
	Script   string
	Bounds   controller.AABB
	Distance float64
	Enabled  bool
	Color    color.RGBA
}

var DialogueComponent = NewComponent[Dialogue]()

type Line struct {
	Speaker string
	Text    string
}

// Conversation is the open exchange with one speaker.
type Conversation struct {
	Speaker string
	Script  string
	Lines   []Line
	// Submitted queues player replies until the dialogue system answers them.
	Submitted []string
	// Opened is set once the controller has entered the dialogue state.
	Opened  bool
	Closing bool
}

var ConversationComponent = NewComponent[Conversation]()
