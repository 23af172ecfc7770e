package system

import (
	"strings"

	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"go.uber.org/zap"
)

const (
	playerSpeaker = "You"
	fallbackReply = "Sorry, could you say that again?"
)

// Replier answers player lines for a named script.
type Replier interface {
	Begin(script string) error
	Reply(script, input string) (string, error)
}

// DialogueSystem runs the player's open conversation: it suspends the
// controller while the conversation lasts and restores the pose after.
type DialogueSystem struct {
	replies Replier
	log     *zap.Logger
}

func NewDialogueSystem(replies Replier, log *zap.Logger) *DialogueSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &DialogueSystem{replies: replies, log: log}
}

func (s *DialogueSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach4(w,
		component.PlayerTagComponent.Kind(),
		component.PlayerComponent.Kind(),
		component.TransformComponent.Kind(),
		component.ConversationComponent.Kind(),
		func(player ecs.Entity, _ *component.PlayerTag, p *component.Player, t *component.Transform, conv *component.Conversation) {
			if p.Controller == nil {
				return
			}
			if !conv.Opened {
				s.open(w, p, t, conv)
			}

			for _, said := range conv.Submitted {
				said = strings.TrimSpace(said)
				if said == "" {
					continue
				}
				conv.Lines = append(conv.Lines, component.Line{Speaker: playerSpeaker, Text: said})
				conv.Lines = append(conv.Lines, component.Line{Speaker: conv.Speaker, Text: s.reply(conv, said)})
			}
			conv.Submitted = conv.Submitted[:0]

			closing := conv.Closing
			if in, ok := ecs.Get(w, player, component.InputComponent.Kind()); ok && in.Close {
				closing = true
			}
			if closing {
				s.close(w, player, p, t, conv)
			}
		})
}

func (s *DialogueSystem) open(w *ecs.World, p *component.Player, t *component.Transform, conv *component.Conversation) {
	saved := *t
	p.Saved = &saved
	p.Controller.SetDialogueOpen(true)
	conv.Opened = true

	if conv.Script != "" && s.replies != nil {
		if err := s.replies.Begin(conv.Script); err != nil {
			s.log.Warn("dialogue script unavailable", zap.String("script", conv.Script), zap.Error(err))
		}
	}
	w.Events().Push(ecs.Event{Type: EventDialogueOpen, Data: conv.Speaker})
	s.log.Info("dialogue opened", zap.String("speaker", conv.Speaker))
}

func (s *DialogueSystem) reply(conv *component.Conversation, said string) string {
	if conv.Script == "" || s.replies == nil {
		return fallbackReply
	}
	out, err := s.replies.Reply(conv.Script, said)
	if err != nil {
		s.log.Warn("dialogue reply failed", zap.String("script", conv.Script), zap.Error(err))
		return fallbackReply
	}
	return out
}

func (s *DialogueSystem) close(w *ecs.World, player ecs.Entity, p *component.Player, t *component.Transform, conv *component.Conversation) {
	if p.Saved != nil {
		*t = *p.Saved
		p.Saved = nil
	}
	p.Controller.Sync(*t)
	p.Controller.SetDialogueOpen(false)
	ecs.Remove(w, player, component.ConversationComponent.Kind())

	w.Events().Push(ecs.Event{Type: EventDialogueClose, Data: conv.Speaker})
	s.log.Info("dialogue closed", zap.String("speaker", conv.Speaker), zap.Int("lines", len(conv.Lines)))
}
