package system

import (
	"github.com/milk9111/locationgame/controller"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"go.uber.org/zap"
)

const (
	EventPickup        = "pickup"
	EventDialogueOpen  = "dialogue_open"
	EventDialogueClose = "dialogue_close"
)

// PickupEvent is the Data of an EventPickup.
type PickupEvent struct {
	Entity ecs.Entity
	Name   string
}

// InteractionSystem casts the crosshair ray for the player: it collects
// products and starts conversations.
type InteractionSystem struct {
	log *zap.Logger
}

func NewInteractionSystem(log *zap.Logger) *InteractionSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &InteractionSystem{log: log}
}

// Interactables builds the registry passed to the controller's ray cast.
// Hidden entities are left out.
func Interactables(w *ecs.World) []controller.Interactable {
	var out []controller.Interactable

	ecs.ForEach(w, component.PickupComponent.Kind(), func(e ecs.Entity, p *component.Pickup) {
		if ecs.Has(w, e, component.HiddenComponent.Kind()) {
			return
		}
		out = append(out, controller.Interactable{
			Kind:            controller.KindPickup,
			Bounds:          p.Bounds,
			TriggerDistance: p.Distance,
			Enabled:         true,
			Handle:          e,
		})
	})

	ecs.ForEach(w, component.DialogueComponent.Kind(), func(e ecs.Entity, d *component.Dialogue) {
		if ecs.Has(w, e, component.HiddenComponent.Kind()) {
			return
		}
		out = append(out, controller.Interactable{
			Kind:            controller.KindDialogue,
			Bounds:          d.Bounds,
			TriggerDistance: d.Distance,
			Enabled:         d.Enabled,
			Handle:          e,
		})
	})

	return out
}

func (s *InteractionSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	player, ok := ecs.First(w, component.PlayerTagComponent.Kind())
	if !ok {
		return
	}
	p, ok := ecs.Get(w, player, component.PlayerComponent.Kind())
	if !ok || p.Controller == nil {
		return
	}
	t, ok := ecs.Get(w, player, component.TransformComponent.Kind())
	if !ok {
		return
	}

	c := p.Controller
	p.Focus, p.FocusKind = "", 0
	if c.State().Suspended() {
		return
	}

	autoPickup := false
	if sceneEnt, ok := ecs.First(w, component.SceneInfoComponent.Kind()); ok {
		if info, ok := ecs.Get(w, sceneEnt, component.SceneInfoComponent.Kind()); ok {
			autoPickup = info.AutoPickup
		}
	}
	var in component.Input
	if got, ok := ecs.Get(w, player, component.InputComponent.Kind()); ok {
		in = *got
	}

	candidates := Interactables(w)
	origin := t.Position
	dir := c.Forward()

	if hit, ok := c.CheckInteraction(controller.KindPickup, origin, dir, candidates); ok {
		e := hit.Target.Handle.(ecs.Entity)
		if pickup, ok := ecs.Get(w, e, component.PickupComponent.Kind()); ok {
			p.Focus, p.FocusKind = pickup.Name, controller.KindPickup
			if in.Interact || autoPickup {
				s.collect(w, player, e, pickup)
				p.Focus, p.FocusKind = "", 0
			}
		}
	}

	if hit, ok := c.CheckInteraction(controller.KindDialogue, origin, dir, candidates); ok {
		e := hit.Target.Handle.(ecs.Entity)
		if d, ok := ecs.Get(w, e, component.DialogueComponent.Kind()); ok {
			if p.Focus == "" {
				p.Focus, p.FocusKind = d.Name, controller.KindDialogue
			}
			if in.Talk && !ecs.Has(w, player, component.ConversationComponent.Kind()) {
				s.talk(w, player, d)
			}
		}
	}
}

func (s *InteractionSystem) collect(w *ecs.World, player, e ecs.Entity, pickup *component.Pickup) {
	if err := ecs.Add(w, e, component.HiddenComponent.Kind(), &component.Hidden{}); err != nil {
		s.log.Warn("hide pickup", zap.Stringer("entity", e), zap.Error(err))
		return
	}
	if inv, ok := ecs.Get(w, player, component.InventoryComponent.Kind()); ok {
		inv.Items = append(inv.Items, pickup.Name)
	}
	w.Events().Push(ecs.Event{Type: EventPickup, Data: PickupEvent{Entity: e, Name: pickup.Name}})
	s.log.Debug("picked up", zap.String("item", pickup.Name), zap.Stringer("entity", e))
}

func (s *InteractionSystem) talk(w *ecs.World, player ecs.Entity, d *component.Dialogue) {
	conv := &component.Conversation{Speaker: d.Name, Script: d.Script}
	if d.Greeting != "" {
		conv.Lines = append(conv.Lines, component.Line{Speaker: d.Name, Text: d.Greeting})
	}
	if err := ecs.Add(w, player, component.ConversationComponent.Kind(), conv); err != nil {
		s.log.Warn("start conversation", zap.String("speaker", d.Name), zap.Error(err))
		return
	}
	s.log.Debug("conversation requested", zap.String("speaker", d.Name))
}
