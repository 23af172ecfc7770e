package entity

import (
	"fmt"
	"image/color"

	"github.com/milk9111/locationgame/controller"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"github.com/milk9111/locationgame/prefabs"
	"golang.org/x/image/colornames"
)

var (
	defaultSolidColor = color.RGBA{R: 0x8b, G: 0x45, B: 0x13, A: 0xff}
	defaultPropColor  = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// BuildScene populates w from spec and returns the player entity. ctrl is
// attached to the player and synced to the spawn pose.
func BuildScene(w *ecs.World, spec prefabs.SceneSpec, ctrl *controller.Controller) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("entity: nil world")
	}
	if ctrl == nil {
		return 0, fmt.Errorf("entity: nil controller")
	}

	if err := buildSceneInfo(w, spec); err != nil {
		return 0, err
	}
	player, err := BuildPlayer(w, spec.SpawnTransform(), ctrl)
	if err != nil {
		return 0, err
	}

	for _, b := range spec.Collision.Boxes {
		if err := buildCollider(w, b, spec.Collision.Enabled, defaultSolidColor); err != nil {
			return 0, err
		}
	}
	for _, b := range spec.Props {
		if err := buildCollider(w, b, false, defaultPropColor); err != nil {
			return 0, err
		}
	}
	for _, p := range append(spec.Products(), spec.Pickups...) {
		if err := BuildPickup(w, p); err != nil {
			return 0, err
		}
	}
	for _, n := range spec.NPCs {
		if err := BuildNPC(w, n); err != nil {
			return 0, err
		}
	}
	return player, nil
}

func buildSceneInfo(w *ecs.World, spec prefabs.SceneSpec) error {
	e := ecs.CreateEntity(w)
	title := spec.Title
	if title == "" {
		title = spec.Name
	}
	return ecs.Add(w, e, component.SceneInfoComponent.Kind(), &component.SceneInfo{
		Name:       spec.Name,
		Title:      title,
		AutoPickup: spec.AutoPickup,
		Collision:  spec.Collision.Enabled,
		Shopping:   append([]string(nil), spec.Shopping...),
	})
}

func BuildPlayer(w *ecs.World, spawn controller.Transform, ctrl *controller.Controller) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)

	t := spawn
	ctrl.Sync(t)
	t.Yaw, t.Pitch = ctrl.Look()

	if err := ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{}); err != nil {
		return 0, fmt.Errorf("entity: add player tag: %w", err)
	}
	if err := ecs.Add(w, e, component.PlayerComponent.Kind(), &component.Player{Controller: ctrl}); err != nil {
		return 0, fmt.Errorf("entity: add player: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &t); err != nil {
		return 0, fmt.Errorf("entity: add transform: %w", err)
	}
	if err := ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{}); err != nil {
		return 0, fmt.Errorf("entity: add input: %w", err)
	}
	if err := ecs.Add(w, e, component.InventoryComponent.Kind(), &component.Inventory{}); err != nil {
		return 0, fmt.Errorf("entity: add inventory: %w", err)
	}
	return e, nil
}

func buildCollider(w *ecs.World, b prefabs.BoxSpec, solid bool, def color.RGBA) error {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.ColliderComponent.Kind(), &component.Collider{
		Box:   b.Box(),
		Solid: solid,
		Color: b.Color.Or(def),
	}); err != nil {
		return fmt.Errorf("entity: add collider %s: %w", b.Name, err)
	}
	return nil
}

func BuildPickup(w *ecs.World, p prefabs.PickupSpec) error {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.PickupComponent.Kind(), &component.Pickup{
		Name:     p.Name,
		Bounds:   controller.BoxAt(p.Center.Vec3(), p.Size.Vec3()),
		Distance: p.Distance,
		Color:    p.Color.Or(colornames.Orange),
	}); err != nil {
		return fmt.Errorf("entity: add pickup %s: %w", p.Name, err)
	}
	return nil
}

func BuildNPC(w *ecs.World, n prefabs.NPCSpec) error {
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.DialogueComponent.Kind(), &component.Dialogue{
		Name:     n.Name,
		Greeting: n.Greeting,
		Script:   n.Script,
		Bounds:   controller.BoxAt(n.Center.Vec3(), n.Size.Vec3()),
		Distance: n.Distance,
		Enabled:  n.IsEnabled(),
		Color:    n.Color.Or(colornames.Steelblue),
	}); err != nil {
		return fmt.Errorf("entity: add npc %s: %w", n.Name, err)
	}
	return nil
}
