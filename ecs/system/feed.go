package system

import (
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"github.com/milk9111/locationgame/feed"
)

// Publisher receives pose samples. The feed hub rate-limits them.
type Publisher interface {
	Publish(p feed.Pose) bool
}

type FeedSystem struct {
	pub Publisher
}

func NewFeedSystem(pub Publisher) *FeedSystem {
	return &FeedSystem{pub: pub}
}

func (s *FeedSystem) Update(w *ecs.World) {
	if w == nil || s.pub == nil {
		return
	}
	pose, ok := CurrentPose(w)
	if !ok {
		return
	}
	s.pub.Publish(pose)
}

// CurrentPose samples the player's camera.
func CurrentPose(w *ecs.World) (feed.Pose, bool) {
	player, ok := ecs.First(w, component.PlayerTagComponent.Kind())
	if !ok {
		return feed.Pose{}, false
	}
	t, ok := ecs.Get(w, player, component.TransformComponent.Kind())
	if !ok {
		return feed.Pose{}, false
	}

	pose := feed.Pose{
		X:     t.Position.X(),
		Y:     t.Position.Y(),
		Z:     t.Position.Z(),
		Yaw:   t.Yaw,
		Pitch: t.Pitch,
	}
	if p, ok := ecs.Get(w, player, component.PlayerComponent.Kind()); ok && p.Controller != nil {
		pose.State = p.Controller.State().String()
	}
	if inv, ok := ecs.Get(w, player, component.InventoryComponent.Kind()); ok {
		pose.Inventory = append([]string(nil), inv.Items...)
	}
	if sceneEnt, ok := ecs.First(w, component.SceneInfoComponent.Kind()); ok {
		if info, ok := ecs.Get(w, sceneEnt, component.SceneInfoComponent.Kind()); ok {
			pose.Scene = info.Name
		}
	}
	return pose, true
}
