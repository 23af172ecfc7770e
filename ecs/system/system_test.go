package system

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/locationgame/controller"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"github.com/milk9111/locationgame/ecs/entity"
	"github.com/milk9111/locationgame/feed"
	"github.com/milk9111/locationgame/prefabs"
)

type fakeLock struct{ locks, unlocks int }

func (f *fakeLock) Lock()   { f.locks++ }
func (f *fakeLock) Unlock() { f.unlocks++ }

type fakeReplier struct {
	begun []string
	err   error
}

func (f *fakeReplier) Begin(script string) error {
	f.begun = append(f.begun, script)
	return nil
}

func (f *fakeReplier) Reply(script, input string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return script + ": " + input, nil
}

type fakePublisher struct{ poses []feed.Pose }

func (f *fakePublisher) Publish(p feed.Pose) bool {
	f.poses = append(f.poses, p)
	return true
}

type scene struct {
	w      *ecs.World
	player ecs.Entity
	ctrl   *controller.Controller
	lock   *fakeLock
}

func newScene(t *testing.T, spec prefabs.SceneSpec) *scene {
	t.Helper()
	cfg := controller.DefaultConfig()
	cfg.Stepping = controller.StepFixed
	cfg.Speed = 1

	lock := &fakeLock{}
	ctrl := controller.New(cfg, controller.WithPointerLock(lock))
	w := ecs.NewWorld()
	player, err := entity.BuildScene(w, spec, ctrl)
	if err != nil {
		t.Fatalf("BuildScene: %v", err)
	}
	return &scene{w: w, player: player, ctrl: ctrl, lock: lock}
}

func (s *scene) input(t *testing.T) *component.Input {
	t.Helper()
	in, ok := ecs.Get(s.w, s.player, component.InputComponent.Kind())
	if !ok {
		t.Fatalf("player has no input")
	}
	return in
}

func (s *scene) transform(t *testing.T) *component.Transform {
	t.Helper()
	tr, ok := ecs.Get(s.w, s.player, component.TransformComponent.Kind())
	if !ok {
		t.Fatalf("player has no transform")
	}
	return tr
}

// frame runs one tick with the given input. Captured is kept across frames.
func (s *scene) frame(t *testing.T, sys ecs.System, set func(in *component.Input)) {
	t.Helper()
	in := s.input(t)
	in.Reset()
	if set != nil {
		set(in)
	}
	sys.Update(s.w)
}

func openSpec() prefabs.SceneSpec {
	return prefabs.SceneSpec{
		Name:  "test",
		Spawn: prefabs.SpawnSpec{Position: prefabs.Vec3Spec{Y: 1.7}},
	}
}

func TestControllerSystemLockWalkAndMenu(t *testing.T) {
	s := newScene(t, openSpec())
	sys := ecs.NewScheduler(NewControllerSystem())

	s.frame(t, sys, func(in *component.Input) { in.Click = true })
	if s.lock.locks != 1 || s.ctrl.State() != controller.Unlocked {
		t.Fatalf("click must request lock once, got locks=%d state=%s", s.lock.locks, s.ctrl.State())
	}

	s.frame(t, sys, func(in *component.Input) { in.Captured = true })
	if s.ctrl.State() != controller.Locked {
		t.Fatalf("expected locked, got %s", s.ctrl.State())
	}

	s.frame(t, sys, func(in *component.Input) { in.Pressed = append(in.Pressed, "KeyW") })
	if got := s.transform(t).Position; !got.ApproxEqual(mgl64.Vec3{0, 1.7, -1}) {
		t.Fatalf("expected one step forward, got %v", got)
	}

	p, _ := ecs.Get(s.w, s.player, component.PlayerComponent.Kind())
	if !p.Started {
		t.Fatalf("expected scene to be marked started")
	}

	s.frame(t, sys, func(in *component.Input) { in.Escape = true })
	if s.ctrl.State() != controller.MenuOpen || s.ctrl.Input().Any() {
		t.Fatalf("escape must open the menu and clear input, got %s %+v", s.ctrl.State(), s.ctrl.Input())
	}
	before := *s.transform(t)

	s.frame(t, sys, func(in *component.Input) {
		in.Captured = false
		in.Click = true
		in.Pressed = append(in.Pressed, "KeyW")
	})
	if s.ctrl.State() != controller.MenuOpen {
		t.Fatalf("lock loss must not leave the menu, got %s", s.ctrl.State())
	}
	if *s.transform(t) != before {
		t.Fatalf("transform moved while the menu was open")
	}
	if s.lock.locks != 1 {
		t.Fatalf("click in the menu must not request lock")
	}
}

func groceryLike() prefabs.SceneSpec {
	spec := openSpec()
	spec.Pickups = []prefabs.PickupSpec{{
		Name:   "Green",
		Center: prefabs.Vec3Spec{Y: 1.7, Z: -1.5},
		Size:   prefabs.Vec3Spec{X: 1, Y: 1, Z: 1},
	}}
	return spec
}

func TestInteractionAutoPickup(t *testing.T) {
	spec := groceryLike()
	spec.AutoPickup = true
	s := newScene(t, spec)
	sys := NewInteractionSystem(nil)

	s.frame(t, sys, nil)

	inv, _ := ecs.Get(s.w, s.player, component.InventoryComponent.Kind())
	if len(inv.Items) != 1 || inv.Items[0] != "Green" {
		t.Fatalf("expected Green in inventory, got %v", inv.Items)
	}
	events := s.w.Events().Drain()
	if len(events) != 1 || events[0].Type != EventPickup {
		t.Fatalf("expected one pickup event, got %v", events)
	}
	ev := events[0].Data.(PickupEvent)
	if !ecs.Has(s.w, ev.Entity, component.HiddenComponent.Kind()) {
		t.Fatalf("picked entity must be hidden")
	}

	s.frame(t, sys, nil)
	if len(inv.Items) != 1 {
		t.Fatalf("hidden pickup collected twice: %v", inv.Items)
	}
	if len(Interactables(s.w)) != 0 {
		t.Fatalf("hidden pickup must leave the registry")
	}
}

func TestInteractionKeyPickup(t *testing.T) {
	s := newScene(t, groceryLike())
	sys := NewInteractionSystem(nil)

	s.frame(t, sys, nil)
	p, _ := ecs.Get(s.w, s.player, component.PlayerComponent.Kind())
	inv, _ := ecs.Get(s.w, s.player, component.InventoryComponent.Kind())
	if len(inv.Items) != 0 {
		t.Fatalf("nothing must be collected without the key")
	}
	if p.Focus != "Green" || p.FocusKind != controller.KindPickup {
		t.Fatalf("expected focus on Green, got %q/%s", p.Focus, p.FocusKind)
	}

	s.frame(t, sys, func(in *component.Input) { in.Interact = true })
	if len(inv.Items) != 1 {
		t.Fatalf("expected pickup on key press, got %v", inv.Items)
	}
	if p.Focus != "" {
		t.Fatalf("focus must clear after pickup, got %q", p.Focus)
	}

	s.ctrl.OnEscape()
	s.frame(t, sys, func(in *component.Input) { in.Interact = true })
	if p.Focus != "" {
		t.Fatalf("no focus while suspended")
	}
}

func npcSpec(dist float64, enabled bool) prefabs.SceneSpec {
	spec := openSpec()
	spec.NPCs = []prefabs.NPCSpec{{
		Name:     "Taxi driver",
		Center:   prefabs.Vec3Spec{Y: 0.9, Z: -dist - 0.3},
		Size:     prefabs.Vec3Spec{X: 0.6, Y: 1.8, Z: 0.6},
		Greeting: "Hello! Where would you like to go?",
		Script:   "taxi_driver",
		Enabled:  &enabled,
	}}
	return spec
}

func TestDialogueLifecycle(t *testing.T) {
	s := newScene(t, npcSpec(2, true))
	replies := &fakeReplier{}
	sys := ecs.NewScheduler(NewInteractionSystem(nil), NewDialogueSystem(replies, nil))

	s.ctrl.OnPointerLockChange(true)
	spawn := *s.transform(t)

	s.frame(t, sys, func(in *component.Input) { in.Talk = true })
	if s.ctrl.State() != controller.DialogueOpen {
		t.Fatalf("expected dialogue open, got %s", s.ctrl.State())
	}
	if s.lock.unlocks != 1 {
		t.Fatalf("opening dialogue must release the pointer")
	}
	conv, ok := ecs.Get(s.w, s.player, component.ConversationComponent.Kind())
	if !ok || !conv.Opened {
		t.Fatalf("expected an opened conversation")
	}
	if len(conv.Lines) != 1 || conv.Lines[0].Text != "Hello! Where would you like to go?" {
		t.Fatalf("expected greeting, got %v", conv.Lines)
	}
	if len(replies.begun) != 1 || replies.begun[0] != "taxi_driver" {
		t.Fatalf("expected script to begin once, got %v", replies.begun)
	}

	s.transform(t).Position = mgl64.Vec3{9, 9, 9}
	conv.Submitted = append(conv.Submitted, "  downtown ", "   ")
	s.frame(t, sys, nil)
	if len(conv.Lines) != 3 {
		t.Fatalf("expected player line and reply, got %v", conv.Lines)
	}
	if conv.Lines[1] != (component.Line{Speaker: "You", Text: "downtown"}) ||
		conv.Lines[2] != (component.Line{Speaker: "Taxi driver", Text: "taxi_driver: downtown"}) {
		t.Fatalf("unexpected exchange %v", conv.Lines[1:])
	}

	s.frame(t, sys, func(in *component.Input) { in.Close = true })
	if s.ctrl.State() != controller.Unlocked {
		t.Fatalf("expected unlocked after closing, got %s", s.ctrl.State())
	}
	if s.lock.locks != 1 {
		t.Fatalf("closing dialogue must request the pointer again")
	}
	if ecs.Has(s.w, s.player, component.ConversationComponent.Kind()) {
		t.Fatalf("conversation must be removed")
	}
	if got := *s.transform(t); got != spawn {
		t.Fatalf("expected pose restored to %+v, got %+v", spawn, got)
	}

	var types []string
	for _, ev := range s.w.Events().Drain() {
		types = append(types, ev.Type)
	}
	if len(types) != 2 || types[0] != EventDialogueOpen || types[1] != EventDialogueClose {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestDialogueRequiresReachAndEnabled(t *testing.T) {
	cases := []struct {
		name    string
		dist    float64
		enabled bool
		want    controller.SessionState
	}{
		{"in_reach", 2.5, true, controller.DialogueOpen},
		{"too_far", 3.5, true, controller.Unlocked},
		{"disabled", 1, false, controller.Unlocked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newScene(t, npcSpec(tc.dist, tc.enabled))
			sys := ecs.NewScheduler(NewInteractionSystem(nil), NewDialogueSystem(&fakeReplier{}, nil))
			s.frame(t, sys, func(in *component.Input) { in.Talk = true })
			if s.ctrl.State() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, s.ctrl.State())
			}
		})
	}
}

func TestDialogueOnlyRunsForTaggedPlayer(t *testing.T) {
	s := newScene(t, npcSpec(2, true))
	sys := ecs.NewScheduler(NewDialogueSystem(&fakeReplier{}, nil))

	stranger := ecs.CreateEntity(s.w)
	conv := &component.Conversation{Speaker: "Stranger"}
	for _, err := range []error{
		ecs.Add(s.w, stranger, component.PlayerComponent.Kind(), &component.Player{Controller: s.ctrl}),
		ecs.Add(s.w, stranger, component.TransformComponent.Kind(), &component.Transform{}),
		ecs.Add(s.w, stranger, component.ConversationComponent.Kind(), conv),
	} {
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	sys.Update(s.w)
	if conv.Opened || s.ctrl.State() != controller.Unlocked {
		t.Fatalf("untagged conversation must not run, state %s", s.ctrl.State())
	}
	if n := s.w.Events().Len(); n != 0 {
		t.Fatalf("expected no events, got %d", n)
	}

	mine := &component.Conversation{Speaker: "Taxi driver"}
	if err := ecs.Add(s.w, s.player, component.ConversationComponent.Kind(), mine); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sys.Update(s.w)
	if !mine.Opened || s.ctrl.State() != controller.DialogueOpen {
		t.Fatalf("expected the player's conversation to open, state %s", s.ctrl.State())
	}
	if conv.Opened {
		t.Fatalf("stranger's conversation opened alongside the player's")
	}
}

func TestDialogueReplyFailureFallsBack(t *testing.T) {
	s := newScene(t, npcSpec(1, true))
	sys := ecs.NewScheduler(NewInteractionSystem(nil), NewDialogueSystem(&fakeReplier{err: errors.New("boom")}, nil))

	s.frame(t, sys, func(in *component.Input) { in.Talk = true })
	conv, _ := ecs.Get(s.w, s.player, component.ConversationComponent.Kind())
	conv.Submitted = append(conv.Submitted, "hello")
	conv.Closing = true
	s.frame(t, sys, nil)

	if got := conv.Lines[len(conv.Lines)-1].Text; got != fallbackReply {
		t.Fatalf("expected fallback reply, got %q", got)
	}
	if s.ctrl.State() != controller.Unlocked {
		t.Fatalf("closing flag must end the conversation, got %s", s.ctrl.State())
	}
}

func TestFeedSystemPublishesPose(t *testing.T) {
	spec := groceryLike()
	spec.AutoPickup = true
	s := newScene(t, spec)
	pub := &fakePublisher{}
	sys := ecs.NewScheduler(NewInteractionSystem(nil), NewFeedSystem(pub))

	s.frame(t, sys, nil)
	if len(pub.poses) != 1 {
		t.Fatalf("expected one pose, got %d", len(pub.poses))
	}
	got := pub.poses[0]
	if got.Scene != "test" || got.Y != 1.7 || got.State != "unlocked" {
		t.Fatalf("unexpected pose %+v", got)
	}
	if len(got.Inventory) != 1 || got.Inventory[0] != "Green" {
		t.Fatalf("unexpected inventory %v", got.Inventory)
	}

	NewFeedSystem(nil).Update(s.w)
	if _, ok := CurrentPose(ecs.NewWorld()); ok {
		t.Fatalf("empty world has no pose")
	}
}
