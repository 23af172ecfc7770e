package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/locationgame/config"
	"github.com/milk9111/locationgame/controller"
	"github.com/milk9111/locationgame/dialogue"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"github.com/milk9111/locationgame/ecs/entity"
	"github.com/milk9111/locationgame/ecs/system"
	"github.com/milk9111/locationgame/feed"
	"github.com/milk9111/locationgame/prefabs"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
)

const feedShutdownTimeout = 2 * time.Second

// cursorLock captures the OS cursor. ebiten applies the mode between frames,
// the input system reports the outcome to the controller.
type cursorLock struct{}

func (cursorLock) Lock()   { ebiten.SetCursorMode(ebiten.CursorModeCaptured) }
func (cursorLock) Unlock() { ebiten.SetCursorMode(ebiten.CursorModeVisible) }

// scene is one loaded prefab: its world, the player's controller and the
// systems that run it.
type scene struct {
	name    string
	title   string
	world   *ecs.World
	ctrl    *controller.Controller
	player  ecs.Entity
	systems *ecs.Scheduler
}

// Close releases the pointer. Call it before dropping the scene.
func (s *scene) Close() {
	if s == nil {
		return
	}
	cursorLock{}.Unlock()
	s.world.Events().Drain()
}

func (s *scene) transform() (*component.Transform, bool) {
	return ecs.Get(s.world, s.player, component.TransformComponent.Kind())
}

type Game struct {
	cfg config.Config
	log *zap.Logger

	scene   *scene
	replies *dialogue.Runtime
	hub     *feed.Hub
	watcher *prefabs.Watcher

	pause *pauseUI
	talk  *dialogueUI
	hud   *hud

	quit bool
}

func NewGame(cfg config.Config, lg *zap.Logger) (*Game, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	g := &Game{
		cfg:     cfg,
		log:     lg,
		replies: dialogue.NewRuntime(prefabs.LoadScript),
		hud:     newHUD(),
	}
	g.pause = newPauseUI(g)
	g.talk = newDialogueUI(cfg.Window.Width, cfg.Window.Height)

	if cfg.Feed.Enabled {
		g.hub = feed.NewHub(cfg.Feed.Interval(), lg.Named("feed"))
		if err := g.hub.Start(cfg.Feed.Addr); err != nil {
			return nil, fmt.Errorf("feed: listen %s: %w", cfg.Feed.Addr, err)
		}
	}
	if cfg.Watch {
		g.startWatcher()
	}

	if err := g.loadScene(cfg.Scene, false); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

func (g *Game) startWatcher() {
	var dirs []string
	for _, dir := range []string{prefabs.Dir, filepath.Join(prefabs.Dir, "scripts")} {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		g.log.Warn("no prefab directory to watch", zap.String("dir", prefabs.Dir))
		return
	}

	w, err := prefabs.NewWatcher(prefabs.DefaultDebounce, dirs...)
	if err != nil {
		g.log.Warn("prefab watcher unavailable", zap.Error(err))
		return
	}
	g.watcher = w
	g.log.Info("watching prefabs", zap.Strings("dirs", dirs))
}

// loadScene replaces the current scene. With keepPose the player stays where
// it stood, which is what a hot reload of the same scene wants.
func (g *Game) loadScene(name string, keepPose bool) error {
	spec, err := prefabs.LoadScene(name)
	if err != nil {
		return err
	}
	next, err := g.buildScene(spec)
	if err != nil {
		return fmt.Errorf("scene %s: %w", name, err)
	}

	prev := g.scene
	if keepPose && prev != nil && prev.name == next.name {
		if old, ok := prev.transform(); ok {
			if t, ok := next.transform(); ok {
				*t = *old
				next.ctrl.Sync(*t)
			}
		}
	}
	g.scene = next
	g.talk.Reset()
	prev.Close()

	g.log.Info("scene loaded",
		zap.String("scene", next.name),
		zap.String("title", next.title),
		zap.Bool("collision", spec.Collision.Enabled),
		zap.Bool("auto_pickup", spec.AutoPickup),
		zap.Int("entities", len(ecs.Entities(next.world))),
	)
	return nil
}

func (g *Game) buildScene(spec prefabs.SceneSpec) (*scene, error) {
	cfg := spec.ControllerConfig()
	cfg.Sensitivity *= g.cfg.Input.SensitivityScale

	opts := []controller.Option{
		controller.WithPointerLock(cursorLock{}),
		controller.WithLogger(g.log.Named("controller")),
	}
	if world := spec.CollisionWorld(); world != nil {
		opts = append(opts, controller.WithCollision(world.Blocked))
	}
	ctrl := controller.New(cfg, opts...)

	w := ecs.NewWorld()
	player, err := entity.BuildScene(w, spec, ctrl)
	if err != nil {
		return nil, err
	}

	var pub system.Publisher
	if g.hub != nil {
		pub = g.hub
	}
	systems := ecs.NewScheduler(
		system.NewInputSystem(g.talk.Focused),
		system.NewControllerSystem(),
		system.NewInteractionSystem(g.log.Named("interaction")),
		system.NewDialogueSystem(g.replies, g.log.Named("dialogue")),
		system.NewFeedSystem(pub),
		system.NewPlanSystem(0),
	)

	title := spec.Title
	if title == "" {
		title = spec.Name
	}
	return &scene{
		name:    spec.Name,
		title:   title,
		world:   w,
		ctrl:    ctrl,
		player:  player,
		systems: systems,
	}, nil
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	g.pollWatcher()

	s := g.scene
	s.systems.Update(s.world)
	for _, ev := range s.world.Events().Drain() {
		g.handleEvent(s, ev)
	}
	g.hud.Update()

	switch s.ctrl.State() {
	case controller.MenuOpen:
		if inpututil.IsKeyJustPressed(ebiten.KeyC) {
			g.copyPosition()
		}
		g.pause.ui.Update()
	case controller.DialogueOpen:
		if conv, ok := ecs.Get(s.world, s.player, component.ConversationComponent.Kind()); ok {
			g.talk.Sync(conv)
		}
		g.talk.ui.Update()
	}
	return nil
}

func (g *Game) handleEvent(s *scene, ev ecs.Event) {
	switch ev.Type {
	case system.EventPickup:
		pickup, _ := ev.Data.(system.PickupEvent)
		g.log.Info("item collected", zap.String("scene", s.name), zap.String("item", pickup.Name))
		if done, total := shoppingProgress(s.world); total > 0 && done == total {
			g.hud.Flash("Shopping list complete!")
		}
	case system.EventDialogueOpen:
		if conv, ok := ecs.Get(s.world, s.player, component.ConversationComponent.Kind()); ok {
			g.talk.Open(conv)
		}
	case system.EventDialogueClose:
		g.talk.Reset()
	}
}

func (g *Game) pollWatcher() {
	for g.watcher != nil {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyChange(change)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Warn("prefab watcher", zap.Error(err))
		default:
			return
		}
	}
}

func (g *Game) applyChange(change prefabs.Change) {
	switch change.Kind {
	case prefabs.ChangeScript:
		name := strings.TrimSuffix(filepath.Base(change.Path), filepath.Ext(change.Path))
		g.replies.Forget(name)
		g.log.Info("script reloaded", zap.String("script", name))
	case prefabs.ChangeScene:
		name := change.Scene()
		if g.scene == nil || name != g.scene.name {
			return
		}
		if err := g.loadScene(name, true); err != nil {
			g.log.Error("scene reload failed", zap.String("scene", name), zap.Error(err))
			return
		}
		g.hud.Flash("Reloaded " + name)
	}
}

func (g *Game) copyPosition() {
	pose, ok := system.CurrentPose(g.scene.world)
	if !ok {
		return
	}
	text := formatPosition(pose)
	if err := writeClipboard(text); err != nil {
		g.log.Warn("copy position", zap.Error(err))
		g.hud.Flash("Clipboard unavailable")
		return
	}
	g.log.Info("position copied", zap.String("position", text))
	g.hud.Flash("Copied " + text)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Darkslategray)

	s := g.scene
	if s == nil {
		return
	}
	s.systems.Draw(s.world, screen)
	g.hud.Draw(screen, s)

	switch s.ctrl.State() {
	case controller.MenuOpen:
		g.pause.ui.Draw(screen)
	case controller.DialogueOpen:
		g.talk.ui.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}

// Close releases the scene, the watcher and the feed. It is safe to call
// more than once.
func (g *Game) Close() {
	g.scene.Close()

	if g.watcher != nil {
		if err := g.watcher.Close(); err != nil {
			g.log.Warn("close prefab watcher", zap.Error(err))
		}
		g.watcher = nil
	}

	if g.hub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), feedShutdownTimeout)
		defer cancel()
		if err := g.hub.Close(ctx); err != nil {
			g.log.Warn("close pose feed", zap.Error(err))
		}
		g.hub = nil
	}
}
