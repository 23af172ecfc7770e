package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/locationgame/controller"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"github.com/milk9111/locationgame/feed"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
)

const (
	flashDuration = 2 * time.Second
	glyphWidth    = 6
	lineHeight    = 16
	crosshairSize = 6
)

// hud draws the overlays on top of the plan: crosshair, prompts, the
// shopping list and the position readout.
type hud struct {
	flash      string
	flashUntil time.Time
	now        func() time.Time
}

func newHUD() *hud {
	return &hud{now: time.Now}
}

// Flash shows msg for a couple of seconds.
func (h *hud) Flash(msg string) {
	h.flash = msg
	h.flashUntil = h.now().Add(flashDuration)
}

func (h *hud) Update() {
	if h.flash != "" && h.now().After(h.flashUntil) {
		h.flash = ""
	}
}

func (h *hud) Draw(screen *ebiten.Image, s *scene) {
	b := screen.Bounds()
	cx, cy := float32(b.Dx())/2, float32(b.Dy())/2

	p, ok := ecs.Get(s.world, s.player, component.PlayerComponent.Kind())
	if !ok {
		return
	}
	state := s.ctrl.State()

	ebitenutil.DebugPrintAt(screen, s.title, 10, 10)

	switch state {
	case controller.Locked:
		vector.StrokeLine(screen, cx-crosshairSize, cy, cx+crosshairSize, cy, 1, colornames.White, false)
		vector.StrokeLine(screen, cx, cy-crosshairSize, cx, cy+crosshairSize, 1, colornames.White, false)
	case controller.Unlocked:
		msg := "Click to start"
		if p.Started {
			msg = "Click to resume"
		}
		printCentered(screen, msg, int(cx), int(cy)-40)
	}

	if p.Focus != "" && state == controller.Locked {
		printCentered(screen, focusPrompt(p.Focus, p.FocusKind), int(cx), int(cy)+24)
	}

	h.drawShopping(screen, s)

	if pose, ok := poseOf(s); ok {
		ebitenutil.DebugPrintAt(screen, "Position "+formatPosition(pose), 10, b.Dy()-lineHeight-4)
	}
	if h.flash != "" {
		printCentered(screen, h.flash, int(cx), 40)
	}
}

func (h *hud) drawShopping(screen *ebiten.Image, s *scene) {
	info, ok := sceneInfo(s.world)
	if !ok || len(info.Shopping) == 0 {
		return
	}
	have := inventorySet(s.world, s.player)

	x := screen.Bounds().Dx() - 160
	y := 10
	ebitenutil.DebugPrintAt(screen, "Shopping list", x, y)
	for _, item := range info.Shopping {
		y += lineHeight
		mark := "[ ]"
		if have[item] > 0 {
			mark = "[x]"
		}
		ebitenutil.DebugPrintAt(screen, mark+" "+item, x, y)
	}
}

func printCentered(screen *ebiten.Image, msg string, cx, y int) {
	ebitenutil.DebugPrintAt(screen, msg, cx-len(msg)*glyphWidth/2, y)
}

func focusPrompt(name string, kind controller.Kind) string {
	if kind == controller.KindDialogue {
		return "Press Q to talk to " + name
	}
	return "Press E to pick up " + name
}

func poseOf(s *scene) (feed.Pose, bool) {
	t, ok := s.transform()
	if !ok {
		return feed.Pose{}, false
	}
	return feed.Pose{X: t.Position.X(), Y: t.Position.Y(), Z: t.Position.Z(), Yaw: t.Yaw, Pitch: t.Pitch}, true
}

// formatPosition renders x,y,z in world units and yaw in degrees, the form
// scene files take.
func formatPosition(p feed.Pose) string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.1f", p.X, p.Y, p.Z, mgl64.RadToDeg(p.Yaw))
}

func sceneInfo(w *ecs.World) (*component.SceneInfo, bool) {
	e, ok := ecs.First(w, component.SceneInfoComponent.Kind())
	if !ok {
		return nil, false
	}
	return ecs.Get(w, e, component.SceneInfoComponent.Kind())
}

func inventorySet(w *ecs.World, player ecs.Entity) map[string]int {
	have := make(map[string]int)
	if inv, ok := ecs.Get(w, player, component.InventoryComponent.Kind()); ok {
		for _, item := range inv.Items {
			have[item]++
		}
	}
	return have
}

// shoppingProgress counts the list entries already in the player's basket.
func shoppingProgress(w *ecs.World) (done, total int) {
	info, ok := sceneInfo(w)
	if !ok {
		return 0, 0
	}
	player, ok := ecs.First(w, component.PlayerTagComponent.Kind())
	if !ok {
		return 0, len(info.Shopping)
	}
	have := inventorySet(w, player)
	for _, item := range info.Shopping {
		if have[item] > 0 {
			done++
		}
	}
	return done, len(info.Shopping)
}

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

func writeClipboard(text string) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("clipboard: %w", clipboardErr)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
