package system

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/locationgame/controller"
	"github.com/milk9111/locationgame/ecs"
	"github.com/milk9111/locationgame/ecs/component"
	"golang.org/x/image/colornames"
)

const defaultPlanScale = 14.0

// PlanSystem draws the scene from above, centred on the player.
type PlanSystem struct {
	// Scale is pixels per world unit.
	Scale float64
}

func NewPlanSystem(scale float64) *PlanSystem {
	if scale <= 0 {
		scale = defaultPlanScale
	}
	return &PlanSystem{Scale: scale}
}

func (s *PlanSystem) Update(w *ecs.World) {}

type planView struct {
	cx, cy float64
	px, pz float64
	scale  float64
}

func (v planView) point(x, z float64) (float32, float32) {
	return float32(v.cx + (x-v.px)*v.scale), float32(v.cy + (z-v.pz)*v.scale)
}

func (v planView) rect(dst *ebiten.Image, minX, minZ, maxX, maxZ float64, clr color.Color, outline bool) {
	x0, y0 := v.point(minX, minZ)
	x1, y1 := v.point(maxX, maxZ)
	vector.FillRect(dst, x0, y0, x1-x0, y1-y0, clr, false)
	if outline {
		vector.StrokeRect(dst, x0, y0, x1-x0, y1-y0, 1, colornames.Black, false)
	}
}

func (s *PlanSystem) Draw(w *ecs.World, screen *ebiten.Image) {
	if w == nil || screen == nil {
		return
	}

	player, ok := ecs.First(w, component.PlayerTagComponent.Kind())
	if !ok {
		return
	}
	t, ok := ecs.Get(w, player, component.TransformComponent.Kind())
	if !ok {
		return
	}

	b := screen.Bounds()
	view := planView{
		cx:    float64(b.Dx()) / 2,
		cy:    float64(b.Dy()) / 2,
		px:    t.Position.X(),
		pz:    t.Position.Z(),
		scale: s.Scale,
	}

	ecs.ForEach(w, component.ColliderComponent.Kind(), func(e ecs.Entity, c *component.Collider) {
		clr := c.Color
		if !c.Solid {
			clr.A = clr.A / 2
		}
		view.rect(screen, c.Box.MinX, c.Box.MinZ, c.Box.MaxX, c.Box.MaxZ, clr, c.Solid)
	})

	ecs.ForEach(w, component.PickupComponent.Kind(), func(e ecs.Entity, p *component.Pickup) {
		if ecs.Has(w, e, component.HiddenComponent.Kind()) {
			return
		}
		view.rect(screen, p.Bounds.Min.X(), p.Bounds.Min.Z(), p.Bounds.Max.X(), p.Bounds.Max.Z(), p.Color, false)
	})

	ecs.ForEach(w, component.DialogueComponent.Kind(), func(e ecs.Entity, d *component.Dialogue) {
		view.rect(screen, d.Bounds.Min.X(), d.Bounds.Min.Z(), d.Bounds.Max.X(), d.Bounds.Max.Z(), d.Color, true)
	})

	yaw := t.Yaw
	if p, ok := ecs.Get(w, player, component.PlayerComponent.Kind()); ok && p.Controller != nil {
		yaw, _ = p.Controller.Look()
	}
	fwd := controller.HorizontalForward(yaw).Mul(1.5)
	x0, y0 := view.point(view.px, view.pz)
	x1, y1 := view.point(view.px+fwd.X(), view.pz+fwd.Z())
	vector.StrokeLine(screen, x0, y0, x1, y1, 2, colornames.Red, true)
	vector.FillRect(screen, x0-3, y0-3, 6, 6, colornames.White, false)
}
