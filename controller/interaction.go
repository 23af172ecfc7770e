package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags what an interactable record is for.
type Kind int

const (
	KindPickup Kind = iota + 1
	KindDialogue
)

func (k Kind) String() string {
	switch k {
	case KindPickup:
		return "pickup"
	case KindDialogue:
		return "dialogue"
	default:
		return "unknown"
	}
}

const (
	DefaultPickupDistance   = 2.0
	DefaultDialogueDistance = 3.0
)

// AABB is an axis-aligned box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// BoxAt builds the box of the given size centred on center.
func BoxAt(center, size mgl64.Vec3) AABB {
	half := size.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func (b AABB) Contains(p mgl64.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Interactable is one record of the host's interaction registry. Enabled
// gates dialogue records only; a pickup stays live until the host removes it.
type Interactable struct {
	Kind            Kind
	Bounds          AABB
	TriggerDistance float64
	Enabled         bool
	Handle          any
	OnInteract      func()
}

// Reach is the trigger distance with the per-kind default applied.
func (i Interactable) Reach() float64 {
	if i.TriggerDistance > 0 {
		return i.TriggerDistance
	}
	if i.Kind == KindDialogue {
		return DefaultDialogueDistance
	}
	return DefaultPickupDistance
}

type Hit struct {
	Target   Interactable
	Distance float64
	Point    mgl64.Vec3
}

// CheckInteraction casts a ray against candidates. See Raycast.
func (c *Controller) CheckInteraction(kind Kind, origin, dir mgl64.Vec3, candidates []Interactable) (Hit, bool) {
	return Raycast(kind, origin, dir, candidates)
}

// Raycast returns the nearest enabled candidate of kind hit by the ray whose
// distance is within that candidate's reach. Candidates of other kinds do
// not block the ray.
func Raycast(kind Kind, origin, dir mgl64.Vec3, candidates []Interactable) (Hit, bool) {
	if len(candidates) == 0 {
		return Hit{}, false
	}
	l := dir.Len()
	if !(l > 0) || math.IsInf(l, 0) {
		return Hit{}, false
	}
	dir = dir.Mul(1 / l)

	var best Hit
	found := false
	for _, cand := range candidates {
		if cand.Kind != kind || (cand.Kind == KindDialogue && !cand.Enabled) {
			continue
		}
		t, ok := RayAABB(origin, dir, cand.Bounds)
		if !ok || t > cand.Reach() {
			continue
		}
		if found && t >= best.Distance {
			continue
		}
		best = Hit{Target: cand, Distance: t, Point: origin.Add(dir.Mul(t))}
		found = true
	}
	return best, found
}

// RayAABB is a slab test. dir must be unit length for the result to be a
// distance. A ray starting inside the box hits at 0.
func RayAABB(origin, dir mgl64.Vec3, box AABB) (float64, bool) {
	tmin := 0.0
	tmax := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := origin[axis]
		d := dir[axis]
		lo := box.Min[axis]
		hi := box.Max[axis]

		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}

		inv := 1.0 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmax < tmin {
			return 0, false
		}
	}
	return tmin, true
}
