package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

const collisionTypeSolid cp.CollisionType = 1

// DefaultRadius is the player's footprint half-width.
const DefaultRadius = 0.4

// Box is a solid footprint on the ground plane.
type Box struct {
	Name string
	MinX float64
	MaxX float64
	MinZ float64
	MaxZ float64
}

// Bounds limits where the camera may stand. Nil sides are open.
type Bounds struct {
	MinX *float64
	MaxX *float64
	MinZ *float64
	MaxZ *float64
}

func (b Bounds) outside(p mgl64.Vec3) bool {
	x, z := p.X(), p.Z()
	return (b.MinX != nil && x < *b.MinX) ||
		(b.MaxX != nil && x > *b.MaxX) ||
		(b.MinZ != nil && z < *b.MinZ) ||
		(b.MaxZ != nil && z > *b.MaxZ)
}

// World indexes static footprints in a chipmunk space. The space's X axis is
// world X and its Y axis is world Z; height is ignored.
type World struct {
	space  *cp.Space
	boxes  []Box
	bounds Bounds
	radius float64
}

func NewWorld(radius float64, bounds Bounds, boxes ...Box) *World {
	if radius < 0 {
		radius = 0
	}
	w := &World{
		space:  cp.NewSpace(),
		bounds: bounds,
		radius: radius,
	}
	for _, b := range boxes {
		w.Add(b)
	}
	return w
}

// Add registers a solid footprint. Inverted boxes are normalised.
func (w *World) Add(b Box) {
	if w == nil {
		return
	}
	if b.MinX > b.MaxX {
		b.MinX, b.MaxX = b.MaxX, b.MinX
	}
	if b.MinZ > b.MaxZ {
		b.MinZ, b.MaxZ = b.MaxZ, b.MinZ
	}
	shape := cp.NewBox2(w.space.StaticBody, cp.BB{L: b.MinX, B: b.MinZ, R: b.MaxX, T: b.MaxZ}, 0)
	shape.SetCollisionType(collisionTypeSolid)
	w.space.AddShape(shape)
	w.boxes = append(w.boxes, b)
}

func (w *World) Boxes() []Box {
	if w == nil {
		return nil
	}
	return w.boxes
}

func (w *World) Bounds() Bounds {
	if w == nil {
		return Bounds{}
	}
	return w.bounds
}

// Blocked reports whether a player centred at p would overlap a footprint
// or stand outside the bounds. Touching counts as overlapping.
func (w *World) Blocked(p mgl64.Vec3) bool {
	if w == nil {
		return false
	}
	if w.bounds.outside(p) {
		return true
	}

	query := cp.BB{
		L: p.X() - w.radius,
		B: p.Z() - w.radius,
		R: p.X() + w.radius,
		T: p.Z() + w.radius,
	}
	hit := false
	w.space.BBQuery(query, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, data interface{}) {
		hit = true
	}, nil)
	return hit
}
