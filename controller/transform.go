package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is the camera pose owned by the host scene.
// Yaw 0 looks down -Z; positive yaw turns left.
type Transform struct {
	Position mgl64.Vec3
	Yaw      float64
	Pitch    float64
}

// HorizontalForward is the unit walking direction for yaw.
func HorizontalForward(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{-math.Sin(yaw), 0, -math.Cos(yaw)}
}

// HorizontalRight is HorizontalForward crossed with +Y.
func HorizontalRight(yaw float64) mgl64.Vec3 {
	return HorizontalForward(yaw).Cross(mgl64.Vec3{0, 1, 0})
}

// LookDirection is the unit view direction for yaw and pitch.
func LookDirection(yaw, pitch float64) mgl64.Vec3 {
	cp := math.Cos(pitch)
	return mgl64.Vec3{
		-math.Sin(yaw) * cp,
		math.Sin(pitch),
		-math.Cos(yaw) * cp,
	}
}
