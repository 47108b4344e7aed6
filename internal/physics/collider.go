package physics

import (
	"fmt"
	"strings"

	"velvet/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ColliderKind selects the implicit shape a Collider pushes particles out of.
type ColliderKind int

const (
	// PlaneCollider is the infinite ground plane y = 0.
	PlaneCollider ColliderKind = iota
	// SphereCollider is a sphere of radius Scale.X around the transform position.
	SphereCollider
	// CubeCollider is the unit cube placed by the transform.
	CubeCollider
)

// cornerBand is the width of the rounded region near cube edges and corners.
const cornerBand = 0.03

// edgeScalar damps face pushes close to a cube edge.
const edgeScalar = 0.2

func (k ColliderKind) String() string {
	switch k {
	case PlaneCollider:
		return "plane"
	case SphereCollider:
		return "sphere"
	case CubeCollider:
		return "cube"
	}
	return fmt.Sprintf("ColliderKind(%d)", int(k))
}

// ParseColliderKind maps scene file names to kinds.
func ParseColliderKind(s string) (ColliderKind, error) {
	switch strings.ToLower(s) {
	case "plane", "ground":
		return PlaneCollider, nil
	case "sphere":
		return SphereCollider, nil
	case "cube", "box":
		return CubeCollider, nil
	}
	return 0, fmt.Errorf("unknown collider kind %q", s)
}

// Collider is an obstacle the cloth collides against. It keeps the current and
// previous world transform so the surface velocity can be estimated by finite
// differences. The owner refreshes it once per fixed tick with Advance.
type Collider struct {
	Kind     ColliderKind
	Velocity rl.Vector3 // linear velocity of the origin, for telemetry

	position     rl.Vector3
	lastPosition rl.Vector3
	scale        rl.Vector3
	rotation     rl.Vector3

	current  rl.Matrix
	inverse  rl.Matrix
	previous rl.Matrix
}

func NewCollider(kind ColliderKind, t engine.Transform) *Collider {
	c := &Collider{Kind: kind}
	c.position = t.Position
	c.lastPosition = t.Position
	c.scale = t.Scale
	c.rotation = t.Rotation
	c.current = t.Matrix()
	c.inverse = rl.MatrixInvert(c.current)
	c.previous = c.current
	return c
}

// Advance rolls the transform history forward by one fixed tick.
func (c *Collider) Advance(t engine.Transform, fixedDeltaTime float32) {
	if fixedDeltaTime > 0 {
		c.Velocity = rl.Vector3Scale(rl.Vector3Subtract(t.Position, c.lastPosition), 1/fixedDeltaTime)
	}
	c.lastPosition = t.Position
	c.position = t.Position
	c.scale = t.Scale
	c.rotation = t.Rotation

	c.previous = c.current
	c.current = t.Matrix()
	c.inverse = rl.MatrixInvert(c.current)
}

func (c *Collider) Position() rl.Vector3 { return c.position }

func (c *Collider) Scale() rl.Vector3 { return c.scale }

// Transform returns the transform recorded by the last Advance.
func (c *Collider) Transform() engine.Transform {
	return engine.Transform{Position: c.position, Rotation: c.rotation, Scale: c.scale}
}

// Correction returns the displacement that moves p out of the shape grown by
// margin, or the zero vector when p is outside.
func (c *Collider) Correction(p rl.Vector3, margin float32) rl.Vector3 {
	switch c.Kind {
	case PlaneCollider:
		return c.planeCorrection(p, margin)
	case SphereCollider:
		return c.sphereCorrection(p, margin)
	case CubeCollider:
		return c.cubeCorrection(p, margin)
	}
	return rl.Vector3Zero()
}

func (c *Collider) planeCorrection(p rl.Vector3, margin float32) rl.Vector3 {
	if p.Y < margin {
		return rl.Vector3{Y: margin - p.Y}
	}
	return rl.Vector3Zero()
}

func (c *Collider) sphereCorrection(p rl.Vector3, margin float32) rl.Vector3 {
	radius := c.scale.X + margin
	diff := rl.Vector3Subtract(p, c.position)
	distance := rl.Vector3Length(diff)
	if distance < radius && distance > 0 {
		direction := rl.Vector3Scale(diff, 1/distance)
		return rl.Vector3Scale(direction, radius-distance)
	}
	return rl.Vector3Zero()
}

func (c *Collider) cubeCorrection(p rl.Vector3, margin float32) rl.Vector3 {
	local := rl.Vector3Transform(p, c.inverse)
	half := rl.Vector3{
		X: 0.5 + margin/c.scale.X,
		Y: 0.5 + margin/c.scale.Y,
		Z: 0.5 + margin/c.scale.Z,
	}
	// per-axis signed distance to the faces, negative inside
	offset := rl.Vector3{
		X: absf(local.X) - half.X,
		Y: absf(local.Y) - half.Y,
		Z: absf(local.Z) - half.Z,
	}

	maxVal := max(offset.X, offset.Y, offset.Z)
	if maxVal >= 0 {
		return rl.Vector3Zero()
	}
	minVal := min(offset.X, offset.Y, offset.Z)
	midVal := offset.X + offset.Y + offset.Z - maxVal - minVal

	// round edges and corners so particles resting there do not vibrate
	scalar := float32(1)
	if midVal > -cornerBand {
		scalar = edgeScalar
	}

	var correction rl.Vector3
	switch {
	case minVal > -cornerBand:
		mask := rl.Vector3{X: sign(local.X), Y: sign(local.Y), Z: sign(local.Z)}
		vec := rl.Vector3AddValue(offset, cornerBand)
		length := rl.Vector3Length(vec)
		if length < cornerBand && length > 0 {
			correction = rl.Vector3Multiply(mask, rl.Vector3Scale(vec, (cornerBand-length)/length))
		}
	case offset.X == maxVal:
		correction = rl.Vector3{X: copysign(-offset.X, local.X)}
	case offset.Y == maxVal:
		correction = rl.Vector3{Y: copysign(-offset.Y, local.Y)}
	default:
		correction = rl.Vector3{Z: copysign(-offset.Z, local.Z)}
	}

	return transformDirection(rl.Vector3Scale(correction, scalar), c.current)
}

// VelocityAt estimates the surface velocity at world point p from where the
// collider's own motion over the last tick would have carried it.
func (c *Collider) VelocityAt(p rl.Vector3, dt float32) rl.Vector3 {
	local := rl.Vector3Transform(p, c.inverse)
	last := rl.Vector3Transform(local, c.previous)
	return rl.Vector3Scale(rl.Vector3Subtract(p, last), 1/dt)
}

// Bounds returns the world box outside of which Correction is always zero.
// The plane is unbounded and reports false.
func (c *Collider) Bounds(margin float32) (AABB, bool) {
	switch c.Kind {
	case SphereCollider:
		r := absf(c.scale.X) + margin
		return NewAABBFromCenter(c.position, rl.Vector3{X: 2 * r, Y: 2 * r, Z: 2 * r}), true
	case CubeCollider:
		box := NewOBBFromTransform(c.Transform())
		box.HalfSize = rl.Vector3AddValue(box.HalfSize, margin)
		return box.Bounds(), true
	}
	return AABB{}, false
}
