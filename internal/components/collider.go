package components

import (
	"velvet/internal/engine"
	"velvet/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Collider makes its GameObject an obstacle for cloth. The shape follows the
// object's world transform and is refreshed once per fixed tick.
type Collider struct {
	engine.BaseComponent
	Kind  physics.ColliderKind
	Color rl.Color

	shape *physics.Collider
}

func NewCollider(kind physics.ColliderKind) *Collider {
	return &Collider{
		Kind:  kind,
		Color: rl.LightGray,
	}
}

// Shape returns the physics collider, creating it from the current world
// transform on first use so a cloth started earlier in the scene can still
// borrow it.
func (c *Collider) Shape() *physics.Collider {
	if c.shape == nil {
		t := engine.NewTransform(rl.Vector3{})
		if g := c.GetGameObject(); g != nil {
			t = g.WorldTransform()
		}
		c.shape = physics.NewCollider(c.Kind, t)
	}
	return c.shape
}

func (c *Collider) Start() {
	c.Shape()
}

func (c *Collider) FixedUpdate(fixedDeltaTime float32) {
	g := c.GetGameObject()
	if g == nil {
		return
	}
	c.Shape().Advance(g.WorldTransform(), fixedDeltaTime)
}

// Draw renders the shape the cloth sees.
func (c *Collider) Draw() {
	g := c.GetGameObject()
	if g == nil || !g.Active {
		return
	}
	t := g.WorldTransform()

	switch c.Kind {
	case physics.SphereCollider:
		rl.DrawSphere(t.Position, t.Scale.X, c.Color)
	case physics.CubeCollider:
		rl.PushMatrix()
		rl.Translatef(t.Position.X, t.Position.Y, t.Position.Z)
		rl.Rotatef(t.Rotation.Z, 0, 0, 1)
		rl.Rotatef(t.Rotation.Y, 0, 1, 0)
		rl.Rotatef(t.Rotation.X, 1, 0, 0)
		rl.DrawCubeV(rl.Vector3{}, t.Scale, c.Color)
		rl.DrawCubeWiresV(rl.Vector3{}, t.Scale, rl.DarkGray)
		rl.PopMatrix()
	case physics.PlaneCollider:
		rl.DrawPlane(rl.Vector3{}, rl.Vector2{X: 20, Y: 20}, c.Color)
	}
}
