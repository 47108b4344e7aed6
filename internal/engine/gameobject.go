package engine

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Transform struct {
	Position rl.Vector3
	Rotation rl.Vector3 // Euler angles in degrees
	Scale    rl.Vector3
}

// NewTransform returns a transform at pos with no rotation and unit scale.
func NewTransform(pos rl.Vector3) Transform {
	return Transform{
		Position: pos,
		Scale:    rl.Vector3{X: 1, Y: 1, Z: 1},
	}
}

// RotationMatrix builds the rotation part only (X, then Y, then Z). Angles are
// right-handed like rlgl's Rotatef, so a +90 turn about Y carries +X to -Z and
// physics agrees with what the renderer draws. raylib-go's MatrixRotateX/Y/Z
// turn the other way and are not used here.
func (t Transform) RotationMatrix() rl.Matrix {
	rotX := rotationX(t.Rotation.X)
	rotY := rotationY(t.Rotation.Y)
	rotZ := rotationZ(t.Rotation.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(rotX, rotY), rotZ)
}

func sinCos(degrees float32) (float32, float32) {
	s, c := math.Sincos(float64(degrees) * math.Pi / 180)
	return float32(s), float32(c)
}

func rotationX(degrees float32) rl.Matrix {
	s, c := sinCos(degrees)
	return rl.Matrix{
		M0: 1,
		M5: c, M9: -s,
		M6: s, M10: c,
		M15: 1,
	}
}

func rotationY(degrees float32) rl.Matrix {
	s, c := sinCos(degrees)
	return rl.Matrix{
		M0: c, M8: s,
		M5: 1,
		M2: -s, M10: c,
		M15: 1,
	}
}

func rotationZ(degrees float32) rl.Matrix {
	s, c := sinCos(degrees)
	return rl.Matrix{
		M0: c, M4: -s,
		M1: s, M5: c,
		M10: 1,
		M15: 1,
	}
}

// Matrix returns the local-to-world matrix: scale, then rotate, then translate.
func (t Transform) Matrix() rl.Matrix {
	scale := rl.MatrixScale(t.Scale.X, t.Scale.Y, t.Scale.Z)
	translate := rl.MatrixTranslate(t.Position.X, t.Position.Y, t.Position.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(scale, t.RotationMatrix()), translate)
}

type GameObject struct {
	Name       string
	Tags       []string
	Transform  Transform
	Active     bool
	Scene      *Scene
	Parent     *GameObject
	Children   []*GameObject
	components []Component
	started    bool
}

func NewGameObject(name string) *GameObject {
	return &GameObject{
		Name:       name,
		Active:     true,
		Transform:  NewTransform(rl.Vector3{}),
		components: make([]Component, 0),
		Children:   make([]*GameObject, 0),
	}
}

func (g *GameObject) AddComponent(c Component) {
	c.SetGameObject(g)
	g.components = append(g.components, c)
}

// GetComponent returns the first component of type T, or the zero value.
func GetComponent[T Component](g *GameObject) T {
	var zero T
	for _, c := range g.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

func (g *GameObject) Start() {
	if g.started {
		return
	}
	for _, c := range g.components {
		c.Start()
	}
	g.started = true
}

func (g *GameObject) Update(deltaTime float32) {
	if !g.Active {
		return
	}
	for _, c := range g.components {
		c.Update(deltaTime)
	}
}

// FixedUpdate forwards a fixed tick to every component that wants one.
func (g *GameObject) FixedUpdate(fixedDeltaTime float32) {
	if !g.Active {
		return
	}
	for _, c := range g.components {
		if f, ok := c.(FixedUpdater); ok {
			f.FixedUpdate(fixedDeltaTime)
		}
	}
}

func (g *GameObject) Components() []Component {
	return g.components
}

func (g *GameObject) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (g *GameObject) AddChild(child *GameObject) {
	child.Parent = g
	g.Children = append(g.Children, child)
}

func (g *GameObject) WorldPosition() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Position
	}
	parentPos := g.Parent.WorldPosition()
	parentScale := g.Parent.WorldScale()

	// Scale local position by parent's world scale
	scaled := rl.Vector3{
		X: g.Transform.Position.X * parentScale.X,
		Y: g.Transform.Position.Y * parentScale.Y,
		Z: g.Transform.Position.Z * parentScale.Z,
	}

	parentRot := Transform{Rotation: g.Parent.WorldRotation()}
	rotated := rl.Vector3Transform(scaled, parentRot.RotationMatrix())
	return rl.Vector3Add(parentPos, rotated)
}

func (g *GameObject) WorldRotation() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Rotation
	}
	return rl.Vector3Add(g.Parent.WorldRotation(), g.Transform.Rotation)
}

func (g *GameObject) WorldScale() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Scale
	}
	ps := g.Parent.WorldScale()
	return rl.Vector3{
		X: ps.X * g.Transform.Scale.X,
		Y: ps.Y * g.Transform.Scale.Y,
		Z: ps.Z * g.Transform.Scale.Z,
	}
}

// WorldTransform flattens the parent chain into a single transform.
func (g *GameObject) WorldTransform() Transform {
	return Transform{
		Position: g.WorldPosition(),
		Rotation: g.WorldRotation(),
		Scale:    g.WorldScale(),
	}
}
