package components

import (
	"testing"

	"velvet/internal/cloth"
	"velvet/internal/config"
	"velvet/internal/engine"
	"velvet/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	calls     int
	positions []rl.Vector3
	normals   []rl.Vector3
}

func (r *recordingSink) UpdateMesh(positions, normals []rl.Vector3) {
	r.calls++
	r.positions = append(r.positions[:0], positions...)
	r.normals = append(r.normals[:0], normals...)
}

func newObstacle(name string, kind physics.ColliderKind, pos rl.Vector3, scale float32) (*engine.GameObject, *Collider) {
	g := engine.NewGameObject(name)
	g.Transform.Position = pos
	g.Transform.Scale = rl.Vector3{X: scale, Y: scale, Z: scale}
	c := NewCollider(kind)
	g.AddComponent(c)
	return g, c
}

func TestColliderFollowsTransformOnFixedTick(t *testing.T) {
	g, c := newObstacle("Ball", physics.SphereCollider, rl.Vector3{Y: 1}, 0.5)
	g.Start()
	assert.Equal(t, rl.Vector3{Y: 1}, c.Shape().Position())

	// frame updates alone do not move the shape
	g.Transform.Position = rl.Vector3{X: 1, Y: 1}
	g.Update(0.016)
	assert.Equal(t, rl.Vector3{Y: 1}, c.Shape().Position())

	g.FixedUpdate(0.5)
	assert.Equal(t, rl.Vector3{X: 1, Y: 1}, c.Shape().Position())
	assert.InDelta(t, 2, c.Shape().Velocity.X, 1e-5)
}

func TestColliderShapeUsesParentTransform(t *testing.T) {
	parent := engine.NewGameObject("Rig")
	parent.Transform.Position = rl.Vector3{X: 3}
	child, c := newObstacle("Ball", physics.SphereCollider, rl.Vector3{Y: 1}, 0.5)
	parent.AddChild(child)

	assert.Equal(t, rl.Vector3{X: 3, Y: 1}, c.Shape().Position())
}

func TestAnimatorOscillates(t *testing.T) {
	g := engine.NewGameObject("Mover")
	a := NewAnimator(rl.Vector3{Y: 1}, rl.Vector3{X: 2}, 1)
	a.RotationSpeed = rl.Vector3{Y: 90}
	g.AddComponent(a)

	g.Update(0.25) // quarter period: peak
	assert.InDelta(t, 2, g.Transform.Position.X, 1e-4)
	assert.InDelta(t, 1, g.Transform.Position.Y, 1e-6)
	assert.InDelta(t, 22.5, g.Transform.Rotation.Y, 1e-4)

	g.Update(0.25) // half period: back through the start
	assert.InDelta(t, 0, g.Transform.Position.X, 1e-4)
	assert.InDelta(t, 0.5, a.Time(), 1e-6)
}

func TestWrapDegrees(t *testing.T) {
	assert.Equal(t, float32(10), wrapDegrees(370))
	assert.Equal(t, float32(-10), wrapDegrees(-370))
	assert.Equal(t, float32(180), wrapDegrees(180))
}

func TestClothBuildsWithSceneColliders(t *testing.T) {
	scene := engine.NewScene("Test")
	ground, _ := newObstacle("Ground", physics.PlaneCollider, rl.Vector3{}, 1)
	ball, _ := newObstacle("Ball", physics.SphereCollider, rl.Vector3{Y: 0.5}, 0.3)
	scene.AddGameObject(ground)
	scene.AddGameObject(ball)

	sheet := engine.NewGameObject("Cloth")
	sheet.Transform.Position = rl.Vector3{Y: 1}
	params := config.Default()
	c := NewCloth(8, 1, params)
	c.Attached = cloth.GridCorners(8)[:2]
	sink := &recordingSink{}
	c.Sink = sink
	sheet.AddComponent(c)
	scene.AddGameObject(sheet)

	scene.Start()
	require.NotNil(t, c.Solver())
	assert.Equal(t, 1, sink.calls, "initial surface is pushed on build")
	assert.Len(t, sink.positions, 81)
	for _, p := range sink.positions {
		assert.InDelta(t, 1, p.Y, 1e-6)
	}

	for i := 0; i < 30; i++ {
		scene.FixedUpdate(params.FixedDeltaTime)
	}
	assert.Equal(t, 31, sink.calls)
	assert.Equal(t, uint64(30), c.Solver().Stats().Ticks)

	// the middle of the sheet lands on the ball, nothing passes through
	center := sink.positions[4*9+4]
	assert.Greater(t, center.Y, float32(0.5+0.3))
	for _, p := range sink.positions {
		assert.GreaterOrEqual(t, p.Y, float32(0))
	}
}

func TestClothBuildReportsBadAttachment(t *testing.T) {
	scene := engine.NewScene("Test")
	sheet := engine.NewGameObject("Cloth")
	c := NewCloth(2, 1, config.Default())
	c.Attached = []int{100}
	sheet.AddComponent(c)
	scene.AddGameObject(sheet)

	assert.Error(t, c.Build())
	assert.Nil(t, c.Solver())

	// Start logs instead of failing and ticks are no-ops
	scene.Start()
	scene.FixedUpdate(0.016)
	assert.Nil(t, c.Solver())
}

func TestClothBuildDetached(t *testing.T) {
	assert.Error(t, NewCloth(2, 1, nil).Build())
}

func TestClothResetFiresEvent(t *testing.T) {
	sheet := engine.NewGameObject("Cloth")
	c := NewCloth(4, 1, nil)
	sheet.AddComponent(c)
	require.NoError(t, c.Build())
	require.NotNil(t, c.Params, "defaults are filled in")

	resets := 0
	c.OnReset.AddListener(func() { resets++ })

	for i := 0; i < 10; i++ {
		sheet.FixedUpdate(c.Params.FixedDeltaTime)
	}
	assert.Less(t, c.Solver().Positions()[0].Y, float32(0))

	c.Reset()
	assert.Equal(t, 1, resets)
	assert.Zero(t, c.Solver().Positions()[0].Y)
}

func TestClothUsesCustomMesh(t *testing.T) {
	sheet := engine.NewGameObject("Cloth")
	sheet.Transform.Position = rl.Vector3{Y: 2}
	c := NewCloth(0, 0, nil)
	c.Mesh = &cloth.Mesh{
		Vertices: []rl.Vector3{{}, {X: 1}, {Z: 1}},
		Indices:  []int{0, 1, 2},
	}
	sheet.AddComponent(c)
	require.NoError(t, c.Build())
	assert.Len(t, c.Solver().Positions(), 3)
	assert.Equal(t, rl.Vector3{X: 1, Y: 2}, c.Solver().Positions()[1])
}
