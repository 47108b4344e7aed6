package physics

import (
	"testing"

	"velvet/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-4

func assertVec(t *testing.T, want, got rl.Vector3, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, tol, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, tol, msgAndArgs...)
}

func scaledTransform(pos rl.Vector3, scale float32) engine.Transform {
	tr := engine.NewTransform(pos)
	tr.Scale = rl.Vector3{X: scale, Y: scale, Z: scale}
	return tr
}

func TestPlaneCorrectionLiftsToMargin(t *testing.T) {
	c := NewCollider(PlaneCollider, engine.NewTransform(rl.Vector3{}))
	margin := float32(0.0625)

	p := rl.Vector3{X: 3, Y: -0.25, Z: 1}
	corrected := rl.Vector3Add(p, c.Correction(p, margin))
	assert.Equal(t, margin, corrected.Y)
	assert.Equal(t, p.X, corrected.X)

	above := rl.Vector3{Y: 0.5}
	assert.True(t, isZero(c.Correction(above, margin)))
}

func TestSphereCorrectionPushesToSurface(t *testing.T) {
	c := NewCollider(SphereCollider, scaledTransform(rl.Vector3{X: 1, Y: 2}, 0.5))
	margin := float32(0.1)

	p := rl.Vector3{X: 1, Y: 2.3}
	corrected := rl.Vector3Add(p, c.Correction(p, margin))
	assertVec(t, rl.Vector3{X: 1, Y: 2.6}, corrected)

	outside := rl.Vector3{X: 1, Y: 3}
	assert.True(t, isZero(c.Correction(outside, margin)))

	// the exact centre has no push direction
	assert.True(t, isZero(c.Correction(rl.Vector3{X: 1, Y: 2}, margin)))
}

func TestCubeCorrectionFromCenter(t *testing.T) {
	c := NewCollider(CubeCollider, engine.NewTransform(rl.Vector3{}))

	corr := c.Correction(rl.Vector3{}, 0)
	assertVec(t, rl.Vector3{X: 0.5}, corr)

	// the corrected point lies on the box surface and needs no further push
	assert.True(t, isZero(c.Correction(corr, 0)))
}

func TestCubeCorrectionNearestFace(t *testing.T) {
	c := NewCollider(CubeCollider, scaledTransform(rl.Vector3{Y: 1}, 2))

	// 0.2 below the top face of a 2x2x2 cube centred at y=1
	p := rl.Vector3{X: 0.1, Y: 1.8, Z: -0.3}
	assertVec(t, rl.Vector3{Y: 0.2}, c.Correction(p, 0))

	p = rl.Vector3{X: -0.9, Y: 1.1, Z: 0.2}
	assertVec(t, rl.Vector3{X: -0.1}, c.Correction(p, 0))
}

func TestCubeCorrectionRespectsRotation(t *testing.T) {
	tr := engine.NewTransform(rl.Vector3{})
	tr.Scale = rl.Vector3{X: 4, Y: 1, Z: 1}
	tr.Rotation.Y = 90
	c := NewCollider(CubeCollider, tr)

	// the long axis now runs along world Z; a point near its far end is pushed along Z
	p := rl.Vector3{Z: 1.9}
	corr := c.Correction(p, 0)
	assert.InDelta(t, 0, corr.X, tol)
	assert.Less(t, absf(corr.Z), float32(0.5))
	assert.Greater(t, absf(corr.Z), float32(0))
}

func TestCubeCorrectionMatchesDrawnOrientation(t *testing.T) {
	tr := engine.NewTransform(rl.Vector3{})
	tr.Scale = rl.Vector3{X: 2, Y: 0.2, Z: 0.2}
	tr.Rotation.Y = 30
	c := NewCollider(CubeCollider, tr)

	// a +30 degree turn about Y swings the long axis toward -Z
	assert.False(t, isZero(c.Correction(rl.Vector3{X: 0.78, Z: -0.45}, 0)))
	assert.True(t, isZero(c.Correction(rl.Vector3{X: 0.78, Z: 0.45}, 0)))
}

func TestCubeCorrectionOutsideIsZero(t *testing.T) {
	c := NewCollider(CubeCollider, engine.NewTransform(rl.Vector3{}))
	assert.True(t, isZero(c.Correction(rl.Vector3{X: 5, Y: 5, Z: 5}, 0.06)))
	assert.True(t, isZero(c.Correction(rl.Vector3{X: 0.6}, 0.06)))
	assert.False(t, isZero(c.Correction(rl.Vector3{X: 0.55}, 0.06)))
}

func TestCubeCorrectionRoundsEdges(t *testing.T) {
	c := NewCollider(CubeCollider, engine.NewTransform(rl.Vector3{}))

	// close to the +X/+Y edge: the face push is damped
	p := rl.Vector3{X: 0.49, Y: 0.48, Z: 0}
	corr := c.Correction(p, 0)
	assertVec(t, rl.Vector3{X: 0.01 * edgeScalar}, corr)

	// inside the corner band on all three axes: a small spherical push
	p = rl.Vector3{X: 0.475, Y: 0.475, Z: 0.475}
	corr = c.Correction(p, 0)
	assert.Greater(t, corr.X, float32(0))
	assert.InDelta(t, corr.X, corr.Y, tol)
	assert.InDelta(t, corr.X, corr.Z, tol)
	assert.Less(t, rl.Vector3Length(corr), float32(cornerBand))
}

func TestColliderVelocityAt(t *testing.T) {
	c := NewCollider(SphereCollider, engine.NewTransform(rl.Vector3{}))
	dt := float32(0.5)

	assertVec(t, rl.Vector3{}, c.VelocityAt(rl.Vector3{X: 1}, dt))

	c.Advance(engine.NewTransform(rl.Vector3{X: 1}), dt)
	assertVec(t, rl.Vector3{X: 2}, c.VelocityAt(rl.Vector3{X: 1.5, Y: 3}, dt))
	assertVec(t, rl.Vector3{X: 2}, c.Velocity)
}

func TestColliderVelocityAtRotation(t *testing.T) {
	c := NewCollider(CubeCollider, engine.NewTransform(rl.Vector3{}))
	tr := engine.NewTransform(rl.Vector3{})
	tr.Rotation.Y = 90
	c.Advance(tr, 1)

	// a quarter turn about Y carried (1, 0, 0) to (0, 0, -1)
	v := c.VelocityAt(rl.Vector3{Z: -1}, 1)
	assertVec(t, rl.Vector3{X: -1, Z: -1}, v)
	assert.True(t, isZero(c.Velocity))
}

func TestColliderBounds(t *testing.T) {
	plane := NewCollider(PlaneCollider, engine.NewTransform(rl.Vector3{}))
	_, ok := plane.Bounds(0.1)
	assert.False(t, ok)

	sphere := NewCollider(SphereCollider, scaledTransform(rl.Vector3{Y: 1}, 0.5))
	box, ok := sphere.Bounds(0.1)
	require.True(t, ok)
	assertVec(t, rl.Vector3{X: -0.6, Y: 0.4, Z: -0.6}, box.Min)
	assertVec(t, rl.Vector3{X: 0.6, Y: 1.6, Z: 0.6}, box.Max)

	tr := engine.NewTransform(rl.Vector3{})
	tr.Rotation.Y = 45
	cube := NewCollider(CubeCollider, tr)
	box, ok = cube.Bounds(0)
	require.True(t, ok)
	assert.InDelta(t, 0.7071, box.Max.X, 1e-3)
	assert.InDelta(t, 0.5, box.Max.Y, 1e-3)
	// every corner of the rotated cube is inside its bounds
	for _, corner := range []rl.Vector3{{X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: -0.5, Z: 0.5}} {
		assert.True(t, box.Expand(1e-4).Contains(rl.Vector3Transform(corner, tr.Matrix())))
	}
}

func TestParseColliderKind(t *testing.T) {
	for _, kind := range []ColliderKind{PlaneCollider, SphereCollider, CubeCollider} {
		parsed, err := ParseColliderKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
	_, err := ParseColliderKind("torus")
	assert.Error(t, err)
}
