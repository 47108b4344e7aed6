package components

import (
	"math"

	"velvet/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Animator swings its GameObject around a start position and spins it, so
// obstacles can push the cloth around.
type Animator struct {
	engine.BaseComponent
	StartPosition rl.Vector3
	Amplitude     rl.Vector3 // peak offset per axis
	Frequency     float32    // oscillations per second
	Phase         float32    // radians
	RotationSpeed rl.Vector3 // degrees per second
	time          float32
}

func NewAnimator(startPos, amplitude rl.Vector3, frequency float32) *Animator {
	return &Animator{
		StartPosition: startPos,
		Amplitude:     amplitude,
		Frequency:     frequency,
	}
}

func (a *Animator) Update(deltaTime float32) {
	g := a.GetGameObject()
	if g == nil {
		return
	}

	a.time += deltaTime

	s := float32(math.Sin(float64(2*math.Pi*a.Frequency*a.time + a.Phase)))
	g.Transform.Position = rl.Vector3Add(a.StartPosition, rl.Vector3Scale(a.Amplitude, s))

	g.Transform.Rotation = rl.Vector3Add(g.Transform.Rotation, rl.Vector3Scale(a.RotationSpeed, deltaTime))
	g.Transform.Rotation.X = wrapDegrees(g.Transform.Rotation.X)
	g.Transform.Rotation.Y = wrapDegrees(g.Transform.Rotation.Y)
	g.Transform.Rotation.Z = wrapDegrees(g.Transform.Rotation.Z)
}

// Time is the animation clock in seconds.
func (a *Animator) Time() float32 { return a.time }

func wrapDegrees(d float32) float32 {
	if d > 360 {
		return d - 360
	}
	if d < -360 {
		return d + 360
	}
	return d
}
