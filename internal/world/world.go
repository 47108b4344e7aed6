package world

import (
	"fmt"
	"log"

	"velvet/internal/cloth"
	"velvet/internal/components"
	"velvet/internal/config"
	"velvet/internal/engine"
	"velvet/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// DefaultMaxFixedSteps bounds how many fixed ticks one Update may run to
// catch up after a slow frame. Time beyond that is dropped.
const DefaultMaxFixedSteps = 5

// DrawOptions selects the cloth overlays drawn on top of the shaded surface.
type DrawOptions struct {
	Particles bool
	Wireframe bool
	Bounds    bool
}

type World struct {
	Scene  *engine.Scene
	Params *config.SimParams

	MaxFixedSteps int
	Paused        bool
	DrawOptions   DrawOptions

	// Ticked fires after every fixed tick with the tick count.
	Ticked engine.EventWithArg[uint64]
	// OnReset fires after Reset put every cloth back on its initial mesh.
	OnReset engine.Event

	accumulator float32
	ticks       uint64
	started     bool
}

func New(params *config.SimParams) *World {
	if params == nil {
		params = config.Default()
	}
	return &World{
		Scene:         engine.NewScene("Main"),
		Params:        params,
		MaxFixedSteps: DefaultMaxFixedSteps,
	}
}

// AddObstacle adds a collider object. Obstacles must be added before the
// cloths that collide with them.
func (w *World) AddObstacle(name string, kind physics.ColliderKind, t engine.Transform) *engine.GameObject {
	g := engine.NewGameObject(name)
	g.Transform = t
	g.Tags = []string{"obstacle"}
	g.AddComponent(components.NewCollider(kind))
	w.Scene.AddGameObject(g)
	return g
}

// AddCloth adds a grid cloth placed by t, sharing the world parameters.
func (w *World) AddCloth(name string, resolution int, size float32, t engine.Transform, attached []int) *components.Cloth {
	g := engine.NewGameObject(name)
	g.Transform = t
	g.Tags = []string{"cloth"}
	c := components.NewCloth(resolution, size, w.Params)
	c.Attached = attached
	g.AddComponent(c)
	w.Scene.AddGameObject(g)
	return c
}

// DefaultScene builds the demo: a sheet pinned along one edge falling over a
// sphere, with a cube sweeping underneath and the ground below.
func (w *World) DefaultScene() {
	w.AddObstacle("Ground", physics.PlaneCollider, engine.NewTransform(rl.Vector3{}))

	ball := engine.NewTransform(rl.Vector3{Y: 1})
	ball.Scale = rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}
	sphere := w.AddObstacle("Sphere", physics.SphereCollider, ball)
	engine.GetComponent[*components.Collider](sphere).Color = rl.Red

	box := engine.NewTransform(rl.Vector3{Y: 0.3, Z: 0.6})
	box.Scale = rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}
	cube := w.AddObstacle("Cube", physics.CubeCollider, box)
	engine.GetComponent[*components.Collider](cube).Color = rl.Orange
	animator := components.NewAnimator(box.Position, rl.Vector3{X: 1}, 0.2)
	animator.RotationSpeed = rl.Vector3{Y: 30}
	cube.AddComponent(animator)

	const resolution = 32
	corners := cloth.GridCorners(resolution)
	w.AddCloth("Cloth", resolution, 2, engine.NewTransform(rl.Vector3{Y: 2}), []int{corners[0], corners[2]})
}

// Start builds every cloth and starts the scene. Errors building a cloth are
// returned instead of only logged.
func (w *World) Start() error {
	if w.started {
		return nil
	}
	for _, c := range w.Cloths() {
		if err := c.Build(); err != nil {
			return fmt.Errorf("world: %w", err)
		}
	}
	w.Scene.Start()
	w.started = true

	log.Printf("World: %d obstacles, %d cloths, fixed dt %.4f, %d substeps, %d iterations",
		len(w.Obstacles()), len(w.Cloths()), w.Params.FixedDeltaTime, w.Params.NumSubsteps, w.Params.NumIterations)
	return nil
}

// Clear removes every object so another scene can be loaded. Parameters,
// draw options and event listeners are kept; the tick count starts over.
func (w *World) Clear() {
	for len(w.Scene.GameObjects) > 0 {
		w.Scene.RemoveGameObject(w.Scene.GameObjects[len(w.Scene.GameObjects)-1])
	}
	w.accumulator = 0
	w.ticks = 0
	w.started = false
}

// Update advances real time. It runs as many fixed ticks as the accumulated
// time allows, up to MaxFixedSteps, then the per-frame update. It returns the
// number of fixed ticks run.
func (w *World) Update(frameTime float32) int {
	if w.Paused {
		w.accumulator = 0
		return 0
	}

	dt := w.Params.FixedDeltaTime
	w.accumulator += frameTime

	steps := 0
	for w.accumulator >= dt && steps < w.MaxFixedSteps {
		w.fixedTick()
		w.accumulator -= dt
		steps++
	}
	if w.accumulator >= dt {
		log.Printf("World: dropping %.3fs of simulation time", w.accumulator)
		w.accumulator = 0
	}

	w.Scene.Update(frameTime)
	return steps
}

// Step runs exactly one fixed tick, paused or not.
func (w *World) Step() {
	w.fixedTick()
	w.Scene.Update(w.Params.FixedDeltaTime)
}

func (w *World) fixedTick() {
	w.Scene.FixedUpdate(w.Params.FixedDeltaTime)
	w.ticks++
	w.Ticked.Invoke(w.ticks)
}

// Reset puts every cloth back on its initial mesh. Obstacles keep moving.
func (w *World) Reset() {
	for _, c := range w.Cloths() {
		c.Reset()
	}
	w.accumulator = 0
	w.OnReset.Invoke()
}

func (w *World) Ticks() uint64 {
	return w.ticks
}

func (w *World) Cloths() []*components.Cloth {
	return engine.FindComponents[*components.Cloth](w.Scene)
}

// Obstacles returns the objects added with AddObstacle, in scene order.
func (w *World) Obstacles() []*engine.GameObject {
	return w.Scene.FindByTag("obstacle")
}

func (w *World) Colliders() []*components.Collider {
	return engine.FindComponents[*components.Collider](w.Scene)
}

// Draw renders obstacles then cloths. Must be called inside BeginMode3D.
func (w *World) Draw() {
	for _, c := range w.Colliders() {
		c.Draw()
	}
	for _, c := range w.Cloths() {
		c.Draw()
		if w.DrawOptions.Wireframe {
			c.DrawWireframe()
		}
		if w.DrawOptions.Particles {
			c.DrawParticles()
		}
		if w.DrawOptions.Bounds {
			c.DrawBounds()
		}
	}
}
