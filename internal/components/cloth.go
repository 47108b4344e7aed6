package components

import (
	"errors"
	"fmt"
	"log"

	"velvet/internal/cloth"
	"velvet/internal/config"
	"velvet/internal/engine"
	"velvet/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// MeshSink receives the cloth surface after every fixed tick. The slices are
// owned by the solver and only valid until the next tick.
type MeshSink interface {
	UpdateMesh(positions, normals []rl.Vector3)
}

// Cloth simulates a sheet placed by its GameObject's transform. Obstacles are
// every Collider component in the same scene at build time.
type Cloth struct {
	engine.BaseComponent
	Resolution int
	Size       float32
	Attached   []int      // vertex indices pinned in place
	Mesh       *cloth.Mesh // model-space mesh; a Resolution x Resolution grid when nil
	Params     *config.SimParams
	Sink       MeshSink
	Color      rl.Color

	// OnReset fires after the solver recovered from a non-finite state.
	OnReset engine.Event

	solver *cloth.Solver
}

func NewCloth(resolution int, size float32, params *config.SimParams) *Cloth {
	return &Cloth{
		Resolution: resolution,
		Size:       size,
		Params:     params,
		Color:      rl.SkyBlue,
	}
}

// Build creates the solver from the current world transform. Scene.Start
// calls it through Start; callers that want the error call it directly first.
func (c *Cloth) Build() error {
	g := c.GetGameObject()
	if g == nil {
		return errors.New("cloth component is not attached")
	}
	if c.Params == nil {
		c.Params = config.Default()
	}

	mesh := c.Mesh
	if mesh == nil {
		mesh = cloth.NewGridMesh(c.Resolution, c.Size)
	}
	worldMesh := mesh.Transformed(g.WorldTransform().Matrix())

	var colliders []*physics.Collider
	if g.Scene != nil {
		for _, col := range engine.FindComponents[*Collider](g.Scene) {
			colliders = append(colliders, col.Shape())
		}
	}

	solver, err := cloth.NewSolver(worldMesh, c.Attached, c.Params, colliders)
	if err != nil {
		return fmt.Errorf("build cloth %q: %w", g.Name, err)
	}
	c.solver = solver
	c.push()
	return nil
}

func (c *Cloth) Start() {
	if c.solver != nil {
		return
	}
	if err := c.Build(); err != nil {
		log.Printf("Cloth: %v", err)
	}
}

func (c *Cloth) FixedUpdate(fixedDeltaTime float32) {
	if c.solver == nil {
		return
	}
	c.solver.Step(fixedDeltaTime)

	if err := c.solver.CheckFinite(); err != nil {
		log.Printf("Cloth: %v, resetting", err)
		c.solver.Reset()
		c.OnReset.Invoke()
	}
	c.push()
}

// Reset puts the cloth back on its initial mesh.
func (c *Cloth) Reset() {
	if c.solver == nil {
		return
	}
	c.solver.Reset()
	c.push()
	c.OnReset.Invoke()
}

func (c *Cloth) push() {
	if c.Sink != nil {
		c.Sink.UpdateMesh(c.solver.Positions(), c.solver.Normals())
	}
}

// Solver is nil until the cloth has been built.
func (c *Cloth) Solver() *cloth.Solver {
	return c.solver
}

// Draw renders the cloth as flat-shaded triangles, both sides.
func (c *Cloth) Draw() {
	if !c.visible() {
		return
	}
	positions := c.solver.Positions()
	normals := c.solver.Normals()
	indices := c.solver.Indices()
	light := rl.Vector3Normalize(rl.Vector3{X: 0.35, Y: 1, Z: 0.35})

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, d := indices[i], indices[i+1], indices[i+2]
		n := rl.Vector3Normalize(rl.Vector3Add(rl.Vector3Add(normals[a], normals[b]), normals[d]))
		shade := 0.35 + 0.65*absf(rl.Vector3DotProduct(n, light))
		color := rl.Color{
			R: uint8(float32(c.Color.R) * shade),
			G: uint8(float32(c.Color.G) * shade),
			B: uint8(float32(c.Color.B) * shade),
			A: c.Color.A,
		}
		rl.DrawTriangle3D(positions[a], positions[b], positions[d], color)
		rl.DrawTriangle3D(positions[a], positions[d], positions[b], color)
	}
}

// DrawWireframe outlines every triangle.
func (c *Cloth) DrawWireframe() {
	if !c.visible() {
		return
	}
	positions := c.solver.Positions()
	indices := c.solver.Indices()
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, d := positions[indices[i]], positions[indices[i+1]], positions[indices[i+2]]
		rl.DrawLine3D(a, b, rl.DarkBlue)
		rl.DrawLine3D(b, d, rl.DarkBlue)
		rl.DrawLine3D(d, a, rl.DarkBlue)
	}
}

// DrawParticles renders each particle at its collision diameter. Pinned
// particles are red.
func (c *Cloth) DrawParticles() {
	if !c.visible() {
		return
	}
	radius := c.solver.ParticleDiameter() / 2
	inverseMass := c.solver.InverseMass()
	for i, p := range c.solver.Positions() {
		color := rl.White
		if inverseMass[i] == 0 {
			color = rl.Red
		}
		rl.DrawSphereEx(p, radius, 4, 6, color)
	}
}

// DrawBounds outlines the box around the particles.
func (c *Cloth) DrawBounds() {
	if !c.visible() {
		return
	}
	box := c.solver.Bounds()
	rl.DrawCubeWiresV(box.Center(), box.Size(), rl.Green)
}

func (c *Cloth) visible() bool {
	g := c.GetGameObject()
	return c.solver != nil && g != nil && g.Active
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
