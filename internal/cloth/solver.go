// Package cloth advances a triangle mesh as a position-based particle system.
//
// Every pass writes its corrections straight into the predicted positions as
// it walks the constraint list (Gauss-Seidel), so a constraint sees the
// corrections made by the ones before it within the same iteration. Results
// therefore depend on constraint order, which is fixed at construction.
package cloth

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"velvet/internal/config"
	"velvet/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ErrNonFinite is returned by CheckFinite once a particle has left the reals.
var ErrNonFinite = errors.New("cloth: non-finite particle state")

// Stats describes the most recent tick.
type Stats struct {
	Ticks            uint64
	NeighborPairs    int     // self-collision pairs resolved
	ObstacleContacts int     // non-zero collider corrections
	MaxSpeed         float32 // fastest particle after finalize
}

// Solver owns the particle state of one cloth. Colliders are borrowed: the
// caller keeps them alive and advances them before each Step.
type Solver struct {
	params    *config.SimParams
	mesh      *Mesh
	attached  []int
	colliders []*physics.Collider

	positions   []rl.Vector3
	predicted   []rl.Vector3
	velocities  []rl.Vector3
	inverseMass []float32
	normals     []rl.Vector3

	constraints      Constraints
	hash             *physics.SpatialHash
	particleDiameter float32

	colliderBounds []physics.AABB
	colliderHasBox []bool
	colliderActive []bool

	stats            Stats
	lastSpeedWarning time.Time
}

// NewSolver takes a world-space mesh (see Mesh.Transformed), the indices of the
// vertices pinned in place and the parameters read on every tick.
func NewSolver(mesh *Mesh, attached []int, params *config.SimParams, colliders []*physics.Collider) (*Solver, error) {
	if params == nil {
		return nil, errors.New("cloth: nil params")
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	for _, idx := range attached {
		if idx < 0 || idx >= len(mesh.Vertices) {
			return nil, fmt.Errorf("cloth: attached index %d out of range [0, %d)", idx, len(mesh.Vertices))
		}
	}

	n := len(mesh.Vertices)
	s := &Solver{
		params:      params,
		mesh:        mesh,
		attached:    append([]int(nil), attached...),
		positions:   make([]rl.Vector3, n),
		predicted:   make([]rl.Vector3, n),
		velocities:  make([]rl.Vector3, n),
		inverseMass: make([]float32, n),
		normals:     make([]rl.Vector3, n),
	}
	s.SetColliders(colliders)

	s.constraints = BuildConstraints(mesh.Vertices, mesh.Indices, s.attached)

	edge := rl.Vector3Distance(mesh.Vertices[mesh.Indices[0]], mesh.Vertices[mesh.Indices[1]])
	s.particleDiameter = edge * params.ParticleDiameterScalar
	s.hash = physics.NewSpatialHash(s.particleDiameter, params.HashCellSizeScalar, n)
	s.hash.SetInitialPositions(mesh.Vertices)

	s.Reset()

	log.Printf("Cloth: %d particles, %d stretch, %d bending, %d attachments, particle diameter %.4f",
		n, len(s.constraints.Stretch), len(s.constraints.Bending), len(s.constraints.Attachments), s.particleDiameter)
	log.Printf("Cloth: recommended max speed %.2f (configured %.2f)", s.RecommendedMaxSpeed(), params.MaxSpeed)
	return s, nil
}

// Reset puts every particle back on the stored mesh at rest. Constraints and
// the hash rest configuration are kept. Ticks keep counting.
func (s *Solver) Reset() {
	copy(s.positions, s.mesh.Vertices)
	copy(s.predicted, s.mesh.Vertices)
	for i := range s.velocities {
		s.velocities[i] = rl.Vector3Zero()
		s.inverseMass[i] = 1
	}
	for _, a := range s.constraints.Attachments {
		s.inverseMass[a.Index] = 0
	}
	ComputeNormals(s.positions, s.mesh.Indices, s.normals)
	ticks := s.stats.Ticks
	s.stats = Stats{Ticks: ticks}
}

// SetColliders replaces the borrowed obstacle list.
func (s *Solver) SetColliders(colliders []*physics.Collider) {
	s.colliders = colliders
	s.colliderBounds = make([]physics.AABB, len(colliders))
	s.colliderHasBox = make([]bool, len(colliders))
	s.colliderActive = make([]bool, len(colliders))
}

// Step advances the cloth by one fixed tick of frameTime seconds.
func (s *Solver) Step(frameTime float32) {
	p := s.params
	dt := frameTime / float32(p.NumSubsteps)

	s.stats.NeighborPairs = 0
	s.stats.ObstacleContacts = 0
	s.stats.MaxSpeed = 0

	// settle anything that starts the tick inside an obstacle
	s.collideObstacles(s.positions, dt)

	for substep := 0; substep < p.NumSubsteps; substep++ {
		s.predict(dt)

		if p.EnableSelfCollision {
			if substep%p.InterleavedHash == 0 {
				s.hash.Rebuild(s.predicted)
			}
			s.collideParticles()
		}

		s.collideObstacles(s.predicted, dt)

		for it := 0; it < p.NumIterations; it++ {
			s.solveStretch()
			s.solveBending(dt)
			s.solveAttachment()
		}

		s.finalize(dt)
	}

	ComputeNormals(s.positions, s.mesh.Indices, s.normals)
	s.stats.Ticks++
	s.warnSpeed()
}

func (s *Solver) predict(dt float32) {
	g := s.params.Gravity
	for i := range s.positions {
		// pinned particles still integrate; attachment puts them back
		s.velocities[i] = rl.Vector3Add(s.velocities[i], rl.Vector3Scale(g, dt))
		s.predicted[i] = rl.Vector3Add(s.positions[i], rl.Vector3Scale(s.velocities[i], dt))
	}
}

func (s *Solver) collideParticles() {
	diameter := s.particleDiameter
	friction := s.params.Friction

	for i := range s.predicted {
		wi := s.inverseMass[i]
		for _, j := range s.hash.Neighbors(i) {
			if j <= i {
				continue
			}
			wj := s.inverseMass[j]
			denom := wi + wj
			if denom <= 0 {
				continue
			}

			diff := rl.Vector3Subtract(s.predicted[i], s.predicted[j])
			distance := rl.Vector3Length(diff)
			if distance >= diameter {
				continue
			}

			gradient := rl.Vector3Scale(diff, 1/(distance+physics.Epsilon))
			lambda := (diameter - distance) / denom
			common := rl.Vector3Scale(gradient, lambda)

			velI := rl.Vector3Subtract(s.predicted[i], s.positions[i])
			velJ := rl.Vector3Subtract(s.predicted[j], s.positions[j])
			push := rl.Vector3Add(common, physics.Friction(common, rl.Vector3Subtract(velI, velJ), friction))

			s.predicted[i] = rl.Vector3Add(s.predicted[i], rl.Vector3Scale(push, wi))
			s.predicted[j] = rl.Vector3Subtract(s.predicted[j], rl.Vector3Scale(push, wj))
			s.stats.NeighborPairs++
		}
	}
}

// collideObstacles pushes target out of every collider. target is either the
// predicted positions or, for the pre-collision pass, the confirmed positions
// themselves. Relative motion is measured from the confirmed position as it
// was before this pass touched it.
func (s *Solver) collideObstacles(target []rl.Vector3, dt float32) {
	if len(s.colliders) == 0 {
		return
	}
	margin := s.params.CollisionMargin
	friction := s.params.Friction

	// colliders whose bounds miss the whole cloth are skipped outright
	clothBounds := physics.NewAABBFromPoints(target)
	for c, col := range s.colliders {
		box, bounded := col.Bounds(margin)
		s.colliderBounds[c], s.colliderHasBox[c] = box, bounded
		s.colliderActive[c] = !bounded || box.Intersects(clothBounds)
	}

	for i := range target {
		start := s.positions[i]
		for c, col := range s.colliders {
			if !s.colliderActive[c] {
				continue
			}
			if s.colliderHasBox[c] && !s.colliderBounds[c].Contains(target[i]) {
				continue
			}
			correction := col.Correction(target[i], margin)
			if correction == (rl.Vector3{}) {
				continue
			}
			target[i] = rl.Vector3Add(target[i], correction)

			surface := rl.Vector3Scale(col.VelocityAt(target[i], dt), dt)
			relative := rl.Vector3Subtract(rl.Vector3Subtract(target[i], start), surface)
			target[i] = rl.Vector3Add(target[i], physics.Friction(correction, relative, friction))
			s.stats.ObstacleContacts++
		}
	}
}

// solveStretch corrects both compression and extension.
func (s *Solver) solveStretch() {
	for _, c := range s.constraints.Stretch {
		w1 := s.inverseMass[c.A]
		w2 := s.inverseMass[c.B]
		denom := w1 + w2
		if denom <= 0 {
			continue
		}
		diff := rl.Vector3Subtract(s.predicted[c.A], s.predicted[c.B])
		distance := rl.Vector3Length(diff)
		if distance == c.Rest {
			continue
		}
		gradient := rl.Vector3Scale(diff, 1/(distance+physics.Epsilon))
		lambda := (distance - c.Rest) / denom
		correction := rl.Vector3Scale(gradient, lambda)
		s.predicted[c.A] = rl.Vector3Subtract(s.predicted[c.A], rl.Vector3Scale(correction, w1))
		s.predicted[c.B] = rl.Vector3Add(s.predicted[c.B], rl.Vector3Scale(correction, w2))
	}
}

func (s *Solver) solveBending(dt float32) {
	compliance := s.params.BendCompliance / (dt * dt)

	for _, c := range s.constraints.Bending {
		w1 := s.inverseMass[c.P1]
		w2 := s.inverseMass[c.P2]
		w3 := s.inverseMass[c.P3]
		w4 := s.inverseMass[c.P4]

		origin := s.predicted[c.P1]
		p2 := rl.Vector3Subtract(s.predicted[c.P2], origin)
		p3 := rl.Vector3Subtract(s.predicted[c.P3], origin)
		p4 := rl.Vector3Subtract(s.predicted[c.P4], origin)

		cross23 := rl.Vector3CrossProduct(p2, p3)
		cross24 := rl.Vector3CrossProduct(p2, p4)
		len23 := rl.Vector3Length(cross23)
		len24 := rl.Vector3Length(cross24)
		if len23 < physics.Epsilon || len24 < physics.Epsilon {
			continue
		}
		n1 := rl.Vector3Scale(cross23, 1/len23)
		n2 := rl.Vector3Scale(cross24, 1/len24)

		// the opposite vertices sit on either side of the edge, so a flat
		// pair has antiparallel normals; d is 1 when flat
		dot := rl.Vector3DotProduct(n1, n2)
		d := clampf(-dot, -1, 1)
		angle := float32(math.Acos(float64(d)))
		if angle < physics.Epsilon || math.IsNaN(float64(angle)) {
			continue
		}

		q3 := rl.Vector3Scale(rl.Vector3Add(
			rl.Vector3CrossProduct(p2, n2),
			rl.Vector3Scale(rl.Vector3CrossProduct(n1, p2), dot)), 1/len23)
		q4 := rl.Vector3Scale(rl.Vector3Add(
			rl.Vector3CrossProduct(p2, n1),
			rl.Vector3Scale(rl.Vector3CrossProduct(n2, p2), dot)), 1/len24)
		q2 := rl.Vector3Negate(rl.Vector3Add(
			rl.Vector3Scale(rl.Vector3Add(
				rl.Vector3CrossProduct(p3, n2),
				rl.Vector3Scale(rl.Vector3CrossProduct(n1, p3), dot)), 1/len23),
			rl.Vector3Scale(rl.Vector3Add(
				rl.Vector3CrossProduct(p4, n1),
				rl.Vector3Scale(rl.Vector3CrossProduct(n2, p4), dot)), 1/len24)))
		q1 := rl.Vector3Negate(rl.Vector3Add(rl.Vector3Add(q2, q3), q4))

		denom := compliance +
			w1*rl.Vector3DotProduct(q1, q1) +
			w2*rl.Vector3DotProduct(q2, q2) +
			w3*rl.Vector3DotProduct(q3, q3) +
			w4*rl.Vector3DotProduct(q4, q4)
		if denom < physics.Epsilon {
			continue
		}

		lambda := float32(math.Sqrt(float64(1-d*d))) * (angle - c.RestAngle) / denom
		if math.IsNaN(float64(lambda)) {
			continue
		}

		s.predicted[c.P1] = rl.Vector3Add(s.predicted[c.P1], rl.Vector3Scale(q1, w1*lambda))
		s.predicted[c.P2] = rl.Vector3Add(s.predicted[c.P2], rl.Vector3Scale(q2, w2*lambda))
		s.predicted[c.P3] = rl.Vector3Add(s.predicted[c.P3], rl.Vector3Scale(q3, w3*lambda))
		s.predicted[c.P4] = rl.Vector3Add(s.predicted[c.P4], rl.Vector3Scale(q4, w4*lambda))
	}
}

func (s *Solver) solveAttachment() {
	for _, a := range s.constraints.Attachments {
		s.predicted[a.Index] = a.Target
	}
}

func (s *Solver) finalize(dt float32) {
	keep := 1 - s.params.Damping*dt
	for i := range s.positions {
		v := rl.Vector3Scale(rl.Vector3Subtract(s.predicted[i], s.positions[i]), keep/dt)
		s.velocities[i] = v
		s.positions[i] = s.predicted[i]
		if speed := rl.Vector3Length(v); speed > s.stats.MaxSpeed {
			s.stats.MaxSpeed = speed
		}
	}
}

func (s *Solver) warnSpeed() {
	limit := s.params.MaxSpeed
	if limit <= 0 || s.stats.MaxSpeed <= limit {
		return
	}
	if time.Since(s.lastSpeedWarning) < time.Second {
		return
	}
	s.lastSpeedWarning = time.Now()
	log.Printf("Cloth: particle speed %.2f exceeds max speed %.2f at tick %d", s.stats.MaxSpeed, limit, s.stats.Ticks)
}

// RecommendedMaxSpeed is the speed at which a particle crosses one particle
// diameter per substep. Beyond it self-collision starts to tunnel.
func (s *Solver) RecommendedMaxSpeed() float32 {
	dt := s.params.SubstepTime()
	if dt <= 0 {
		return 0
	}
	return s.particleDiameter / dt
}

// CheckFinite returns an error wrapping ErrNonFinite for the first particle
// with a NaN or infinite position or velocity.
func (s *Solver) CheckFinite() error {
	for i := range s.positions {
		if !physics.IsFinite(s.positions[i]) || !physics.IsFinite(s.velocities[i]) {
			return fmt.Errorf("%w: particle %d at %v", ErrNonFinite, i, s.positions[i])
		}
	}
	return nil
}

// Positions, Normals and Velocities are owned by the solver and updated in
// place by Step. Callers must not modify them.
func (s *Solver) Positions() []rl.Vector3 { return s.positions }

func (s *Solver) Normals() []rl.Vector3 { return s.normals }

func (s *Solver) Velocities() []rl.Vector3 { return s.velocities }

func (s *Solver) InverseMass() []float32 { return s.inverseMass }

func (s *Solver) Indices() []int { return s.mesh.Indices }

func (s *Solver) Constraints() *Constraints { return &s.constraints }

func (s *Solver) ParticleDiameter() float32 { return s.particleDiameter }

// Bounds is the box around the current particle positions.
func (s *Solver) Bounds() physics.AABB { return physics.NewAABBFromPoints(s.positions) }

func (s *Solver) Params() *config.SimParams { return s.params }

func (s *Solver) Stats() Stats { return s.stats }

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
