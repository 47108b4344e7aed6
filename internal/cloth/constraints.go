package cloth

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// StretchConstraint keeps two particles at their rest distance.
type StretchConstraint struct {
	A, B int
	Rest float32
}

// BendingConstraint acts on the dihedral angle across the shared edge (P1, P2)
// of two triangles whose opposite vertices are P3 and P4. An angle of zero
// means the two triangles are coplanar.
type BendingConstraint struct {
	P1, P2, P3, P4 int
	RestAngle      float32
}

// AttachmentConstraint pins a particle to a fixed world position.
type AttachmentConstraint struct {
	Index  int
	Target rl.Vector3
}

// Constraints is everything derived from the initial mesh. It is built once
// and never changes afterwards.
type Constraints struct {
	Stretch     []StretchConstraint
	Bending     []BendingConstraint
	Attachments []AttachmentConstraint
}

type edgeKey struct{ lo, hi int }

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type edgeInfo struct {
	a, b      int   // as first seen
	opposite  []int // third vertex of every triangle using the edge
	triangles []int
}

// BuildConstraints derives stretch and bending constraints from the triangle
// topology and attachment constraints from the attached indices. Rest values
// are measured on positions. Output order follows first appearance in indices,
// so the same mesh always produces the same solve order.
func BuildConstraints(positions []rl.Vector3, indices []int, attached []int) Constraints {
	var edges []*edgeInfo
	lookup := make(map[edgeKey]*edgeInfo)

	for t := 0; t+2 < len(indices); t += 3 {
		tri := [3]int{indices[t], indices[t+1], indices[t+2]}
		for k := 0; k < 3; k++ {
			a, b, opp := tri[k], tri[(k+1)%3], tri[(k+2)%3]
			key := newEdgeKey(a, b)
			e, ok := lookup[key]
			if !ok {
				e = &edgeInfo{a: a, b: b}
				lookup[key] = e
				edges = append(edges, e)
			}
			e.opposite = append(e.opposite, opp)
			e.triangles = append(e.triangles, t/3)
		}
	}

	var c Constraints
	addStretch := func(a, b int) {
		c.Stretch = append(c.Stretch, StretchConstraint{
			A:    a,
			B:    b,
			Rest: rl.Vector3Distance(positions[a], positions[b]),
		})
	}

	for _, e := range edges {
		addStretch(e.a, e.b)
	}

	for _, e := range edges {
		if len(e.triangles) != 2 {
			continue
		}
		c3, c4 := e.opposite[0], e.opposite[1]
		c.Bending = append(c.Bending, BendingConstraint{P1: e.a, P2: e.b, P3: c3, P4: c4})

		// a shared longest edge is the diagonal of a quad; brace the other diagonal too
		if _, exists := lookup[newEdgeKey(c3, c4)]; exists {
			continue
		}
		if isLongestEdge(positions, e.a, e.b, c3) && isLongestEdge(positions, e.a, e.b, c4) {
			addStretch(c3, c4)
		}
	}

	for _, idx := range attached {
		c.Attachments = append(c.Attachments, AttachmentConstraint{Index: idx, Target: positions[idx]})
	}
	return c
}

// isLongestEdge reports whether (a, b) is strictly the longest edge of triangle (a, b, opp).
func isLongestEdge(positions []rl.Vector3, a, b, opp int) bool {
	shared := distanceSqr(positions[a], positions[b])
	return shared > distanceSqr(positions[a], positions[opp]) &&
		shared > distanceSqr(positions[b], positions[opp])
}

func distanceSqr(a, b rl.Vector3) float32 {
	d := rl.Vector3Subtract(a, b)
	return rl.Vector3DotProduct(d, d)
}
