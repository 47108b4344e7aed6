package cloth

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Mesh is the triangle soup the solver starts from. Vertex order is the
// particle order and never changes.
type Mesh struct {
	Vertices []rl.Vector3
	Indices  []int // three per triangle
}

// NewGridMesh builds a flat square of (resolution+1)^2 vertices in the XZ
// plane, centred on the origin, with two triangles per cell. Vertex (x, z)
// is stored at x*(resolution+1)+z.
func NewGridMesh(resolution int, size float32) *Mesh {
	if resolution < 1 {
		resolution = 1
	}
	stride := resolution + 1
	m := &Mesh{
		Vertices: make([]rl.Vector3, 0, stride*stride),
		Indices:  make([]int, 0, resolution*resolution*6),
	}
	for x := 0; x < stride; x++ {
		for z := 0; z < stride; z++ {
			m.Vertices = append(m.Vertices, rl.Vector3{
				X: (float32(x)/float32(resolution) - 0.5) * size,
				Z: (float32(z)/float32(resolution) - 0.5) * size,
			})
		}
	}
	for x := 0; x < resolution; x++ {
		for z := 0; z < resolution; z++ {
			a := x*stride + z
			b := a + 1
			c := a + stride
			d := c + 1
			m.Indices = append(m.Indices, a, b, d, a, d, c)
		}
	}
	return m
}

// GridCorners returns the indices of the four corners of a grid built by
// NewGridMesh, in the order (0,0), (0,res), (res,0), (res,res).
func GridCorners(resolution int) []int {
	stride := resolution + 1
	return []int{0, resolution, resolution * stride, stride*stride - 1}
}

// Transformed returns a copy with every vertex moved by m. The solver works in
// world space, so the model transform is applied once here.
func (m *Mesh) Transformed(mat rl.Matrix) *Mesh {
	out := &Mesh{
		Vertices: make([]rl.Vector3, len(m.Vertices)),
		Indices:  append([]int(nil), m.Indices...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = rl.Vector3Transform(v, mat)
	}
	return out
}

func (m *Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}

func (m *Mesh) Validate() error {
	if len(m.Vertices) < 2 {
		return fmt.Errorf("cloth: mesh needs at least 2 vertices, got %d", len(m.Vertices))
	}
	if len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
		return fmt.Errorf("cloth: index count %d is not a positive multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("cloth: index %d at position %d out of range [0, %d)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// ComputeNormals writes area-weighted vertex normals for positions into
// normals, which must have the same length.
func ComputeNormals(positions []rl.Vector3, indices []int, normals []rl.Vector3) {
	for i := range normals {
		normals[i] = rl.Vector3Zero()
	}
	for i := 0; i+2 < len(indices); i += 3 {
		i1, i2, i3 := indices[i], indices[i+1], indices[i+2]
		p1 := positions[i1]
		n := rl.Vector3CrossProduct(rl.Vector3Subtract(positions[i2], p1), rl.Vector3Subtract(positions[i3], p1))
		normals[i1] = rl.Vector3Add(normals[i1], n)
		normals[i2] = rl.Vector3Add(normals[i2], n)
		normals[i3] = rl.Vector3Add(normals[i3], n)
	}
	for i := range normals {
		normals[i] = rl.Vector3Normalize(normals[i])
	}
}
