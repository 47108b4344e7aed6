package physics

import (
	"math/rand"
	"slices"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linePoints(n int, step float32) []rl.Vector3 {
	points := make([]rl.Vector3, n)
	for i := range points {
		points[i] = rl.Vector3{X: float32(i) * step}
	}
	return points
}

func bruteForceNeighbors(positions, rest []rl.Vector3, spacing float32, id int) []int {
	var result []int
	for j := range positions {
		if j == id {
			continue
		}
		if rl.Vector3Distance(positions[id], positions[j]) < spacing &&
			rl.Vector3Distance(rest[id], rest[j]) > spacing {
			result = append(result, j)
		}
	}
	return result
}

func TestSpatialHashSizing(t *testing.T) {
	h := NewSpatialHash(0.1, 1.5, 50)
	assert.Equal(t, 100, h.TableSize())
	assert.InDelta(t, 0.15, h.Spacing(), 1e-6)
	assert.Len(t, h.cellStart, 101)
	assert.Len(t, h.cellEntries, 50)
}

func TestSpatialHashExcludesPointsInContactAtRest(t *testing.T) {
	rest := linePoints(4, 0.08)
	h := NewSpatialHash(0.1, 1.0, len(rest))
	h.SetInitialPositions(rest)

	// fold the line so every point sits on top of the others
	folded := []rl.Vector3{{}, {Y: 0.01}, {Y: 0.02}, {Y: 0.03}}
	h.Rebuild(folded)

	// 0 and 1 were 0.08 apart at rest, inside one spacing, so they never pair up
	assert.NotContains(t, h.Neighbors(0), 1)
	assert.NotContains(t, h.Neighbors(1), 0)
	// 0 and 2 were 0.16 apart at rest, so the fold brings them into contact
	assert.Contains(t, h.Neighbors(0), 2)
	assert.Contains(t, h.Neighbors(0), 3)
	assert.Contains(t, h.Neighbors(2), 0)
}

func TestSpatialHashFarPointsAreNotNeighbors(t *testing.T) {
	rest := linePoints(3, 10)
	h := NewSpatialHash(0.5, 1.0, len(rest))
	h.SetInitialPositions(rest)
	h.Rebuild(rest)

	for i := range rest {
		assert.Empty(t, h.Neighbors(i))
	}
}

func TestSpatialHashMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 300
	rest := make([]rl.Vector3, n)
	current := make([]rl.Vector3, n)
	for i := range rest {
		rest[i] = rl.Vector3{X: rng.Float32() * 4, Y: rng.Float32() * 4, Z: rng.Float32() * 4}
		current[i] = rl.Vector3{X: rng.Float32() * 2, Y: rng.Float32() * 2, Z: rng.Float32() * 2}
	}

	h := NewSpatialHash(0.2, 1.5, n)
	h.SetInitialPositions(rest)
	h.Rebuild(current)

	for i := 0; i < n; i++ {
		got := slices.Clone(h.Neighbors(i))
		slices.Sort(got)
		want := bruteForceNeighbors(current, rest, h.Spacing(), i)
		require.Equal(t, want, got, "neighbors of %d", i)
	}
}

func TestSpatialHashNegativeCoordinates(t *testing.T) {
	rest := []rl.Vector3{{X: -5}, {X: 5}}
	h := NewSpatialHash(0.2, 1.0, 2)
	h.SetInitialPositions(rest)

	h.Rebuild([]rl.Vector3{{X: -0.05, Y: -3, Z: -7}, {X: 0.05, Y: -3, Z: -7}})

	assert.Equal(t, []int{1}, h.Neighbors(0))
	assert.Equal(t, []int{0}, h.Neighbors(1))
}

func TestSpatialHashRebuildIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 120
	rest := make([]rl.Vector3, n)
	for i := range rest {
		rest[i] = rl.Vector3{X: rng.Float32() * 3, Y: rng.Float32(), Z: rng.Float32() * 3}
	}
	current := make([]rl.Vector3, n)
	for i := range current {
		current[i] = rl.Vector3Scale(rest[i], 0.5)
	}

	h := NewSpatialHash(0.1, 1.5, n)
	h.SetInitialPositions(rest)

	h.Rebuild(current)
	first := make([][]int, n)
	for i := range first {
		first[i] = slices.Clone(h.Neighbors(i))
	}

	h.Rebuild(current)
	for i := range first {
		assert.Equal(t, first[i], h.Neighbors(i), "neighbors of %d", i)
	}
}

func TestSpatialHashCountingSortCoversEveryPoint(t *testing.T) {
	points := linePoints(64, 0.05)
	h := NewSpatialHash(0.05, 1.0, len(points))
	h.SetInitialPositions(points)
	h.Rebuild(points)

	assert.Equal(t, 0, h.cellStart[0])
	assert.Equal(t, len(points), h.cellStart[h.TableSize()])

	seen := slices.Clone(h.cellEntries)
	slices.Sort(seen)
	for i, id := range seen {
		assert.Equal(t, i, id)
	}
}
