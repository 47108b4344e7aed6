package physics

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Large primes mixing grid coordinates into a table index. Distinct cells may
// land in the same bucket; that only adds candidates, the distance test
// filters them.
const (
	hashPrimeX int32 = 92837111
	hashPrimeY int32 = 689287499
	hashPrimeZ int32 = 283923481
)

// SpatialHash buckets a moving point set into a uniform grid through a hashed
// table of size 2n and caches, per point, the other points within one cell
// spacing. The table is rebuilt from scratch with a counting sort on every
// Rebuild; nothing is updated incrementally.
type SpatialHash struct {
	spacing   float32
	tableSize int

	cellStart   []int // tableSize+1 offsets into cellEntries
	cellEntries []int // point ids grouped by bucket
	neighbors   [][]int

	initial []rl.Vector3
}

// NewSpatialHash sizes the table for n points. The cell spacing is the
// particle diameter scaled by cellSizeScalar.
func NewSpatialHash(particleDiameter, cellSizeScalar float32, n int) *SpatialHash {
	tableSize := 2 * n
	if tableSize < 1 {
		tableSize = 1
	}
	return &SpatialHash{
		spacing:     particleDiameter * cellSizeScalar,
		tableSize:   tableSize,
		cellStart:   make([]int, tableSize+1),
		cellEntries: make([]int, n),
		neighbors:   make([][]int, n),
	}
}

func (h *SpatialHash) Spacing() float32 { return h.spacing }

func (h *SpatialHash) TableSize() int { return h.tableSize }

// SetInitialPositions records the rest configuration. Points closer than one
// spacing at rest are never reported as neighbors of each other.
func (h *SpatialHash) SetInitialPositions(positions []rl.Vector3) {
	h.initial = append(h.initial[:0], positions...)
}

// Rebuild re-partitions all points and refreshes every neighbor list.
func (h *SpatialHash) Rebuild(positions []rl.Vector3) {
	for i := range h.cellStart {
		h.cellStart[i] = 0
	}

	// count points per bucket
	for _, p := range positions {
		h.cellStart[h.hashPosition(p)]++
	}

	// prefix sum: cellStart[b] becomes the end of bucket b
	start := 0
	for b := 0; b < h.tableSize; b++ {
		start += h.cellStart[b]
		h.cellStart[b] = start
	}
	h.cellStart[h.tableSize] = start

	// scatter, walking each bucket end back to its start
	for i, p := range positions {
		b := h.hashPosition(p)
		h.cellStart[b]--
		h.cellEntries[h.cellStart[b]] = i
	}

	for i := range positions {
		h.neighbors[i] = h.query(positions, i, h.neighbors[i][:0])
	}
}

// Neighbors returns the candidates cached for point i by the last Rebuild.
// The slice is owned by the hash and overwritten on the next Rebuild.
func (h *SpatialHash) Neighbors(i int) []int {
	return h.neighbors[i]
}

func (h *SpatialHash) query(positions []rl.Vector3, id int, result []int) []int {
	position := positions[id]
	rest := h.initial[id]

	ix := h.intCoord(position.X)
	iy := h.intCoord(position.Y)
	iz := h.intCoord(position.Z)

	var visited [27]int
	numVisited := 0

	for x := ix - 1; x <= ix+1; x++ {
		for y := iy - 1; y <= iy+1; y++ {
			for z := iz - 1; z <= iz+1; z++ {
				b := h.hashCoords(x, y, z)
				if containsBucket(visited[:numVisited], b) {
					continue
				}
				visited[numVisited] = b
				numVisited++

				for _, neighbor := range h.cellEntries[h.cellStart[b]:h.cellStart[b+1]] {
					if neighbor == id {
						continue
					}
					// pairs that started in contact (adjacent vertices, seams) never collide
					if rl.Vector3Distance(position, positions[neighbor]) < h.spacing &&
						rl.Vector3Distance(rest, h.initial[neighbor]) > h.spacing {
						result = append(result, neighbor)
					}
				}
			}
		}
	}
	return result
}

func containsBucket(buckets []int, b int) bool {
	for _, v := range buckets {
		if v == b {
			return true
		}
	}
	return false
}

func (h *SpatialHash) intCoord(v float32) int32 {
	return int32(math.Floor(float64(v / h.spacing)))
}

func (h *SpatialHash) hashCoords(x, y, z int32) int {
	// int32 arithmetic wraps on overflow, which is what the mixing relies on
	v := (x * hashPrimeX) ^ (y * hashPrimeY) ^ (z * hashPrimeZ)
	b := int(v) % h.tableSize
	if b < 0 {
		b = -b
	}
	return b
}

func (h *SpatialHash) hashPosition(p rl.Vector3) int {
	return h.hashCoords(h.intCoord(p.X), h.intCoord(p.Y), h.intCoord(p.Z))
}
