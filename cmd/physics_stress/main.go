// Stress test comparing spatial hash vs brute-force self-collision neighbor search
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"velvet/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func main() {
	diameter := flag.Float64("diameter", 0.05, "particle diameter")
	scalar := flag.Float64("cell-scalar", 1.5, "hash cell size as a multiple of the diameter")
	flag.Parse()

	// Test various particle counts
	testCounts := []int{100, 500, 1000, 2000, 5000, 10000, 20000}

	for _, count := range testCounts {
		testNeighborSearch(count, float32(*diameter), float32(*scalar))
	}
}

func testNeighborSearch(count int, diameter, scalar float32) {
	rng := rand.New(rand.NewSource(42)) // Consistent results

	// Rest positions on a sheet, current positions crumpled into a box so
	// layers overlap. Box size scales with count to keep density reasonable.
	side := int(float32(count)/2) + 1
	spawnSize := float32(1.0) + float32(count)/5000.0

	rest := make([]rl.Vector3, count)
	current := make([]rl.Vector3, count)
	for i := range rest {
		rest[i] = rl.Vector3{X: float32(i%side) * diameter, Z: float32(i/side) * diameter}
		current[i] = rl.Vector3{
			X: rng.Float32() * spawnSize,
			Y: rng.Float32() * spawnSize,
			Z: rng.Float32() * spawnSize,
		}
	}

	h := physics.NewSpatialHash(diameter, scalar, count)
	h.SetInitialPositions(rest)

	// Warm up
	h.Rebuild(current)

	// Time hash
	hashStart := time.Now()
	const hashIterations = 10
	var hashPairs int
	for i := 0; i < hashIterations; i++ {
		h.Rebuild(current)
		hashPairs = 0
		for p := 0; p < count; p++ {
			hashPairs += len(h.Neighbors(p))
		}
	}
	hashTime := time.Since(hashStart) / hashIterations

	// Time brute force (naive O(n²))
	spacing := h.Spacing()
	bruteStart := time.Now()
	const bruteIterations = 3
	var brutePairs int
	for iter := 0; iter < bruteIterations; iter++ {
		brutePairs = 0
		for i := 0; i < count; i++ {
			for j := 0; j < count; j++ {
				if i == j {
					continue
				}
				if rl.Vector3Distance(current[i], current[j]) < spacing &&
					rl.Vector3Distance(rest[i], rest[j]) > spacing {
					brutePairs++
				}
			}
		}
	}
	bruteTime := time.Since(bruteStart) / bruteIterations

	speedup := float64(bruteTime) / float64(hashTime)

	fmt.Printf("%5d particles: hash %8v (%5d pairs) | brute %10v (%5d pairs) | %.1fx speedup\n",
		count, hashTime.Round(time.Microsecond), hashPairs,
		bruteTime.Round(time.Microsecond), brutePairs, speedup)
}
