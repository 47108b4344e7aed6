// Package config holds the simulation parameters shared by the solver, the
// viewer panel and the command-line tools.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// SimParams are the tunables read by the cloth solver on every tick.
// The solver keeps a pointer to one value, so edits made between ticks
// (for example from the viewer sliders) apply on the next tick.
type SimParams struct {
	FixedDeltaTime float32    `toml:"fixedDeltaTime"` // seconds per fixed tick
	Gravity        rl.Vector3 `toml:"gravity"`

	NumSubsteps   int `toml:"numSubsteps"`
	NumIterations int `toml:"numIterations"`

	Friction       float32 `toml:"friction"` // 0..1
	Damping        float32 `toml:"damping"`
	BendCompliance float32 `toml:"bendCompliance"`

	CollisionMargin        float32 `toml:"collisionMargin"`
	HashCellSizeScalar     float32 `toml:"hashCellSizeScalar"`
	ParticleDiameterScalar float32 `toml:"particleDiameterScalar"`

	EnableSelfCollision bool `toml:"enableSelfCollision"`
	InterleavedHash     int  `toml:"interleavedHash"` // rebuild the hash every N substeps

	MaxSpeed float32 `toml:"maxSpeed"` // advisory, only logged
}

// Default returns the parameters the demo scenes are tuned for.
func Default() *SimParams {
	return &SimParams{
		FixedDeltaTime:         1.0 / 60.0,
		Gravity:                rl.Vector3{X: 0, Y: -9.8, Z: 0},
		NumSubsteps:            2,
		NumIterations:          4,
		Friction:               0.1,
		Damping:                0.3,
		BendCompliance:         10.0,
		CollisionMargin:        0.06,
		HashCellSizeScalar:     1.5,
		ParticleDiameterScalar: 1.5,
		EnableSelfCollision:    true,
		InterleavedHash:        3,
		MaxSpeed:               50.0,
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*SimParams, error) {
	params := Default()
	if _, err := toml.DecodeFile(path, params); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return params, nil
}

// Parse is Load for an in-memory document.
func Parse(data string) (*SimParams, error) {
	params := Default()
	if _, err := toml.Decode(data, params); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return params, nil
}

// SubstepTime is the duration of one substep.
func (p *SimParams) SubstepTime() float32 {
	return p.FixedDeltaTime / float32(p.NumSubsteps)
}

// Validate reports values the solver treats as caller errors. The solver
// never calls this itself; it is checked once where parameters enter the
// program.
func (p *SimParams) Validate() error {
	switch {
	case p.FixedDeltaTime <= 0:
		return fmt.Errorf("config: fixedDeltaTime must be positive, got %v", p.FixedDeltaTime)
	case p.NumSubsteps < 1:
		return fmt.Errorf("config: numSubsteps must be at least 1, got %d", p.NumSubsteps)
	case p.NumIterations < 0:
		return fmt.Errorf("config: numIterations must not be negative, got %d", p.NumIterations)
	case p.InterleavedHash < 1:
		return fmt.Errorf("config: interleavedHash must be at least 1, got %d", p.InterleavedHash)
	case p.Friction < 0 || p.Friction > 1:
		return fmt.Errorf("config: friction must be within [0, 1], got %v", p.Friction)
	case p.Damping < 0:
		return fmt.Errorf("config: damping must not be negative, got %v", p.Damping)
	case p.BendCompliance < 0:
		return fmt.Errorf("config: bendCompliance must not be negative, got %v", p.BendCompliance)
	case p.HashCellSizeScalar <= 0 || p.ParticleDiameterScalar <= 0:
		return fmt.Errorf("config: hash and diameter scalars must be positive")
	}
	return nil
}

// Encode renders the parameters as TOML, used by the viewer to persist tuning.
func (p *SimParams) Encode() (string, error) {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return "", fmt.Errorf("config: encode: %w", err)
	}
	return buf.String(), nil
}
