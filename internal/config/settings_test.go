package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())
	assert.InDelta(t, 1.0/120.0, p.SubstepTime(), 1e-7)
}

func TestParseOverridesDefaults(t *testing.T) {
	p, err := Parse(`
numSubsteps = 5
friction = 0.4
enableSelfCollision = false
gravity = { x = 0.0, y = -1.5, z = 2.0 }
`)
	require.NoError(t, err)

	assert.Equal(t, 5, p.NumSubsteps)
	assert.InDelta(t, 0.4, p.Friction, 1e-6)
	assert.False(t, p.EnableSelfCollision)
	assert.InDelta(t, -1.5, p.Gravity.Y, 1e-6)
	assert.InDelta(t, 2.0, p.Gravity.Z, 1e-6)

	// untouched keys keep their defaults
	assert.Equal(t, Default().NumIterations, p.NumIterations)
	assert.Equal(t, Default().InterleavedHash, p.InterleavedHash)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.toml")
	require.NoError(t, os.WriteFile(path, []byte("damping = 0.75\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, p.Damping, 1e-6)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseRejectsBadDocument(t *testing.T) {
	_, err := Parse("numSubsteps = \"two\"")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(p *SimParams){
		"zero dt":           func(p *SimParams) { p.FixedDeltaTime = 0 },
		"no substeps":       func(p *SimParams) { p.NumSubsteps = 0 },
		"negative iters":    func(p *SimParams) { p.NumIterations = -1 },
		"zero interleave":   func(p *SimParams) { p.InterleavedHash = 0 },
		"friction above 1":  func(p *SimParams) { p.Friction = 1.5 },
		"negative damping":  func(p *SimParams) { p.Damping = -0.1 },
		"negative bend":     func(p *SimParams) { p.BendCompliance = -1 },
		"zero hash scalar":  func(p *SimParams) { p.HashCellSizeScalar = 0 },
		"zero diam scalar":  func(p *SimParams) { p.ParticleDiameterScalar = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := Default()
			mutate(p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	p := Default()
	p.NumIterations = 9
	p.CollisionMargin = 0.02

	doc, err := p.Encode()
	require.NoError(t, err)

	back, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, 9, back.NumIterations)
	assert.InDelta(t, 0.02, back.CollisionMargin, 1e-6)
	assert.InDelta(t, p.Gravity.Y, back.Gravity.Y, 1e-6)
}

func TestBundledConfigMatchesDefaults(t *testing.T) {
	p, err := Load(filepath.Join("..", "..", "assets", "config", "sim.toml"))
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	d := Default()
	assert.InDelta(t, d.FixedDeltaTime, p.FixedDeltaTime, 1e-7)
	assert.Equal(t, d.Gravity, p.Gravity)
	assert.Equal(t, d.NumSubsteps, p.NumSubsteps)
	assert.Equal(t, d.NumIterations, p.NumIterations)
	assert.Equal(t, d.InterleavedHash, p.InterleavedHash)
	assert.Equal(t, d.EnableSelfCollision, p.EnableSelfCollision)
	assert.InDelta(t, d.BendCompliance, p.BendCompliance, 1e-6)
}
