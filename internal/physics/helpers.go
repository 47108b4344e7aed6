package physics

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Epsilon guards divisions by lengths that may collapse to zero.
const Epsilon = 1e-6

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// sign returns -1, 0 or 1.
func sign(x float32) float32 {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

func copysign(mag, s float32) float32 {
	return float32(math.Copysign(float64(mag), float64(s)))
}

func isZero(v rl.Vector3) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// transformDirection applies only the linear part of m (w = 0).
func transformDirection(v rl.Vector3, m rl.Matrix) rl.Vector3 {
	return rl.Vector3{
		X: m.M0*v.X + m.M4*v.Y + m.M8*v.Z,
		Y: m.M1*v.X + m.M5*v.Y + m.M9*v.Z,
		Z: m.M2*v.X + m.M6*v.Y + m.M10*v.Z,
	}
}

// Friction returns the displacement that cancels the part of relativeVelocity
// tangential to correction, limited to |correction| * coefficient.
// relativeVelocity is a per-step displacement, not a rate.
func Friction(correction, relativeVelocity rl.Vector3, coefficient float32) rl.Vector3 {
	correctionLength := rl.Vector3Length(correction)
	if coefficient <= 0 || correctionLength <= 0 {
		return rl.Vector3Zero()
	}
	n := rl.Vector3Scale(correction, 1/correctionLength)
	tangential := rl.Vector3Subtract(relativeVelocity, rl.Vector3Scale(n, rl.Vector3DotProduct(relativeVelocity, n)))
	tangentialLength := rl.Vector3Length(tangential)
	if tangentialLength <= 0 {
		return rl.Vector3Zero()
	}
	maxTangential := correctionLength * coefficient
	scale := float32(1)
	if maxTangential < tangentialLength {
		scale = maxTangential / tangentialLength
	}
	return rl.Vector3Scale(tangential, -scale)
}

// IsFinite reports whether every component of v is a real number.
func IsFinite(v rl.Vector3) bool {
	for _, c := range [3]float32{v.X, v.Y, v.Z} {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
