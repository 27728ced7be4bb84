package table

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

//The two numeric transforms applied after summation, plus the soft-core
//distance remap used during evaluation. None of them can fail for real
//input; misconfigurations are caught by the pre-flight check in build.go
//before any table is touched.

// SoftCore remaps an evaluation distance for free-energy calculations.
// Below sigma the distance is lifted smoothly away from zero,
//
//	rsc(r) = sigma*exp(r/sigma - 1)    r < sigma
//	rsc(r) = r                         r >= sigma
//
// so rsc(0)=sigma/e and potentials stay finite at the lambda endpoints.
// The remap is strictly increasing, C1 at the switch, and the identity
// for every r >= sigma, so enabling it leaves the long-range part of a
// table bit-for-bit unchanged. sigma=0 is the identity everywhere.
func SoftCore(r, sigma float64) float64 {
	if sigma <= 0 || r >= sigma {
		return r
	}
	return sigma * math.Exp(r/sigma-1)
}

// scaleDispersion divides the attractive columns by the attractive
// term's own coefficient, so the stored shape is unit-normalized and
// Gromacs can reapply the real C6 through its dispersion correction. A
// zero amplitude (all-zero attractive term) leaves the columns, which
// are then all zero anyway, alone.
func scaleDispersion(attV, attF []float64, c6 float64) {
	if c6 == 0 {
		return
	}
	floats.Scale(1/c6, attV)
	floats.Scale(1/c6, attF)
}

// scaleRepulsive applies the hydration-free-energy scale to the
// repulsive columns: 1/(|C6|*sigma^6), the factor that makes the
// sc-sigma machinery of grompp see a unit C12. The magnitude of the
// dispersion coefficient is what nonbond_params carries, so the scale
// is positive even though fitted attractive amplitudes are negative.
// Pairs without a dispersion coefficient are left alone.
func scaleRepulsive(repV, repF []float64, c6, sigma float64) {
	if c6 == 0 || sigma <= 0 {
		return
	}
	s := 1 / (math.Abs(c6) * math.Pow(sigma, 6))
	floats.Scale(s, repV)
	floats.Scale(s, repF)
}
