package table

import "math"

// A Grid is the uniform sampling of the independent variable of a table:
// points i*Spacing for i=0..Rows-1, covering [0, Length]. Units are nm
// for distances. The zero value is not usable; use one of the default
// grids or fill both fields.
type Grid struct {
	Spacing float64
	Length  float64
}

// Default grids, matching what Gromacs expects for nonbonded tables (3 nm
// at 0.5 pm) and what the tabulated bonds are fitted over.
var (
	DefNonbonded = Grid{Spacing: 0.0005, Length: 3.0}
	DefBonded    = Grid{Spacing: 0.0001, Length: 0.3}
	//the blank table Gromacs requires must reach 5 nm
	blankGrid = Grid{Spacing: 0.0005, Length: 5.0}
)

// Rows returns ceil(Length/Spacing)+1, i.e. both endpoints are included
// and the last row is at or beyond Length.
func (G Grid) Rows() int {
	if G.Spacing <= 0 || G.Length <= 0 {
		panic("table: grid needs positive spacing and length")
	}
	//the epsilon keeps exact multiples (1.0/0.002) from rounding up one
	//row too many from float noise.
	return int(math.Ceil(G.Length/G.Spacing-1e-9)) + 1
}

// X returns the grid points. Always a fresh slice.
func (G Grid) X() []float64 {
	n := G.Rows()
	ret := make([]float64, n)
	for i := 1; i < n; i++ {
		ret[i] = float64(i) * G.Spacing
	}
	return ret
}

// evalX returns the points evaluation actually happens at: the origin is
// replaced per the origin policy, and, with a soft-core sigma, every
// point is remapped by SoftCore. The output x column always stays the
// true grid.
func (G Grid) evalX(origin OriginPolicy, sigma float64) []float64 {
	x := G.X()
	switch origin {
	case OriginFirstPoint:
		if len(x) > 1 {
			x[0] = x[1]
		}
	case OriginZero:
		//leave it: families evaluated here must be regular at 0
	}
	if sigma > 0 {
		for i, v := range x {
			x[i] = SoftCore(v, sigma)
		}
	}
	return x
}

// OriginPolicy says what distance the r=0 row is evaluated at. The r^-n
// families diverge at the origin and Gromacs never reads the first rows
// of a table, but the file still must carry finite numbers there.
type OriginPolicy int

const (
	//evaluate the first row at r=Spacing, like the fitting tool does.
	OriginFirstPoint OriginPolicy = iota
	//evaluate at r=0. Only safe when every term of the run is regular
	//at the origin (bonded quartics, pure exponentials).
	OriginZero
)
