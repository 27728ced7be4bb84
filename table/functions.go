package table

import (
	"math"

	afm "github.com/junechem/afmtogmx"
)

//The interaction-function library. Every evaluator is a pure function
//from one distance (or internal coordinate) to a (potential, force)
//pair, with force = -dU/dr. No unit conversion happens here: the
//evaluators take whatever units they are given, and the dispatch in
//evaluator() converts from the fitting tool's kcal/Angstrom units to
//kJ/nm before building the closures.

// Exp is a pure exponential repulsion a*exp(-alpha*r).
func Exp(a, alpha, r float64) (float64, float64) {
	pot := a * math.Exp(-alpha*r)
	return pot, alpha * pot
}

// Pow is a power law a*r^p, with p negative for the usual r^-n walls.
// At exactly r=0 with a negative p the finite limit of the attractive
// convention (0) is returned rather than an infinity; the builder's
// origin policy normally keeps r=0 from ever getting here.
func Pow(a, p, r float64) (float64, float64) {
	if r == 0 && p < 0 {
		return 0, 0
	}
	pot := a * math.Pow(r, p)
	return pot, -a * p * math.Pow(r, p-1)
}

// SRD is a rationally damped power law a/(r^n + d^n), finite at the
// origin for d>0.
func SRD(a, n, d, r float64) (float64, float64) {
	n = math.Abs(n)
	den := math.Pow(r, n) + math.Pow(d, n)
	pot := a / den
	if r == 0 || den == 0 {
		return pot, 0
	}
	force := a * n * math.Pow(r, n) / (r * den * den)
	return pot, force
}

// PEX is an exponentially screened power law a*exp(-d*r)*r^-n.
func PEX(a, n, d, r float64) (float64, float64) {
	n = math.Abs(n)
	if r == 0 {
		return 0, 0
	}
	pot := a * math.Exp(-d*r) * math.Pow(r, -n)
	return pot, pot * (d + n/r)
}

// DPO is a damped power law a*((1-exp(-d*r))/r)^n, which tends to a*d^n
// at the origin instead of diverging.
func DPO(a, n, d, r float64) (float64, float64) {
	n = math.Abs(n)
	if r == 0 {
		return a * math.Pow(d, n), 0
	}
	g := (1 - math.Exp(-d*r)) / r
	gp := (d*math.Exp(-d*r)*r - (1 - math.Exp(-d*r))) / (r * r)
	pot := a * math.Pow(g, n)
	return pot, -a * n * math.Pow(g, n-1) * gp
}

// ShiftedPower is the STR form: a shifted, truncated r^-p repulsion that
// reaches zero with zero force at the cutoff rc and stays zero beyond.
func ShiftedPower(a, p, rc, r float64) (float64, float64) {
	if r > rc {
		r = rc
	}
	if r == 0 {
		return 0, 0
	}
	pot := a * (math.Pow(r, -p) - math.Pow(rc, -p) + p*(r-rc)/math.Pow(rc, p+1))
	force := -a * p * (-math.Pow(r, -(p+1)) + math.Pow(rc, -(p+1)))
	return pot, force
}

// Tanh is the THC switching form a*(1-tanh(b*(r-r0))).
func Tanh(a, b, r0, r float64) (float64, float64) {
	t := math.Tanh(b * (r - r0))
	return a * (1 - t), a * b * (1 - t*t)
}

// Buck is the full Buckingham form a*exp(-b*r) + c*r^-6, with c keeping
// the sign it is stored with, negative for the usual attractive well.
// The table builder never calls it directly: it splits the term into
// its exponential (repulsive slot) and r^-6 (attractive slot) parts so
// each lands in its own columns.
func Buck(a, b, c, r float64) (float64, float64) {
	ep, ef := Exp(a, b, r)
	pp, pf := Pow(c, -6, r)
	return ep + pp, ef + pf
}

// QuarticBond is the bonded restraint (k2/2)(r-r0)^2 + (k3/3)(r-r0)^3 +
// (k4/4)(r-r0)^4.
func QuarticBond(r0, k2, k3, k4, r float64) (float64, float64) {
	d := r - r0
	pot := k2/2*d*d + k3/3*d*d*d + k4/4*d*d*d*d
	force := -(k2*d + k3*d*d + k4*d*d*d)
	return pot, force
}

// evalFunc evaluates one term at one (already remapped) distance.
type evalFunc func(r float64) (pot, force float64)

// evaluator converts the term's coefficients to kJ/nm units and returns
// the closure that evaluates it, for the families that occupy a single
// role. BUC is handled separately by the builder. An unknown family is a
// fatal input error; the pair is added to the message by the caller.
func evaluator(t *afm.Term) (evalFunc, error) {
	p := t.Params
	need := func(n int) error {
		if len(p) < n {
			return afm.NewError("evaluator", "term %s needs %d coefficients, got %d", t.Label, n, len(p))
		}
		return nil
	}
	switch t.Family() {
	case "EXP":
		if err := need(2); err != nil {
			return nil, err
		}
		a, alpha := afm.Kcal2KJ*p[0], afm.Nm2Ang*p[1]
		return func(r float64) (float64, float64) { return Exp(a, alpha, r) }, nil
	case "STR":
		if err := need(3); err != nil {
			return nil, err
		}
		a, pw, rc := afm.PowAmplitude(p[0], p[1]), p[1], afm.Ang2Nm*p[2]
		return func(r float64) (float64, float64) { return ShiftedPower(a, pw, rc, r) }, nil
	case "POW":
		if err := need(2); err != nil {
			return nil, err
		}
		a, pw := afm.PowAmplitude(p[0], p[1]), p[1]
		return func(r float64) (float64, float64) { return Pow(a, pw, r) }, nil
	case "SRD":
		if err := need(3); err != nil {
			return nil, err
		}
		a, n, d := afm.PowAmplitude(p[0], p[1]), math.Abs(p[1]), afm.Ang2Nm*p[2]
		return func(r float64) (float64, float64) { return SRD(a, n, d, r) }, nil
	case "PEX":
		if err := need(3); err != nil {
			return nil, err
		}
		a, n, d := afm.PowAmplitude(p[0], p[1]), math.Abs(p[1]), afm.Nm2Ang*p[2]
		return func(r float64) (float64, float64) { return PEX(a, n, d, r) }, nil
	case "DPO":
		if err := need(3); err != nil {
			return nil, err
		}
		a, n, d := afm.PowAmplitude(p[0], p[1]), math.Abs(p[1]), afm.Nm2Ang*p[2]
		return func(r float64) (float64, float64) { return DPO(a, n, d, r) }, nil
	case "THC":
		if err := need(3); err != nil {
			return nil, err
		}
		a, b, r0 := afm.Kcal2KJ*p[0], afm.Nm2Ang*p[1], afm.Ang2Nm*p[2]
		return func(r float64) (float64, float64) { return Tanh(a, b, r0, r) }, nil
	}
	return nil, afm.NewError("evaluator", "interaction type %s is not in the function library", t.Label)
}
