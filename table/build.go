package table

import (
	"gonum.org/v1/gonum/floats"

	afm "github.com/junechem/afmtogmx"
)

// Options controls nonbonded table generation. The zero value generates
// tables for every pair of every molecule on the default grid, with no
// scaling.
type Options struct {
	Grid             Grid                  //zero means DefNonbonded
	InclMol          []string              //restrict to the types of these molecules
	ExclInteractions []string              //term labels, exactly as in the .off file, to drop
	ExclPairs        []afm.Pair            //pairs to omit entirely (no table at all)
	SpecialPairs     map[afm.Pair][]string //per-pair override of the attractive labels
	ScaleC6          bool                  //dispersion scaling of the attractive columns
	SCSigma          float64               //soft-core sigma for the evaluation distance, 0 = off
	HFESigma         float64               //sc-sigma repulsive column scale, 0 = off
	WriteBlanks      bool                  //emit all-zero tables for pairs left with no terms
	Origin           OriginPolicy
	Policy           *Policy //nil means DefaultPolicy
}

// A Table is the tabulated potential of one nonbonded pair: the distance
// column and a (value, -dU/dr) pair for Coulomb, attractive and
// repulsive. All seven slices have the same length. The caller owns it.
type Table struct {
	X          []float64
	CouV, CouF []float64
	AttV, AttF []float64
	RepV, RepF []float64
}

func (T *Table) Rows() int { return len(T.X) }

func newTable(x []float64) *Table {
	n := len(x)
	return &Table{X: x,
		CouV: make([]float64, n), CouF: make([]float64, n),
		AttV: make([]float64, n), AttF: make([]float64, n),
		RepV: make([]float64, n), RepF: make([]float64, n),
	}
}

// Report carries the diagnostic counters of one generation run.
type Report struct {
	Pairs  int //tables generated, blanks included
	Blanks int //pairs emitted with all-zero payload
	Terms  int //interaction terms summed
	Tables int //bonded tables generated
}

// Nonbonded generates one table per included, non-excluded atom-type
// pair of the force field. It fails before generating anything if the
// options are inconsistent (more than one attractive term with ScaleC6,
// or ScaleC6 together with SpecialPairs) or if a term is unknown or
// malformed, so a run never leaves a partially scaled table set behind.
func Nonbonded(F *afm.FF, o *Options) (map[afm.Pair]*Table, *Report, error) {
	if F == nil {
		panic(afm.ErrNilFF)
	}
	if o == nil {
		o = &Options{}
	}
	policy := o.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	G := o.Grid
	if G.Spacing == 0 {
		G = DefNonbonded
	}
	filtered, order, err := filterNonbonded(F, o)
	if err != nil {
		return nil, nil, err
	}
	if err := preflight(filtered, order, o, policy); err != nil {
		return nil, nil, err
	}
	rep := new(Report)
	ret := make(map[afm.Pair]*Table, len(order))
	for _, pair := range order {
		T, nterms, err := buildPair(pair, filtered[pair], G, o, policy)
		if err != nil {
			return nil, nil, errDecorate(err, "Nonbonded")
		}
		ret[pair] = T
		rep.Pairs++
		rep.Terms += nterms
		if nterms == 0 {
			rep.Blanks++
		}
	}
	return ret, rep, nil
}

// filterNonbonded applies the inclusion/exclusion filters and the label
// normalization, before any numeric work. Coulomb terms never reach the
// attractive/repulsive slots so they are dropped here too. Two terms
// with the same normalized label on one pair is a data error in the
// fitted parameters.
func filterNonbonded(F *afm.FF, o *Options) (map[afm.Pair][]*afm.Term, []afm.Pair, error) {
	incl := make(map[string]bool)
	for _, at := range F.IncludedTypes(o.InclMol) {
		incl[at] = true
	}
	excluded := func(p afm.Pair) bool {
		for _, e := range o.ExclPairs {
			if afm.NewPair(e[0], e[1]) == p {
				return true
			}
		}
		return false
	}
	ret := make(map[afm.Pair][]*afm.Term)
	order := []afm.Pair{}
	for _, pair := range F.Pairs() {
		if excluded(pair) || !incl[pair[0]] || !incl[pair[1]] {
			continue
		}
		kept := []*afm.Term{}
		seen := make(map[string]bool)
		hadAny := false
		for _, t := range F.Nonbonded[pair] {
			hadAny = true
			if t.Family() == "COU" || hasString(o.ExclInteractions, t.Label) {
				continue
			}
			norm := t.Normalized()
			if seen[norm] {
				return nil, nil, afm.NewError("filterNonbonded",
					"pair %s carries two %s terms; the fitted parameters are inconsistent", pair, norm)
			}
			seen[norm] = true
			kept = append(kept, t)
		}
		if !hadAny {
			continue
		}
		if len(kept) == 0 && !o.WriteBlanks {
			continue
		}
		ret[pair] = kept
		order = append(order, pair)
	}
	return ret, order, nil
}

// preflight is the whole-model validation that runs before any table is
// built, so a misconfigured run fails atomically.
func preflight(filtered map[afm.Pair][]*afm.Term, order []afm.Pair, o *Options, policy *Policy) error {
	if !o.ScaleC6 {
		return nil
	}
	if len(o.SpecialPairs) > 0 {
		return afm.NewError("preflight",
			"special attractive pairs can't be combined with dispersion scaling; rerun with ScaleC6 off")
	}
	for _, pair := range order {
		c := classify(pair, filtered[pair], nil, policy)
		if n := c.nAttractive(); n > 1 {
			return afm.NewError("preflight",
				"pair %s has %d attractive terms; dispersion scaling needs exactly one. Keep one of %s, or assign roles with SpecialPairs and ScaleC6 off",
				pair, n, policy.Labels())
		}
	}
	return nil
}

// buildPair evaluates and sums the classified terms of one pair over the
// grid. The x column is the true grid; evaluation happens on the
// origin-corrected, optionally soft-cored copy.
func buildPair(pair afm.Pair, terms []*afm.Term, G Grid, o *Options, policy *Policy) (*Table, int, error) {
	x := G.X()
	cx := G.evalX(o.Origin, o.SCSigma)
	T := newTable(x)
	c := classify(pair, terms, o.SpecialPairs[pair], policy)
	n := 0
	accumulate := func(ev evalFunc, potCol, forceCol []float64) {
		pot := make([]float64, len(cx))
		force := make([]float64, len(cx))
		for i, r := range cx {
			pot[i], force[i] = ev(r)
		}
		floats.Add(potCol, pot)
		floats.Add(forceCol, force)
	}
	for _, t := range c.repulsive {
		if t.Zero() {
			continue
		}
		ev, err := evaluator(t)
		if err != nil {
			return nil, 0, errDecorate(err, "buildPair "+pair.String())
		}
		accumulate(ev, T.RepV, T.RepF)
		n++
	}
	for _, t := range c.attractive {
		if t.Zero() {
			continue
		}
		ev, err := evaluator(t)
		if err != nil {
			return nil, 0, errDecorate(err, "buildPair "+pair.String())
		}
		accumulate(ev, T.AttV, T.AttF)
		n++
	}
	for _, t := range c.buckingham {
		if t.Zero() {
			continue
		}
		if len(t.Params) < 3 {
			return nil, 0, afm.NewError("buildPair",
				"pair %s: Buckingham term %s needs 3 coefficients, got %d", pair, t.Label, len(t.Params))
		}
		//A*exp(-B*r) goes to the repulsive slot, the r^-6 part to the
		//attractive one, each with its own unit conversion.
		a, cdisp, b := t.Params[0], t.Params[1], t.Params[2]
		ae, be := afm.Kcal2KJ*a, afm.Nm2Ang*b
		accumulate(func(r float64) (float64, float64) { return Exp(ae, be, r) }, T.RepV, T.RepF)
		ap := afm.PowAmplitude(cdisp, 6)
		accumulate(func(r float64) (float64, float64) { return Pow(ap, -6, r) }, T.AttV, T.AttF)
		n++
	}
	c6 := c.attractiveAmplitude()
	if o.ScaleC6 {
		scaleDispersion(T.AttV, T.AttF, c6)
	}
	if o.HFESigma > 0 {
		scaleRepulsive(T.RepV, T.RepF, c6, o.HFESigma)
	}
	return T, n, nil
}

func errDecorate(err error, caller string) error {
	err2 := err.(afm.Error)
	err2.Decorate(caller)
	return err2
}
