package afm

import (
	"math"
	"sort"
)

//Charge derivation. The fitting tool stores Coulomb prefactors q_i*q_j
//per pair, not per-atom charges, so the per-atom values have to be backed
//out from one known atom (either with a given charge, like the BLYPSP-4F
//proton, or from the sign of its self interaction) and then each molecule
//neutralized.

// ChargeOptions controls CalcCharges. Either KnownCharge or Sign must be
// given together with KnownAtom. Tolerance defaults to 1e-5 and
// Normalization to MPopulous.
type ChargeOptions struct {
	KnownAtom     string
	KnownCharge   float64
	Sign          string //"+" or "-", used when KnownCharge is zero
	Normalization string
	Tolerance     float64
}

// MPopulous is the only normalization currently supported: the excess
// charge of a molecule is subtracted, split evenly, from its most
// populous atom type with a nonzero charge.
const MPopulous = "M-POPULOUS"

// CalcCharges fills F.Charges from the fitted Coulomb prefactors.
func (F *FF) CalcCharges(o *ChargeOptions) error {
	if o == nil || o.KnownAtom == "" {
		return NewError("CalcCharges", "a known atom is required to derive charges")
	}
	known := o.KnownCharge
	if known == 0 {
		var err error
		known, err = F.knownAtomCharge(o.KnownAtom, o.Sign)
		if err != nil {
			return errDecorate(err, "CalcCharges")
		}
	}
	derived := map[string]float64{o.KnownAtom: known}
	for pair, terms := range F.Nonbonded {
		if pair[0] != o.KnownAtom && pair[1] != o.KnownAtom {
			continue
		}
		if pair[0] == pair[1] {
			continue
		}
		for _, t := range terms {
			if t.Family() != "COU" || len(t.Params) == 0 {
				continue
			}
			other := pair[0]
			if other == o.KnownAtom {
				other = pair[1]
			}
			derived[other] = t.Params[0] / known
		}
	}
	for mol, atoms := range F.Charges {
		for at := range atoms {
			if q, ok := derived[at]; ok {
				F.Charges[mol][at] = q
			}
		}
	}
	tol := o.Tolerance
	if tol == 0 {
		tol = 1e-5
	}
	norm := o.Normalization
	if norm == "" {
		norm = MPopulous
	}
	return F.normalizeCharges(norm, tol)
}

// knownAtomCharge derives the charge of an atom from its self Coulomb
// prefactor, q^2, with the given sign.
func (F *FF) knownAtomCharge(atom, sign string) (float64, error) {
	terms, ok := F.Nonbonded[NewPair(atom, atom)]
	if !ok {
		return 0, NewError("knownAtomCharge", "atom %s has no self Coulomb interaction in the off file", atom)
	}
	var q2 float64
	found := false
	for _, t := range terms {
		if t.Family() == "COU" && len(t.Params) > 0 {
			q2 = t.Params[0]
			found = true
			break
		}
	}
	if !found || q2 == 0 {
		return 0, NewError("knownAtomCharge", "atom %s needs a nonzero self Coulomb prefactor", atom)
	}
	switch sign {
	case "+":
		return math.Sqrt(q2), nil
	case "-":
		return -math.Sqrt(q2), nil
	}
	return 0, NewError("knownAtomCharge", "sign for atom %s must be \"+\" or \"-\", got %q", atom, sign)
}

// normalizeCharges neutralizes every molecule whose leftover charge is
// above the tolerance.
func (F *FF) normalizeCharges(method string, tol float64) error {
	if method != MPopulous {
		return NewError("normalizeCharges", "unsupported normalization method %q", method)
	}
	for _, m := range F.mols {
		counts := make(map[string]int)
		total := 0.0
		for _, at := range m.Atoms {
			if at.Cou == NetForce || at.Cou == Torque {
				continue
			}
			counts[at.Cou]++
			total += F.Charges[m.Name][at.Cou]
		}
		if math.Abs(total) <= tol {
			continue
		}
		//most populous first, ties broken by name so the result is stable
		names := make([]string, 0, len(counts))
		for k := range counts {
			names = append(names, k)
		}
		sort.Slice(names, func(i, j int) bool {
			if counts[names[i]] != counts[names[j]] {
				return counts[names[i]] > counts[names[j]]
			}
			return names[i] < names[j]
		})
		for _, at := range names {
			if F.Charges[m.Name][at] == 0 {
				continue
			}
			F.Charges[m.Name][at] -= total / float64(counts[at])
			break
		}
	}
	return nil
}
