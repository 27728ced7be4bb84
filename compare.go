package afm

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Comparison of two fitted force fields, used to document what changed
//between fitting runs. Pure Coulomb terms are left out, as those encode
//charges, not potential shapes.

// cleanNonbonded returns pair -> normalized labels, with pure-Coulomb
// pairs dropped and names translated.
func cleanNonbonded(F *FF, trans map[string]string) map[Pair][]string {
	ret := make(map[Pair][]string)
	for pair, terms := range F.Nonbonded {
		labels := []string{}
		for _, t := range terms {
			if t.Family() == "COU" {
				continue
			}
			labels = append(labels, t.Normalized())
		}
		if len(labels) == 0 {
			continue
		}
		at1, at2 := pair.Translate(trans)
		sort.Strings(labels)
		ret[NewPair(at1, at2)] = labels
	}
	return ret
}

// DiffString returns a one-line description of the nonbonded terms
// removed from and added to base to obtain comp, suitable for a title.
func DiffString(base, comp *FF, trans map[string]string) string {
	cbase := cleanNonbonded(base, trans)
	ccomp := cleanNonbonded(comp, trans)
	var b strings.Builder
	b.WriteString("Base ")
	writeSide := func(from, to map[Pair][]string, verb string) {
		wrote := false
		pairs := make([]Pair, 0, len(from))
		for p := range from {
			pairs = append(pairs, p)
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
		for _, pair := range pairs {
			for _, label := range from[pair] {
				if hasLabel(to[pair], label) {
					continue
				}
				if !wrote {
					b.WriteString(verb + " ")
					wrote = true
				}
				fmt.Fprintf(&b, "'%s-%s %s' ", pair[0], pair[1], label)
			}
		}
	}
	writeSide(cbase, ccomp, "Remove")
	writeSide(ccomp, cbase, "Add")
	return strings.TrimSpace(b.String())
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// CoeffDeviations returns the mean and largest relative deviation between
// the coefficients of the terms both force fields share, and how many
// coefficients were compared. Terms present in only one field are
// ignored; DiffString reports those.
func CoeffDeviations(base, comp *FF) (mean, max float64, n int) {
	devs := []float64{}
	for pair, bterms := range base.Nonbonded {
		cterms, ok := comp.Nonbonded[pair]
		if !ok {
			continue
		}
		for _, bt := range bterms {
			for _, ct := range cterms {
				if bt.Normalized() != ct.Normalized() || len(bt.Params) != len(ct.Params) {
					continue
				}
				for i, bv := range bt.Params {
					cv := ct.Params[i]
					if bv == 0 && cv == 0 {
						devs = append(devs, 0)
						continue
					}
					scale := math.Max(math.Abs(bv), math.Abs(cv))
					devs = append(devs, math.Abs(bv-cv)/scale)
				}
				break
			}
		}
	}
	if len(devs) == 0 {
		return 0, 0, 0
	}
	return stat.Mean(devs, nil), floats.Max(devs), len(devs)
}
