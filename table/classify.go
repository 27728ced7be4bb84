package table

import (
	"fmt"
	"strings"

	afm "github.com/junechem/afmtogmx"
)

//Term classification. Gromacs tables have exactly two payload slots per
//pair besides Coulomb: one for the dispersion-like (attractive) term and
//one for everything else. Which fitted terms count as attractive is a
//convention of dispersion physics, so it lives in an explicit policy
//value rather than in the classifier's control flow.

// Policy decides which term labels go to the attractive slot when no
// per-pair override says otherwise.
type Policy struct {
	Families []string //function families eligible for the attractive slot
	Exponent int      //the dispersion exponent those families must carry
}

// DefaultPolicy is the dispersion convention: power-law families with
// exponent 6.
func DefaultPolicy() *Policy {
	return &Policy{Families: []string{"POW", "DPO", "SRD", "PEX"}, Exponent: 6}
}

// Attractive reports whether a normalized label ("POW_6") is attractive
// under the policy.
func (P *Policy) Attractive(label string) bool {
	suffix := fmt.Sprintf("_%d", P.Exponent)
	for _, fam := range P.Families {
		if label == fam+suffix {
			return true
		}
	}
	return false
}

// Labels returns the attractive labels of the policy, for error messages.
func (P *Policy) Labels() string {
	ret := make([]string, len(P.Families))
	for i, f := range P.Families {
		ret[i] = fmt.Sprintf("%s_%d", f, P.Exponent)
	}
	return strings.Join(ret, ", ")
}

// classified is the outcome for one pair: the terms per role, plus the
// single attractive C6-like amplitude (converted units) when there is
// exactly one attractive contributor.
type classified struct {
	attractive []*afm.Term
	repulsive  []*afm.Term
	buckingham []*afm.Term //terms split across both roles
}

// nAttractive counts attractive contributors, with each Buckingham term
// counting as one (its r^-6 part).
func (c *classified) nAttractive() int {
	return len(c.attractive) + len(c.buckingham)
}

// classify assigns each non-Coulomb term of a pair to a role. With an
// override for this pair, exactly the listed labels are attractive and
// everything else repulsive (Buckingham included: an override takes the
// whole term). Without one, the policy decides, and BUC terms are split
// between both roles.
func classify(pair afm.Pair, terms []*afm.Term, override []string, policy *Policy) *classified {
	c := &classified{}
	for _, t := range terms {
		if t.Family() == "COU" {
			continue
		}
		label := t.Normalized()
		if override != nil {
			if hasString(override, label) {
				c.attractive = append(c.attractive, t)
			} else {
				c.repulsive = append(c.repulsive, t)
			}
			continue
		}
		switch {
		case t.Family() == "BUC":
			c.buckingham = append(c.buckingham, t)
		case policy.Attractive(label):
			c.attractive = append(c.attractive, t)
		default:
			c.repulsive = append(c.repulsive, t)
		}
	}
	return c
}

func hasString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// attractiveAmplitude returns the converted (kJ, nm) magnitude of the
// single attractive term's dispersion coefficient, for dispersion
// scaling and for the C6 column of nonbond_params. Zero when the pair
// has no attractive contributor.
func (c *classified) attractiveAmplitude() float64 {
	if len(c.attractive) > 0 {
		t := c.attractive[0]
		if len(t.Params) < 2 {
			return 0
		}
		return afm.PowAmplitude(t.Params[0], t.Params[1])
	}
	if len(c.buckingham) > 0 {
		t := c.buckingham[0]
		if len(t.Params) < 2 {
			return 0
		}
		//the dispersion coefficient of A*exp(-B*r) - C*r^-6 is C
		return afm.PowAmplitude(t.Params[1], 6)
	}
	return 0
}
