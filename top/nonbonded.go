package top

import (
	"fmt"
	"log"
	"math"
	"os"
	"regexp"
	"strings"

	afm "github.com/junechem/afmtogmx"
	"github.com/junechem/afmtogmx/table"
)

// Options control which interactions reach the topology and how atom
// types are named there. The fields mirror the table generation options
// so both outputs can be driven from one configuration.
type Options struct {
	Trans            map[string]string     //.off name to .top name
	InclMol          []string              //restrict to the types of these molecules
	ExclInteractions []string              //term labels, exactly as in the .off file, to drop
	SpecialPairs     map[afm.Pair][]string //pairs tabulated with a per-pair attractive override
	ScaleC6          bool                  //must match the table generation setting
	Policy           *table.Policy         //nil means table.DefaultPolicy
}

// NonbondParams generates the body of the [ nonbond_params ] section.
// Pairs with a tabulated attractive term get their converted C6
// coefficient so the engine computes dispersion corrections from it,
// plus C12 = 1 whenever a repulsive table column exists. Special pairs
// get C6 = C12 = 1, which is why they can't be combined with dispersion
// scaling.
func NonbondParams(F *afm.FF, o *Options) (string, error) {
	if F == nil {
		panic(afm.ErrNilFF)
	}
	if o == nil {
		o = &Options{}
	}
	if o.ScaleC6 && len(o.SpecialPairs) > 0 {
		return "", afm.NewError("top.NonbondParams",
			"special attractive pairs can't be combined with dispersion scaling; rerun with ScaleC6 off")
	}
	policy := o.Policy
	if policy == nil {
		policy = table.DefaultPolicy()
	}
	incl := make(map[string]bool)
	for _, at := range F.IncludedTypes(o.InclMol) {
		incl[at] = true
	}
	var b strings.Builder
	for _, pair := range F.Pairs() {
		if !incl[pair[0]] || !incl[pair[1]] {
			continue
		}
		c6, c12, n, err := pairCoefficients(pair, F.Nonbonded[pair], o, policy)
		if err != nil {
			return "", err
		}
		if n == 0 {
			continue
		}
		n1, n2 := pair.Translate(o.Trans)
		fmt.Fprintf(&b, "%-7s%-7s%-7d%-20.12E%-20.12E\n", n1, n2, 1, c6, c12)
	}
	return b.String(), nil
}

func pairCoefficients(pair afm.Pair, terms []*afm.Term, o *Options, policy *table.Policy) (c6, c12 float64, n int, err error) {
	if _, ok := o.SpecialPairs[pair]; ok {
		return 1.0, 1.0, len(terms), nil
	}
	attr := 0
	for _, t := range terms {
		if t.Family() == "COU" || hasString(o.ExclInteractions, t.Label) {
			continue
		}
		n++
		switch {
		case t.Family() == "BUC":
			if len(t.Params) < 3 {
				return 0, 0, 0, afm.NewError("top.NonbondParams",
					"pair %s: Buckingham term %s needs 3 coefficients, got %d", pair, t.Label, len(t.Params))
			}
			attr++
			c6 = math.Abs(afm.PowAmplitude(t.Params[1], 6))
			c12 = 1
		case policy.Attractive(t.Normalized()):
			attr++
			c6 = math.Abs(afm.PowAmplitude(t.Params[0], 6))
		case t.Family() == "THC":
			//the switching term contributes to neither coefficient
			log.Printf("top: pair %s: tanh switching term %s has no C6/C12 representation, skipped", pair, t.Label)
		default:
			c12 = 1
		}
		if attr > 1 && o.ScaleC6 {
			return 0, 0, 0, afm.NewError("top.NonbondParams",
				"pair %s has more than one attractive term; dispersion scaling needs exactly one. Keep one of %s, or assign roles with SpecialPairs and ScaleC6 off",
				pair, policy.Labels())
		}
	}
	return c6, c12, n, nil
}

// WriteNonbonded reads the template topology, splices the generated
// [ nonbond_params ] body into it, and writes the result to outfile.
// The template must already contain the section header followed, after
// its content if any, by a blank line.
func WriteNonbonded(F *afm.FF, template, outfile string, o *Options) error {
	text, err := os.ReadFile(template)
	if err != nil {
		return afm.NewError("top.WriteNonbonded", "can't read template %s: %s", template, err.Error())
	}
	body, err := NonbondParams(F, o)
	if err != nil {
		return errDecorate(err, "WriteNonbonded")
	}
	full, err := spliceSection(string(text), "nonbond_params", body)
	if err != nil {
		return errDecorate(err, "WriteNonbonded")
	}
	if err := os.WriteFile(outfile, []byte(full), 0644); err != nil {
		return afm.NewError("top.WriteNonbonded", "can't write %s: %s", outfile, err.Error())
	}
	return nil
}

// spliceSection inserts body at the end of the named section of the
// template, right before the blank line that closes it. Commented-out
// headers don't count.
func spliceSection(template, keyword, body string) (string, error) {
	re := regexp.MustCompile(`^\s*\[\s*` + keyword + `\s*\]`)
	lines := strings.Split(template, "\n")
	for i, ln := range lines {
		if !re.MatchString(ln) {
			continue
		}
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) != "" {
			j++
		}
		var b strings.Builder
		b.WriteString(strings.Join(lines[:j], "\n"))
		b.WriteString("\n")
		if body != "" {
			b.WriteString(strings.TrimRight(body, "\n"))
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(lines[j:], "\n"))
		return b.String(), nil
	}
	return "", afm.NewError("top.spliceSection",
		"template has no [ %s ] section; one is required, followed by a blank line", keyword)
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func errDecorate(err error, caller string) error {
	err2 := err.(afm.Error)
	err2.Decorate(caller)
	return err2
}
