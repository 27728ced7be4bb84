package top

import (
	"fmt"
	"math"
	"strings"
	"testing"

	afm "github.com/junechem/afmtogmx"
	"github.com/junechem/afmtogmx/table"
)

func methanolFF() *afm.FF {
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "MeOH",
		Atoms: []*afm.AtomDef{
			{Num: 1, Vdw: "CM", Cou: "CM"},
			{Num: 2, Vdw: "OM", Cou: "OM"},
			{Num: 3, Vdw: "HM", Cou: "HM"},
		},
		Bonds: []*afm.BondedTerm{
			{Kind: "HAR", Params: []float64{1.43, 320}, Atoms: [][]int{{1, 2}}},
			{Kind: "QUA", Params: []float64{0.96, 500, -20, 5}, Atoms: [][]int{{2, 3}}},
		},
		Angles: []*afm.BondedTerm{
			{Kind: "HAR", Params: []float64{108.5, 55}, Atoms: [][]int{{1, 2, 3}}},
		},
		Exclusions: [][]int{{2, 3, 0}},
	})
	F.AddTerm(afm.NewPair("CM", "CM"), &afm.Term{Label: "POW", Params: []float64{1000, -12}})
	F.AddTerm(afm.NewPair("CM", "CM"), &afm.Term{Label: "POW", Params: []float64{-50, -6}})
	F.AddTerm(afm.NewPair("CM", "OM"), &afm.Term{Label: "BUCX", Params: []float64{100, 30, 3}})
	F.AddTerm(afm.NewPair("OM", "OM"), &afm.Term{Label: "EXP", Params: []float64{20, 3}})
	F.Charges["MeOH"]["CM"] = 0.2
	F.Charges["MeOH"]["OM"] = -0.6
	F.Charges["MeOH"]["HM"] = 0.4
	return F
}

func TestNonbondParams(Te *testing.T) {
	F := methanolFF()
	s, err := NonbondParams(F, &Options{ScaleC6: true})
	if err != nil {
		Te.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) != 3 {
		Te.Fatal("expected 3 nonbond_params lines, got", len(lines), s)
	}
	//CM CM: attractive POW_6, so C6 = |a|*4.184e-6 and C12 = 1 from the
	//repulsive POW_12
	f := strings.Fields(lines[0])
	if f[0] != "CM" || f[1] != "CM" || f[2] != "1" {
		Te.Fatal("bad pair line:", lines[0])
	}
	var c6, c12 float64
	fmt.Sscanf(f[3], "%E", &c6)
	fmt.Sscanf(f[4], "%E", &c12)
	wantC6 := math.Abs(afm.PowAmplitude(-50, 6))
	if math.Abs(c6-wantC6) > 1e-15 || c12 != 1 {
		Te.Error("CM CM coefficients:", c6, c12, "want", wantC6, 1.0)
	}
	//CM OM: Buckingham, C6 from its third coefficient, C12 = 1
	f = strings.Fields(lines[1])
	fmt.Sscanf(f[3], "%E", &c6)
	wantC6 = math.Abs(afm.PowAmplitude(30, 6))
	if math.Abs(c6-wantC6) > 1e-15 {
		Te.Error("Buckingham C6 wrong:", c6, "want", wantC6)
	}
	//OM OM: repulsive-only, C6 = 0 and C12 = 1
	f = strings.Fields(lines[2])
	fmt.Sscanf(f[3], "%E", &c6)
	fmt.Sscanf(f[4], "%E", &c12)
	if c6 != 0 || c12 != 1 {
		Te.Error("repulsive-only pair coefficients:", c6, c12)
	}
}

func TestNonbondParamsSpecialAndScaleConflict(Te *testing.T) {
	F := methanolFF()
	_, err := NonbondParams(F, &Options{ScaleC6: true,
		SpecialPairs: map[afm.Pair][]string{afm.NewPair("CM", "OM"): {"BUC"}}})
	if err == nil {
		Te.Error("SpecialPairs with ScaleC6 must fail")
	}
	//without scaling, the special pair gets unit coefficients
	s, err := NonbondParams(F, &Options{
		SpecialPairs: map[afm.Pair][]string{afm.NewPair("CM", "OM"): {"BUC"}}})
	if err != nil {
		Te.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		f := strings.Fields(line)
		if f[0] == "CM" && f[1] == "OM" {
			var c6, c12 float64
			fmt.Sscanf(f[3], "%E", &c6)
			fmt.Sscanf(f[4], "%E", &c12)
			if c6 != 1 || c12 != 1 {
				Te.Error("special pair should get C6 = C12 = 1:", line)
			}
			return
		}
	}
	Te.Error("special pair line not found in", s)
}

func TestNonbondParamsTwoAttractive(Te *testing.T) {
	F := methanolFF()
	F.AddTerm(afm.NewPair("CM", "CM"), &afm.Term{Label: "SRD", Params: []float64{30, -6, 1.2}})
	if _, err := NonbondParams(F, &Options{ScaleC6: true}); err == nil {
		Te.Error("two attractive terms with ScaleC6 must fail")
	}
	if _, err := NonbondParams(F, nil); err != nil {
		Te.Error("without ScaleC6 the same model must write:", err)
	}
}

const nonbondedTemplate = `[ defaults ]
; nbfunc comb-rule
1		1

[ atomtypes ]
CM	12.011	0.0	A	0.0	0.0

[ nonbond_params ]
; i	j	func	C6	C12

[ system ]
methanol
`

func TestSpliceSection(Te *testing.T) {
	out, err := spliceSection(nonbondedTemplate, "nonbond_params", "A      B      1      0E+00  1E+00\n")
	if err != nil {
		Te.Fatal(err)
	}
	if !strings.Contains(out, "; i	j	func	C6	C12\nA      B") {
		Te.Error("body not inserted after the section content:\n", out)
	}
	//everything else must survive verbatim
	for _, want := range []string{"[ defaults ]", "[ atomtypes ]", "[ system ]", "methanol"} {
		if !strings.Contains(out, want) {
			Te.Error("template text lost:", want)
		}
	}
	if _, err := spliceSection(nonbondedTemplate, "pairtypes", "x\n"); err == nil {
		Te.Error("a missing section must be an error")
	}
}

const bondedTemplate = `[ defaults ]
1		1

[ moleculetype ]
; molname	nrexcl
MeOH	2

[ atoms ]
; nr	type	resnr	residue	atom	cgnr	charge

[ bonds ]
; ai	aj	funct	par

[ angles ]
; ai	aj	ak	funct

[ exclusions ]

[ system ]
methanol

[ molecules ]
MeOH	216
`

func TestBondedTopology(Te *testing.T) {
	F := methanolFF()
	tabs, _, err := table.Bonded(F, table.Grid{}, nil)
	if err != nil {
		Te.Fatal(err)
	}
	out, err := Bonded(F, bondedTemplate, tabs, nil)
	if err != nil {
		Te.Fatal(err)
	}
	//the atoms section carries the derived charges
	if !strings.Contains(out, "0.20000") || !strings.Contains(out, "-0.60000") {
		Te.Error("charges missing from the atoms section:\n", out)
	}
	//the harmonic bond converts to nm and kJ
	if !strings.Contains(out, "0.14300") {
		Te.Error("harmonic bond length not converted:\n", out)
	}
	//the quartic bond references table 0
	qline := fmt.Sprintf("%8d%8d%8d%8d%8.3f", 2, 3, 8, 0, 1.0)
	if !strings.Contains(out, qline) {
		Te.Error("tabulated bond line missing:\n", out)
	}
	//template structure preserved
	for _, want := range []string{"[ defaults ]", "[ system ]", "MeOH	216", "; ai	aj	funct	par"} {
		if !strings.Contains(out, want) {
			Te.Error("template text lost:", want)
		}
	}
	fmt.Println("bonded topology generated,", len(strings.Split(out, "\n")), "lines")
}

func TestBondedNeedsTables(Te *testing.T) {
	F := methanolFF()
	if _, err := Bonded(F, bondedTemplate, nil, nil); err == nil {
		Te.Error("quartic bonds without bonded tables must fail")
	}
	//with the wrong molecule selection the lookup fails too
	tabs, _, err := table.Bonded(F, table.Grid{}, []string{"nosuch"})
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := Bonded(F, bondedTemplate, tabs, nil); err == nil {
		Te.Error("mismatched table selection must fail")
	}
}

func TestBondedUnknownMolecule(Te *testing.T) {
	F := methanolFF()
	tabs, _, err := table.Bonded(F, table.Grid{}, nil)
	if err != nil {
		Te.Fatal(err)
	}
	tmpl := strings.ReplaceAll(bondedTemplate, "MeOH\t2", "EtOH\t2")
	tmpl = strings.ReplaceAll(tmpl, "MeOH\t216", "EtOH\t216")
	if _, err := Bonded(F, tmpl, tabs, nil); err == nil {
		Te.Error("a template without our moleculetype must be an error")
	}
}

func TestVirtualSites(Te *testing.T) {
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "SOL",
		Atoms: []*afm.AtomDef{
			{Num: 1, Vdw: "OW", Cou: "OW"},
			{Num: 2, Vdw: "HW", Cou: "HW"},
			{Num: 3, Vdw: "HW", Cou: "HW"},
			{Num: 4, Vdw: "MW", Cou: "MW", Virtual: true, VDef: []string{"(1)", "+", "(2)", "+", "(3)"}},
		},
	})
	s, err := MoleculeSections(F, F.Molecule("SOL"), nil, nil)
	if err != nil {
		Te.Fatal(err)
	}
	virt, ok := s["virtual_sitesn"]
	if !ok {
		Te.Fatal("no virtual_sitesn section generated")
	}
	//site number, funct 3, then the constructing atoms reversed
	if !strings.HasPrefix(virt, "4       3") {
		Te.Error("virtual site line malformed:", virt)
	}
	if !strings.Contains(virt, "3") || !strings.Contains(virt, "1") {
		Te.Error("constructing atoms missing:", virt)
	}
}
