package table

import (
	"fmt"
	"math"
	"testing"

	afm "github.com/junechem/afmtogmx"
)

func close(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// waterFF builds a small force field by hand: a 12-6 pair, an
// exponential pair, and a Coulomb-only pair.
func waterFF() *afm.FF {
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "SOL", Atoms: []*afm.AtomDef{
		{Num: 1, Vdw: "OW", Cou: "OW"},
		{Num: 2, Vdw: "HW", Cou: "HW"},
		{Num: 3, Vdw: "HW", Cou: "HW"},
	}})
	F.AddTerm(afm.NewPair("OW", "OW"), &afm.Term{Label: "POW", Params: []float64{1000, -12}})
	F.AddTerm(afm.NewPair("OW", "OW"), &afm.Term{Label: "POW", Params: []float64{50, -6}})
	F.AddTerm(afm.NewPair("OW", "HW"), &afm.Term{Label: "EXP", Params: []float64{20, 3}})
	F.AddTerm(afm.NewPair("HW", "HW"), &afm.Term{Label: "COUA", Params: []float64{0.1225}})
	return F
}

func TestGridRows(Te *testing.T) {
	cases := []struct {
		g    Grid
		rows int
	}{
		{Grid{0.002, 1.0}, 501},
		{DefNonbonded, 6001},
		{DefBonded, 3001},
		{Grid{0.3, 1.0}, 5}, //non-multiple length rounds up
	}
	for _, c := range cases {
		if got := c.g.Rows(); got != c.rows {
			Te.Error("grid", c.g, "gives", got, "rows, want", c.rows)
		}
		x := c.g.X()
		if len(x) != c.rows {
			Te.Error("X() length disagrees with Rows()")
		}
		if x[0] != 0 || !close(x[1], c.g.Spacing, 1e-15) {
			Te.Error("grid points wrong at the start:", x[0], x[1])
		}
	}
}

func TestNonbondedScenario(Te *testing.T) {
	F := waterFF()
	tabs, rep, err := Nonbonded(F, &Options{Grid: Grid{0.002, 1.0}, ScaleC6: true})
	if err != nil {
		Te.Fatal(err)
	}
	T := tabs[afm.NewPair("OW", "OW")]
	if T == nil {
		Te.Fatal("no OW~OW table generated")
	}
	if T.Rows() != 501 {
		Te.Error("expected 501 rows, got", T.Rows())
	}
	//after dispersion scaling the attractive column is the bare r^-6
	//shape, so at r=0.5 it must be 0.5^-6 = 64 exactly (up to roundoff).
	i := 250
	if !close(T.X[i], 0.5, 1e-12) {
		Te.Fatal("row 250 is not at r=0.5:", T.X[i])
	}
	want := math.Pow(0.5, -6)
	if !close(T.AttV[i], want, 1e-9) {
		Te.Error("scaled attractive value at 0.5 is", T.AttV[i], "want", want)
	}
	//the repulsive columns are untouched by dispersion scaling
	wantRep := afm.PowAmplitude(1000, 12) * math.Pow(0.5, -12)
	if !close(T.RepV[i], wantRep, 1e-12) {
		Te.Error("repulsive value at 0.5 is", T.RepV[i], "want", wantRep)
	}
	//Coulomb columns are always zero, the engine handles electrostatics
	for i := range T.CouV {
		if T.CouV[i] != 0 || T.CouF[i] != 0 {
			Te.Fatal("nonzero Coulomb column at row", i)
		}
	}
	//the Coulomb-only HW~HW pair produces no table without WriteBlanks
	if _, ok := tabs[afm.NewPair("HW", "HW")]; ok {
		Te.Error("Coulomb-only pair should not get a table")
	}
	fmt.Println("generated", rep.Pairs, "tables from", rep.Terms, "terms")
}

func TestNonbondedFirstRowFinite(Te *testing.T) {
	F := waterFF()
	tabs, _, err := Nonbonded(F, nil)
	if err != nil {
		Te.Fatal(err)
	}
	for pair, T := range tabs {
		for i := 0; i < 2; i++ {
			for _, v := range []float64{T.AttV[i], T.AttF[i], T.RepV[i], T.RepF[i]} {
				if math.IsInf(v, 0) || math.IsNaN(v) {
					Te.Error("pair", pair, "row", i, "is not finite:", v)
				}
			}
		}
		//the first two rows must agree: row 0 is evaluated at r=spacing
		if T.RepV[0] != T.RepV[1] || T.AttV[0] != T.AttV[1] {
			Te.Error("pair", pair, "origin row not pinned to the first point")
		}
	}
}

func TestExclPairs(Te *testing.T) {
	F := waterFF()
	tabs, _, err := Nonbonded(F, &Options{ExclPairs: []afm.Pair{afm.NewPair("OW", "OW")}})
	if err != nil {
		Te.Fatal(err)
	}
	if _, ok := tabs[afm.NewPair("OW", "OW")]; ok {
		Te.Error("excluded pair still got a table")
	}
	if len(tabs) != 1 {
		Te.Error("expected exactly one remaining table, got", len(tabs))
	}
	if _, ok := tabs[afm.NewPair("HW", "OW")]; !ok {
		Te.Error("the non-excluded pair is missing")
	}
}

func TestWriteBlanks(Te *testing.T) {
	F := waterFF()
	tabs, rep, err := Nonbonded(F, &Options{Grid: Grid{0.002, 1.0}, WriteBlanks: true,
		ExclInteractions: []string{"EXP"}})
	if err != nil {
		Te.Fatal(err)
	}
	if rep.Blanks != 2 {
		Te.Error("expected 2 blank tables (HW~HW and the excluded EXP pair), got", rep.Blanks)
	}
	T := tabs[afm.NewPair("HW", "HW")]
	if T == nil {
		Te.Fatal("blank pair missing with WriteBlanks on")
	}
	if T.Rows() != 501 {
		Te.Error("blank table has wrong shape:", T.Rows())
	}
	for i := range T.X {
		if T.AttV[i] != 0 || T.RepV[i] != 0 || T.CouV[i] != 0 {
			Te.Fatal("blank table has a nonzero payload at row", i)
		}
	}
}

func TestPreflight(Te *testing.T) {
	//two attractive terms on one pair: fatal with dispersion scaling,
	//fine without.
	F := waterFF()
	F.AddTerm(afm.NewPair("OW", "OW"), &afm.Term{Label: "SRD", Params: []float64{30, -6, 1.2}})
	_, _, err := Nonbonded(F, &Options{ScaleC6: true})
	if err == nil {
		Te.Fatal("two attractive terms with ScaleC6 must fail")
	}
	fmt.Println("pre-flight said:", err)
	if _, _, err := Nonbonded(F, nil); err != nil {
		Te.Error("without ScaleC6 the same model must build:", err)
	}
	//special pairs and dispersion scaling are mutually exclusive
	_, _, err = Nonbonded(waterFF(), &Options{ScaleC6: true,
		SpecialPairs: map[afm.Pair][]string{afm.NewPair("OW", "HW"): {"EXP"}}})
	if err == nil {
		Te.Error("SpecialPairs with ScaleC6 must fail")
	}
}

func TestDuplicateTermIsDataError(Te *testing.T) {
	F := waterFF()
	F.AddTerm(afm.NewPair("OW", "OW"), &afm.Term{Label: "POW", Params: []float64{60, -6}})
	if _, _, err := Nonbonded(F, nil); err == nil {
		Te.Error("two POW_6 terms on one pair must be rejected")
	}
}

func TestSpecialPairs(Te *testing.T) {
	//an override moves the whole EXP term to the attractive slot
	F := waterFF()
	o := &Options{Grid: Grid{0.002, 1.0},
		SpecialPairs: map[afm.Pair][]string{afm.NewPair("OW", "HW"): {"EXP"}}}
	tabs, _, err := Nonbonded(F, o)
	if err != nil {
		Te.Fatal(err)
	}
	T := tabs[afm.NewPair("HW", "OW")]
	i := 100
	wantV, _ := Exp(afm.Kcal2KJ*20, afm.Nm2Ang*3, T.X[i])
	if !close(T.AttV[i], wantV, 1e-12) {
		Te.Error("overridden term not in the attractive slot:", T.AttV[i], wantV)
	}
	if T.RepV[i] != 0 {
		Te.Error("overridden term left residue in the repulsive slot")
	}
}

func TestSoftCore(Te *testing.T) {
	//sigma=0 is the identity
	for _, r := range []float64{0, 0.1, 0.5, 3.0} {
		if SoftCore(r, 0) != r {
			Te.Error("SoftCore with sigma=0 is not the identity at", r)
		}
	}
	sigma := 0.3
	//identity at and beyond sigma, continuous and increasing below
	if SoftCore(sigma, sigma) != sigma || SoftCore(1.0, sigma) != 1.0 {
		Te.Error("SoftCore not the identity beyond sigma")
	}
	if !close(SoftCore(0, sigma), sigma/math.E, 1e-15) {
		Te.Error("SoftCore(0) should be sigma/e, got", SoftCore(0, sigma))
	}
	prev := SoftCore(0, sigma) - 1e-12
	for r := 0.0; r < sigma; r += 0.001 {
		v := SoftCore(r, sigma)
		if v <= prev {
			Te.Fatal("SoftCore not strictly increasing at", r)
		}
		prev = v
	}
}

func TestSoftCoreTableTail(Te *testing.T) {
	//with a soft-core sigma the table must be bit-for-bit unchanged
	//from sigma on.
	F := waterFF()
	g := Grid{0.002, 1.0}
	plain, _, err := Nonbonded(F, &Options{Grid: g})
	if err != nil {
		Te.Fatal(err)
	}
	soft, _, err := Nonbonded(F, &Options{Grid: g, SCSigma: 0.3})
	if err != nil {
		Te.Fatal(err)
	}
	p := afm.NewPair("OW", "OW")
	changed := false
	for i := range plain[p].X {
		if plain[p].X[i] >= 0.3 {
			if plain[p].RepV[i] != soft[p].RepV[i] || plain[p].AttV[i] != soft[p].AttV[i] {
				Te.Fatal("soft core changed the table beyond sigma at row", i)
			}
		} else if i > 0 && plain[p].RepV[i] != soft[p].RepV[i] {
			changed = true
		}
	}
	if !changed {
		Te.Error("soft core had no effect below sigma")
	}
}

func TestHFERepulsiveScale(Te *testing.T) {
	//fitted dispersion amplitudes come in negative; the free-energy
	//scale works on the magnitude, so the repulsive wall keeps its sign
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "ARG", Atoms: []*afm.AtomDef{
		{Num: 1, Vdw: "A", Cou: "A"},
	}})
	p := afm.NewPair("A", "A")
	F.AddTerm(p, &afm.Term{Label: "POW", Params: []float64{1000, -12}})
	F.AddTerm(p, &afm.Term{Label: "POW", Params: []float64{-50, -6}})
	g := Grid{0.002, 1.0}
	plain, _, err := Nonbonded(F, &Options{Grid: g})
	if err != nil {
		Te.Fatal(err)
	}
	sigma := 0.3
	scaled, _, err := Nonbonded(F, &Options{Grid: g, HFESigma: sigma})
	if err != nil {
		Te.Fatal(err)
	}
	s := 1 / (math.Abs(afm.PowAmplitude(-50, 6)) * math.Pow(sigma, 6))
	i := 250 //r = 0.5
	if scaled[p].RepV[i] <= 0 {
		Te.Fatal("the free-energy scale flipped the repulsive wall:", scaled[p].RepV[i])
	}
	if scaled[p].RepV[i] != plain[p].RepV[i]*s || scaled[p].RepF[i] != plain[p].RepF[i]*s {
		Te.Error("repulsive columns scaled by", scaled[p].RepV[i]/plain[p].RepV[i], "want", s)
	}
	if scaled[p].AttV[i] != plain[p].AttV[i] || scaled[p].AttF[i] != plain[p].AttF[i] {
		Te.Error("the repulsive scale must leave the attractive columns alone")
	}
}

func TestZeroTermSkipped(Te *testing.T) {
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "ARG", Atoms: []*afm.AtomDef{
		{Num: 1, Vdw: "A", Cou: "A"},
	}})
	p := afm.NewPair("A", "A")
	F.AddTerm(p, &afm.Term{Label: "POW", Params: []float64{1000, -12}})
	F.AddTerm(p, &afm.Term{Label: "POW", Params: []float64{0, -6}})
	//the all-zero attractive term still holds its role slot, so ScaleC6
	//passes pre-flight, but nothing is summed or divided for it
	tabs, rep, err := Nonbonded(F, &Options{Grid: Grid{0.002, 1.0}, ScaleC6: true})
	if err != nil {
		Te.Fatal(err)
	}
	T := tabs[p]
	for i := range T.X {
		if T.AttV[i] != 0 || T.AttF[i] != 0 {
			Te.Fatal("zero-amplitude attractive term left a nonzero column at row", i)
		}
	}
	if T.RepV[250] <= 0 {
		Te.Error("repulsive wall missing:", T.RepV[250])
	}
	if rep.Terms != 1 {
		Te.Error("want 1 summed term, report says", rep.Terms)
	}
}

func TestBondedTables(Te *testing.T) {
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "MeOH",
		Atoms: []*afm.AtomDef{{Num: 1, Vdw: "C", Cou: "C"}, {Num: 2, Vdw: "O", Cou: "O"}, {Num: 3, Vdw: "H", Cou: "H"}},
		Bonds: []*afm.BondedTerm{
			{Kind: "QUA", Params: []float64{1.5, 500, 0, 0}, Atoms: [][]int{{1, 2}}},
			{Kind: "HAR", Params: []float64{0.96, 450}, Atoms: [][]int{{2, 3}}},
		},
		Bd3: []*afm.BondedTerm{
			{Kind: "QBB", Params: []float64{2.4, 30, 200, 0, 0}, Atoms: [][]int{{1, 2, 3}}},
		},
	})
	set, rep, err := Bonded(F, Grid{}, nil)
	if err != nil {
		Te.Fatal(err)
	}
	//only the quartic kinds are tabulated, numbered in order
	if rep.Tables != 2 {
		Te.Fatal("expected 2 bonded tables, got", rep.Tables)
	}
	ts, err := set.Molecule("MeOH")
	if err != nil {
		Te.Fatal(err)
	}
	if ts[0].Index != 0 || ts[1].Index != 1 {
		Te.Error("table numbering off:", ts[0].Index, ts[1].Index)
	}
	if len(ts[0].X) != DefBonded.Rows() {
		Te.Error("bonded grid shape wrong:", len(ts[0].X))
	}
	//the quartic is zero, with zero force, at its minimum r0 (0.15 nm
	//after conversion), and symmetric around it.
	bt := ts[0]
	i0 := 1500
	if !close(bt.X[i0], 0.15, 1e-12) {
		Te.Fatal("row 1500 is not at 0.15 nm:", bt.X[i0])
	}
	if !close(bt.V[i0], 0, 1e-12) || !close(bt.F[i0], 0, 1e-9) {
		Te.Error("quartic not zero at its minimum:", bt.V[i0], bt.F[i0])
	}
	for _, d := range []int{10, 100, 500} {
		if !close(bt.V[i0-d], bt.V[i0+d], 1e-9) {
			Te.Error("pure-k2 quartic not symmetric at offset", d)
		}
		if !close(bt.F[i0-d], -bt.F[i0+d], 1e-9) {
			Te.Error("quartic force not antisymmetric at offset", d)
		}
	}
	//missing molecule lookups are errors, not empty results
	if _, err := set.Molecule("SOL"); err == nil {
		Te.Error("lookup of a molecule without tables should fail")
	}
	fmt.Println("bonded tables:", rep.Tables)
}

func TestBondedInclMol(Te *testing.T) {
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "A",
		Atoms: []*afm.AtomDef{{Num: 1, Vdw: "X", Cou: "X"}, {Num: 2, Vdw: "Y", Cou: "Y"}},
		Bonds: []*afm.BondedTerm{{Kind: "QUA", Params: []float64{1, 100, 0, 0}, Atoms: [][]int{{1, 2}}}},
	})
	F.AddMolecule(&afm.Molecule{Name: "B",
		Atoms: []*afm.AtomDef{{Num: 1, Vdw: "Z", Cou: "Z"}, {Num: 2, Vdw: "W", Cou: "W"}},
		Bonds: []*afm.BondedTerm{{Kind: "QUA", Params: []float64{1, 100, 0, 0}, Atoms: [][]int{{1, 2}}}},
	})
	set, rep, err := Bonded(F, Grid{}, []string{"B"})
	if err != nil {
		Te.Fatal(err)
	}
	if rep.Tables != 1 {
		Te.Error("molecule filter ignored:", rep.Tables)
	}
	ts, err := set.Molecule("B")
	if err != nil {
		Te.Fatal(err)
	}
	//numbering restarts from 0 for the filtered run
	if ts[0].Index != 0 {
		Te.Error("numbering should start at 0:", ts[0].Index)
	}
}
