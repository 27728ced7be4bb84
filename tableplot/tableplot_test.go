package tableplot

import (
	"os"
	"testing"

	afm "github.com/junechem/afmtogmx"
	"github.com/junechem/afmtogmx/table"
)

// TestNonbondedPlot generates a 12-6 pair, plots it and checks that a
// png came out.
func TestNonbondedPlot(Te *testing.T) {
	os.MkdirAll("test", 0755)
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "SOL", Atoms: []*afm.AtomDef{{Num: 1, Vdw: "OW", Cou: "OW"}}})
	p := afm.NewPair("OW", "OW")
	F.AddTerm(p, &afm.Term{Label: "POW", Params: []float64{1000, -12}})
	F.AddTerm(p, &afm.Term{Label: "POW", Params: []float64{-50, -6}})
	tabs, _, err := table.Nonbonded(F, &table.Options{Grid: table.Grid{Spacing: 0.002, Length: 1.5}})
	if err != nil {
		Te.Fatal(err)
	}
	err = Nonbonded(tabs[p], p, map[string]string{"OW": "O"}, "test/OO")
	if err != nil {
		Te.Error(err)
	}
	if _, err := os.Stat("test/OO.png"); err != nil {
		Te.Error("plot file not written:", err)
	}
}

func TestBondedPlot(Te *testing.T) {
	os.MkdirAll("test", 0755)
	F := afm.NewFF()
	F.AddMolecule(&afm.Molecule{Name: "MeOH",
		Atoms: []*afm.AtomDef{{Num: 1, Vdw: "C", Cou: "C"}, {Num: 2, Vdw: "O", Cou: "O"}},
		Bonds: []*afm.BondedTerm{{Kind: "QUA", Params: []float64{1.5, 500, 0, 0}, Atoms: [][]int{{1, 2}}}},
	})
	set, _, err := table.Bonded(F, table.Grid{}, nil)
	if err != nil {
		Te.Fatal(err)
	}
	ts, err := set.Molecule("MeOH")
	if err != nil {
		Te.Fatal(err)
	}
	if err := Bonded(ts[0], "test/meoh_b0"); err != nil {
		Te.Error(err)
	}
	if _, err := os.Stat("test/meoh_b0.png"); err != nil {
		Te.Error("plot file not written:", err)
	}
}
