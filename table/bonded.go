package table

import (
	afm "github.com/junechem/afmtogmx"
)

// A BondedTable is the tabulated form of one quartic bonded term,
// identified by the sequential number the topology references it by.
type BondedTable struct {
	Index int
	Mol   string
	Term  *afm.BondedTerm
	X     []float64
	V, F  []float64
}

// A BondedSet holds the bonded tables of a generation run, grouped by
// molecule, in the order they were numbered.
type BondedSet struct {
	byMol map[string][]*BondedTable
	mols  []string
}

// Molecules returns the molecule names with at least one table, in
// numbering order.
func (S *BondedSet) Molecules() []string { return S.mols }

// Molecule returns the tables of the named molecule. Asking for a
// molecule without tables is an error: a topology that references a
// table that was never generated would be silently broken.
func (S *BondedSet) Molecule(name string) ([]*BondedTable, error) {
	ts, ok := S.byMol[name]
	if !ok {
		return nil, afm.NewError("BondedSet.Molecule", "no bonded tables for molecule %s", name)
	}
	return ts, nil
}

// Lookup returns the table generated for the given term of the given
// molecule.
func (S *BondedSet) Lookup(mol string, t *afm.BondedTerm) (*BondedTable, error) {
	for _, bt := range S.byMol[mol] {
		if bt.Term == t {
			return bt, nil
		}
	}
	return nil, afm.NewError("BondedSet.Lookup", "molecule %s has no table for a %s term", mol, t.Kind)
}

func (S *BondedSet) add(bt *BondedTable) {
	if _, ok := S.byMol[bt.Mol]; !ok {
		S.mols = append(S.mols, bt.Mol)
	}
	S.byMol[bt.Mol] = append(S.byMol[bt.Mol], bt)
}

// Bonded tabulates the quartic bond and bond-bond cross terms of the
// included molecules on the grid G (zero means DefBonded). Tables are
// numbered sequentially across molecules, in the order the molecules
// were read, quartic bonds first within each one, so the numbers match
// the topology written from the same force field.
func Bonded(F *afm.FF, G Grid, inclMol []string) (*BondedSet, *Report, error) {
	if F == nil {
		panic(afm.ErrNilFF)
	}
	if G.Spacing == 0 {
		G = DefBonded
	}
	set := &BondedSet{byMol: make(map[string][]*BondedTable)}
	rep := new(Report)
	num := 0
	for _, mol := range F.Molecules() {
		if len(inclMol) > 0 && !hasString(inclMol, mol.Name) {
			continue
		}
		for _, b := range mol.Bonds {
			if b.Kind != "QUA" {
				continue
			}
			if len(b.Params) < 4 {
				return nil, nil, afm.NewError("Bonded",
					"molecule %s: QUA bond needs 4 coefficients, got %d", mol.Name, len(b.Params))
			}
			set.add(quarticTable(mol.Name, b, G, num,
				afm.Ang2Nm*b.Params[0], 4.184e2*b.Params[1], 4.184e3*b.Params[2], 4.184e4*b.Params[3]))
			num++
			rep.Tables++
		}
		for _, b := range mol.Bd3 {
			if b.Kind != "QBB" {
				continue
			}
			if len(b.Params) < 5 {
				return nil, nil, afm.NewError("Bonded",
					"molecule %s: QBB term needs 5 coefficients, got %d", mol.Name, len(b.Params))
			}
			//P2 is the coupling constant, it goes to the topology, not
			//the table.
			set.add(quarticTable(mol.Name, b, G, num,
				afm.Ang2Nm*b.Params[0], 4.184e2*b.Params[2], 4.184e3*b.Params[3], 4.184e4*b.Params[4]))
			num++
			rep.Tables++
		}
	}
	return set, rep, nil
}

func quarticTable(mol string, term *afm.BondedTerm, G Grid, num int, r0, k2, k3, k4 float64) *BondedTable {
	x := G.X()
	cx := G.evalX(OriginFirstPoint, 0)
	v := make([]float64, len(x))
	f := make([]float64, len(x))
	for i, r := range cx {
		v[i], f[i] = QuarticBond(r0, k2, k3, k4, r)
	}
	return &BondedTable{Index: num, Mol: mol, Term: term, X: x, V: v, F: f}
}
