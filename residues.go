package afm

import (
	"sort"
	"strings"
)

//Residue bookkeeping. Topology templates group atoms into residues, and
//the groupings are given by the user, so everything here is validation:
//a residue definition naming a molecule or atom the .off file doesn't
//have is an input error and is reported as such, never papered over.

// Residues maps molecule name -> residue name -> the atom-type names that
// belong to the residue, together with the atom numbers of each residue
// instance.
type Residues struct {
	Definitions map[string]map[string][]string
	Atnums      map[string]map[string][][]int
}

// CheckDefinitions verifies that every molecule and atom type named in
// the residue definitions exists in the force field.
func (F *FF) CheckDefinitions(R *Residues) error {
	for molname, residues := range R.Definitions {
		m := F.Molecule(molname)
		if m == nil {
			return NewError("CheckDefinitions", "molecule %s from the residue definitions is not in the off file", molname)
		}
		all := make(map[string]bool)
		for _, at := range m.AtomTypes() {
			all[at] = true
		}
		for _, at := range m.ChargeTypes() {
			all[at] = true
		}
		for resname, attypes := range residues {
			missing := []string{}
			for _, at := range attypes {
				if !all[at] {
					missing = append(missing, at)
				}
			}
			if len(missing) > 0 {
				sort.Strings(missing)
				return NewError("CheckDefinitions", "residue %s of molecule %s names atoms not in the off file: %s",
					resname, molname, strings.Join(missing, " "))
			}
		}
	}
	return nil
}

// CheckAtnums verifies that every atom number in the residue instances
// exists in its molecule.
func (F *FF) CheckAtnums(R *Residues) error {
	for molname, residues := range R.Atnums {
		m := F.Molecule(molname)
		if m == nil {
			return NewError("CheckAtnums", "molecule %s from the residue definitions is not in the off file", molname)
		}
		have := make(map[int]bool)
		for _, at := range m.Atoms {
			have[at.Num] = true
		}
		for resname, instances := range residues {
			for _, inst := range instances {
				for _, n := range inst {
					if !have[n] {
						return NewError("CheckAtnums", "residue %s of molecule %s uses atom number %d, which is not in the off file",
							resname, molname, n)
					}
				}
			}
		}
	}
	return nil
}

// CheckPriority verifies that a residue-priority list only names known
// molecules and residues.
func (F *FF) CheckPriority(R *Residues, priority map[string][]string) error {
	for molname, resnames := range priority {
		if F.Molecule(molname) == nil {
			return NewError("CheckPriority", "molecule %s from the residue priorities is not in the off file", molname)
		}
		for _, resname := range resnames {
			if _, ok := R.Definitions[molname][resname]; !ok {
				return NewError("CheckPriority", "residue %s of molecule %s is not defined", resname, molname)
			}
		}
	}
	return nil
}
