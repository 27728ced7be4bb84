package afm

import (
	"fmt"
	"math"
	"sort"
)

// Conversion factors from the units used by the fitting tool (kcal/mol,
// Angstrom) to Gromacs units (kJ/mol, nm). Amplitudes of r^-n terms pick
// up one Ang2Nm factor per power of r, which is what PowAmplitude does.
const (
	Kcal2KJ = 4.184
	Ang2Nm  = 0.1
	Nm2Ang  = 10.0
)

// PowAmplitude converts the amplitude of an r^n term from kcal/mol*Ang^|n|
// to kJ/mol*nm^|n|.
func PowAmplitude(a float64, n float64) float64 {
	return Kcal2KJ * a * math.Pow(Ang2Nm, math.Abs(n))
}

// Names given to virtual interaction sites that represent net forces and
// torques in the fitting. They never carry potentials of their own and are
// skipped everywhere.
const (
	NetForce = "NETF"
	Torque   = "TORQ"
)

// Pair is an unordered pair of atom-type names. Always build it with
// NewPair so that equal pairs compare equal regardless of the order the
// names were given in.
type Pair [2]string

// NewPair returns the canonical (sorted) Pair for the two atom types.
func NewPair(at1, at2 string) Pair {
	if at2 < at1 {
		at1, at2 = at2, at1
	}
	return Pair{at1, at2}
}

func (P Pair) String() string {
	return P[0] + "~" + P[1]
}

// Translate returns the pair with both names passed through the
// translation map. Names absent from the map are kept. Note that the
// result is _not_ re-sorted: translation happens at output time only, so
// the original ordering is what the caller sees in filenames.
func (P Pair) Translate(trans map[string]string) (string, string) {
	at1, at2 := P[0], P[1]
	if t, ok := trans[at1]; ok {
		at1 = t
	}
	if t, ok := trans[at2]; ok {
		at2 = t
	}
	return at1, at2
}

// A Term is one fitted nonbonded interaction term: a type label as it
// appears in the .off file (EXP, BUC, POW, SRD...) and its coefficients.
// For the variable-power families the exponent is the second coefficient
// and is also encoded in the normalized label ("POW_6").
type Term struct {
	Label  string
	Params []float64
}

// Family returns the three-letter function family of the term, so
// "BUCWATER" is in family "BUC".
func (T *Term) Family() string {
	if len(T.Label) < 3 {
		return T.Label
	}
	return T.Label[:3]
}

// Zero is true when every coefficient of the term is zero. Such terms are
// treated as absent for summation but still occupy their classified role.
func (T *Term) Zero() bool {
	for _, v := range T.Params {
		if v != 0 {
			return false
		}
	}
	return true
}

// variablePower lists the families whose labels get the "_n" suffix.
var variablePower = []string{"POW", "PEX", "DPO", "SRD"}

// Normalized returns the canonical label for the term: variable-power
// families become FAM_n with n taken from the second coefficient, any
// other family is reduced to its three letters (Coulomb variants like
// COUWATER all become COU).
func (T *Term) Normalized() string {
	fam := T.Family()
	for _, v := range variablePower {
		if fam == v {
			if len(T.Params) < 2 {
				return fam
			}
			return fmt.Sprintf("%s_%d", fam, int(math.Abs(T.Params[1])))
		}
	}
	return fam
}

// BondedTerm is one fitted bonded term: the kind within its category
// (HAR, QUA, QBB...), its coefficients, and the atom-index tuples, within
// the molecule, that it applies to.
type BondedTerm struct {
	Kind   string
	Params []float64
	Atoms  [][]int
}

// AtomDef is one atom line of a molecular definition. Vdw is the
// atom-type name used for nonbonded pairs, Cou the one used for charges.
type AtomDef struct {
	Num     int
	Vdw     string
	Cou     string
	Virtual bool
	VDef    []string //site construction info for virtual atoms, kept verbatim
}

// Molecule holds every bonded category of one molecule from the .off
// file. The slices keep the order of the file.
type Molecule struct {
	Name       string
	Atoms      []*AtomDef
	Bonds      []*BondedTerm //category BON: HAR, QUA
	Angles     []*BondedTerm //category ANG: HAR, QUA
	Bd3        []*BondedTerm //category BD3 (1-3 distances): QBB, MUB
	Dihedrals  []*BondedTerm //category DIH: HAR, NCO, COS
	CDihedrals []*BondedTerm //category CDI: CNCO, CCOS
	Exclusions [][]int
}

// AtomTypes returns the Vdw type names of the molecule, skipping the
// net-force/torque pseudo sites, without repetition.
func (M *Molecule) AtomTypes() []string {
	seen := make(map[string]bool)
	ret := make([]string, 0, len(M.Atoms))
	for _, at := range M.Atoms {
		if at.Vdw == NetForce || at.Vdw == Torque {
			continue
		}
		if !seen[at.Vdw] {
			seen[at.Vdw] = true
			ret = append(ret, at.Vdw)
		}
	}
	return ret
}

// ChargeTypes is as AtomTypes but for the Coulomb type names.
func (M *Molecule) ChargeTypes() []string {
	seen := make(map[string]bool)
	ret := make([]string, 0, len(M.Atoms))
	for _, at := range M.Atoms {
		if at.Cou == NetForce || at.Cou == Torque {
			continue
		}
		if !seen[at.Cou] {
			seen[at.Cou] = true
			ret = append(ret, at.Cou)
		}
	}
	return ret
}

// FF is a full fitted force field: bonded terms per molecule, nonbonded
// terms per unordered atom-type pair, and per-molecule charges (zero
// until CalcCharges is called). It is the input to the table and top
// subpackages, which treat it as read-only.
type FF struct {
	mols      []*Molecule
	Nonbonded map[Pair][]*Term
	Charges   map[string]map[string]float64
}

// NewFF returns an empty force field.
func NewFF() *FF {
	return &FF{
		mols:      make([]*Molecule, 0, 2),
		Nonbonded: make(map[Pair][]*Term),
		Charges:   make(map[string]map[string]float64),
	}
}

// AddMolecule appends a molecule and gives it a zeroed charge map.
func (F *FF) AddMolecule(M *Molecule) {
	if M == nil {
		panic(ErrNilMolecule)
	}
	F.mols = append(F.mols, M)
	ch := make(map[string]float64)
	for _, at := range M.ChargeTypes() {
		ch[at] = 0.0
	}
	F.Charges[M.Name] = ch
}

// AddTerm adds a nonbonded term for the pair.
func (F *FF) AddTerm(P Pair, T *Term) {
	F.Nonbonded[P] = append(F.Nonbonded[P], T)
}

// Molecule returns the molecule called name, or nil.
func (F *FF) Molecule(name string) *Molecule {
	for _, m := range F.mols {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Molecules returns the molecules in file order. The slice is owned by
// the FF, don't modify it.
func (F *FF) Molecules() []*Molecule {
	return F.mols
}

// MolNames returns the molecule names in file order.
func (F *FF) MolNames() []string {
	ret := make([]string, len(F.mols))
	for i, m := range F.mols {
		ret[i] = m.Name
	}
	return ret
}

// Pairs returns the nonbonded pairs in a deterministic (sorted) order.
// The map iteration order of Nonbonded is not reproducible, and table
// numbering and output files should be.
func (F *FF) Pairs() []Pair {
	ret := make([]Pair, 0, len(F.Nonbonded))
	for k := range F.Nonbonded {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i][0] != ret[j][0] {
			return ret[i][0] < ret[j][0]
		}
		return ret[i][1] < ret[j][1]
	})
	return ret
}

// IncludedTypes returns the atom-type names to consider for table
// generation. With an empty inclMol every non-pseudo type of every
// molecule is returned, otherwise only the types of the named molecules.
func (F *FF) IncludedTypes(inclMol []string) []string {
	if len(inclMol) == 0 {
		seen := make(map[string]bool)
		ret := []string{}
		for _, m := range F.mols {
			for _, at := range m.AtomTypes() {
				if !seen[at] {
					seen[at] = true
					ret = append(ret, at)
				}
			}
		}
		return ret
	}
	seen := make(map[string]bool)
	ret := []string{}
	for _, name := range inclMol {
		m := F.Molecule(name)
		if m == nil {
			continue
		}
		for _, at := range m.AtomTypes() {
			if !seen[at] {
				seen[at] = true
				ret = append(ret, at)
			}
		}
	}
	return ret
}
