package top

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	afm "github.com/junechem/afmtogmx"
	"github.com/junechem/afmtogmx/table"
)

//Section bodies for one molecule, keyed by the topology keyword they
//belong under ("atoms", "bonds", "angles", "dihedrals", "exclusions",
//"virtual_sitesn", "cmap").
type sections map[string]string

// MoleculeSections generates the bonded section bodies of one molecule.
// Quartic terms need the bonded tables generated from the same force
// field, with the same molecule selection, or the table numbers won't
// resolve.
func MoleculeSections(F *afm.FF, M *afm.Molecule, tabs *table.BondedSet, o *Options) (map[string]string, error) {
	if o == nil {
		o = &Options{}
	}
	ret := make(sections)
	atoms, virt := atomsSection(F, M, o.Trans)
	ret["atoms"] = atoms
	if virt != "" {
		ret["virtual_sitesn"] = virt
	}
	bonds, err := bondsSection(M, tabs)
	if err != nil {
		return nil, errDecorate(err, "MoleculeSections")
	}
	angles := anglesSection(M)
	bd3Bonds, bd3Angles, err := bd3Sections(M, tabs)
	if err != nil {
		return nil, errDecorate(err, "MoleculeSections")
	}
	bonds += bd3Bonds
	angles += bd3Angles
	if bonds != "" {
		ret["bonds"] = bonds
	}
	if angles != "" {
		ret["angles"] = angles
	}
	if d := dihedralsSection(M); d != "" {
		ret["dihedrals"] = d
	}
	if c := cmapSection(M); c != "" {
		ret["cmap"] = c
	}
	if e := exclusionsSection(M); e != "" {
		ret["exclusions"] = e
	}
	return ret, nil
}

// atomsSection writes one line per real atom and, separately, the
// virtual_sitesn lines for the virtual ones. The net-force/torque
// pseudo sites are skipped entirely. Every molecule is written as a
// single residue named after itself.
func atomsSection(F *afm.FF, M *afm.Molecule, trans map[string]string) (atoms, virtual string) {
	var ab, vb strings.Builder
	charges := F.Charges[M.Name]
	for _, at := range M.Atoms {
		if at.Vdw == afm.NetForce || at.Vdw == afm.Torque ||
			at.Cou == afm.NetForce || at.Cou == afm.Torque {
			continue
		}
		name := at.Vdw
		if t, ok := trans[name]; ok {
			name = t
		}
		fmt.Fprintf(&ab, "%-8d%-8s%-8d%-8s%-8s%-8d%-8.5f\n",
			at.Num, name, 1, M.Name, name, at.Num, charges[at.Cou])
		if at.Virtual {
			vb.WriteString(virtualLine(at))
		}
	}
	return ab.String(), vb.String()
}

// virtualLine writes a virtual_sitesn entry (function type 3, weighted
// center) from the construction info kept verbatim from the input. The
// constructing atoms come last-to-first there.
func virtualLine(at *afm.AtomDef) string {
	items := make([]string, 0, len(at.VDef))
	for _, v := range at.VDef {
		if v == "+" {
			continue
		}
		v = strings.ReplaceAll(v, "(", " ")
		v = strings.ReplaceAll(v, ")", " ")
		items = append(items, v)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8d%-8d", at.Num, 3)
	for i := len(items) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%5s  ", items[i])
	}
	b.WriteString("\n")
	return b.String()
}

func bondsSection(M *afm.Molecule, tabs *table.BondedSet) (string, error) {
	var b strings.Builder
	for _, t := range M.Bonds {
		switch t.Kind {
		case "HAR":
			p1, p2 := afm.Ang2Nm*t.Params[0], 4.184e2*t.Params[1]
			for _, at := range t.Atoms {
				fmt.Fprintf(&b, "%8d%8d%8d%10.5f%20.2f\n", at[0], at[1], 1, p1, p2)
			}
		case "QUA":
			bt, err := lookupTable(M.Name, t, tabs)
			if err != nil {
				return "", err
			}
			for _, at := range t.Atoms {
				fmt.Fprintf(&b, "%8d%8d%8d%8d%8.3f\n", at[0], at[1], 8, bt.Index, 1.0)
			}
		}
	}
	return b.String(), nil
}

func anglesSection(M *afm.Molecule) string {
	var b strings.Builder
	for _, t := range M.Angles {
		switch t.Kind {
		case "HAR":
			p1, p2 := t.Params[0], afm.Kcal2KJ*t.Params[1]
			for _, at := range t.Atoms {
				fmt.Fprintf(&b, "%8d%8d%8d%8d%10.5f%10.4f\n", at[0], at[1], at[2], 1, p1, p2)
			}
		case "QUA":
			p1 := t.Params[0]
			p2, p3, p4 := afm.Kcal2KJ*t.Params[1], afm.Kcal2KJ*t.Params[2], afm.Kcal2KJ*t.Params[3]
			for _, at := range t.Atoms {
				fmt.Fprintf(&b, "%8d%8d%8d%8d%10.5f%8.1f%10.4f%10.4f%10.4f\n",
					at[0], at[1], at[2], 6, p1, 0.0, p2, p3, p4)
			}
		}
	}
	return b.String()
}

// bd3Sections writes the 1-3 distance terms. A quartic bond-bond term
// becomes two tabulated bonds sharing one table plus a cross
// bond-bond angle entry (type 3) carrying the coupling constant; a
// Morse-Urey-Bradley term becomes a Urey-Bradley angle entry (type 4).
func bd3Sections(M *afm.Molecule, tabs *table.BondedSet) (bonds, angles string, err error) {
	var bb, ab strings.Builder
	for _, t := range M.Bd3 {
		switch t.Kind {
		case "QBB":
			bt, err := lookupTable(M.Name, t, tabs)
			if err != nil {
				return "", "", err
			}
			r0 := afm.Ang2Nm * t.Params[0]
			k := 4.184e2 * t.Params[1]
			for _, at := range t.Atoms {
				a1, a2 := ordered(at[0], at[1])
				a3, a4 := ordered(at[1], at[2])
				fmt.Fprintf(&bb, "%8d%8d%8d%8d%8.3f\n", a1, a2, 8, bt.Index, 1.0)
				fmt.Fprintf(&bb, "%8d%8d%8d%8d%8.3f\n", a3, a4, 8, bt.Index, 1.0)
				fmt.Fprintf(&ab, "%8d%8d%8d%8d%10.5f%10.5f%20.2f\n", at[0], at[1], at[2], 3, r0, r0, k)
			}
		case "MUB":
			p1 := 4.184e2 * t.Params[0]
			p2, p3, p4 := afm.Ang2Nm*t.Params[1], afm.Ang2Nm*t.Params[2], afm.Ang2Nm*t.Params[3]
			for _, at := range t.Atoms {
				fmt.Fprintf(&ab, "%8d%8d%8d%8d%10.5f%10.5f%10.5f%10.5f\n", at[0], at[1], at[2], 4, p2, p3, p4, p1)
			}
		}
	}
	return bb.String(), ab.String(), nil
}

func dihedralsSection(M *afm.Molecule) string {
	var b strings.Builder
	for _, t := range M.Dihedrals {
		switch t.Kind {
		case "HAR":
			p1, p2 := t.Params[0], afm.Kcal2KJ*t.Params[1]
			for _, at := range t.Atoms {
				fmt.Fprintf(&b, "%8d%8d%8d%8d%8d%10.4f%10.4f\n", at[0], at[1], at[2], at[3], 2, p2, p1)
			}
		case "NCO", "COS":
			amp, mult, phase := afm.Kcal2KJ*t.Params[0], int(t.Params[1]), t.Params[2]
			for _, at := range t.Atoms {
				fmt.Fprintf(&b, "%8d%8d%8d%8d%8d%10.5f%10.5f%8d\n",
					at[0], at[1], at[2], at[3], 9, phase, amp, mult)
			}
		}
	}
	return b.String()
}

func cmapSection(M *afm.Molecule) string {
	var b strings.Builder
	for _, t := range M.CDihedrals {
		for _, at := range t.Atoms {
			for _, a := range at {
				fmt.Fprintf(&b, "%8d", a)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func exclusionsSection(M *afm.Molecule) string {
	var b strings.Builder
	for _, row := range M.Exclusions {
		for _, a := range row {
			if a != 0 {
				fmt.Fprintf(&b, "%5d", a)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func lookupTable(mol string, t *afm.BondedTerm, tabs *table.BondedSet) (*table.BondedTable, error) {
	if tabs == nil {
		return nil, afm.NewError("top", "molecule %s has quartic terms but no bonded tables were generated; generate them first, with the same molecule selection", mol)
	}
	bt, err := tabs.Lookup(mol, t)
	if err != nil {
		return nil, errDecorate(err, "top")
	}
	return bt, nil
}

func ordered(a, b int) (int, int) {
	if b < a {
		return b, a
	}
	return a, b
}

// Bonded splices the generated per-molecule sections into the template
// text. Each uncommented [ moleculetype ] block whose name matches a
// molecule of the force field gets its atoms, bonds, angles, dihedrals,
// exclusions and virtual sites appended to the matching section
// headers; blocks for unknown molecules and everything outside them
// pass through untouched.
func Bonded(F *afm.FF, template string, tabs *table.BondedSet, o *Options) (string, error) {
	if F == nil {
		panic(afm.ErrNilFF)
	}
	if o == nil {
		o = &Options{}
	}
	perMol := make(map[string]sections)
	for _, m := range F.Molecules() {
		if len(o.InclMol) > 0 && !hasString(o.InclMol, m.Name) {
			continue
		}
		s, err := MoleculeSections(F, m, tabs, o)
		if err != nil {
			return "", errDecorate(err, "Bonded")
		}
		perMol[m.Name] = s
	}
	return spliceMolecules(template, perMol)
}

var headerRe = regexp.MustCompile(`^\s*\[\s*(\w+)\s*\]`)

// spliceMolecules walks the template line by line, tracking which
// moleculetype block it is in, and appends the generated bodies to the
// end of each matching section (before the blank line closing it).
func spliceMolecules(template string, perMol map[string]sections) (string, error) {
	lines := strings.Split(template, "\n")
	var b strings.Builder
	var cur sections
	wantName := false //the next content line names the moleculetype
	used := make(map[string]bool)
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		trimmed := strings.TrimSpace(ln)
		if m := headerRe.FindStringSubmatch(ln); m != nil {
			kw := m[1]
			switch {
			case kw == "moleculetype":
				cur = nil
				wantName = true
			case kw == "system" || kw == "molecules":
				cur = nil
			case cur != nil:
				if body, ok := cur[kw]; ok {
					//copy the section as-is, then append ours before
					//the closing blank line
					b.WriteString(ln + "\n")
					for i++; i < len(lines) && strings.TrimSpace(lines[i]) != ""; i++ {
						b.WriteString(lines[i] + "\n")
					}
					b.WriteString(body)
					if i < len(lines) {
						b.WriteString(lines[i] + "\n")
					}
					continue
				}
			}
			b.WriteString(ln + "\n")
			continue
		}
		if wantName && trimmed != "" && !strings.HasPrefix(trimmed, ";") {
			name := strings.Fields(trimmed)[0]
			if s, ok := perMol[name]; ok {
				cur = s
				used[name] = true
			}
			wantName = false
		}
		b.WriteString(ln + "\n")
	}
	for name := range perMol {
		if !used[name] {
			return "", afm.NewError("top.Bonded",
				"template has no [ moleculetype ] block for molecule %s", name)
		}
	}
	//Split/Join bookkeeping: drop the newline added after the last line
	out := b.String()
	return strings.TrimSuffix(out, "\n"), nil
}

// WriteBonded reads the template topology, fills in the bonded sections
// of every known moleculetype, and writes the result to outfile.
func WriteBonded(F *afm.FF, template, outfile string, tabs *table.BondedSet, o *Options) error {
	text, err := os.ReadFile(template)
	if err != nil {
		return afm.NewError("top.WriteBonded", "can't read template %s: %s", template, err.Error())
	}
	full, err := Bonded(F, string(text), tabs, o)
	if err != nil {
		return errDecorate(err, "WriteBonded")
	}
	if err := os.WriteFile(outfile, []byte(full), 0644); err != nil {
		return afm.NewError("top.WriteBonded", "can't write %s: %s", outfile, err.Error())
	}
	return nil
}
