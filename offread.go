package afm

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

//Parsing of CRYOFF .off output files. The file is small enough that it is
//read whole and cut into its five sections by the section titles, the way
//the fitting tool writes them. The top of the file repeats the .ff input
//(molecular structure plus the list of fitted interactions), the
//Intra-Potential section carries the fitted bonded coefficients in the
//order the terms appear in the .ff part, and the Inter-Potential section
//carries one line per fitted nonbonded term.

var brack = regexp.MustCompile(`\[.*?\]`)

type section struct {
	name string
	text string
}

// keywords that can head a [ ] block in the ff-input part of the file.
var bondedKeywords = []string{"MOL", "ATO", "BON", "ANG", "BD3", "DIH", "CDIH", "EXC"}
var nonbondedKeywords = []string{"FUD", "COU", "THC", "GLJ", "BUC", "DBU", "STR",
	"EXP", "POW", "PEX", "DPO", "SRD", "EQV", "CHA"}

// how many coefficients each bonded kind carries, and how many atoms each
// of its tuples has.
var bondedKinds = map[string]struct{ params, atoms int }{
	"HAR":  {2, 0}, //atoms depend on the category, filled below
	"QUA":  {4, 0},
	"QBB":  {5, 3},
	"MUB":  {4, 3},
	"NCO":  {3, 4},
	"COS":  {3, 4},
	"CNCO": {4, 4},
	"CCOS": {4, 4},
}

var categoryAtoms = map[string]int{"BON": 2, "ANG": 3, "BD3": 3, "DIH": 4, "CDIH": 4}

// OFFRead reads a CRYOFF .off file and returns the force field in it.
// Charges start at zero; call CalcCharges to derive them from the fitted
// Coulomb prefactors.
func OFFRead(offname string) (*FF, error) {
	data, err := os.ReadFile(offname)
	if err != nil {
		return nil, NewError("OFFRead", "can't read off file %s: %v", offname, err)
	}
	F, err2 := OFFParse(string(data))
	if err2 != nil {
		return nil, errDecorate(err2, "OFFRead "+offname)
	}
	return F, nil
}

// OFFParse parses the text of an .off file.
func OFFParse(off string) (*FF, error) {
	secs, err := offSections(off)
	if err != nil {
		return nil, err
	}
	F := NewFF()
	if err := parseBonded(F, secs["ff_input"], secs["intra_potential"]); err != nil {
		return nil, errDecorate(err, "OFFParse")
	}
	if err := parseNonbonded(F, secs["inter_potential"]); err != nil {
		return nil, errDecorate(err, "OFFParse")
	}
	return F, nil
}

// offSections cuts the file into its 5 parts. Every title must be
// present, even if the section under it is empty.
func offSections(off string) (map[string]string, error) {
	marks := []struct{ key, title string }{
		{"ff_input", "Atom Types:"},
		{"intra_potential", "Intra-Potential:"},
		{"inter_potential", "Inter-Potential:"},
		{"molecular_definition", "Molecular-Definition:"},
		{"table_potential", "Table-Potential:"},
	}
	locs := make([]int, len(marks))
	for i, m := range marks {
		loc := strings.Index(off, m.title)
		if loc < 0 {
			return nil, NewError("offSections", "section title %q not found in off file", m.title)
		}
		locs[i] = loc
	}
	ret := make(map[string]string, len(marks))
	//the ff-input copy sits _before_ the "Atom Types:" title.
	ret["ff_input"] = off[:locs[0]]
	for i := 1; i < len(marks); i++ {
		end := len(off)
		if i+1 < len(marks) {
			end = locs[i+1]
		}
		ret[marks[i].key] = off[locs[i]:end]
	}
	return ret, nil
}

type keyloc struct {
	key        string
	start, end int
}

// findKeywords locates every known [ KEY ] block in the ff-input text.
// CDIH is matched before the 3-letter keywords so that it doesn't
// register as DIH.
func findKeywords(ffinput string) []keyloc {
	all := append([]string{"CDIH"}, bondedKeywords...)
	all = append(all, nonbondedKeywords...)
	ret := []keyloc{}
	for _, loc := range brack.FindAllStringIndex(ffinput, -1) {
		inner := strings.TrimSpace(strings.Trim(ffinput[loc[0]:loc[1]], "[]"))
		name := strings.Fields(inner)
		if len(name) == 0 {
			continue
		}
		for _, k := range all {
			if strings.HasPrefix(name[0], k) {
				ret = append(ret, keyloc{k, loc[0], loc[1]})
				break
			}
		}
	}
	return ret
}

// parseBonded fills F with the molecules of the ff-input part, taking the
// fitted coefficients from the Intra-Potential section in order.
func parseBonded(F *FF, ffinput, intra string) error {
	kws := findKeywords(ffinput)
	bonded := []keyloc{}
	for _, k := range kws {
		for _, b := range bondedKeywords {
			if k.key == b {
				bonded = append(bonded, k)
				break
			}
		}
	}
	if len(bonded) == 0 {
		return NewError("parseBonded", "no molecular definitions found in off file")
	}
	//the fitted bonded coefficient blocks, in file order.
	blocks := splitIntra(intra)
	consumed := 0
	var mol *Molecule
	for i, k := range bonded {
		end := len(ffinput)
		if i+1 < len(bonded) {
			end = bonded[i+1].start
		} else {
			//past the last bonded block the nonbonded keywords begin
			if rest := brack.FindStringIndex(ffinput[k.end:]); rest != nil {
				end = k.end + rest[0]
			}
		}
		body := ffinput[k.end:end]
		switch k.key {
		case "MOL":
			name := firstField(body)
			if name == "" {
				return NewError("parseBonded", "[ MOL ] block without a molecule name")
			}
			mol = &Molecule{Name: name}
			F.AddMolecule(mol)
		case "ATO":
			if mol == nil {
				return NewError("parseBonded", "[ ATO ] block before any [ MOL ]")
			}
			if err := parseAtoms(mol, afterHeaderLine(body)); err != nil {
				return errDecorate(err, "parseBonded "+mol.Name)
			}
		case "EXC":
			if mol == nil {
				return NewError("parseBonded", "[ EXC ] block before any [ MOL ]")
			}
			for _, line := range bodyLines(afterHeaderLine(body)) {
				ints, err := parseInts(strings.Fields(line))
				if err != nil {
					return NewError("parseBonded", "molecule %s: bad exclusion line %q", mol.Name, line)
				}
				mol.Exclusions = append(mol.Exclusions, ints)
			}
		default: //BON, ANG, BD3, DIH, CDIH
			if mol == nil {
				return NewError("parseBonded", "[ %s ] block before any [ MOL ]", k.key)
			}
			terms, n, err := parseBondedCategory(k.key, afterHeaderLine(body), blocks, consumed)
			if err != nil {
				return errDecorate(err, "parseBonded "+mol.Name)
			}
			consumed = n
			switch k.key {
			case "BON":
				mol.Bonds = terms
			case "ANG":
				mol.Angles = terms
			case "BD3":
				mol.Bd3 = terms
			case "DIH":
				mol.Dihedrals = terms
			case "CDIH":
				mol.CDihedrals = terms
			}
		}
	}
	return nil
}

// parseAtoms reads the [ ATO ] lines: atom number, vdw type, coulomb
// type. A '*' marks a virtual site, whose construction fields are kept.
func parseAtoms(mol *Molecule, body string) error {
	for _, line := range bodyLines(body) {
		virtual := strings.Contains(line, "*")
		line = strings.ReplaceAll(line, "*", "")
		f := strings.Fields(line)
		if len(f) < 3 {
			return NewError("parseAtoms", "short atom line %q", line)
		}
		num, err := strconv.Atoi(f[0])
		if err != nil {
			return NewError("parseAtoms", "bad atom number in line %q", line)
		}
		at := &AtomDef{Num: num, Vdw: f[1], Cou: f[2], Virtual: virtual}
		if virtual && len(f) > 3 {
			at.VDef = f[3:]
		}
		mol.Atoms = append(mol.Atoms, at)
	}
	return nil
}

// parseBondedCategory reads one BON/ANG/BD3/DIH/CDIH block. Lines are
// either a kind marker (HAR, QUA, QBB...), which switches the current
// term and consumes the next fitted-coefficient block, or an atom tuple
// belonging to the current term.
func parseBondedCategory(cat, body string, blocks []string, consumed int) ([]*BondedTerm, int, error) {
	terms := []*BondedTerm{}
	var cur *BondedTerm
	natoms := categoryAtoms[cat]
	for _, line := range bodyLines(body) {
		kind := kindIn(line)
		if kind != "" {
			kdef, ok := bondedKinds[kind]
			if !ok {
				return nil, consumed, NewError("parseBondedCategory", "unknown bonded kind %s in category %s", kind, cat)
			}
			if consumed >= len(blocks) {
				return nil, consumed, NewError("parseBondedCategory", "ran out of fitted coefficient blocks at %s/%s", cat, kind)
			}
			params, err := lastFloats(blocks[consumed], kdef.params)
			if err != nil {
				return nil, consumed, errDecorate(err, "parseBondedCategory "+cat+"/"+kind)
			}
			consumed++
			cur = &BondedTerm{Kind: kind, Params: params}
			terms = append(terms, cur)
			continue
		}
		if cur == nil {
			return nil, consumed, NewError("parseBondedCategory", "atom tuple before any kind marker in category %s: %q", cat, line)
		}
		ints, err := parseInts(strings.Fields(line))
		if err != nil || len(ints) != natoms {
			return nil, consumed, NewError("parseBondedCategory", "category %s: bad atom tuple %q (want %d atoms)", cat, line, natoms)
		}
		cur.Atoms = append(cur.Atoms, ints)
	}
	return terms, consumed, nil
}

// parseNonbonded reads the Inter-Potential section: one line per fitted
// term, "At1~At2 LABEL P1 P2 P3 P4" followed by fit bookkeeping fields
// that are dropped. Coulomb variants (COUWATER...) all collapse to COU.
func parseNonbonded(F *FF, inter string) error {
	lines := strings.Split(inter, "\n")
	for i, line := range lines {
		if i == 0 { //the "Inter-Potential:" title
			continue
		}
		line = strings.ReplaceAll(line, ":", "")
		f := strings.Fields(line)
		if len(f) < 6 { //pair, label, and at least 4 numbers
			continue
		}
		ats := strings.Split(f[0], "~")
		if len(ats) != 2 {
			continue
		}
		label := f[1]
		if strings.HasPrefix(label, "COU") {
			label = "COU"
		}
		f = f[:len(f)-4] //drop the fit bookkeeping fields
		params, err := parseFloats(f[2:])
		if err != nil {
			return NewError("parseNonbonded", "pair %s~%s term %s: %v", ats[0], ats[1], label, err)
		}
		F.AddTerm(NewPair(ats[0], ats[1]), &Term{Label: label, Params: params})
	}
	return nil
}

//small parsing helpers

func bodyLines(body string) []string {
	ret := []string{}
	for _, l := range strings.Split(body, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			ret = append(ret, l)
		}
	}
	return ret
}

// afterHeaderLine drops whatever shares the line with the [ KEY ]
// marker (counts and other annotations of the .ff input).
func afterHeaderLine(body string) string {
	i := strings.Index(body, "\n")
	if i < 0 {
		return ""
	}
	return body[i+1:]
}

func firstField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// kindIn returns the bonded-kind marker contained in the line, or "".
// CNCO/CCOS must be tested before NCO/COS.
func kindIn(line string) string {
	for _, k := range []string{"CNCO", "CCOS", "QBB", "MUB", "NCO", "COS", "QUA", "HAR"} {
		if strings.Contains(line, k) {
			return k
		}
	}
	return ""
}

var intraSplit = regexp.MustCompile(`\n[ \t]*\[.+\]`)

// splitIntra cuts the Intra-Potential section into the per-term fitted
// coefficient blocks, in order. The first piece is the section title and
// is dropped.
func splitIntra(intra string) []string {
	parts := intraSplit.Split(intra, -1)
	if len(parts) <= 1 {
		return []string{}
	}
	return parts[1:]
}

// lastFloats parses the last n fields of the first line of the block.
func lastFloats(block string, n int) ([]float64, error) {
	first := strings.Split(block, "\n")[0]
	f := strings.Fields(first)
	if len(f) < n {
		return nil, NewError("lastFloats", "expected %d coefficients, got %d in %q", n, len(f), first)
	}
	return parseFloats(f[len(f)-n:])
}

func parseFloats(fields []string) ([]float64, error) {
	ret := make([]float64, len(fields))
	for i, v := range fields {
		var err error
		ret[i], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, NewError("parseFloats", "non-numeric coefficient %q", v)
		}
	}
	return ret, nil
}

func parseInts(fields []string) ([]int, error) {
	ret := make([]int, len(fields))
	for i, v := range fields {
		var err error
		ret[i], err = strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}
