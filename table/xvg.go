package table

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	afm "github.com/junechem/afmtogmx"
)

//Gromacs reads the tables themselves uncompressed, but the files are
//large and very repetitive, so a compressed copy for archiving is
//nearly free. The suffix picks the format: ".xvg" is written plain,
//".xvg.gz" gzipped and ".xvg.zst" zstd-compressed.

func tableWriter(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	format := strings.ToLower(name)[len(name)-1]
	switch format {
	case 'z':
		return &wrapWriter{gzip.NewWriter(f), f}, nil
	case 't':
		z, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			f.Close()
			return nil, err
		}
		return &wrapWriter{z, f}, nil
	default:
		return f, nil
	}
}

// wrapWriter closes the compressor and then the file under it.
type wrapWriter struct {
	io.WriteCloser
	f *os.File
}

func (w *wrapWriter) Close() error {
	if err := w.WriteCloser.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// WriteNonbonded writes one file per pair, named
// prefix_At1_At2+suffix, with the atom types renamed through trans.
// Each row carries the distance and the value/force pair of the
// Coulomb, attractive and repulsive columns.
func WriteNonbonded(prefix string, tables map[afm.Pair]*Table, trans map[string]string, suffix string) error {
	pairs := make([]afm.Pair, 0, len(tables))
	for p := range tables {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
	for _, p := range pairs {
		n1, n2 := p.Translate(trans)
		name := fmt.Sprintf("%s_%s_%s%s", prefix, n1, n2, suffix)
		if err := writeNonbondedFile(name, tables[p]); err != nil {
			return errDecorate(err, "WriteNonbonded")
		}
	}
	return nil
}

func writeNonbondedFile(name string, T *Table) error {
	w, err := tableWriter(name)
	if err != nil {
		return afm.NewError("writeNonbondedFile", "can't create %s: %s", name, err.Error())
	}
	defer w.Close()
	bw := bufio.NewWriter(w)
	for i := range T.X {
		fmt.Fprintf(bw, "% 20.8E% 20.8E% 20.8E% 20.8E% 20.8E% 20.8E% 20.8E\n",
			T.X[i], T.CouV[i], T.CouF[i], T.AttV[i], T.AttF[i], T.RepV[i], T.RepF[i])
	}
	if err := bw.Flush(); err != nil {
		return afm.NewError("writeNonbondedFile", "writing %s: %s", name, err.Error())
	}
	return nil
}

// WriteBlank writes the all-zero base table (prefix+suffix) that the
// engine loads for pairs handled entirely through the pair-specific
// files. It spans 5 nm so no cutoff can outrun it.
func WriteBlank(prefix, suffix string) error {
	T := newTable(blankGrid.X())
	if err := writeNonbondedFile(prefix+suffix, T); err != nil {
		return errDecorate(err, "WriteBlank")
	}
	return nil
}

// WriteBonded writes one 3-column file per bonded table, named
// prefix_b<N>+suffix where N is the number the topology references.
func WriteBonded(prefix string, set *BondedSet, suffix string) error {
	for _, mol := range set.Molecules() {
		ts, err := set.Molecule(mol)
		if err != nil {
			return errDecorate(err, "WriteBonded")
		}
		for _, bt := range ts {
			name := fmt.Sprintf("%s_b%d%s", prefix, bt.Index, suffix)
			if err := writeBondedFile(name, bt); err != nil {
				return errDecorate(err, "WriteBonded")
			}
		}
	}
	return nil
}

func writeBondedFile(name string, bt *BondedTable) error {
	w, err := tableWriter(name)
	if err != nil {
		return afm.NewError("writeBondedFile", "can't create %s: %s", name, err.Error())
	}
	defer w.Close()
	bw := bufio.NewWriter(w)
	for i := range bt.X {
		fmt.Fprintf(bw, "% 20.8E% 20.8E% 20.8E\n", bt.X[i], bt.V[i], bt.F[i])
	}
	if err := bw.Flush(); err != nil {
		return afm.NewError("writeBondedFile", "writing %s: %s", name, err.Error())
	}
	return nil
}
