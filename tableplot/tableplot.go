//Package tableplot draws quick-look png plots of generated tables, to
//eyeball a potential before running anything with it.
package tableplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	afm "github.com/junechem/afmtogmx"
	"github.com/junechem/afmtogmx/table"
)

//potentials diverge near the origin, values above this are left out of
//the plot so the interesting region stays visible.
const maxAbs = 1000.0 //kJ/mol

func basicPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "r (nm)"
	p.Y.Label.Text = "V (kJ/mol)"
	p.Add(plotter.NewGrid())
	return p
}

// clipped turns an (x, v) column pair into plottable points, dropping
// the diverging head of the curve.
func clipped(x, v []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if math.Abs(v[i]) > maxAbs || math.IsInf(v[i], 0) || math.IsNaN(v[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: v[i]})
	}
	return pts
}

func addLine(p *plot.Plot, pts plotter.XYs, name string, col color.RGBA) error {
	if len(pts) == 0 {
		return nil
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.LineStyle.Color = col
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

// Nonbonded plots the attractive, repulsive and total potential of one
// pair table and saves it as plotname.png.
func Nonbonded(T *table.Table, pair afm.Pair, trans map[string]string, plotname string) error {
	if T == nil {
		return afm.NewError("tableplot.Nonbonded", "given a nil table")
	}
	n1, n2 := pair.Translate(trans)
	p := basicPlot(fmt.Sprintf("%s-%s", n1, n2))
	total := make([]float64, len(T.X))
	for i := range total {
		total[i] = T.AttV[i] + T.RepV[i]
	}
	if err := addLine(p, clipped(T.X, T.AttV), "attractive", color.RGBA{B: 255, A: 255}); err != nil {
		return err
	}
	if err := addLine(p, clipped(T.X, T.RepV), "repulsive", color.RGBA{R: 255, A: 255}); err != nil {
		return err
	}
	if err := addLine(p, clipped(T.X, total), "total", color.RGBA{A: 255}); err != nil {
		return err
	}
	return p.Save(5*vg.Inch, 5*vg.Inch, fmt.Sprintf("%s.png", plotname))
}

// Bonded plots one bonded table and saves it as plotname.png.
func Bonded(bt *table.BondedTable, plotname string) error {
	if bt == nil {
		return afm.NewError("tableplot.Bonded", "given a nil table")
	}
	p := basicPlot(fmt.Sprintf("%s %s table %d", bt.Mol, bt.Term.Kind, bt.Index))
	p.X.Label.Text = "d (nm)"
	if err := addLine(p, clipped(bt.X, bt.V), "potential", color.RGBA{A: 255}); err != nil {
		return err
	}
	return p.Save(5*vg.Inch, 5*vg.Inch, fmt.Sprintf("%s.png", plotname))
}
