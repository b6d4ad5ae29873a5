// Package report renders diagnostic charts for a pipeline run: the mutual
// information ranking and a predicted-versus-actual scatter.
package report

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/shunkawai/amesboost/feature"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// SaveMIChart writes a bar chart of the top mutual information scores to
// path (format chosen by extension, e.g. .png or .svg).
func SaveMIChart(scores []feature.Score, topN int, path string) error {
	if len(scores) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "report.SaveMIChart")
	}
	if topN <= 0 || topN > len(scores) {
		topN = len(scores)
	}
	top := scores[:topN]

	p := plot.New()
	p.Title.Text = "Mutual Information"
	p.Y.Label.Text = "MI (nats)"

	values := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, s := range top {
		values[i] = s.MI
		names[i] = s.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "report: failed to build bar chart")
	}
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.XAlign = -0.9

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "report: failed to save chart to %s", path)
	}
	return nil
}

// SavePredictionScatter writes a predicted-versus-actual scatter with the
// identity line to path.
func SavePredictionScatter(yTrue, yPred *mat.VecDense, path string) error {
	if yTrue.Len() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "report.SavePredictionScatter")
	}
	if yTrue.Len() != yPred.Len() {
		return errors.NewDimensionError("SavePredictionScatter", yTrue.Len(), yPred.Len(), 0)
	}

	p := plot.New()
	p.Title.Text = "Predicted vs Actual"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, yTrue.Len())
	lo := yTrue.AtVec(0)
	hi := lo
	for i := range pts {
		actual := yTrue.AtVec(i)
		pts[i].X = actual
		pts[i].Y = yPred.AtVec(i)
		if actual < lo {
			lo = actual
		}
		if actual > hi {
			hi = actual
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "report: failed to build scatter")
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(scatter)

	identity := plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}}
	line, err := plotter.NewLine(identity)
	if err != nil {
		return errors.Wrap(err, "report: failed to build identity line")
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "report: failed to save chart to %s", path)
	}
	return nil
}
