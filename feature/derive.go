// Package feature implements derived-feature construction, mutual
// information ranking and principal component features for the Ames tables.
package feature

import (
	"math"
	"sort"

	"github.com/shunkawai/amesboost/core/model"
	"github.com/shunkawai/amesboost/dataset"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// porchColumns are the outdoor-area columns combined into TotalOutsideSF
// and counted by PorchTypes.
var porchColumns = []string{
	"WoodDeckSF",
	"OpenPorchSF",
	"EnclosedPorch",
	"ThreeSeasonPorch",
	"ScreenPorch",
}

// msClassByCode groups the MSSubClass sale codes into building classes.
var msClassByCode = map[string]string{
	"20":  "One_Story",
	"30":  "One_Story",
	"40":  "One_Story",
	"120": "One_Story",
	"45":  "One_and_Half_Story",
	"50":  "One_and_Half_Story",
	"150": "One_and_Half_Story",
	"60":  "Two_Story",
	"70":  "Two_Story",
	"160": "Two_Story",
	"75":  "Two_and_Half_Story",
	"80":  "Split_or_Multilevel",
	"180": "Split_or_Multilevel",
	"85":  "Split_Foyer",
	"90":  "Duplex",
	"190": "Two_Family_Conversion",
}

// Deriver adds the engineered columns to a table. Group statistics
// (neighborhood median area) and the building-type vocabulary are learned
// from the training split so the test split sees identical columns.
type Deriver struct {
	model.BaseEstimator

	nhbdMedianArea map[string]float64
	globalMedian   float64
	bldgLevels     []string
}

// NewDeriver creates an unfitted Deriver.
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Fit learns the neighborhood median living area and the set of building
// types present in the training split.
func (d *Deriver) Fit(t *dataset.Table) error {
	area, err := t.Floats("GrLivArea")
	if err != nil {
		return errors.Wrap(err, "Deriver.Fit")
	}
	nhbd, err := t.Strings("Neighborhood")
	if err != nil {
		return errors.Wrap(err, "Deriver.Fit")
	}
	bldg, err := t.Strings("BldgType")
	if err != nil {
		return errors.Wrap(err, "Deriver.Fit")
	}

	byNhbd := make(map[string][]float64)
	for i, n := range nhbd {
		if !math.IsNaN(area[i]) {
			byNhbd[n] = append(byNhbd[n], area[i])
		}
	}
	d.nhbdMedianArea = make(map[string]float64, len(byNhbd))
	for n, vals := range byNhbd {
		d.nhbdMedianArea[n] = median(vals)
	}
	d.globalMedian = median(area)

	seen := make(map[string]bool)
	d.bldgLevels = d.bldgLevels[:0]
	for _, b := range bldg {
		if !seen[b] {
			seen[b] = true
			d.bldgLevels = append(d.bldgLevels, b)
		}
	}
	sort.Strings(d.bldgLevels)

	d.SetFitted()
	return nil
}

// Transform appends the derived columns to the table in place.
func (d *Deriver) Transform(t *dataset.Table) error {
	if !d.IsFitted() {
		return errors.NewNotFittedError("Deriver", "Transform")
	}

	if err := d.addRatios(t); err != nil {
		return err
	}
	if err := d.addOutsideArea(t); err != nil {
		return err
	}
	if err := d.addBldgInteraction(t); err != nil {
		return err
	}
	if err := d.addMSClass(t); err != nil {
		return err
	}
	return d.addNhbdMedianArea(t)
}

// FitTransform fits on the table and transforms it.
func (d *Deriver) FitTransform(t *dataset.Table) error {
	if err := d.Fit(t); err != nil {
		return err
	}
	return d.Transform(t)
}

// addRatios は LivLotRatio と Spaciousness を追加する
func (d *Deriver) addRatios(t *dataset.Table) error {
	grLiv, err := t.Floats("GrLivArea")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}
	lot, err := t.Floats("LotArea")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}
	first, err := t.Floats("FirstFlrSF")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}
	second, err := t.Floats("SecondFlrSF")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}
	rooms, err := t.Floats("TotRmsAbvGrd")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}

	n := t.NumRows()
	livLot := make([]float64, n)
	spacious := make([]float64, n)
	for i := 0; i < n; i++ {
		livLot[i] = safeDiv(grLiv[i], lot[i])
		spacious[i] = safeDiv(first[i]+second[i], rooms[i])
	}

	if err := t.AddFloats("LivLotRatio", livLot); err != nil {
		return err
	}
	return t.AddFloats("Spaciousness", spacious)
}

// addOutsideArea は TotalOutsideSF と PorchTypes を追加する
func (d *Deriver) addOutsideArea(t *dataset.Table) error {
	n := t.NumRows()
	total := make([]float64, n)
	count := make([]float64, n)

	for _, name := range porchColumns {
		vals, err := t.Floats(name)
		if err != nil {
			return errors.Wrap(err, "Deriver.Transform")
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				continue
			}
			total[i] += v
			if v > 0 {
				count[i]++
			}
		}
	}

	if err := t.AddFloats("TotalOutsideSF", total); err != nil {
		return err
	}
	return t.AddFloats("PorchTypes", count)
}

// addBldgInteraction は BldgType の水準ごとに GrLivArea との交互作用列を作る
func (d *Deriver) addBldgInteraction(t *dataset.Table) error {
	bldg, err := t.Strings("BldgType")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}
	grLiv, err := t.Floats("GrLivArea")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}

	for _, level := range d.bldgLevels {
		vals := make([]float64, t.NumRows())
		for i, b := range bldg {
			if b == level {
				vals[i] = grLiv[i]
			}
		}
		if err := t.AddFloats("Bldg_"+level+"_GrLivArea", vals); err != nil {
			return err
		}
	}
	return nil
}

// addMSClass は MSSubClass の販売コードを建物クラスへ粗視化する
func (d *Deriver) addMSClass(t *dataset.Table) error {
	codes, err := t.Strings("MSSubClass")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}

	classes := make([]string, len(codes))
	for i, code := range codes {
		if class, ok := msClassByCode[code]; ok {
			classes[i] = class
		} else {
			classes[i] = dataset.MissingLevel
		}
	}
	return t.AddStrings("MSClass", dataset.KindNominal, classes)
}

// addNhbdMedianArea は学習時に求めた近隣ごとの中央値を付与する
func (d *Deriver) addNhbdMedianArea(t *dataset.Table) error {
	nhbd, err := t.Strings("Neighborhood")
	if err != nil {
		return errors.Wrap(err, "Deriver.Transform")
	}

	vals := make([]float64, len(nhbd))
	for i, n := range nhbd {
		if m, ok := d.nhbdMedianArea[n]; ok {
			vals[i] = m
		} else {
			vals[i] = d.globalMedian
		}
	}
	return t.AddFloats("MedNhbdArea", vals)
}

func safeDiv(a, b float64) float64 {
	if b == 0 || math.IsNaN(a) || math.IsNaN(b) {
		return 0
	}
	return a / b
}

func median(vals []float64) float64 {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0
	}
	sort.Float64s(clean)
	n := len(clean)
	if n%2 == 1 {
		return clean[n/2]
	}
	return (clean[n/2-1] + clean[n/2]) / 2
}
