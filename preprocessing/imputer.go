package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/core/model"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// ConstantImputer は数値行列のNaNを固定値で埋める。
// このパイプラインでは欠損の大半が「設備なし」（地下室なし等）を意味する
// ため、定数0での補完が妥当
type ConstantImputer struct {
	model.BaseEstimator

	// FillValue は欠損の置換値
	FillValue float64

	// NFeatures は特徴量の数
	NFeatures int
}

// NewConstantImputer は指定した置換値のConstantImputerを作成する
func NewConstantImputer(fillValue float64) *ConstantImputer {
	return &ConstantImputer{FillValue: fillValue}
}

// Fit は特徴量数を記録する
func (im *ConstantImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("ConstantImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	im.NFeatures = c
	im.SetFitted()
	return nil
}

// Transform はNaNをFillValueで置き換えた行列を返す
func (im *ConstantImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !im.IsFitted() {
		return nil, errors.NewNotFittedError("ConstantImputer", "Transform")
	}

	r, c := X.Dims()
	if c != im.NFeatures {
		return nil, errors.NewDimensionError("ConstantImputer.Transform", im.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = im.FillValue
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform はFitとTransformを同時に実行する
func (im *ConstantImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := im.Fit(X); err != nil {
		return nil, err
	}
	return im.Transform(X)
}

// FillSlice はスライス中のNaNを置換値で埋める（テーブル列向けのヘルパ）
func FillSlice(vals []float64, fillValue float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = fillValue
		} else {
			out[i] = v
		}
	}
	return out
}
