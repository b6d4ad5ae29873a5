package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/core/model"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// PCA projects standardized features onto their principal components. It is
// used to derive a handful of dense composite features from the correlated
// area columns.
type PCA struct {
	model.BaseEstimator

	nComponents int

	mean          []float64
	components    *mat.Dense // nComponents x nFeatures
	explainedVar  []float64
	totalVariance float64
	nFeatures     int
}

// NewPCA creates a PCA reducer keeping nComponents components.
func NewPCA(nComponents int) *PCA {
	return &PCA{nComponents: nComponents}
}

// Fit learns the principal axes of X via singular value decomposition of the
// centered data matrix.
func (p *PCA) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "PCA.Fit")

	rows, cols := X.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "PCA.Fit")
	}
	if p.nComponents < 1 || p.nComponents > cols {
		return errors.NewValidationError("nComponents",
			"must be between 1 and the number of features", p.nComponents)
	}
	if rows < 2 {
		return errors.NewValidationError("nSamples",
			"need at least two samples", rows)
	}

	p.nFeatures = cols
	p.mean = make([]float64, cols)
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += X.At(i, j)
		}
		p.mean[j] = sum / float64(rows)
	}

	centered := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, X.At(i, j)-p.mean[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return errors.NewModelError("PCA.Fit", "SVD factorization failed", nil)
	}

	var v mat.Dense
	svd.VTo(&v)
	sigma := svd.Values(nil)

	// 上位nComponents軸を行として保持する
	p.components = mat.NewDense(p.nComponents, cols, nil)
	for k := 0; k < p.nComponents; k++ {
		for j := 0; j < cols; j++ {
			p.components.Set(k, j, v.At(j, k))
		}
	}

	p.explainedVar = make([]float64, p.nComponents)
	p.totalVariance = 0
	denom := float64(rows - 1)
	for k, s := range sigma {
		variance := s * s / denom
		p.totalVariance += variance
		if k < p.nComponents {
			p.explainedVar[k] = variance
		}
	}

	p.SetFitted()
	return nil
}

// Transform projects X onto the fitted principal axes, returning an
// (n x nComponents) score matrix.
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Transform")
	}

	rows, cols := X.Dims()
	if cols != p.nFeatures {
		return nil, errors.NewDimensionError("Transform", p.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, p.nComponents, nil)
	for i := 0; i < rows; i++ {
		for k := 0; k < p.nComponents; k++ {
			sum := 0.0
			for j := 0; j < cols; j++ {
				sum += (X.At(i, j) - p.mean[j]) * p.components.At(k, j)
			}
			out.Set(i, k, sum)
		}
	}
	return out, nil
}

// FitTransform fits the axes and returns the projected training scores.
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// ExplainedVarianceRatio returns the variance fraction carried per component.
func (p *PCA) ExplainedVarianceRatio() ([]float64, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "ExplainedVarianceRatio")
	}

	out := make([]float64, p.nComponents)
	if p.totalVariance == 0 {
		return out, nil
	}
	for k, v := range p.explainedVar {
		out[k] = v / p.totalVariance
	}
	return out, nil
}

// ComponentNames returns "PC1".."PCk" labels for the score columns.
func (p *PCA) ComponentNames() []string {
	names := make([]string, p.nComponents)
	for k := range names {
		names[k] = fmt.Sprintf("PC%d", k+1)
	}
	return names
}
