package boosting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/pkg/errors"
)

// makeRegressionData builds a deterministic piecewise target so a shallow
// tree ensemble can fit it well.
func makeRegressionData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i % 17)
		x1 := float64((i * 7) % 23)
		x2 := float64((i * 13) % 11)
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		X.Set(i, 2, x2)

		target := 3.0*x0 - 0.5*x1
		if x2 > 5 {
			target += 10
		}
		y.Set(i, 0, target)
	}
	return X, y
}

func TestGBMRegressorFitPredict(t *testing.T) {
	X, y := makeRegressionData(200)

	reg := NewGBMRegressor().
		WithNumIterations(150).
		WithLearningRate(0.1).
		WithMaxDepth(4).
		WithSubsample(1.0).
		WithColsampleByTree(1.0)

	require.NoError(t, reg.Fit(X, y))
	assert.True(t, reg.IsFitted())
	assert.Equal(t, 150, reg.NumTrees())

	score, err := reg.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95, "R^2 on training data should be high")
}

func TestGBMRegressorDeterministic(t *testing.T) {
	X, y := makeRegressionData(120)

	train := func() []float64 {
		reg := NewGBMRegressor().
			WithNumIterations(50).
			WithLearningRate(0.1).
			WithMaxDepth(3).
			WithSubsample(0.7).
			WithColsampleByTree(0.7).
			WithSeed(42)
		require.NoError(t, reg.Fit(X, y))

		pred, err := reg.Predict(X)
		require.NoError(t, err)

		rows, _ := pred.Dims()
		out := make([]float64, rows)
		for i := range out {
			out[i] = pred.At(i, 0)
		}
		return out
	}

	first := train()
	second := train()
	assert.Equal(t, first, second, "same seed must reproduce identical predictions")
}

func TestGBMRegressorNotFitted(t *testing.T) {
	reg := NewGBMRegressor()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := reg.Predict(X)
	var notFitted *errors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)

	_, err = reg.FeatureImportance()
	assert.ErrorAs(t, err, &notFitted)
}

func TestGBMRegressorValidation(t *testing.T) {
	reg := NewGBMRegressor()

	X := mat.NewDense(3, 2, nil)
	yBad := mat.NewDense(2, 1, nil)
	assert.Error(t, reg.Fit(X, yBad), "row count mismatch must fail")

	yWide := mat.NewDense(3, 2, nil)
	assert.Error(t, reg.Fit(X, yWide), "multi-column target must fail")

	X2, y2 := makeRegressionData(50)
	require.NoError(t, reg.WithNumIterations(5).Fit(X2, y2))

	narrow := mat.NewDense(5, 2, nil)
	_, err := reg.Predict(narrow)
	assert.Error(t, err, "feature count mismatch must fail")
}

func TestGBMRegressorFeatureImportance(t *testing.T) {
	// x0 carries nearly all signal; its importance should dominate.
	n := 200
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%2))
		X.Set(i, 2, 1.0)
		y.Set(i, 0, 5.0*float64(i))
	}

	reg := NewGBMRegressor().
		WithNumIterations(20).
		WithLearningRate(0.3).
		WithMaxDepth(3).
		WithSubsample(1.0).
		WithColsampleByTree(1.0)
	require.NoError(t, reg.Fit(X, y))

	imp, err := reg.FeatureImportance()
	require.NoError(t, err)
	require.Len(t, imp, 3)

	sum := imp[0] + imp[1] + imp[2]
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[0], imp[2])
}

func TestGBMRegressorL1Objective(t *testing.T) {
	X, y := makeRegressionData(150)

	reg := NewGBMRegressor().
		WithObjective("l1").
		WithNumIterations(200).
		WithLearningRate(0.5).
		WithMaxDepth(4).
		WithSubsample(1.0).
		WithColsampleByTree(1.0).
		WithRegAlpha(0).
		WithRegLambda(0)
	require.NoError(t, reg.Fit(X, y))

	pred, err := reg.Predict(X)
	require.NoError(t, err)

	rows, _ := y.Dims()
	mae := 0.0
	for i := 0; i < rows; i++ {
		mae += math.Abs(pred.At(i, 0) - y.At(i, 0))
	}
	mae /= float64(rows)
	assert.Less(t, mae, 5.0, "L1 objective should reduce absolute error")
}

func TestObjectives(t *testing.T) {
	l2, err := NewObjective("l2")
	require.NoError(t, err)
	assert.Equal(t, 2.0, l2.InitScore([]float64{1, 2, 3}))
	assert.Equal(t, 1.5, l2.Gradient(3, 1.5))
	assert.Equal(t, 1.0, l2.Hessian(3, 1.5))

	l1, err := NewObjective("l1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, l1.InitScore([]float64{1, 2, 9}))
	assert.Equal(t, 2.5, l1.InitScore([]float64{1, 2, 3, 9}))
	assert.Equal(t, 1.0, l1.Gradient(5, 2))
	assert.Equal(t, -1.0, l1.Gradient(2, 5))

	_, err = NewObjective("poisson")
	assert.Error(t, err)
}

func TestSoftThreshold(t *testing.T) {
	assert.Equal(t, 2.0, softThreshold(3, 1))
	assert.Equal(t, -2.0, softThreshold(-3, 1))
	assert.Equal(t, 0.0, softThreshold(0.5, 1))
}
