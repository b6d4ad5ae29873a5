package crossval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/metrics"
)

func TestKFold(t *testing.T) {
	t.Run("Basic split", func(t *testing.T) {
		n := 100
		kf := NewKFold(5, false, 42)
		assert.Equal(t, 5, kf.NumSplits())

		folds := kf.Split(n)
		assert.Equal(t, 5, len(folds))

		for i, fold := range folds {
			assert.Equal(t, 80, len(fold.TrainIndices), "Fold %d train size", i)
			assert.Equal(t, 20, len(fold.TestIndices), "Fold %d test size", i)

			testSet := make(map[int]bool)
			for _, idx := range fold.TestIndices {
				testSet[idx] = true
			}
			for _, idx := range fold.TrainIndices {
				assert.False(t, testSet[idx], "Train index %d in test set", idx)
			}
		}

		// Every index appears exactly once as test.
		coverage := make(map[int]int)
		for _, fold := range folds {
			for _, idx := range fold.TestIndices {
				coverage[idx]++
			}
		}
		for i := 0; i < n; i++ {
			assert.Equal(t, 1, coverage[i], "Index %d coverage", i)
		}
	})

	t.Run("Shuffle changes order but keeps coverage", func(t *testing.T) {
		n := 50
		plain := NewKFold(5, false, 42).Split(n)
		shuffled := NewKFold(5, true, 42).Split(n)

		different := false
		for i := range plain {
			for j := range plain[i].TestIndices {
				if plain[i].TestIndices[j] != shuffled[i].TestIndices[j] {
					different = true
					break
				}
			}
		}
		assert.True(t, different, "shuffled folds should differ from unshuffled")

		coverage := make(map[int]int)
		for _, fold := range shuffled {
			for _, idx := range fold.TestIndices {
				coverage[idx]++
			}
		}
		for i := 0; i < n; i++ {
			assert.Equal(t, 1, coverage[i])
		}
	})

	t.Run("Shuffle is seed-reproducible", func(t *testing.T) {
		a := NewKFold(5, true, 7).Split(40)
		b := NewKFold(5, true, 7).Split(40)
		assert.Equal(t, a, b)
	})

	t.Run("Uneven split distributes remainder", func(t *testing.T) {
		folds := NewKFold(3, false, 0).Split(10)
		sizes := []int{len(folds[0].TestIndices), len(folds[1].TestIndices), len(folds[2].TestIndices)}
		assert.Equal(t, []int{4, 3, 3}, sizes)
	})

	t.Run("Too few splits falls back to five", func(t *testing.T) {
		kf := NewKFold(1, false, 0)
		assert.Equal(t, 5, kf.NumSplits())
	})
}

// meanEstimator predicts the training-target mean for every row.
type meanEstimator struct {
	mean   float64
	fitted bool
}

func (m *meanEstimator) Fit(_, y mat.Matrix) error {
	rows, _ := y.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		sum += y.At(i, 0)
	}
	m.mean = sum / float64(rows)
	m.fitted = true
	return nil
}

func (m *meanEstimator) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := X.Dims()
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred.Set(i, 0, m.mean)
	}
	return pred, nil
}

func TestCrossValidate(t *testing.T) {
	n := 60
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%7))
		y.Set(i, 0, 10.0)
	}

	kf := NewKFold(5, true, 42)
	result, err := CrossValidate(
		func() Estimator { return &meanEstimator{} },
		X, y, kf,
		func(yTrue, yPred *mat.VecDense) (float64, error) {
			return metrics.RMSE(yTrue, yPred)
		},
	)
	require.NoError(t, err)
	require.Len(t, result.TestScores, 5)

	// 定数ターゲットなので平均予測の誤差は0
	assert.InDelta(t, 0.0, result.MeanScore(), 1e-12)
	assert.InDelta(t, 0.0, result.StdScore(), 1e-12)
}

func TestCrossValidateValidation(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)
	kf := NewKFold(5, false, 0)
	scorer := func(yTrue, yPred *mat.VecDense) (float64, error) {
		return metrics.RMSE(yTrue, yPred)
	}

	_, err := CrossValidate(nil, X, y, kf, scorer)
	assert.Error(t, err)

	badY := mat.NewDense(7, 1, nil)
	_, err = CrossValidate(func() Estimator { return &meanEstimator{} }, X, badY, kf, scorer)
	assert.Error(t, err)

	wideY := mat.NewDense(10, 2, nil)
	_, err = CrossValidate(func() Estimator { return &meanEstimator{} }, X, wideY, kf, scorer)
	assert.Error(t, err)
}
