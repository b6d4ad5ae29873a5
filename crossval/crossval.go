package crossval

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/pkg/errors"
	"github.com/shunkawai/amesboost/pkg/log"
)

// Estimator is the minimal estimator contract required for scoring.
// boosting.GBMRegressor satisfies it.
type Estimator interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer computes a score from true and predicted target vectors.
// Loss-style scorers (RMSE, RMSLE) return lower-is-better values.
type Scorer func(yTrue, yPred *mat.VecDense) (float64, error)

// Result stores per-fold cross-validation scores.
type Result struct {
	TrainScores []float64
	TestScores  []float64
}

// MeanScore returns the mean test score across folds.
func (r *Result) MeanScore() float64 {
	if len(r.TestScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range r.TestScores {
		sum += s
	}
	return sum / float64(len(r.TestScores))
}

// StdScore returns the sample standard deviation of the test scores.
func (r *Result) StdScore() float64 {
	if len(r.TestScores) <= 1 {
		return 0
	}
	mean := r.MeanScore()
	sumSq := 0.0
	for _, s := range r.TestScores {
		diff := s - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(r.TestScores)-1))
}

// CrossValidate fits a fresh estimator per fold and scores it on the held-out
// rows. Folds run concurrently; the estimator factory must return independent
// instances.
func CrossValidate(newEstimator func() Estimator, X, y mat.Matrix, splitter Splitter, score Scorer) (*Result, error) {
	if newEstimator == nil || splitter == nil || score == nil {
		return nil, errors.NewValidationError("CrossValidate", "estimator factory, splitter, and scorer are required", nil)
	}

	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return nil, errors.NewDimensionError("CrossValidate", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewDimensionError("CrossValidate", 1, yCols, 1)
	}

	folds := splitter.Split(nSamples)
	nFolds := len(folds)

	result := &Result{
		TrainScores: make([]float64, nFolds),
		TestScores:  make([]float64, nFolds),
	}

	logger := log.GetLoggerWithName("crossval")

	var wg sync.WaitGroup
	foldErrs := make([]error, nFolds)

	for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]
			trainX, trainY := extractSubset(X, y, fold.TrainIndices)
			testX, testY := extractSubset(X, y, fold.TestIndices)

			est := newEstimator()
			if err := est.Fit(trainX, trainY); err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d training failed", idx)
				return
			}

			trainScore, err := scoreOn(est, trainX, trainY, score)
			if err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d train scoring failed", idx)
				return
			}
			testScore, err := scoreOn(est, testX, testY, score)
			if err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d test scoring failed", idx)
				return
			}

			result.TrainScores[idx] = trainScore
			result.TestScores[idx] = testScore

			logger.Debug("fold scored",
				log.FoldKey, idx,
				"train_score", trainScore,
				"test_score", testScore)
		}(foldIdx)
	}

	wg.Wait()

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func scoreOn(est Estimator, X, y mat.Matrix, score Scorer) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := y.Dims()
	yVec := mat.NewVecDense(rows, nil)
	predVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yVec.SetVec(i, y.At(i, 0))
		predVec.SetVec(i, pred.At(i, 0))
	}
	return score(yVec, predVec)
}

// extractSubset builds row-subset copies of X and y.
func extractSubset(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
