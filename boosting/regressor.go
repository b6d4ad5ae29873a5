// Package boosting implements gradient boosted regression trees for the
// house-price model. The trainer is an exact-greedy, second-order booster
// with L1/L2 regularization, row bagging and per-tree feature subsampling,
// matching the hyperparameter surface the pipeline tunes over.
package boosting

import (
	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/core/model"
	"github.com/shunkawai/amesboost/core/parallel"
	"github.com/shunkawai/amesboost/metrics"
	"github.com/shunkawai/amesboost/pkg/errors"
	"github.com/shunkawai/amesboost/pkg/log"
)

// predictParallelThreshold is the row count below which prediction stays
// sequential.
const predictParallelThreshold = 256

// GBMRegressor is a gradient boosting regressor with a scikit-learn style
// Fit/Predict API.
type GBMRegressor struct {
	model.BaseEstimator

	// Params holds the training hyperparameters.
	Params Params

	trees        []Tree
	initScore    float64
	featureGains []float64
	nFeatures    int
	nSamples     int
}

// NewGBMRegressor creates a regressor with the tuned default parameters.
func NewGBMRegressor() *GBMRegressor {
	return &GBMRegressor{Params: DefaultParams()}
}

// WithNumIterations sets the number of boosting rounds.
func (g *GBMRegressor) WithNumIterations(n int) *GBMRegressor {
	g.Params.NumIterations = n
	return g
}

// WithLearningRate sets the shrinkage rate.
func (g *GBMRegressor) WithLearningRate(lr float64) *GBMRegressor {
	g.Params.LearningRate = lr
	return g
}

// WithMaxDepth sets the maximum tree depth.
func (g *GBMRegressor) WithMaxDepth(d int) *GBMRegressor {
	g.Params.MaxDepth = d
	return g
}

// WithMinChildWeight sets the minimum hessian sum per leaf.
func (g *GBMRegressor) WithMinChildWeight(w float64) *GBMRegressor {
	g.Params.MinChildWeight = w
	return g
}

// WithSubsample sets the row bagging fraction.
func (g *GBMRegressor) WithSubsample(f float64) *GBMRegressor {
	g.Params.Subsample = f
	return g
}

// WithColsampleByTree sets the per-tree feature fraction.
func (g *GBMRegressor) WithColsampleByTree(f float64) *GBMRegressor {
	g.Params.ColsampleByTree = f
	return g
}

// WithRegAlpha sets the L1 regularization strength.
func (g *GBMRegressor) WithRegAlpha(a float64) *GBMRegressor {
	g.Params.RegAlpha = a
	return g
}

// WithRegLambda sets the L2 regularization strength.
func (g *GBMRegressor) WithRegLambda(l float64) *GBMRegressor {
	g.Params.RegLambda = l
	return g
}

// WithSeed sets the random seed used for bagging and feature subsampling.
func (g *GBMRegressor) WithSeed(seed int) *GBMRegressor {
	g.Params.Seed = seed
	return g
}

// WithObjective sets the objective function name ("l2" or "l1").
func (g *GBMRegressor) WithObjective(obj string) *GBMRegressor {
	g.Params.Objective = obj
	return g
}

// Fit trains the boosted ensemble on X (n x p) against a single-column y.
func (g *GBMRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GBMRegressor.Fit")

	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "GBMRegressor.Fit")
	}
	if rows != yRows {
		return errors.NewDimensionError("Fit", rows, yRows, 0)
	}
	if err := validateTarget(y); err != nil {
		return err
	}

	g.nFeatures = cols
	g.nSamples = rows

	logger := log.GetLoggerWithName("boosting.regressor")
	if g.Params.Verbosity > 0 {
		logger.Info("training started",
			log.SamplesKey, rows,
			log.FeaturesKey, cols,
			log.OperationKey, "GBMRegressor.Fit",
		)
	}

	t := newTrainer(g.Params)
	if err := t.fit(X, y); err != nil {
		return errors.NewModelError("GBMRegressor.Fit", "training failed", err)
	}

	g.trees = t.trees
	g.initScore = t.initScore
	g.featureGains = t.featureGains
	g.SetFitted()

	if g.Params.Verbosity > 0 {
		logger.Info("training completed",
			log.LossKey, t.currentLoss(),
		)
	}

	return nil
}

// Predict returns an (n x 1) matrix of predictions for X.
func (g *GBMRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GBMRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != g.nFeatures {
		return nil, errors.NewDimensionError("Predict", g.nFeatures, cols, 1)
	}

	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := g.initScore
			for ti := range g.trees {
				pred += g.trees[ti].PredictRow(X, i)
			}
			out.Set(i, 0, pred)
		}
	})

	return out, nil
}

// Score returns the coefficient of determination R^2 on (X, y).
func (g *GBMRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}

	rows, _ := y.Dims()
	yTrue := mat.NewVecDense(rows, nil)
	yPred := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yPred.SetVec(i, pred.At(i, 0))
	}

	return metrics.R2Score(yTrue, yPred)
}

// FeatureImportance returns per-feature total split gain, normalized so the
// importances sum to one. A model trained on constant data returns zeros.
func (g *GBMRegressor) FeatureImportance() ([]float64, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GBMRegressor", "FeatureImportance")
	}

	total := 0.0
	for _, gain := range g.featureGains {
		total += gain
	}

	out := make([]float64, len(g.featureGains))
	if total == 0 {
		return out, nil
	}
	for j, gain := range g.featureGains {
		out[j] = gain / total
	}
	return out, nil
}

// NumTrees returns the number of trees in the fitted ensemble.
func (g *GBMRegressor) NumTrees() int { return len(g.trees) }
