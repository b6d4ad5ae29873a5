// Package pipeline orchestrates the house-price run: load → clean → encode →
// impute → baseline score → MI ranking → derived features → cross-fold
// target encoding → tuned scoring → final fit and submission export.
package pipeline

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/boosting"
	"github.com/shunkawai/amesboost/cluster"
	"github.com/shunkawai/amesboost/crossval"
	"github.com/shunkawai/amesboost/dataset"
	"github.com/shunkawai/amesboost/feature"
	"github.com/shunkawai/amesboost/metrics"
	"github.com/shunkawai/amesboost/pkg/errors"
	"github.com/shunkawai/amesboost/pkg/log"
	"github.com/shunkawai/amesboost/preprocessing"
)

// target is the supervised column; id identifies houses and is never a
// feature.
const (
	idColumn     = "Id"
	targetColumn = "SalePrice"
)

// Pipeline holds the two splits and the transformers fitted on the training
// split. Steps mutate the tables in place and must run in order.
type Pipeline struct {
	cfg    Config
	schema *dataset.Schema
	logger log.Logger

	Train *dataset.Table
	Test  *dataset.Table

	deriver *feature.Deriver
}

// New creates a pipeline for the given config.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		schema:  dataset.AmesSchema(),
		logger:  log.GetLoggerWithName("pipeline"),
		deriver: feature.NewDeriver(),
	}
}

// Load reads both CSV splits and applies the known data-entry fixes.
func (p *Pipeline) Load() error {
	train, err := dataset.ReadCSV(p.cfg.Data.TrainPath, p.schema)
	if err != nil {
		return errors.Wrap(err, "pipeline: loading train split")
	}
	test, err := dataset.ReadCSV(p.cfg.Data.TestPath, p.schema)
	if err != nil {
		return errors.Wrap(err, "pipeline: loading test split")
	}

	if err := dataset.Clean(train); err != nil {
		return err
	}
	if err := dataset.Clean(test); err != nil {
		return err
	}

	p.Train = train
	p.Test = test
	p.logger.Info("data loaded",
		log.SamplesKey, train.NumRows(),
		log.FeaturesKey, train.NumCols(),
		"test_rows", test.NumRows(),
	)
	return nil
}

// Preprocess encodes the statistical types and imputes missing values.
// Ordinal columns map to their ordered level index; nominal columns get
// integer codes fit on the train+test union so codes agree across splits;
// numeric missing values become 0.
func (p *Pipeline) Preprocess() error {
	for _, name := range p.Train.Names() {
		col, err := p.Train.Column(name)
		if err != nil {
			return err
		}
		if !col.IsCategorical() {
			continue
		}
		if err := p.encodeColumn(name, col.Kind); err != nil {
			return err
		}
	}

	for _, t := range []*dataset.Table{p.Train, p.Test} {
		for _, name := range t.Names() {
			col, err := t.Column(name)
			if err != nil {
				return err
			}
			if col.Kind != dataset.KindNumeric {
				continue
			}
			vals, err := t.Floats(name)
			if err != nil {
				return err
			}
			if err := t.AddFloats(name, preprocessing.FillSlice(vals, 0)); err != nil {
				return err
			}
		}
	}

	return nil
}

// encodeColumn encodes one categorical column on both splits.
func (p *Pipeline) encodeColumn(name string, kind dataset.Kind) error {
	trainVals, err := p.Train.Strings(name)
	if err != nil {
		return err
	}

	var testVals []string
	if p.Test.Has(name) {
		if testVals, err = p.Test.Strings(name); err != nil {
			return err
		}
	}

	var trainCodes, testCodes []float64
	if kind == dataset.KindOrdinal {
		enc := preprocessing.NewOrdinalEncoder(name, p.schema.Levels(name))
		if trainCodes, err = enc.FitTransform(trainVals); err != nil {
			return err
		}
		if testVals != nil {
			if testCodes, err = enc.Transform(testVals); err != nil {
				return err
			}
		}
	} else {
		enc := preprocessing.NewLabelEncoder(name)
		union := make([]string, 0, len(trainVals)+len(testVals))
		union = append(union, trainVals...)
		union = append(union, testVals...)
		if err = enc.Fit(union); err != nil {
			return err
		}
		if trainCodes, err = enc.Transform(trainVals); err != nil {
			return err
		}
		if testVals != nil {
			if testCodes, err = enc.Transform(testVals); err != nil {
				return err
			}
		}
	}

	if err := p.Train.SetEncoded(name, trainCodes); err != nil {
		return err
	}
	if testCodes != nil {
		return p.Test.SetEncoded(name, testCodes)
	}
	return nil
}

// featureNames returns the model features present on both splits.
func (p *Pipeline) featureNames() []string {
	return p.Train.FeatureNames(idColumn, targetColumn)
}

// logTarget returns log1p(SalePrice); the model always trains in log space
// so that RMSE there equals RMSLE on raw prices.
func (p *Pipeline) logTarget() (*mat.VecDense, error) {
	y, err := p.Train.TargetVec(targetColumn)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: target column")
	}
	out := mat.NewVecDense(y.Len(), nil)
	for i := 0; i < y.Len(); i++ {
		out.SetVec(i, math.Log1p(y.AtVec(i)))
	}
	return out, nil
}

func (p *Pipeline) splitter() crossval.Splitter {
	return crossval.NewKFold(p.cfg.CV.Folds, p.cfg.CV.Shuffle, p.cfg.CV.Seed)
}

// crossValidate scores params over the configured folds. Scores are RMSE in
// log space, i.e. RMSLE of the raw prices.
func (p *Pipeline) crossValidate(params boosting.Params) (*crossval.Result, error) {
	X, err := p.Train.Matrix(p.featureNames())
	if err != nil {
		return nil, err
	}
	y, err := p.logTarget()
	if err != nil {
		return nil, err
	}

	newEstimator := func() crossval.Estimator {
		return &boosting.GBMRegressor{Params: params}
	}
	return crossval.CrossValidate(newEstimator, X, y, p.splitter(), metrics.RMSE)
}

// BaselineScore cross-validates the default parameters before any derived
// features exist, giving the reference RMSLE.
func (p *Pipeline) BaselineScore() (*crossval.Result, error) {
	res, err := p.crossValidate(boosting.DefaultParams())
	if err != nil {
		return nil, err
	}
	p.logger.Info("baseline score",
		log.RMSLEKey, res.MeanScore(),
		"std", res.StdScore(),
	)
	return res, nil
}

// Score cross-validates the configured (tuned) parameters.
func (p *Pipeline) Score() (*crossval.Result, error) {
	res, err := p.crossValidate(p.cfg.Boosting)
	if err != nil {
		return nil, err
	}
	p.logger.Info("tuned score",
		log.RMSLEKey, res.MeanScore(),
		"std", res.StdScore(),
	)
	return res, nil
}

// RankFeatures computes the mutual information of every current feature
// against the log target, sorted descending.
func (p *Pipeline) RankFeatures() ([]feature.Score, error) {
	names := p.featureNames()
	X, err := p.Train.Matrix(names)
	if err != nil {
		return nil, err
	}
	y, err := p.logTarget()
	if err != nil {
		return nil, err
	}
	return feature.MIScores(X, names, y, p.cfg.Features.MIBins)
}

// DeriveFeatures adds the engineered columns, then the PCA and cluster
// features, to both splits. Everything is fit on the training split only.
func (p *Pipeline) DeriveFeatures() error {
	if err := p.deriver.FitTransform(p.Train); err != nil {
		return err
	}
	if err := p.deriver.Transform(p.Test); err != nil {
		return err
	}
	// MSClass arrives as raw strings and needs codes like any nominal.
	if err := p.encodeColumn("MSClass", dataset.KindNominal); err != nil {
		return err
	}

	if p.cfg.Features.PCAComponents > 0 {
		if err := p.addPCAFeatures(); err != nil {
			return err
		}
	}
	if p.cfg.Features.Clusters > 0 {
		if err := p.addClusterFeature(); err != nil {
			return err
		}
	}
	return nil
}

// presentColumns filters configured column lists down to what both splits
// actually carry.
func (p *Pipeline) presentColumns(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if p.Train.Has(n) && p.Test.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// addPCAFeatures projects the standardized area columns onto their principal
// components and appends PC1..PCk to both splits.
func (p *Pipeline) addPCAFeatures() error {
	cols := p.presentColumns(p.cfg.Features.PCAColumns)
	if len(cols) < 2 {
		return nil
	}

	trainX, err := p.Train.Matrix(cols)
	if err != nil {
		return err
	}
	testX, err := p.Test.Matrix(cols)
	if err != nil {
		return err
	}

	scaler := preprocessing.NewStandardScaler()
	trainScaled, err := scaler.FitTransform(trainX)
	if err != nil {
		return err
	}
	testScaled, err := scaler.Transform(testX)
	if err != nil {
		return err
	}

	k := p.cfg.Features.PCAComponents
	if k > len(cols) {
		k = len(cols)
	}
	pca := feature.NewPCA(k)
	trainScores, err := pca.FitTransform(trainScaled)
	if err != nil {
		return err
	}
	testScores, err := pca.Transform(testScaled)
	if err != nil {
		return err
	}

	for ci, name := range pca.ComponentNames() {
		if err := p.Train.AddFloats(name, matCol(trainScores, ci)); err != nil {
			return err
		}
		if err := p.Test.AddFloats(name, matCol(testScores, ci)); err != nil {
			return err
		}
	}

	ratio, err := pca.ExplainedVarianceRatio()
	if err != nil {
		return err
	}
	p.logger.Debug("pca features added", "explained_variance_ratio", ratio)
	return nil
}

// addClusterFeature appends a k-means cluster label computed over the
// standardized area columns.
func (p *Pipeline) addClusterFeature() error {
	cols := p.presentColumns(p.cfg.Features.ClusterColumns)
	if len(cols) == 0 {
		return nil
	}

	trainX, err := p.Train.Matrix(cols)
	if err != nil {
		return err
	}
	testX, err := p.Test.Matrix(cols)
	if err != nil {
		return err
	}

	scaler := preprocessing.NewStandardScaler()
	trainScaled, err := scaler.FitTransform(trainX)
	if err != nil {
		return err
	}
	testScaled, err := scaler.Transform(testX)
	if err != nil {
		return err
	}

	km := cluster.NewKMeans(
		cluster.WithNClusters(p.cfg.Features.Clusters),
		cluster.WithSeed(p.cfg.CV.Seed),
	)
	trainLabels, err := km.FitPredict(trainScaled)
	if err != nil {
		return err
	}
	testLabels, err := km.Predict(testScaled)
	if err != nil {
		return err
	}

	if err := p.Train.AddFloats("Cluster", intsToFloats(trainLabels)); err != nil {
		return err
	}
	return p.Test.AddFloats("Cluster", intsToFloats(testLabels))
}

// TargetEncode replaces the configured high-cardinality nominal columns with
// their out-of-fold M-estimate encoding. Training rows never see their own
// target; test rows get the average of the per-fold encoders.
func (p *Pipeline) TargetEncode() error {
	y, err := p.logTarget()
	if err != nil {
		return err
	}
	yVals := make([]float64, y.Len())
	for i := range yVals {
		yVals[i] = y.AtVec(i)
	}

	for _, name := range p.presentColumns(p.cfg.Encoding.TargetColumns) {
		trainVals, err := p.Train.Strings(name)
		if err != nil {
			return err
		}
		testVals, err := p.Test.Strings(name)
		if err != nil {
			return err
		}

		enc := preprocessing.NewCrossFoldTargetEncoder(name, p.cfg.Encoding.MEstimate, p.splitter())
		trainCodes, err := enc.FitTransform(trainVals, yVals)
		if err != nil {
			return err
		}
		testCodes, err := enc.Transform(testVals)
		if err != nil {
			return err
		}

		if err := p.Train.SetEncoded(name, trainCodes); err != nil {
			return err
		}
		if err := p.Test.SetEncoded(name, testCodes); err != nil {
			return err
		}
	}
	return nil
}

// FitPredict trains the final model on the full training split and returns
// raw-price predictions for the test split.
func (p *Pipeline) FitPredict() (*mat.VecDense, error) {
	names := p.featureNames()
	X, err := p.Train.Matrix(names)
	if err != nil {
		return nil, err
	}
	y, err := p.logTarget()
	if err != nil {
		return nil, err
	}
	testX, err := p.Test.Matrix(names)
	if err != nil {
		return nil, err
	}

	reg := &boosting.GBMRegressor{Params: p.cfg.Boosting}
	if err := reg.Fit(X, y); err != nil {
		return nil, err
	}
	pred, err := reg.Predict(testX)
	if err != nil {
		return nil, err
	}

	rows, _ := pred.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, math.Expm1(pred.At(i, 0)))
	}
	return out, nil
}

// TrainingFitCurve fits the configured model on the full training split and
// returns actual and predicted raw prices, for the diagnostic scatter.
func (p *Pipeline) TrainingFitCurve() (*mat.VecDense, *mat.VecDense, error) {
	X, err := p.Train.Matrix(p.featureNames())
	if err != nil {
		return nil, nil, err
	}
	yLog, err := p.logTarget()
	if err != nil {
		return nil, nil, err
	}
	yTrue, err := p.Train.TargetVec(targetColumn)
	if err != nil {
		return nil, nil, err
	}

	reg := &boosting.GBMRegressor{Params: p.cfg.Boosting}
	if err := reg.Fit(X, yLog); err != nil {
		return nil, nil, err
	}
	pred, err := reg.Predict(X)
	if err != nil {
		return nil, nil, err
	}

	yPred := mat.NewVecDense(yTrue.Len(), nil)
	for i := 0; i < yTrue.Len(); i++ {
		yPred.SetVec(i, math.Expm1(pred.At(i, 0)))
	}
	return yTrue, yPred, nil
}

func matCol(m mat.Matrix, j int) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = m.At(i, j)
	}
	return out
}

func intsToFloats(vals []int) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}
