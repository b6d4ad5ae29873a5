package pipeline

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shunkawai/amesboost/boosting"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// Config drives a full pipeline run. Every field has a sensible default so a
// run without a config file reproduces the tuned notebook settings.
type Config struct {
	Data     DataConfig      `yaml:"data"`
	CV       CVConfig        `yaml:"cv"`
	Encoding EncodingConfig  `yaml:"encoding"`
	Features FeatureConfig   `yaml:"features"`
	Boosting boosting.Params `yaml:"boosting"`
	Output   OutputConfig    `yaml:"output"`
}

// DataConfig locates the input CSV splits.
type DataConfig struct {
	TrainPath string `yaml:"train"`
	TestPath  string `yaml:"test"`
}

// CVConfig controls the fold layout shared by scoring and target encoding.
type CVConfig struct {
	Folds   int  `yaml:"folds"`
	Shuffle bool `yaml:"shuffle"`
	Seed    int  `yaml:"seed"`
}

// EncodingConfig controls the cross-fold target encoding.
type EncodingConfig struct {
	// MEstimate is the smoothing weight m in
	// (n*mean_cat + m*mean_global) / (n + m).
	MEstimate float64 `yaml:"m_estimate"`
	// TargetColumns are the nominal columns replaced by their encoding.
	TargetColumns []string `yaml:"target_columns"`
}

// FeatureConfig controls the supplemental PCA and cluster features.
type FeatureConfig struct {
	PCAColumns     []string `yaml:"pca_columns"`
	PCAComponents  int      `yaml:"pca_components"`
	ClusterColumns []string `yaml:"cluster_columns"`
	Clusters       int      `yaml:"clusters"`
	MIBins         int      `yaml:"mi_bins"`
}

// OutputConfig locates run artifacts.
type OutputConfig struct {
	SubmissionPath string `yaml:"submission"`
	MIChartPath    string `yaml:"mi_chart"`
	ScatterPath    string `yaml:"scatter_chart"`
	DBPath         string `yaml:"db"`
}

// DefaultConfig returns the tuned settings used for the reference run.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			TrainPath: "train.csv",
			TestPath:  "test.csv",
		},
		CV: CVConfig{
			Folds:   5,
			Shuffle: true,
			Seed:    0,
		},
		Encoding: EncodingConfig{
			MEstimate: 5.0,
			TargetColumns: []string{
				"Neighborhood",
				"MSClass",
				"Exterior1st",
				"Exterior2nd",
				"SaleType",
			},
		},
		Features: FeatureConfig{
			PCAColumns: []string{
				"GrLivArea",
				"TotalBsmtSF",
				"FirstFlrSF",
				"SecondFlrSF",
				"GarageArea",
			},
			PCAComponents: 3,
			ClusterColumns: []string{
				"LotArea",
				"TotalBsmtSF",
				"FirstFlrSF",
				"SecondFlrSF",
				"GrLivArea",
			},
			Clusters: 10,
			MIBins:   10,
		},
		Boosting: boosting.DefaultParams(),
		Output: OutputConfig{
			SubmissionPath: "submission.csv",
		},
	}
}

// LoadConfig reads a YAML config file and overlays it on the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "pipeline: failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "pipeline: failed to parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.CV.Folds < 2 {
		return errors.NewValidationError("cv.folds", "need at least two folds", c.CV.Folds)
	}
	if c.Encoding.MEstimate < 0 {
		return errors.NewValidationError("encoding.m_estimate",
			"must be non-negative", c.Encoding.MEstimate)
	}
	if c.Features.PCAComponents < 0 {
		return errors.NewValidationError("features.pca_components",
			"must be non-negative", c.Features.PCAComponents)
	}
	return nil
}
