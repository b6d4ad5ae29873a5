package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csvHeader = strings.Join([]string{
	"Id", "MSSubClass", "Neighborhood", "BldgType", "Exterior2nd",
	"GarageYrBlt", "YearBuilt", "GrLivArea", "LotArea", "1stFlrSF",
	"2ndFlrSF", "TotRmsAbvGrd", "WoodDeckSF", "OpenPorchSF",
	"EnclosedPorch", "3SsnPorch", "ScreenPorch", "ExterQual", "SalePrice",
}, ",")

var neighborhoods = []string{"NAmes", "CollgCr", "OldTown"}
var bldgTypes = []string{"1Fam", "Duplex"}
var subclasses = []string{"20", "60", "90"}
var qualities = []string{"TA", "Gd", "Ex", "Fa"}

// writeSplit writes a synthetic Ames-shaped CSV. Rows follow a deterministic
// pattern so the price is learnable from the area columns.
func writeSplit(t *testing.T, path string, n, idOffset int, withTarget bool) {
	t.Helper()

	var b strings.Builder
	header := csvHeader
	if !withTarget {
		header = strings.TrimSuffix(header, ",SalePrice")
	}
	b.WriteString(header + "\n")

	for i := 0; i < n; i++ {
		grLiv := 800 + 40*i
		lot := 5000 + 100*i
		first := 600 + 30*i
		second := grLiv - first
		garageYr := 1960 + i
		if i == 3 {
			garageYr = 2207 // known data-entry error, fixed by Clean
		}

		fields := []string{
			fmt.Sprintf("%d", idOffset+i),
			subclasses[i%len(subclasses)],
			neighborhoods[i%len(neighborhoods)],
			bldgTypes[i%len(bldgTypes)],
			"Brk Cmn",
			fmt.Sprintf("%d", garageYr),
			fmt.Sprintf("%d", 1950+i),
			fmt.Sprintf("%d", grLiv),
			fmt.Sprintf("%d", lot),
			fmt.Sprintf("%d", first),
			fmt.Sprintf("%d", second),
			fmt.Sprintf("%d", 4+i%5),
			fmt.Sprintf("%d", (i%4)*50),
			fmt.Sprintf("%d", (i%3)*20),
			"0",
			"0",
			"NA", // missing numeric, imputed to 0
			qualities[i%len(qualities)],
		}
		if withTarget {
			price := 50000 + 100*grLiv + 5*lot
			fields = append(fields, fmt.Sprintf("%d", price))
		}
		b.WriteString(strings.Join(fields, ",") + "\n")
	}

	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train.csv")
	testPath := filepath.Join(dir, "test.csv")
	writeSplit(t, trainPath, 30, 1, true)
	writeSplit(t, testPath, 10, 1001, false)

	cfg := DefaultConfig()
	cfg.Data.TrainPath = trainPath
	cfg.Data.TestPath = testPath
	cfg.CV.Folds = 3
	cfg.CV.Shuffle = true
	cfg.CV.Seed = 1
	cfg.Encoding.TargetColumns = []string{"Neighborhood", "MSClass"}
	cfg.Features.PCAColumns = []string{"GrLivArea", "FirstFlrSF", "SecondFlrSF"}
	cfg.Features.PCAComponents = 2
	cfg.Features.ClusterColumns = []string{"GrLivArea", "LotArea"}
	cfg.Features.Clusters = 3
	cfg.Boosting.NumIterations = 50
	cfg.Boosting.MaxDepth = 3
	cfg.Boosting.Subsample = 1.0
	cfg.Boosting.ColsampleByTree = 1.0
	cfg.Output.SubmissionPath = filepath.Join(dir, "submission.csv")
	return cfg
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg)

	require.NoError(t, p.Load())
	assert.Equal(t, 30, p.Train.NumRows())
	assert.Equal(t, 10, p.Test.NumRows())

	// Clean normalizes the Exterior2nd spelling
	ext2, err := p.Train.Strings("Exterior2nd")
	require.NoError(t, err)
	assert.Equal(t, "BrkComm", ext2[0])

	require.NoError(t, p.Preprocess())

	// categorical columns carry codes after preprocessing
	codes, err := p.Train.Floats("Neighborhood")
	require.NoError(t, err)
	assert.Len(t, codes, 30)

	// imputed numeric column has no NaN left
	missing, err := p.Train.MissingCount("ScreenPorch")
	require.NoError(t, err)
	assert.Zero(t, missing)

	baseline, err := p.BaselineScore()
	require.NoError(t, err)
	assert.Greater(t, baseline.MeanScore(), 0.0)

	scores, err := p.RankFeatures()
	require.NoError(t, err)
	assert.NotEmpty(t, scores)
	assert.GreaterOrEqual(t, scores[0].MI, scores[len(scores)-1].MI)

	require.NoError(t, p.DeriveFeatures())
	for _, name := range []string{
		"LivLotRatio", "Spaciousness", "TotalOutsideSF", "PorchTypes",
		"MedNhbdArea", "MSClass", "PC1", "PC2", "Cluster",
	} {
		assert.True(t, p.Train.Has(name), "train missing derived column %s", name)
		assert.True(t, p.Test.Has(name), "test missing derived column %s", name)
	}

	require.NoError(t, p.TargetEncode())

	// target-encoded column now holds smoothed means, not label codes
	encoded, err := p.Train.Floats("Neighborhood")
	require.NoError(t, err)
	for _, v := range encoded {
		assert.Greater(t, v, 10.0, "encoding should live near the log-price scale")
	}

	tuned, err := p.Score()
	require.NoError(t, err)
	assert.Greater(t, tuned.MeanScore(), 0.0)

	preds, err := p.FitPredict()
	require.NoError(t, err)
	require.Equal(t, 10, preds.Len())
	for i := 0; i < preds.Len(); i++ {
		assert.Greater(t, preds.AtVec(i), 0.0, "prices are positive after expm1")
	}

	require.NoError(t, p.WriteSubmission(cfg.Output.SubmissionPath, preds))
	data, err := os.ReadFile(cfg.Output.SubmissionPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "Id,SalePrice", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1001,"))
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
cv:
  folds: 7
  seed: 13
encoding:
  m_estimate: 2.5
boosting:
  learning_rate: 0.05
  max_depth: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.CV.Folds)
	assert.Equal(t, 13, cfg.CV.Seed)
	assert.Equal(t, 2.5, cfg.Encoding.MEstimate)
	assert.Equal(t, 0.05, cfg.Boosting.LearningRate)
	assert.Equal(t, 4, cfg.Boosting.MaxDepth)

	// defaults survive a partial overlay
	assert.Equal(t, "train.csv", cfg.Data.TrainPath)
	assert.NotEmpty(t, cfg.Encoding.TargetColumns)
}

func TestLoadConfigValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cv:\n  folds: 1\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.TrainPath = filepath.Join(t.TempDir(), "nope.csv")
	cfg.Data.TestPath = cfg.Data.TrainPath
	assert.Error(t, New(cfg).Load())
}
