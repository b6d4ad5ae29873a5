package report

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/feature"
)

func TestSaveMIChart(t *testing.T) {
	scores := []feature.Score{
		{Name: "OverallQual", MI: 0.58},
		{Name: "GrLivArea", MI: 0.43},
		{Name: "Neighborhood", MI: 0.41},
		{Name: "YearBuilt", MI: 0.31},
	}

	path := filepath.Join(t.TempDir(), "mi.png")
	if err := SaveMIChart(scores, 3, path); err != nil {
		t.Fatalf("SaveMIChart() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("chart file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("chart file is empty")
	}
}

func TestSaveMIChartEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mi.png")
	if err := SaveMIChart(nil, 5, path); err == nil {
		t.Error("SaveMIChart() accepted empty scores")
	}
}

func TestSavePredictionScatter(t *testing.T) {
	n := 30
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(100000+i*5000))
		yPred.SetVec(i, float64(101000+i*4900))
	}

	path := filepath.Join(t.TempDir(), "scatter.png")
	if err := SavePredictionScatter(yTrue, yPred, path); err != nil {
		t.Fatalf("SavePredictionScatter() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("chart file not written: %v", err)
	}
}

func TestSavePredictionScatterValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scatter.png")
	err := SavePredictionScatter(mat.NewVecDense(2, nil), mat.NewVecDense(3, nil), path)
	if err == nil {
		t.Error("SavePredictionScatter() accepted mismatched lengths")
	}
}
