package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/crossval"
	"github.com/shunkawai/amesboost/pkg/errors"
)

func matFromRows(rows [][]float64) *mat.Dense {
	r, c := len(rows), len(rows[0])
	out := mat.NewDense(r, c, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out
}

func TestMEstimateEncoderSmoothing(t *testing.T) {
	enc := NewMEstimateEncoder("Neighborhood", 2)

	cats := []string{"a", "a", "b"}
	target := []float64{1, 2, 4}
	if err := enc.Fit(cats, target); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	global := 7.0 / 3.0
	if math.Abs(enc.GlobalMean-global) > 1e-12 {
		t.Fatalf("GlobalMean = %v, want %v", enc.GlobalMean, global)
	}

	out, err := enc.Transform([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// (n*mean_cat + m*mean_global) / (n + m)
	wantA := (3.0 + 2*global) / (2 + 2)
	wantB := (4.0 + 2*global) / (1 + 2)
	if math.Abs(out[0]-wantA) > 1e-12 {
		t.Errorf("encode(a) = %v, want %v", out[0], wantA)
	}
	if math.Abs(out[1]-wantB) > 1e-12 {
		t.Errorf("encode(b) = %v, want %v", out[1], wantB)
	}
}

func TestMEstimateEncoderZeroM(t *testing.T) {
	// m=0 ではカテゴリ平均そのものに一致する
	enc := NewMEstimateEncoder("MSSubClass", 0)
	if err := enc.Fit([]string{"20", "20", "60"}, []float64{10, 20, 99}); err != nil {
		t.Fatal(err)
	}
	out, err := enc.Transform([]string{"20", "60"})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 15 || out[1] != 99 {
		t.Errorf("Transform() = %v, want [15 99]", out)
	}
}

func TestMEstimateEncoderUnseenCategory(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(func(w error) {})

	enc := NewMEstimateEncoder("Exterior1st", 1)
	if err := enc.Fit([]string{"VinylSd", "HdBoard"}, []float64{2, 6}); err != nil {
		t.Fatal(err)
	}

	out, err := enc.Transform([]string{"Stucco"})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if out[0] != enc.GlobalMean {
		t.Errorf("unseen category = %v, want global mean %v", out[0], enc.GlobalMean)
	}
	if warned == nil {
		t.Error("Transform() did not warn on an unseen category")
	}
}

func TestMEstimateEncoderValidation(t *testing.T) {
	enc := NewMEstimateEncoder("Foundation", 1)
	if err := enc.Fit([]string{"PConc"}, []float64{1, 2}); err == nil {
		t.Error("Fit() accepted mismatched lengths")
	}
	if err := enc.Fit(nil, nil); err == nil {
		t.Error("Fit() accepted empty data")
	}

	var notFitted *errors.NotFittedError
	_, err := enc.Transform([]string{"PConc"})
	if !errors.As(err, &notFitted) {
		t.Errorf("Transform() error = %v, want NotFittedError", err)
	}
}

func TestCrossFoldTargetEncoderOutOfFold(t *testing.T) {
	// 交互 a,b / 2分割・シャッフルなし: 前半テスト時は後半で学習し、
	// 各行の符号はその行自身のターゲットを一切見ない。
	cats := []string{"a", "b", "a", "b", "a", "b", "a", "b"}
	target := []float64{10, 20, 12, 22, 14, 24, 16, 26}

	enc := NewCrossFoldTargetEncoder("Neighborhood", 0, crossval.NewKFold(2, false, 0))
	out, err := enc.FitTransform(cats, target)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	want := []float64{15, 25, 15, 25, 11, 21, 11, 21}
	for i, w := range want {
		if math.Abs(out[i]-w) > 1e-12 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestCrossFoldTargetEncoderLeakageGuard(t *testing.T) {
	// fold外符号化は全量fitの符号化と一致してはならない
	cats := []string{"a", "a", "a", "b", "b", "b"}
	target := []float64{1, 5, 9, 2, 4, 6}

	oof := NewCrossFoldTargetEncoder("GarageType", 1, crossval.NewKFold(3, true, 7))
	oofCodes, err := oof.FitTransform(cats, target)
	if err != nil {
		t.Fatal(err)
	}

	full := NewMEstimateEncoder("GarageType", 1)
	if err := full.Fit(cats, target); err != nil {
		t.Fatal(err)
	}
	fullCodes, err := full.Transform(cats)
	if err != nil {
		t.Fatal(err)
	}

	same := true
	for i := range oofCodes {
		if math.Abs(oofCodes[i]-fullCodes[i]) > 1e-12 {
			same = false
			break
		}
	}
	if same {
		t.Error("out-of-fold codes equal full-fit codes; held-out rows leaked into their own encoding")
	}
}

func TestCrossFoldTargetEncoderTransform(t *testing.T) {
	cats := []string{"a", "b", "a", "b", "a", "b", "a", "b"}
	target := []float64{10, 20, 12, 22, 14, 24, 16, 26}

	enc := NewCrossFoldTargetEncoder("Neighborhood", 0, crossval.NewKFold(2, false, 0))
	if _, err := enc.FitTransform(cats, target); err != nil {
		t.Fatal(err)
	}

	// テスト分割はfold別エンコーダの平均: a→(15+11)/2, b→(25+21)/2
	out, err := enc.Transform([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if math.Abs(out[0]-13) > 1e-12 || math.Abs(out[1]-23) > 1e-12 {
		t.Errorf("Transform() = %v, want [13 23]", out)
	}
}

func TestConstantImputer(t *testing.T) {
	im := NewConstantImputer(0)
	X := matFromRows([][]float64{
		{1, math.NaN()},
		{math.NaN(), 4},
	})

	out, err := im.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	if out.At(0, 1) != 0 || out.At(1, 0) != 0 {
		t.Errorf("NaN cells not filled: got %v, %v", out.At(0, 1), out.At(1, 0))
	}
	if out.At(0, 0) != 1 || out.At(1, 1) != 4 {
		t.Error("observed cells were modified")
	}
}

func TestFillSlice(t *testing.T) {
	got := FillSlice([]float64{1, math.NaN(), 3}, -1)
	want := []float64{1, -1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FillSlice()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
