package preprocessing

import (
	"math"
	"testing"

	"github.com/shunkawai/amesboost/pkg/errors"
)

func TestOrdinalEncoder(t *testing.T) {
	enc := NewOrdinalEncoder("ExterQual", []string{"Po", "Fa", "TA", "Gd", "Ex"})

	codes, err := enc.FitTransform([]string{"TA", "None", "Ex", "Po", "Gd"})
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	want := []float64{3, 0, 5, 1, 4}
	for i, w := range want {
		if codes[i] != w {
			t.Errorf("codes[%d] = %v, want %v", i, codes[i], w)
		}
	}
}

func TestOrdinalEncoderUnknownLevel(t *testing.T) {
	enc := NewOrdinalEncoder("PavedDrive", []string{"N", "P", "Y"})

	if err := enc.Fit([]string{"N", "Maybe"}); err == nil {
		t.Error("Fit() accepted a level outside the ordered scale")
	}

	if err := enc.Fit([]string{"N", "Y"}); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := enc.Transform([]string{"P", "Sometimes"}); err == nil {
		t.Error("Transform() accepted a level outside the ordered scale")
	}
}

func TestOrdinalEncoderNotFitted(t *testing.T) {
	enc := NewOrdinalEncoder("LotShape", []string{"IR3", "IR2", "IR1", "Reg"})
	_, err := enc.Transform([]string{"Reg"})

	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Errorf("Transform() error = %v, want NotFittedError", err)
	}
}

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder("Neighborhood")

	// 学習・テスト分割の連結でfitしてコードを揃える
	union := []string{"Veenker", "CollgCr", "Crawfor", "CollgCr", "None"}
	if err := enc.Fit(union); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// 辞書順: CollgCr=0, Crawfor=1, None=2, Veenker=3
	codes, err := enc.Transform([]string{"CollgCr", "Veenker", "None"})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	want := []float64{0, 3, 2}
	for i, w := range want {
		if codes[i] != w {
			t.Errorf("codes[%d] = %v, want %v", i, codes[i], w)
		}
	}
}

func TestLabelEncoderUnseenCategory(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(func(w error) {})

	enc := NewLabelEncoder("SaleType")
	if err := enc.Fit([]string{"WD", "New", "None"}); err != nil {
		t.Fatal(err)
	}

	codes, err := enc.Transform([]string{"WD", "Barter"})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// 未知水準は"None"のコードに落ちる
	if codes[1] != codes0FromLevel(enc, "None") {
		t.Errorf("unseen category code = %v, want the None code", codes[1])
	}
	if warned == nil {
		t.Error("Transform() did not warn on an unseen category")
	}
}

func codes0FromLevel(e *LabelEncoder, level string) float64 {
	codes, _ := e.Transform([]string{level})
	return codes[0]
}

func TestLabelEncoderStability(t *testing.T) {
	// 同じ水準集合なら観測順に依らず同じコードが割り当てられる
	a := NewLabelEncoder("BldgType")
	b := NewLabelEncoder("BldgType")
	if err := a.Fit([]string{"1Fam", "Twnhs", "Duplex"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit([]string{"Duplex", "1Fam", "Twnhs", "1Fam"}); err != nil {
		t.Fatal(err)
	}

	values := []string{"1Fam", "Duplex", "Twnhs"}
	ca, _ := a.Transform(values)
	cb, _ := b.Transform(values)
	for i := range values {
		if ca[i] != cb[i] {
			t.Errorf("codes differ at %d: %v vs %v", i, ca[i], cb[i])
		}
	}
}

func TestStandardScalerRoundTrip(t *testing.T) {
	// 定数列はスケール1になりNaNを生まない
	sc := NewStandardScaler()
	X := matFromRows([][]float64{
		{1, 5, 2},
		{3, 5, 4},
		{5, 5, 9},
	})

	scaled, err := sc.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			v := scaled.At(i, j)
			if math.IsNaN(v) {
				t.Fatalf("scaled[%d,%d] is NaN", i, j)
			}
			sum += v
		}
		if math.Abs(sum/float64(r)) > 1e-10 {
			t.Errorf("column %d mean = %v, want 0", j, sum/float64(r))
		}
	}
}
