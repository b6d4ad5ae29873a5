package preprocessing

import (
	"github.com/shunkawai/amesboost/core/model"
	"github.com/shunkawai/amesboost/crossval"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// MEstimateEncoder はカテゴリ水準をターゲットの平滑化平均で置き換える。
//
//	encode(cat) = (n_cat * mean_cat + m * mean_global) / (n_cat + m)
//
// mが大きいほど水準ごとの平均が全体平均に向かって縮小される。
// 学習時に存在しなかった水準は全体平均に変換される
type MEstimateEncoder struct {
	model.BaseEstimator

	// Column は対象の列名（警告メッセージ用）
	Column string

	// M は平滑化パラメータ（擬似サンプル数）
	M float64

	// GlobalMean は学習データ全体のターゲット平均
	GlobalMean float64

	encoding map[string]float64
}

// NewMEstimateEncoder は新しいMEstimateEncoderを作成する
func NewMEstimateEncoder(column string, m float64) *MEstimateEncoder {
	return &MEstimateEncoder{Column: column, M: m}
}

// Fit はカテゴリごとの平滑化平均を計算する
func (e *MEstimateEncoder) Fit(categories []string, target []float64) error {
	if len(categories) == 0 {
		return errors.NewModelError("MEstimateEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(categories) != len(target) {
		return errors.NewDimensionError("MEstimateEncoder.Fit", len(categories), len(target), 0)
	}
	if e.M < 0 {
		return errors.NewValidationError("m", "smoothing must be non-negative", e.M)
	}

	type catStat struct {
		count int
		sum   float64
	}
	stats := make(map[string]*catStat)

	total := 0.0
	for i, cat := range categories {
		s, ok := stats[cat]
		if !ok {
			s = &catStat{}
			stats[cat] = s
		}
		s.count++
		s.sum += target[i]
		total += target[i]
	}
	e.GlobalMean = total / float64(len(target))

	e.encoding = make(map[string]float64, len(stats))
	for cat, s := range stats {
		n := float64(s.count)
		e.encoding[cat] = (s.sum + e.M*e.GlobalMean) / (n + e.M)
	}

	e.SetFitted()
	return nil
}

// Transform はカテゴリ水準を平滑化平均に変換する。
// 未知の水準は警告を発生させ、全体平均で埋める
func (e *MEstimateEncoder) Transform(categories []string) ([]float64, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("MEstimateEncoder", "Transform")
	}

	out := make([]float64, len(categories))
	for i, cat := range categories {
		v, seen := e.encode(cat)
		if !seen {
			errors.Warn(errors.NewUnseenCategoryWarning("MEstimateEncoder", e.Column, cat))
		}
		out[i] = v
	}
	return out, nil
}

// encode は1水準を変換する。未知の水準は全体平均となりfalseを返す
func (e *MEstimateEncoder) encode(cat string) (float64, bool) {
	if v, ok := e.encoding[cat]; ok {
		return v, true
	}
	return e.GlobalMean, false
}

// CrossFoldTargetEncoder はリーク防止のための交差分割ターゲットエンコーダ。
//
// 学習分割にはout-of-fold変換を適用する: 各フォールドの行は、そのフォールド
// を除いて学習したエンコーダで変換されるため、自分自身のターゲット値を
// 参照することはない。テスト分割にはフォールドごとのエンコーダの平均を使う
type CrossFoldTargetEncoder struct {
	model.BaseEstimator

	// Column は対象の列名
	Column string

	// M は平滑化パラメータ
	M float64

	splitter crossval.Splitter
	encoders []*MEstimateEncoder
}

// NewCrossFoldTargetEncoder は新しいCrossFoldTargetEncoderを作成する
func NewCrossFoldTargetEncoder(column string, m float64, splitter crossval.Splitter) *CrossFoldTargetEncoder {
	return &CrossFoldTargetEncoder{Column: column, M: m, splitter: splitter}
}

// FitTransform は学習分割をout-of-foldで変換し、フォールドごとの
// エンコーダを保持する
func (e *CrossFoldTargetEncoder) FitTransform(categories []string, target []float64) ([]float64, error) {
	if len(categories) == 0 {
		return nil, errors.NewModelError("CrossFoldTargetEncoder.FitTransform", "empty data", errors.ErrEmptyData)
	}
	if len(categories) != len(target) {
		return nil, errors.NewDimensionError("CrossFoldTargetEncoder.FitTransform", len(categories), len(target), 0)
	}

	folds := e.splitter.Split(len(categories))
	e.encoders = make([]*MEstimateEncoder, len(folds))

	out := make([]float64, len(categories))
	for k, fold := range folds {
		trainCats := make([]string, len(fold.TrainIndices))
		trainTarget := make([]float64, len(fold.TrainIndices))
		for i, idx := range fold.TrainIndices {
			trainCats[i] = categories[idx]
			trainTarget[i] = target[idx]
		}

		enc := NewMEstimateEncoder(e.Column, e.M)
		if err := enc.Fit(trainCats, trainTarget); err != nil {
			return nil, errors.Wrapf(err, "fold %d", k)
		}
		e.encoders[k] = enc

		// held-outフォールドの変換。フォールド内にしか現れない水準は
		// 全体平均に落ちる（警告は出さない）
		for _, idx := range fold.TestIndices {
			out[idx], _ = enc.encode(categories[idx])
		}
	}

	e.SetFitted()
	return out, nil
}

// Transform はテスト分割をフォールドごとのエンコーダの平均で変換する
func (e *CrossFoldTargetEncoder) Transform(categories []string) ([]float64, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("CrossFoldTargetEncoder", "Transform")
	}

	out := make([]float64, len(categories))
	for i, cat := range categories {
		sum := 0.0
		for _, enc := range e.encoders {
			v, _ := enc.encode(cat)
			sum += v
		}
		out[i] = sum / float64(len(e.encoders))
	}
	return out, nil
}
