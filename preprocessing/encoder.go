package preprocessing

import (
	"sort"

	"github.com/shunkawai/amesboost/core/model"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// OrdinalEncoder は順序付きカテゴリ列を水準の順位に変換する。
// 水準は昇順で与え、欠損水準"None"が先頭（コード0）に付与される
type OrdinalEncoder struct {
	model.BaseEstimator

	// Column は対象の列名（エラーメッセージ用）
	Column string

	levels map[string]int
}

// NewOrdinalEncoder は指定した水準順のOrdinalEncoderを作成する
func NewOrdinalEncoder(column string, orderedLevels []string) *OrdinalEncoder {
	return &OrdinalEncoder{Column: column, levels: buildLevelIndex(orderedLevels)}
}

func buildLevelIndex(orderedLevels []string) map[string]int {
	levels := make(map[string]int, len(orderedLevels)+1)
	levels["None"] = 0
	for i, l := range orderedLevels {
		levels[l] = i + 1
	}
	return levels
}

// Fit は水準表を確定する。未知の水準が含まれる場合はエラーを返す
func (e *OrdinalEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewModelError("OrdinalEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	for _, v := range values {
		if _, ok := e.levels[v]; !ok {
			return errors.NewValidationError(e.Column, "level not in the ordered scale", v)
		}
	}
	e.SetFitted()
	return nil
}

// Transform は水準を順位コードに変換する
func (e *OrdinalEncoder) Transform(values []string) ([]float64, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OrdinalEncoder", "Transform")
	}
	codes := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.levels[v]
		if !ok {
			return nil, errors.NewValidationError(e.Column, "level not in the ordered scale", v)
		}
		codes[i] = float64(code)
	}
	return codes, nil
}

// FitTransform はFitとTransformを同時に実行する
func (e *OrdinalEncoder) FitTransform(values []string) ([]float64, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}

// LabelEncoder は順序なしカテゴリ列に安定した整数コードを割り当てる。
// コードは水準名の辞書順で決まるため、同じ水準集合なら分割間で一致する
type LabelEncoder struct {
	model.BaseEstimator

	// Column は対象の列名（警告・エラーメッセージ用）
	Column string

	// Classes は辞書順の水準
	Classes []string

	codes map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{Column: column}
}

// Fit は観測された水準から辞書順のコード表を作る。
// 学習・テスト分割でコードを揃えるため、両分割の値を連結して渡す
func (e *LabelEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	seen := make(map[string]bool)
	for _, v := range values {
		seen[v] = true
	}
	e.Classes = make([]string, 0, len(seen))
	for v := range seen {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)

	e.codes = make(map[string]int, len(e.Classes))
	for i, v := range e.Classes {
		e.codes[v] = i
	}

	e.SetFitted()
	return nil
}

// Transform は水準を整数コードに変換する。
// 未知の水準は警告を発生させ、欠損水準"None"と同じ扱いにする
func (e *LabelEncoder) Transform(values []string) ([]float64, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}

	noneCode, hasNone := e.codes["None"]
	codes := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.codes[v]
		if !ok {
			errors.Warn(errors.NewUnseenCategoryWarning("LabelEncoder", e.Column, v))
			if hasNone {
				code = noneCode
			} else {
				code = 0
			}
		}
		codes[i] = float64(code)
	}
	return codes, nil
}

// FitTransform はFitとTransformを同時に実行する
func (e *LabelEncoder) FitTransform(values []string) ([]float64, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}
