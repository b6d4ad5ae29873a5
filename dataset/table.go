// Package dataset は住宅価格データの列指向テーブルとそのスキーマを提供する。
// 欠損値は数値列ではNaN、カテゴリ列では"None"水準として表現される。
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/pkg/errors"
)

// Kind は列の統計型を表す
type Kind int

const (
	// KindNumeric は連続値・カウント値の列
	KindNumeric Kind = iota
	// KindNominal は順序を持たないカテゴリ列
	KindNominal
	// KindOrdinal は順序付きカテゴリ列（品質スケールなど）
	KindOrdinal
)

// String はKindの文字列表現を返す
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindNominal:
		return "nominal"
	case KindOrdinal:
		return "ordinal"
	default:
		return "unknown"
	}
}

// Column はテーブルの1列を保持する。
// 数値列はFloatsのみを使う。カテゴリ列はStrsに生の水準を持ち、
// エンコード後はFloatsに整数コードが入りEncodedがtrueになる。
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strs    []string
	Encoded bool
}

// IsCategorical はカテゴリ列（nominal/ordinal）かどうかを返す
func (c *Column) IsCategorical() bool {
	return c.Kind == KindNominal || c.Kind == KindOrdinal
}

// Table は行数固定の列指向テーブル
type Table struct {
	cols  []*Column
	index map[string]int
	nRows int
}

// NewTable は指定した行数の空テーブルを作成する
func NewTable(nRows int) *Table {
	return &Table{
		index: make(map[string]int),
		nRows: nRows,
	}
}

// NumRows は行数を返す
func (t *Table) NumRows() int { return t.nRows }

// NumCols は列数を返す
func (t *Table) NumCols() int { return len(t.cols) }

// Names は列名を追加順に返す
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has は列が存在するかどうかを返す
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column は名前で列を取得する
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrMissingColumn, "column %q", name)
	}
	return t.cols[i], nil
}

// Floats は数値列（またはエンコード済みカテゴリ列）の値を返す
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.IsCategorical() && !c.Encoded {
		return nil, errors.Newf("column %q is categorical and not encoded yet", name)
	}
	return c.Floats, nil
}

// Strings はカテゴリ列の生の水準を返す
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if !c.IsCategorical() {
		return nil, errors.Newf("column %q is not categorical", name)
	}
	return c.Strs, nil
}

// AddFloats は数値列を追加する。同名の列があれば上書きする
func (t *Table) AddFloats(name string, vals []float64) error {
	if len(vals) != t.nRows {
		return errors.NewDimensionError("Table.AddFloats", t.nRows, len(vals), 0)
	}
	t.put(&Column{Name: name, Kind: KindNumeric, Floats: vals})
	return nil
}

// AddStrings はカテゴリ列を追加する。同名の列があれば上書きする
func (t *Table) AddStrings(name string, kind Kind, vals []string) error {
	if len(vals) != t.nRows {
		return errors.NewDimensionError("Table.AddStrings", t.nRows, len(vals), 0)
	}
	if kind == KindNumeric {
		return errors.NewValidationError("kind", "must be nominal or ordinal", kind)
	}
	t.put(&Column{Name: name, Kind: kind, Strs: vals})
	return nil
}

// SetEncoded はカテゴリ列にエンコード済みコードを設定する
func (t *Table) SetEncoded(name string, codes []float64) error {
	c, err := t.Column(name)
	if err != nil {
		return err
	}
	if len(codes) != t.nRows {
		return errors.NewDimensionError("Table.SetEncoded", t.nRows, len(codes), 0)
	}
	c.Floats = codes
	c.Encoded = true
	return nil
}

// Drop は指定した列を削除する。存在しない列は無視する
func (t *Table) Drop(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.cols[:0]
	for _, c := range t.cols {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	t.cols = kept
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.Name] = i
	}
}

// FeatureNames は除外列を除いた全列名を返す
func (t *Table) FeatureNames(exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, n := range exclude {
		skip[n] = true
	}
	names := make([]string, 0, len(t.cols))
	for _, c := range t.cols {
		if !skip[c.Name] {
			names = append(names, c.Name)
		}
	}
	return names
}

// Matrix は指定した特徴量列から (nRows × len(features)) の行列を作る。
// 未エンコードのカテゴリ列が含まれる場合はエラーを返す
func (t *Table) Matrix(features []string) (*mat.Dense, error) {
	if t.nRows == 0 || len(features) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Table.Matrix")
	}
	m := mat.NewDense(t.nRows, len(features), nil)
	for j, name := range features {
		vals, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < t.nRows; i++ {
			m.Set(i, j, vals[i])
		}
	}
	return m, nil
}

// TargetVec は数値列を1本のベクトルとして返す
func (t *Table) TargetVec(name string) (*mat.VecDense, error) {
	vals, err := t.Floats(name)
	if err != nil {
		return nil, err
	}
	v := mat.NewVecDense(t.nRows, nil)
	for i, x := range vals {
		v.SetVec(i, x)
	}
	return v, nil
}

// MissingCount は数値列のNaN数を返す
func (t *Table) MissingCount(name string) (int, error) {
	c, err := t.Column(name)
	if err != nil {
		return 0, err
	}
	if c.IsCategorical() && !c.Encoded {
		n := 0
		for _, s := range c.Strs {
			if s == MissingLevel {
				n++
			}
		}
		return n, nil
	}
	n := 0
	for _, x := range c.Floats {
		if math.IsNaN(x) {
			n++
		}
	}
	return n, nil
}

func (t *Table) put(c *Column) {
	if i, ok := t.index[c.Name]; ok {
		t.cols[i] = c
		return
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
}
