package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/shunkawai/amesboost/pkg/errors"
)

// MissingLevel は欠損カテゴリを表す水準名。
// 品質系の列では「設備なし」も同じ水準に落ちる（NAの意味が「なし」のため）
const MissingLevel = "None"

// ReadCSV はコンペティション形式のCSVを読み込み、スキーマに従って
// 列の統計型を割り当てたテーブルを返す。
// "NA"および空文字は欠損として扱う（数値列→NaN、カテゴリ列→"None"）
func ReadCSV(path string, schema *Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	return readCSV(f, schema)
}

func readCSV(r io.Reader, schema *Schema) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV rows")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV")
	}

	// 列名の正規化（Goの識別子として扱えない先頭数字の列をリネーム）
	names := make([]string, len(header))
	for j, raw := range header {
		if renamed, ok := schema.Rename[raw]; ok {
			names[j] = renamed
		} else {
			names[j] = raw
		}
	}

	table := NewTable(len(records))
	for j, name := range names {
		kind := schema.KindOf(name)
		switch kind {
		case KindNumeric:
			vals := make([]float64, len(records))
			for i, rec := range records {
				cell := rec[j]
				if isMissing(cell) {
					vals[i] = math.NaN()
					continue
				}
				x, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "row %d, column %s: invalid numeric value %q", i+2, name, cell)
				}
				vals[i] = x
			}
			if err := table.AddFloats(name, vals); err != nil {
				return nil, err
			}
		default:
			vals := make([]string, len(records))
			for i, rec := range records {
				cell := rec[j]
				if isMissing(cell) {
					vals[i] = MissingLevel
				} else {
					vals[i] = cell
				}
			}
			if err := table.AddStrings(name, kind, vals); err != nil {
				return nil, err
			}
		}
	}

	return table, nil
}

func isMissing(cell string) bool {
	return cell == "" || cell == "NA"
}
