package dataset

import (
	"math"

	"github.com/shunkawai/amesboost/pkg/errors"
)

// Schema は列名から統計型への割り当てを表す。
// 列挙されていない列は数値として扱う
type Schema struct {
	// Nominal は順序なしカテゴリ列の集合
	Nominal map[string]bool
	// Ordinal は順序付きカテゴリ列と、その昇順の水準
	// （"None"水準はエンコーダ側で先頭に付与される）
	Ordinal map[string][]string
	// Rename は読み込み時の列名変換
	Rename map[string]string
}

// KindOf は列の統計型を返す
func (s *Schema) KindOf(name string) Kind {
	if s.Ordinal[name] != nil {
		return KindOrdinal
	}
	if s.Nominal[name] {
		return KindNominal
	}
	return KindNumeric
}

// Levels は順序付き列の水準を返す
func (s *Schema) Levels(name string) []string {
	return s.Ordinal[name]
}

// 品質系の列が共有する5水準スケール
var fiveLevels = []string{"Po", "Fa", "TA", "Gd", "Ex"}

// AmesSchema はAmes住宅データの固定スキーマを返す
func AmesSchema() *Schema {
	nominal := map[string]bool{
		"MSSubClass":    true,
		"MSZoning":      true,
		"Street":        true,
		"Alley":         true,
		"LandContour":   true,
		"LotConfig":     true,
		"Neighborhood":  true,
		"Condition1":    true,
		"Condition2":    true,
		"BldgType":      true,
		"HouseStyle":    true,
		"RoofStyle":     true,
		"RoofMatl":      true,
		"Exterior1st":   true,
		"Exterior2nd":   true,
		"MasVnrType":    true,
		"Foundation":    true,
		"Heating":       true,
		"GarageType":    true,
		"MiscFeature":   true,
		"SaleType":      true,
		"SaleCondition": true,
	}

	ordinal := map[string][]string{
		"ExterQual":    fiveLevels,
		"ExterCond":    fiveLevels,
		"BsmtQual":     fiveLevels,
		"BsmtCond":     fiveLevels,
		"HeatingQC":    fiveLevels,
		"KitchenQual":  fiveLevels,
		"FireplaceQu":  fiveLevels,
		"GarageQual":   fiveLevels,
		"GarageCond":   fiveLevels,
		"PoolQC":       fiveLevels,
		"LotShape":     {"IR3", "IR2", "IR1", "Reg"},
		"LandSlope":    {"Sev", "Mod", "Gtl"},
		"BsmtExposure": {"No", "Mn", "Av", "Gd"},
		"BsmtFinType1": {"Unf", "LwQ", "Rec", "BLQ", "ALQ", "GLQ"},
		"BsmtFinType2": {"Unf", "LwQ", "Rec", "BLQ", "ALQ", "GLQ"},
		"Functional":   {"Sal", "Sev", "Maj2", "Maj1", "Min2", "Min1", "Typ"},
		"GarageFinish": {"Unf", "RFn", "Fin"},
		"PavedDrive":   {"N", "P", "Y"},
		"Utilities":    {"NoSeWa", "NoSewr", "AllPub"},
		"CentralAir":   {"N", "Y"},
		"Electrical":   {"Mix", "FuseP", "FuseF", "FuseA", "SBrkr"},
		"Fence":        {"MnWw", "GdWo", "MnPrv", "GdPrv"},
	}

	rename := map[string]string{
		"1stFlrSF":  "FirstFlrSF",
		"2ndFlrSF":  "SecondFlrSF",
		"3SsnPorch": "ThreeSeasonPorch",
	}

	return &Schema{Nominal: nominal, Ordinal: ordinal, Rename: rename}
}

// 販売データの収録期間。これより新しいGarageYrBltは入力ミス
const saleHorizonYear = 2010

// Clean は事前に特定されているデータ入力の不整合を修正する。
//   - Exterior2nd: Exterior1stと表記が揃っていない3水準を正規化
//   - GarageYrBlt: 収録期間を超える年（2207など）はYearBuiltで置き換え
func Clean(t *Table) error {
	ext2, err := t.Strings("Exterior2nd")
	if err != nil {
		return errors.Wrap(err, "Clean")
	}
	replacements := map[string]string{
		"Brk Cmn": "BrkComm",
		"Wd Shng": "WdShing",
		"CmentBd": "CemntBd",
	}
	for i, v := range ext2 {
		if fixed, ok := replacements[v]; ok {
			ext2[i] = fixed
		}
	}

	garageYr, err := t.Floats("GarageYrBlt")
	if err != nil {
		return errors.Wrap(err, "Clean")
	}
	yearBuilt, err := t.Floats("YearBuilt")
	if err != nil {
		return errors.Wrap(err, "Clean")
	}
	for i, y := range garageYr {
		if !math.IsNaN(y) && y > saleHorizonYear {
			garageYr[i] = yearBuilt[i]
		}
	}

	return nil
}
