// Package cluster はK-meansクラスタリングを提供する。
// 住宅の面積系特徴量をクラスタ化し、クラスタラベルを
// 派生特徴量としてモデルに供給するために使う。
package cluster

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/core/model"
	"github.com/shunkawai/amesboost/pkg/errors"
)

// KMeans はLloyd法によるK-meansクラスタリング
// 初期化はk-means++で行い、シード固定で再現可能
type KMeans struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nClusters int     // クラスタ数
	maxIter   int     // 最大イテレーション数
	tol       float64 // 収束判定の許容誤差
	seed      int     // 乱数シード

	// 学習パラメータ
	centers_   [][]float64 // クラスタ中心（nClusters x nFeatures）
	labels_    []int       // 学習データの各サンプルのクラスタラベル
	inertia_   float64     // クラスタ内平方和誤差
	nIter_     int         // 実行されたイテレーション数
	nFeatures_ int
}

// KMeansOption はKMeansの設定オプション
type KMeansOption func(*KMeans)

// WithNClusters はクラスタ数を設定
func WithNClusters(n int) KMeansOption {
	return func(km *KMeans) {
		km.nClusters = n
	}
}

// WithMaxIter は最大イテレーション数を設定
func WithMaxIter(maxIter int) KMeansOption {
	return func(km *KMeans) {
		km.maxIter = maxIter
	}
}

// WithTol は収束判定の許容誤差を設定
func WithTol(tol float64) KMeansOption {
	return func(km *KMeans) {
		km.tol = tol
	}
}

// WithSeed は乱数シードを設定
func WithSeed(seed int) KMeansOption {
	return func(km *KMeans) {
		km.seed = seed
	}
}

// NewKMeans は新しいKMeansを作成
func NewKMeans(options ...KMeansOption) *KMeans {
	km := &KMeans{
		nClusters: 10,
		maxIter:   300,
		tol:       1e-4,
		seed:      0,
	}
	for _, opt := range options {
		opt(km)
	}
	return km
}

// Fit はK-meansクラスタリングを実行する
func (km *KMeans) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "KMeans.Fit")

	rows, cols := X.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KMeans.Fit")
	}
	if rows < km.nClusters {
		return errors.NewValidationError("nClusters",
			"must not exceed the number of samples", km.nClusters)
	}

	km.nFeatures_ = cols
	rng := rand.New(rand.NewPCG(uint64(km.seed), uint64(km.seed)))

	km.centers_ = km.initCenters(X, rng)
	km.labels_ = make([]int, rows)

	prevInertia := math.Inf(1)
	for iter := 0; iter < km.maxIter; iter++ {
		km.nIter_ = iter + 1

		// 割り当てステップ
		inertia := 0.0
		for i := 0; i < rows; i++ {
			label, dist := km.nearestCenter(X, i)
			km.labels_[i] = label
			inertia += dist
		}
		km.inertia_ = inertia

		// 更新ステップ
		km.updateCenters(X, rng)

		if math.Abs(prevInertia-inertia) < km.tol {
			break
		}
		prevInertia = inertia
	}

	km.SetFitted()
	return nil
}

// initCenters はk-means++で初期中心を選ぶ
func (km *KMeans) initCenters(X mat.Matrix, rng *rand.Rand) [][]float64 {
	rows, cols := X.Dims()
	centers := make([][]float64, 0, km.nClusters)

	first := rng.IntN(rows)
	centers = append(centers, rowOf(X, first, cols))

	dists := make([]float64, rows)
	for len(centers) < km.nClusters {
		total := 0.0
		for i := 0; i < rows; i++ {
			best := math.Inf(1)
			for _, c := range centers {
				if d := sqDist(X, i, c); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}

		// 距離の二乗に比例した確率で次の中心を選ぶ
		next := 0
		if total > 0 {
			r := rng.Float64() * total
			acc := 0.0
			for i := 0; i < rows; i++ {
				acc += dists[i]
				if acc >= r {
					next = i
					break
				}
			}
		} else {
			next = rng.IntN(rows)
		}
		centers = append(centers, rowOf(X, next, cols))
	}

	return centers
}

// nearestCenter は最も近い中心のラベルと二乗距離を返す
func (km *KMeans) nearestCenter(X mat.Matrix, row int) (int, float64) {
	best := 0
	bestDist := math.Inf(1)
	for k, c := range km.centers_ {
		if d := sqDist(X, row, c); d < bestDist {
			best = k
			bestDist = d
		}
	}
	return best, bestDist
}

// updateCenters は各クラスタの重心を再計算する
// 空クラスタはランダムなサンプルへ再配置する
func (km *KMeans) updateCenters(X mat.Matrix, rng *rand.Rand) {
	rows, cols := X.Dims()

	sums := make([][]float64, km.nClusters)
	counts := make([]int, km.nClusters)
	for k := range sums {
		sums[k] = make([]float64, cols)
	}

	for i := 0; i < rows; i++ {
		k := km.labels_[i]
		counts[k]++
		for j := 0; j < cols; j++ {
			sums[k][j] += X.At(i, j)
		}
	}

	for k := 0; k < km.nClusters; k++ {
		if counts[k] == 0 {
			km.centers_[k] = rowOf(X, rng.IntN(rows), cols)
			continue
		}
		for j := 0; j < cols; j++ {
			km.centers_[k][j] = sums[k][j] / float64(counts[k])
		}
	}
}

// Predict は各サンプルに最も近いクラスタのラベルを返す
func (km *KMeans) Predict(X mat.Matrix) ([]int, error) {
	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Predict")
	}

	rows, cols := X.Dims()
	if cols != km.nFeatures_ {
		return nil, errors.NewDimensionError("Predict", km.nFeatures_, cols, 1)
	}

	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		labels[i], _ = km.nearestCenter(X, i)
	}
	return labels, nil
}

// FitPredict は学習と学習データのラベル取得を同時に行う
func (km *KMeans) FitPredict(X mat.Matrix) ([]int, error) {
	if err := km.Fit(X); err != nil {
		return nil, err
	}
	labels := make([]int, len(km.labels_))
	copy(labels, km.labels_)
	return labels, nil
}

// Transform は各中心への距離を列とする行列を返す
func (km *KMeans) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Transform")
	}

	rows, cols := X.Dims()
	if cols != km.nFeatures_ {
		return nil, errors.NewDimensionError("Transform", km.nFeatures_, cols, 1)
	}

	out := mat.NewDense(rows, km.nClusters, nil)
	for i := 0; i < rows; i++ {
		for k, c := range km.centers_ {
			out.Set(i, k, math.Sqrt(sqDist(X, i, c)))
		}
	}
	return out, nil
}

// ClusterCenters はクラスタ中心を返す
func (km *KMeans) ClusterCenters() [][]float64 {
	out := make([][]float64, len(km.centers_))
	for k, c := range km.centers_ {
		out[k] = make([]float64, len(c))
		copy(out[k], c)
	}
	return out
}

// Inertia はクラスタ内平方和誤差を返す
func (km *KMeans) Inertia() float64 { return km.inertia_ }

// NIter は実行されたイテレーション数を返す
func (km *KMeans) NIter() int { return km.nIter_ }

func rowOf(X mat.Matrix, i, cols int) []float64 {
	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = X.At(i, j)
	}
	return out
}

func sqDist(X mat.Matrix, i int, center []float64) float64 {
	sum := 0.0
	for j, c := range center {
		d := X.At(i, j) - c
		sum += d * d
	}
	return sum
}
