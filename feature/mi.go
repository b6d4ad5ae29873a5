package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/shunkawai/amesboost/pkg/errors"
)

// Score is a feature's mutual information with the target.
type Score struct {
	Name string
	MI   float64
}

// defaultBins is the quantile bin count used when none is given.
const defaultBins = 10

// MIScores estimates the mutual information between each column of X and
// the target, in nats, by discretizing both into quantile bins. Scores are
// returned sorted descending; constant columns score exactly zero.
func MIScores(X mat.Matrix, names []string, y *mat.VecDense, bins int) ([]Score, error) {
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "MIScores")
	}
	if len(names) != cols {
		return nil, errors.NewDimensionError("MIScores", cols, len(names), 1)
	}
	if y.Len() != rows {
		return nil, errors.NewDimensionError("MIScores", rows, y.Len(), 0)
	}
	if bins <= 1 {
		bins = defaultBins
	}

	yBins := discretize(vecSlice(y), bins)

	scores := make([]Score, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = X.At(i, j)
		}
		xBins := discretize(col, bins)
		scores[j] = Score{Name: names[j], MI: mutualInformation(xBins, yBins)}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].MI > scores[b].MI
	})
	return scores, nil
}

// discretize maps values onto quantile bin indices in [0, bins). A constant
// column collapses to a single bin.
func discretize(vals []float64, bins int) []int {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	// bin edges at the q/bins quantiles, duplicates removed
	edges := make([]float64, 0, bins-1)
	for q := 1; q < bins; q++ {
		e := stat.Quantile(float64(q)/float64(bins), stat.Empirical, sorted, nil)
		if len(edges) == 0 || e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}

	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = sort.SearchFloat64s(edges, v+1e-12)
	}
	return out
}

// mutualInformation computes I(X;Y) from the joint histogram of two binned
// variables.
func mutualInformation(xBins, yBins []int) float64 {
	n := float64(len(xBins))

	joint := make(map[[2]int]float64)
	px := make(map[int]float64)
	py := make(map[int]float64)
	for i := range xBins {
		joint[[2]int{xBins[i], yBins[i]}]++
		px[xBins[i]]++
		py[yBins[i]]++
	}

	mi := 0.0
	for key, count := range joint {
		pxy := count / n
		mi += pxy * math.Log(pxy*n*n/(px[key[0]]*py[key[1]]))
	}
	if mi < 0 {
		mi = 0
	}
	return mi
}

func vecSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
