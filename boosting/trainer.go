package boosting

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/pkg/errors"
	"github.com/shunkawai/amesboost/pkg/log"
)

// trainer implements exact-greedy gradient boosting over dense matrices.
type trainer struct {
	params Params

	X *mat.Dense
	y []float64

	// predictions caches the current ensemble output per sample so that
	// gradients cost O(n) per iteration rather than O(n*trees).
	predictions []float64
	gradients   []float64
	hessians    []float64

	objective Objective
	initScore float64
	rng       *rand.Rand

	trees []Tree

	// featureGains accumulates split gain per feature across all trees.
	featureGains []float64
}

func newTrainer(params Params) *trainer {
	params = params.withDefaults()
	return &trainer{
		params: params,
		rng:    rand.New(rand.NewPCG(uint64(params.Seed), uint64(params.Seed))),
	}
}

// fit runs the boosting loop: compute gradients against cached predictions,
// grow one tree on a (possibly subsampled) set of rows and features, then
// fold the shrunk tree output back into the cache.
func (t *trainer) fit(X, y mat.Matrix) error {
	t.X = denseCopy(X)

	rows, _ := t.X.Dims()
	t.y = make([]float64, rows)
	for i := 0; i < rows; i++ {
		t.y[i] = y.At(i, 0)
	}

	objective, err := NewObjective(t.params.Objective)
	if err != nil {
		return err
	}
	t.objective = objective

	t.initScore = objective.InitScore(t.y)
	t.predictions = make([]float64, rows)
	for i := range t.predictions {
		t.predictions[i] = t.initScore
	}
	t.gradients = make([]float64, rows)
	t.hessians = make([]float64, rows)

	_, cols := t.X.Dims()
	t.featureGains = make([]float64, cols)

	logger := log.GetLoggerWithName("boosting.trainer")

	for iter := 0; iter < t.params.NumIterations; iter++ {
		t.computeGradients()

		tree := t.buildTree(iter)
		t.trees = append(t.trees, tree)
		t.updatePredictions(tree)

		if t.params.Verbosity > 0 && iter%100 == 0 {
			logger.Debug("training progress",
				log.IterationKey, iter,
				log.LossKey, t.currentLoss(),
			)
		}
	}

	return nil
}

func denseCopy(X mat.Matrix) *mat.Dense {
	if d, ok := X.(*mat.Dense); ok {
		return d
	}
	rows, cols := X.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(i, j))
		}
	}
	return out
}

func (t *trainer) computeGradients() {
	for i := range t.y {
		t.gradients[i] = t.objective.Gradient(t.predictions[i], t.y[i])
		t.hessians[i] = t.objective.Hessian(t.predictions[i], t.y[i])
	}
}

func (t *trainer) updatePredictions(tree Tree) {
	for i := range t.predictions {
		t.predictions[i] += tree.PredictRow(t.X, i)
	}
}

func (t *trainer) currentLoss() float64 {
	loss := 0.0
	for i := range t.y {
		loss += t.objective.Loss(t.predictions[i], t.y[i])
	}
	return loss / float64(len(t.y))
}

// sampleRows draws the bagging subset for one tree. Subsample == 1 returns
// every row in order, keeping training deterministic for a fixed seed.
func (t *trainer) sampleRows() []int {
	rows, _ := t.X.Dims()
	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	if t.params.Subsample >= 1.0 {
		return indices
	}

	n := int(math.Round(t.params.Subsample * float64(rows)))
	if n < 1 {
		n = 1
	}
	t.rng.Shuffle(rows, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	subset := indices[:n]
	sort.Ints(subset)
	return subset
}

// sampleFeatures draws the column subset considered by one tree.
func (t *trainer) sampleFeatures() []int {
	_, cols := t.X.Dims()
	features := make([]int, cols)
	for j := range features {
		features[j] = j
	}
	if t.params.ColsampleByTree >= 1.0 {
		return features
	}

	n := int(math.Round(t.params.ColsampleByTree * float64(cols)))
	if n < 1 {
		n = 1
	}
	t.rng.Shuffle(cols, func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})
	subset := features[:n]
	sort.Ints(subset)
	return subset
}

func (t *trainer) buildTree(iteration int) Tree {
	tree := Tree{
		TreeIndex:     iteration,
		ShrinkageRate: t.params.LearningRate,
		Nodes:         []Node{},
	}

	rows := t.sampleRows()
	features := t.sampleFeatures()

	t.buildNode(&tree, rows, features, 0, 0)
	tree.NumLeaves = tree.countLeaves()

	return tree
}

// buildNode recursively grows the tree, appending nodes in visit order.
func (t *trainer) buildNode(tree *Tree, indices, features []int, parentIdx, depth int) int {
	nodeIdx := len(tree.Nodes)

	if (t.params.MaxDepth > 0 && depth >= t.params.MaxDepth) ||
		len(indices) <= t.params.MinChildSamples {
		return t.appendLeaf(tree, indices, parentIdx)
	}

	best := t.findBestSplit(indices, features)
	if best.Gain <= t.params.MinGainToSplit || best.Feature < 0 {
		return t.appendLeaf(tree, indices, parentIdx)
	}

	t.featureGains[best.Feature] += best.Gain

	tree.Nodes = append(tree.Nodes, Node{
		NodeID:       nodeIdx,
		ParentID:     parentIdx,
		NodeType:     NumericalNode,
		SplitFeature: best.Feature,
		Threshold:    best.Threshold,
		Gain:         best.Gain,
		Count:        len(indices),
	})

	left, right := t.splitIndices(indices, best)

	leftChild := t.buildNode(tree, left, features, nodeIdx, depth+1)
	rightChild := t.buildNode(tree, right, features, nodeIdx, depth+1)

	tree.Nodes[nodeIdx].LeftChild = leftChild
	tree.Nodes[nodeIdx].RightChild = rightChild

	return nodeIdx
}

func (t *trainer) appendLeaf(tree *Tree, indices []int, parentIdx int) int {
	nodeIdx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, Node{
		NodeID:     nodeIdx,
		ParentID:   parentIdx,
		NodeType:   LeafNode,
		LeafValue:  t.leafValue(indices),
		LeftChild:  -1,
		RightChild: -1,
		Count:      len(indices),
	})
	return nodeIdx
}

// splitInfo describes a candidate split on a numerical feature.
type splitInfo struct {
	Feature   int
	Threshold float64
	Gain      float64
}

func (t *trainer) findBestSplit(indices, features []int) splitInfo {
	best := splitInfo{Feature: -1, Gain: math.Inf(-1)}
	for _, j := range features {
		if split := t.findBestSplitForFeature(indices, j); split.Gain > best.Gain {
			best = split
		}
	}
	return best
}

func (t *trainer) findBestSplitForFeature(indices []int, feature int) splitInfo {
	ordered := make([]int, len(indices))
	copy(ordered, indices)
	sort.Slice(ordered, func(a, b int) bool {
		return t.X.At(ordered[a], feature) < t.X.At(ordered[b], feature)
	})

	totalGrad := 0.0
	totalHess := 0.0
	for _, idx := range ordered {
		totalGrad += t.gradients[idx]
		totalHess += t.hessians[idx]
	}

	best := splitInfo{Feature: feature, Gain: math.Inf(-1)}

	leftGrad := 0.0
	leftHess := 0.0
	for i := 0; i < len(ordered)-1; i++ {
		idx := ordered[i]
		leftGrad += t.gradients[idx]
		leftHess += t.hessians[idx]

		value := t.X.At(idx, feature)
		next := t.X.At(ordered[i+1], feature)
		if value == next {
			continue
		}

		rightGrad := totalGrad - leftGrad
		rightHess := totalHess - leftHess

		if i+1 < t.params.MinChildSamples || len(ordered)-i-1 < t.params.MinChildSamples {
			continue
		}
		if leftHess < t.params.MinChildWeight || rightHess < t.params.MinChildWeight {
			continue
		}

		gain := t.splitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess)
		if gain > best.Gain {
			best.Gain = gain
			best.Threshold = (value + next) / 2
		}
	}

	return best
}

// splitGain is the standard second-order gain with L2 regularization.
func (t *trainer) splitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := t.params.RegLambda

	leftScore := (leftGrad * leftGrad) / (leftHess + lambda)
	rightScore := (rightGrad * rightGrad) / (rightHess + lambda)
	totalScore := (totalGrad * totalGrad) / (totalHess + lambda)

	return 0.5 * (leftScore + rightScore - totalScore)
}

func (t *trainer) splitIndices(indices []int, split splitInfo) ([]int, []int) {
	var left, right []int
	for _, idx := range indices {
		if t.X.At(idx, split.Feature) <= split.Threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

// leafValue is the regularized Newton step for the leaf. RegAlpha applies L1
// soft-thresholding to the gradient sum.
func (t *trainer) leafValue(indices []int) float64 {
	sumGrad := 0.0
	sumHess := 0.0
	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}

	sumGrad = softThreshold(sumGrad, t.params.RegAlpha)

	const epsilon = 1e-10
	return -sumGrad / (sumHess + t.params.RegLambda + epsilon)
}

func softThreshold(g, alpha float64) float64 {
	switch {
	case g > alpha:
		return g - alpha
	case g < -alpha:
		return g + alpha
	default:
		return 0
	}
}

// validateTarget rejects target matrices that are not a single column.
func validateTarget(y mat.Matrix) error {
	_, cols := y.Dims()
	if cols != 1 {
		return errors.NewDimensionError("Fit", 1, cols, 1)
	}
	return nil
}
