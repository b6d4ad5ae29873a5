// Package crossval provides k-fold splitting and cross-validated scoring
// for the house-price pipeline. Folds are seed-reproducible so that the
// out-of-fold target encoding and the CV score use identical partitions.
package crossval

import (
	"math/rand/v2"
)

// Splitter defines the interface for cross-validation splitters.
type Splitter interface {
	// Split generates train/test index pairs covering nSamples rows.
	Split(nSamples int) []Fold
	// NumSplits returns the number of folds.
	NumSplits() int
}

// Fold represents a single train/test partition.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements a k-fold cross-validation splitter.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int
}

// NewKFold creates a new k-fold splitter. Fewer than two splits falls back
// to the 5-fold default.
func NewKFold(nSplits int, shuffle bool, seed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// NumSplits returns the number of folds.
func (kf *KFold) NumSplits() int { return kf.NSplits }

// Split generates train/test indices for each fold. Every row appears in
// exactly one test set; partitions are disjoint and cover all rows.
func (kf *KFold) Split(nSamples int) []Fold {
	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.Seed), uint64(kf.Seed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[current:current+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:current]...)
		trainIndices = append(trainIndices, indices[current+testSize:]...)

		folds[i] = Fold{TrainIndices: trainIndices, TestIndices: testIndices}
		current += testSize
	}

	return folds
}
