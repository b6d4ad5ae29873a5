package boosting

import (
	"gonum.org/v1/gonum/mat"
)

// NodeType distinguishes leaves from internal split nodes.
type NodeType int

const (
	// LeafNode is a terminal node carrying a prediction value.
	LeafNode NodeType = iota
	// NumericalNode splits on a numerical threshold.
	NumericalNode
)

// Node represents a single node in a regression tree.
type Node struct {
	NodeID       int
	ParentID     int
	NodeType     NodeType
	SplitFeature int
	Threshold    float64
	LeftChild    int
	RightChild   int
	LeafValue    float64
	Gain         float64
	Count        int
}

// Tree is a single regression tree in the boosted ensemble. Leaf values are
// stored unshrunk; ShrinkageRate is applied at prediction time.
type Tree struct {
	TreeIndex     int
	Nodes         []Node
	ShrinkageRate float64
	NumLeaves     int
}

// PredictRow walks the tree for one sample and returns the shrunk leaf value.
func (t *Tree) PredictRow(X mat.Matrix, row int) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}

	nodeIdx := 0
	for {
		node := t.Nodes[nodeIdx]
		if node.NodeType == LeafNode {
			return node.LeafValue * t.ShrinkageRate
		}

		if X.At(row, node.SplitFeature) <= node.Threshold {
			nodeIdx = node.LeftChild
		} else {
			nodeIdx = node.RightChild
		}
		if nodeIdx < 0 || nodeIdx >= len(t.Nodes) {
			return node.LeafValue * t.ShrinkageRate
		}
	}
}

// countLeaves counts the terminal nodes of the tree.
func (t *Tree) countLeaves() int {
	count := 0
	for _, node := range t.Nodes {
		if node.NodeType == LeafNode {
			count++
		}
	}
	return count
}
