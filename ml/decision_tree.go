package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted binary tree stored as a flat node slice; node 0 is
// the root.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is a split node or a leaf. Value holds the per-class weights
// reaching a leaf, in the order of the model's classes.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

// leafDistribution walks the tree for one row and returns the class weights of
// the leaf it lands in, normalized to sum to 1.
func (dt *DecisionTree) leafDistribution(features []float64) ([]float64, error) {
	if len(dt.Nodes) == 0 {
		return nil, errors.New("empty tree")
	}
	idx := 0
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return normalized(node.Value)
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
	return nil, errors.New("tree contains a cycle")
}

// validate checks the structure of a decoded tree.
func (dt *DecisionTree) validate(nFeatures, nClasses int) error {
	if len(dt.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if len(node.Value) != nClasses {
				return fmt.Errorf("node %d: leaf has %d class weights, want %d", i, len(node.Value), nClasses)
			}
			if _, err := normalized(node.Value); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		// Children always follow their parent in the flat layout, which also
		// rules out cycles.
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(dt.Nodes) {
				return fmt.Errorf("node %d: child %d out of range", i, child)
			}
		}
	}
	return nil
}

func normalized(weights []float64) ([]float64, error) {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, errors.New("negative class weight")
		}
		sum += w
	}
	if sum <= 0 {
		return nil, errors.New("leaf has no weight")
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out, nil
}
