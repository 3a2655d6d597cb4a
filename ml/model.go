package ml

import (
	"errors"
	"fmt"
)

const (
	TypeRandomForest = "random_forest"
	TypeDecisionTree = "decision_tree"
)

// ErrShape is returned when an input row does not have the model's width.
var ErrShape = errors.New("feature row has wrong width")

// Model is a fitted tree ensemble. A decision_tree model is a forest of one.
// It is read-only after loading and safe for concurrent use.
type Model struct {
	ModelType    string         `json:"model_type"`
	NFeatures    int            `json:"n_features"`
	FeatureNames []string       `json:"feature_names"`
	Classes      []int          `json:"classes"`
	Trees        []DecisionTree `json:"trees"`
}

// PredictProba returns the mean leaf distribution over all trees for each row.
func (m *Model) PredictProba(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for r, row := range x {
		if len(row) != m.NFeatures {
			return nil, fmt.Errorf("row %d: %w: got %d, want %d", r, ErrShape, len(row), m.NFeatures)
		}
		acc := make([]float64, len(m.Classes))
		for t := range m.Trees {
			dist, err := m.Trees[t].leafDistribution(row)
			if err != nil {
				return nil, fmt.Errorf("row %d tree %d: %w", r, t, err)
			}
			for i, p := range dist {
				acc[i] += p
			}
		}
		for i := range acc {
			acc[i] /= float64(len(m.Trees))
		}
		out[r] = acc
	}
	return out, nil
}

// Predict returns the class with the highest mean probability for each row.
// Ties go to the class listed first.
func (m *Model) Predict(x [][]float64) ([]int, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for r, p := range proba {
		best := 0
		for i := 1; i < len(p); i++ {
			if p[i] > p[best] {
				best = i
			}
		}
		labels[r] = m.Classes[best]
	}
	return labels, nil
}

// Describe is a one-line summary for logs and the CLI.
func (m *Model) Describe() string {
	return fmt.Sprintf("%s: %d trees, %d features, classes %v", m.ModelType, len(m.Trees), m.NFeatures, m.Classes)
}

func (m *Model) validate(expected []string) error {
	switch m.ModelType {
	case TypeRandomForest:
	case TypeDecisionTree:
		if len(m.Trees) != 1 {
			return fmt.Errorf("decision_tree model has %d trees", len(m.Trees))
		}
	default:
		return fmt.Errorf("unsupported model type %q", m.ModelType)
	}
	if len(m.Trees) == 0 {
		return errors.New("model has no trees")
	}
	if len(m.FeatureNames) != m.NFeatures {
		return fmt.Errorf("%d feature names for %d features", len(m.FeatureNames), m.NFeatures)
	}
	if expected != nil {
		if len(expected) != m.NFeatures {
			return fmt.Errorf("model has %d features, want %d", m.NFeatures, len(expected))
		}
		for i, name := range expected {
			if m.FeatureNames[i] != name {
				return fmt.Errorf("feature %d is %q, want %q", i, m.FeatureNames[i], name)
			}
		}
	}
	// Column 0 is non-potable and column 1 potable.
	if len(m.Classes) != 2 || m.Classes[0] != 0 || m.Classes[1] != 1 {
		return fmt.Errorf("classes are %v, want [0 1]", m.Classes)
	}
	for i := range m.Trees {
		if err := m.Trees[i].validate(m.NFeatures, len(m.Classes)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
