package water

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrIncompleteInput is returned by Classify until every field is touched.
var ErrIncompleteInput = errors.New("please interact with all 9 input fields before classifying")

// Classifier is the trained model. Each row of x is a feature vector in
// field order.
type Classifier interface {
	Predict(x [][]float64) ([]int, error)
	PredictProba(x [][]float64) ([][]float64, error)
}

// InvocationError reports a classifier failure or an output that does not
// fit the two-class contract. It indicates a defect, not a transient
// condition.
type InvocationError struct {
	Op  string
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Op, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

type Class int

const (
	NonPotable Class = 0
	Potable    Class = 1
)

func (c Class) String() string {
	if c == Potable {
		return "Safe to Drink (Potable)"
	}
	return "Not Safe to Drink (Non-Potable)"
}

// Key is the machine-readable class name.
func (c Class) Key() string {
	if c == Potable {
		return "potable"
	}
	return "non_potable"
}

// PredictionResult holds the predicted class and the probabilities
// [non-potable, potable].
type PredictionResult struct {
	Class         Class
	Probabilities [2]float64
}

func (r PredictionResult) PotableProbability() float64    { return r.Probabilities[Potable] }
func (r PredictionResult) NonPotableProbability() float64 { return r.Probabilities[NonPotable] }

// Summary renders the result the way the form presents it.
func (r PredictionResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prediction: %s\n", r.Class)
	fmt.Fprintf(&b, "Probability (Potable = 1): %.2f\n", r.PotableProbability())
	fmt.Fprintf(&b, "Probability (Non-Potable = 0): %.2f", r.NonPotableProbability())
	return b.String()
}

// Classify runs the classifier on a fully touched session. The session is
// not modified.
func Classify(s *Session, c Classifier) (PredictionResult, error) {
	if !s.Complete() {
		return PredictionResult{}, ErrIncompleteInput
	}
	x := [][]float64{s.Features()}

	labels, err := c.Predict(x)
	if err != nil {
		return PredictionResult{}, &InvocationError{Op: "predict", Err: err}
	}
	if len(labels) != 1 {
		return PredictionResult{}, &InvocationError{Op: "predict", Err: fmt.Errorf("got %d labels for 1 row", len(labels))}
	}
	class, err := classOf(labels[0])
	if err != nil {
		return PredictionResult{}, &InvocationError{Op: "predict", Err: err}
	}

	proba, err := c.PredictProba(x)
	if err != nil {
		return PredictionResult{}, &InvocationError{Op: "predict_proba", Err: err}
	}
	if len(proba) != 1 {
		return PredictionResult{}, &InvocationError{Op: "predict_proba", Err: fmt.Errorf("got %d rows for 1 row", len(proba))}
	}
	p, err := normalize(proba[0])
	if err != nil {
		return PredictionResult{}, &InvocationError{Op: "predict_proba", Err: err}
	}

	return PredictionResult{Class: class, Probabilities: p}, nil
}

func classOf(label int) (Class, error) {
	switch label {
	case 0:
		return NonPotable, nil
	case 1:
		return Potable, nil
	default:
		return 0, fmt.Errorf("unexpected label %d", label)
	}
}

func normalize(row []float64) ([2]float64, error) {
	if len(row) != 2 {
		return [2]float64{}, fmt.Errorf("expected 2 probabilities, got %d", len(row))
	}
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return [2]float64{}, fmt.Errorf("invalid probability %v", v)
		}
	}
	sum := row[0] + row[1]
	if sum <= 0 {
		return [2]float64{}, errors.New("probabilities sum to zero")
	}
	return [2]float64{row[0] / sum, row[1] / sum}, nil
}
