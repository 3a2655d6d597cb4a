package water

import (
	"fmt"
	"math"
)

// RangeError is returned when a change event carries a value the field does
// not accept.
type RangeError struct {
	Field Field
	Value float64
}

func (e *RangeError) Error() string {
	spec := e.Field.Spec()
	return fmt.Sprintf("%s: value %v outside [%v, %v]", e.Field, e.Value, spec.Min, spec.Max)
}

// Session is the state of one user's form. It is not safe for concurrent use;
// callers serialize events for a session.
type Session struct {
	values       [FieldCount]float64
	touched      [FieldCount]bool
	touchedCount int
}

// NewSession returns a session with every field at its default and untouched.
func NewSession() *Session {
	s := &Session{}
	for i := range s.values {
		s.values[i] = specs[i].Default()
	}
	return s
}

// MarkTouched records that f received a change event. Only the first call
// per field has an effect.
func (s *Session) MarkTouched(f Field) {
	mustValid(f)
	if s.touched[f] {
		return
	}
	s.touched[f] = true
	s.touchedCount++
}

// SetValue applies a change event to f. The field counts as touched even when
// v equals its current value.
func (s *Session) SetValue(f Field, v float64) error {
	mustValid(f)
	if math.IsNaN(v) || !specs[f].InRange(v) {
		return &RangeError{Field: f, Value: v}
	}
	s.values[f] = v
	s.MarkTouched(f)
	return nil
}

func (s *Session) Value(f Field) float64 {
	mustValid(f)
	return s.values[f]
}

func (s *Session) Touched(f Field) bool {
	mustValid(f)
	return s.touched[f]
}

// TouchedCount is the number of fields that have received a change event.
func (s *Session) TouchedCount() int {
	return s.touchedCount
}

// Complete reports whether every field has been touched.
func (s *Session) Complete() bool {
	return s.touchedCount == FieldCount
}

// Missing returns the untouched fields in feature order.
func (s *Session) Missing() []Field {
	var missing []Field
	for i, t := range s.touched {
		if !t {
			missing = append(missing, Field(i))
		}
	}
	return missing
}

// Features returns the current values in feature order.
func (s *Session) Features() []float64 {
	out := make([]float64, FieldCount)
	copy(out, s.values[:])
	return out
}

// Advisory flags a touched field whose value is outside its reference range.
type Advisory struct {
	Field     Field   `json:"-"`
	Name      string  `json:"field"`
	Value     float64 `json:"value"`
	SafeRange string  `json:"safe_range"`
}

func (a Advisory) String() string {
	return fmt.Sprintf("%s %v is outside the safe range %s", a.Field.Spec().Title, a.Value, a.SafeRange)
}

// Advisories lists touched fields outside their reference range. It has no
// bearing on whether the session may be classified.
func (s *Session) Advisories() []Advisory {
	var out []Advisory
	for i, spec := range specs {
		if !s.touched[i] || spec.InSafeRange(s.values[i]) {
			continue
		}
		out = append(out, Advisory{
			Field:     Field(i),
			Name:      spec.Name,
			Value:     s.values[i],
			SafeRange: spec.SafeRange(),
		})
	}
	return out
}

// Snapshot is a serializable view of a session.
type Snapshot struct {
	TouchedCount int          `json:"touched_count"`
	Complete     bool         `json:"complete"`
	Fields       []FieldState `json:"fields"`
}

type FieldState struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Touched bool    `json:"touched"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		TouchedCount: s.touchedCount,
		Complete:     s.Complete(),
		Fields:       make([]FieldState, FieldCount),
	}
	for i, spec := range specs {
		snap.Fields[i] = FieldState{
			Name:    spec.Name,
			Label:   spec.Label(),
			Value:   s.values[i],
			Touched: s.touched[i],
		}
	}
	return snap
}
