// Package water holds the form state for one potability check and the call
// that hands a completed form to the classifier.
package water

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Field identifies one of the nine measurements. The numeric value is the
// column index in the classifier's feature vector.
type Field int

const (
	PH Field = iota
	Hardness
	Solids
	Chloramines
	Sulfate
	Conductivity
	OrganicCarbon
	Trihalomethanes
	Turbidity
)

// FieldCount is the number of measurements a session tracks.
const FieldCount = 9

var ErrUnknownField = errors.New("unknown field")

var fieldNames = [FieldCount]string{
	"ph",
	"hardness",
	"solids",
	"chloramines",
	"sulfate",
	"conductivity",
	"organic_carbon",
	"trihalomethanes",
	"turbidity",
}

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// Valid reports whether f is one of the nine fields.
func (f Field) Valid() bool {
	return f >= 0 && f < FieldCount
}

// ParseField resolves a snake_case field name.
func ParseField(name string) (Field, error) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Fields returns all fields in feature order.
func Fields() []Field {
	fields := make([]Field, FieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// FieldNames returns the field names in feature order.
func FieldNames() []string {
	names := make([]string, FieldCount)
	copy(names, fieldNames[:])
	return names
}

// FieldSpec describes the accepted input range of a field and the reference
// range considered safe for drinking water.
type FieldSpec struct {
	Field   Field   `json:"-"`
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	SafeMin float64 `json:"safe_min"`
	SafeMax float64 `json:"safe_max"`
}

var specs = [FieldCount]FieldSpec{
	{Field: PH, Name: "ph", Title: "pH", Min: 0.0, Max: 14.0, SafeMin: 6.0, SafeMax: 8.5},
	{Field: Hardness, Name: "hardness", Title: "Hardness", Unit: "mg/L", Min: 47.0, Max: 323.0, SafeMin: 130, SafeMax: 240},
	{Field: Solids, Name: "solids", Title: "Solids (TDS)", Unit: "mg/L", Min: 320.0, Max: 62000.0, SafeMin: 19000, SafeMax: 30000},
	{Field: Chloramines, Name: "chloramines", Title: "Chloramines", Unit: "mg/L", Min: 0.3, Max: 13.0, SafeMin: 5.5, SafeMax: 9.5},
	{Field: Sulfate, Name: "sulfate", Title: "Sulfate", Unit: "mg/L", Min: 129.0, Max: 481.0, SafeMin: 285, SafeMax: 366},
	{Field: Conductivity, Name: "conductivity", Title: "Conductivity", Unit: "µS/cm", Min: 181.0, Max: 753.0, SafeMin: 350, SafeMax: 550},
	{Field: OrganicCarbon, Name: "organic_carbon", Title: "Organic Carbon (TOC)", Unit: "mg/L", Min: 2.2, Max: 28.0, SafeMin: 12.0, SafeMax: 15.5},
	{Field: Trihalomethanes, Name: "trihalomethanes", Title: "Trihalomethanes (THMs)", Unit: "µg/L", Min: 0.7, Max: 124.0, SafeMin: 48, SafeMax: 75},
	{Field: Turbidity, Name: "turbidity", Title: "Turbidity", Unit: "NTU", Min: 1.4, Max: 6.7, SafeMin: 3.5, SafeMax: 4.7},
}

var printer = message.NewPrinter(language.English)

// Spec returns the spec of f. It panics if f is not a valid field.
func (f Field) Spec() FieldSpec {
	mustValid(f)
	return specs[f]
}

// Specs returns the specs of all fields in feature order.
func Specs() []FieldSpec {
	out := make([]FieldSpec, FieldCount)
	copy(out, specs[:])
	return out
}

// Default is the value a field holds before it is touched.
func (s FieldSpec) Default() float64 {
	return s.Min
}

// Label is the widget label, e.g. "Solids (TDS) (320–62,000)".
func (s FieldSpec) Label() string {
	return printer.Sprintf("%s (%v–%v)", s.Title, number.Decimal(s.Min), number.Decimal(s.Max))
}

// SafeRange renders the reference range with its unit, e.g. "19,000 – 30,000 mg/L".
func (s FieldSpec) SafeRange() string {
	text := printer.Sprintf("%v – %v", number.Decimal(s.SafeMin), number.Decimal(s.SafeMax))
	if s.Unit != "" {
		text += " " + s.Unit
	}
	return text
}

// InRange reports whether v is an accepted input for the field.
func (s FieldSpec) InRange(v float64) bool {
	return v >= s.Min && v <= s.Max
}

// InSafeRange reports whether v lies inside the reference range.
func (s FieldSpec) InSafeRange(v float64) bool {
	return v >= s.SafeMin && v <= s.SafeMax
}

func mustValid(f Field) {
	if !f.Valid() {
		panic(fmt.Sprintf("water: field index %d out of range", int(f)))
	}
}
