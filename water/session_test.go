package water

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession()
	assert.Equal(t, 0, s.TouchedCount())
	assert.False(t, s.Complete())
	assert.Len(t, s.Missing(), FieldCount)
	for _, f := range Fields() {
		assert.False(t, s.Touched(f), f.String())
		assert.Equal(t, f.Spec().Min, s.Value(f), f.String())
	}
}

func TestMarkTouchedIdempotent(t *testing.T) {
	for _, f := range Fields() {
		s := NewSession()
		s.MarkTouched(f)
		assert.Equal(t, 1, s.TouchedCount(), f.String())
		s.MarkTouched(f)
		assert.Equal(t, 1, s.TouchedCount(), f.String())
		assert.True(t, s.Touched(f))
	}
}

func TestMarkTouchedOutOfRangePanics(t *testing.T) {
	s := NewSession()
	assert.Panics(t, func() { s.MarkTouched(Field(9)) })
	assert.Panics(t, func() { s.MarkTouched(Field(-1)) })
	assert.Equal(t, 0, s.TouchedCount())
}

func TestSetValueTouchesOnSameValue(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SetValue(PH, s.Value(PH)))
	assert.True(t, s.Touched(PH))
	assert.Equal(t, 1, s.TouchedCount())

	require.NoError(t, s.SetValue(PH, 7.5))
	assert.Equal(t, 7.5, s.Value(PH))
	assert.Equal(t, 1, s.TouchedCount())
}

func TestSetValueRejectsOutOfRange(t *testing.T) {
	s := NewSession()
	for _, v := range []float64{-0.1, 14.01, math.NaN()} {
		err := s.SetValue(PH, v)
		var rangeErr *RangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, PH, rangeErr.Field)
	}
	assert.False(t, s.Touched(PH))
	assert.Equal(t, 0.0, s.Value(PH))

	require.NoError(t, s.SetValue(Solids, 62000))
	require.NoError(t, s.SetValue(Turbidity, 1.4))
}

func TestMissingAndComplete(t *testing.T) {
	s := NewSession()
	for _, f := range Fields()[:8] {
		s.MarkTouched(f)
	}
	assert.Equal(t, []Field{Turbidity}, s.Missing())
	assert.False(t, s.Complete())
	s.MarkTouched(Turbidity)
	assert.Empty(t, s.Missing())
	assert.True(t, s.Complete())
}

func TestFeaturesOrder(t *testing.T) {
	s := NewSession()
	values := []float64{7.0, 200.0, 20000.0, 7.0, 330.0, 450.0, 13.0, 60.0, 4.0}
	for i, v := range values {
		require.NoError(t, s.SetValue(Field(i), v))
	}
	assert.Equal(t, values, s.Features())

	// The returned slice is a copy.
	s.Features()[0] = 1
	assert.Equal(t, 7.0, s.Value(PH))
}

func TestAdvisories(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SetValue(PH, 9.2))
	require.NoError(t, s.SetValue(Hardness, 200))

	advisories := s.Advisories()
	require.Len(t, advisories, 1)
	assert.Equal(t, "ph", advisories[0].Name)
	assert.Equal(t, 9.2, advisories[0].Value)
	assert.Contains(t, advisories[0].String(), "pH 9.2")
}

func TestSnapshot(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.SetValue(Sulfate, 300))
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.TouchedCount)
	assert.False(t, snap.Complete)
	require.Len(t, snap.Fields, FieldCount)
	assert.Equal(t, "sulfate", snap.Fields[Sulfate].Name)
	assert.True(t, snap.Fields[Sulfate].Touched)
	assert.Equal(t, 300.0, snap.Fields[Sulfate].Value)
}

func TestParseField(t *testing.T) {
	for i, name := range FieldNames() {
		f, err := ParseField(name)
		require.NoError(t, err)
		assert.Equal(t, Field(i), f)
		assert.Equal(t, name, f.String())
	}
	_, err := ParseField("lead")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFieldLabels(t *testing.T) {
	assert.Equal(t, "pH (0–14)", PH.Spec().Label())
	assert.Contains(t, Solids.Spec().Label(), "62,000")
	assert.Contains(t, Solids.Spec().SafeRange(), "mg/L")
	assert.True(t, Turbidity.Spec().InSafeRange(4.0))
	assert.False(t, Turbidity.Spec().InSafeRange(5.0))
}
