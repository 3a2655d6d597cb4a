package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"potability/ml"
	"potability/water"
)

const artifact = "../models/water_model.json"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

var sampleFlags = []string{
	"--ph", "7.0", "--hardness", "200", "--solids", "20000", "--chloramines", "7",
	"--sulfate", "330", "--conductivity", "450", "--organic_carbon", "13",
	"--trihalomethanes", "60", "--turbidity", "4",
}

func TestPredict(t *testing.T) {
	out, err := run(t, append([]string{"predict", "--model", artifact}, sampleFlags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Prediction: Safe to Drink (Potable)")
	assert.Contains(t, out, "Probability (Potable = 1): 0.68")
	assert.Contains(t, out, "Probability (Non-Potable = 0): 0.32")
}

func TestPredictJSON(t *testing.T) {
	out, err := run(t, append([]string{"predict", "--json", "--model", artifact}, sampleFlags...)...)
	require.NoError(t, err)

	var got predictOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "potable", got.Class)
	assert.Equal(t, 1, got.Label)
	assert.InDelta(t, 2.05/3, got.Potable, 1e-9)
	assert.InDelta(t, 1-2.05/3, got.NonPotable, 1e-9)
}

func TestPredictGated(t *testing.T) {
	// Omitting a flag leaves its field untouched even though it has a default.
	_, err := run(t, append([]string{"predict", "--model", artifact}, sampleFlags[:16]...)...)
	require.ErrorIs(t, err, water.ErrIncompleteInput)
	assert.Contains(t, err.Error(), "--turbidity")
}

func TestPredictRejectsOutOfRange(t *testing.T) {
	args := append([]string{"predict", "--model", artifact}, sampleFlags...)
	args[4] = "15"
	_, err := run(t, args...)

	var rangeErr *water.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, water.PH, rangeErr.Field)
}

func TestPredictModelLoadFailure(t *testing.T) {
	_, err := run(t, append([]string{"predict", "--model", "missing.json"}, sampleFlags...)...)
	var loadErr *ml.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestModelRegistry(t *testing.T) {
	registry := filepath.Join(t.TempDir(), "models.db")

	out, err := run(t, "model", "import", "--registry", registry, "water", artifact)
	require.NoError(t, err)
	assert.Contains(t, out, "imported water: random_forest: 3 trees")

	out, err = run(t, "model", "list", "--registry", registry)
	require.NoError(t, err)
	assert.Contains(t, out, "water")
	assert.Contains(t, out, "random_forest")

	out, err = run(t, "model", "inspect", "--registry", registry, "water")
	require.NoError(t, err)
	assert.Contains(t, out, "features: ph, hardness")
	assert.Contains(t, out, "tree 2:")

	_, err = run(t, "model", "inspect", "--registry", registry, "nope")
	assert.Error(t, err)
}

func TestPredictFromRegistry(t *testing.T) {
	dir := t.TempDir()
	registry := filepath.Join(dir, "models.db")
	_, err := run(t, "model", "import", "--registry", registry, "water", artifact)
	require.NoError(t, err)

	configPath := filepath.Join(dir, "config.yaml")
	config := fmt.Sprintf("model:\n  registry: %s\n  name: water\n", registry)
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"predict", "--config", configPath}, sampleFlags...))
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Safe to Drink (Potable)")
}

func TestModelImportRejectsInvalidArtifact(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"model_type": "svm"}`), 0o644))

	_, err := run(t, "model", "import", "--registry", filepath.Join(t.TempDir(), "m.db"), "bad", bad)
	var loadErr *ml.LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestModelListWithoutRegistry(t *testing.T) {
	_, err := run(t, "model", "list")
	assert.ErrorIs(t, err, errNoRegistry)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "potability (devel)\n", out)
}
