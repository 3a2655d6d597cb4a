package ml

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed model.schema.json
var schemaJSON []byte

const schemaURL = "schema://potability/model.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// LoadError reports a missing or corrupt model artifact.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadModel reads an artifact file. modelType, when set, must match the type
// recorded in the artifact. expected is the required feature order; nil skips
// that check.
func LoadModel(modelType, path string, expected []string) (*Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	model, err := Decode(payload, expected)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	if modelType != "" && model.ModelType != modelType {
		return nil, &LoadError{Source: path, Err: fmt.Errorf("artifact is %s, configured %s", model.ModelType, modelType)}
	}
	return model, nil
}

// Decode validates an artifact against the embedded schema and its own
// structure.
func Decode(payload []byte, expected []string) (*Model, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := modelSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var model Model
	if err := json.Unmarshal(payload, &model); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := model.validate(expected); err != nil {
		return nil, err
	}
	return &model, nil
}

// Encode serializes a model in artifact form.
func Encode(m *Model) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func modelSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}
