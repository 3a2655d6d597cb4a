package db

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestModelRegistry(t *testing.T) {
	if err := InitDB(filepath.Join(t.TempDir(), "registry.db")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer Close()

	if err := SaveModel("water", "random_forest", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SaveModel("water", "decision_tree", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := LoadModel("water")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ModelType != "decision_tree" || string(rec.Payload) != `{"v":2}` {
		t.Fatalf("expected replaced record, got %+v", rec)
	}

	records, err := ListModels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "water" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].Payload != nil {
		t.Fatal("expected list without payloads")
	}

	if _, err := LoadModel("missing"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestUninitialized(t *testing.T) {
	Close()
	if err := SaveModel("water", "random_forest", nil); err == nil {
		t.Fatal("expected error without database")
	}
}
