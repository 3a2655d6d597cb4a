package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// ErrModelNotFound is returned when the registry has no model by that name.
var ErrModelNotFound = errors.New("model not found")

// ModelRecord is a stored classifier artifact.
type ModelRecord struct {
	Name      string
	ModelType string
	Payload   []byte
	CreatedAt time.Time
}

// InitDB opens the model registry and creates its table.
func InitDB(path string) error {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS models (
        name TEXT PRIMARY KEY,
        model_type TEXT NOT NULL,
        payload BLOB NOT NULL,
        created_at DATETIME NOT NULL
    );`
	if _, err := conn.Exec(query); err != nil {
		conn.Close()
		return fmt.Errorf("create models table: %w", err)
	}
	database = conn
	return nil
}

// Close releases the registry connection.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// SaveModel stores an artifact, replacing any model with the same name.
func SaveModel(name, modelType string, payload []byte) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO models (name, model_type, payload, created_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            model_type = excluded.model_type,
            payload = excluded.payload,
            created_at = excluded.created_at`,
		name, modelType, payload, time.Now().UTC())
	return err
}

// LoadModel fetches one artifact by name.
func LoadModel(name string) (*ModelRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	var rec ModelRecord
	err := database.QueryRow(
		"SELECT name, model_type, payload, created_at FROM models WHERE name = ?", name,
	).Scan(&rec.Name, &rec.ModelType, &rec.Payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListModels returns stored models without their payloads, newest first.
func ListModels() ([]ModelRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query("SELECT name, model_type, created_at FROM models ORDER BY created_at DESC, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ModelRecord
	for rows.Next() {
		var rec ModelRecord
		if err := rows.Scan(&rec.Name, &rec.ModelType, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
