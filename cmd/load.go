package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"potability/config"
	"potability/db"
	"potability/logging"
	"potability/ml"
	"potability/water"
)

// loadConfig reads the file named by --config and applies --model.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("load config: %w", err)
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model.Path = model
		cfg.Model.Registry = ""
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
	return logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

// loadClassifier loads the configured model, from the registry when one is
// set and from the artifact file otherwise. The feature order must match the
// form's.
func loadClassifier(cfg *config.Config) (*ml.Model, error) {
	if cfg.Model.Registry == "" {
		return ml.LoadModel(cfg.Model.Type, cfg.Model.Path, water.FieldNames())
	}

	source := cfg.Model.Registry + "#" + cfg.Model.Name
	if err := db.InitDB(cfg.Model.Registry); err != nil {
		return nil, &ml.LoadError{Source: source, Err: err}
	}
	defer db.Close()

	record, err := db.LoadModel(cfg.Model.Name)
	if err != nil {
		return nil, &ml.LoadError{Source: source, Err: err}
	}
	model, err := ml.Decode(record.Payload, water.FieldNames())
	if err != nil {
		return nil, &ml.LoadError{Source: source, Err: err}
	}
	if cfg.Model.Type != "" && model.ModelType != cfg.Model.Type {
		return nil, &ml.LoadError{Source: source, Err: fmt.Errorf("artifact is %s, configured %s", model.ModelType, cfg.Model.Type)}
	}
	return model, nil
}

var errNoRegistry = errors.New("no model registry configured (set model.registry or pass --registry)")

// openRegistry opens the registry named by --registry, falling back to the
// configuration.
func openRegistry(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("registry")
	if path == "" {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Model.Registry
	}
	if path == "" {
		return errNoRegistry
	}
	return db.InitDB(path)
}
