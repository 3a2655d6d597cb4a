package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"potability/tui"
)

func newFormCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Fill in the form in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Console logging would draw over the form.
			logger := zap.NewNop()
			if cfg.Log.File != "" {
				if logger, _, err = newLogger(cfg); err != nil {
					return err
				}
			}
			defer logger.Sync()

			model, err := loadClassifier(cfg)
			if err != nil {
				logger.Error("failed to load model", zap.Error(err))
				return err
			}
			logger.Info("form started", zap.String("model", model.Describe()))
			return tui.Run(cmd.Context(), model)
		},
	}
}
