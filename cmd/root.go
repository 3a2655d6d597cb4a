package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "potability",
		Short:         "Water potability classifier",
		Long:          "Collects nine water quality measurements and asks a trained classifier whether the water is safe to drink.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String("config", "config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("model", "", "Path to a model artifact (overrides model.path and model.registry)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFormCmd())
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newModelCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}
