package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"potability/db"
	"potability/ml"
	"potability/water"
)

func newModelCmd() *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Manage classifier artifacts",
	}
	modelCmd.PersistentFlags().String("registry", "", "Path to the SQLite model registry (overrides model.registry)")

	modelCmd.AddCommand(&cobra.Command{
		Use:   "import <name> <file>",
		Short: "Validate an artifact and store it in the registry",
		Args:  cobra.ExactArgs(2),
		RunE:  runModelImport,
	})
	modelCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registry entries",
		Args:  cobra.NoArgs,
		RunE:  runModelList,
	})
	modelCmd.AddCommand(&cobra.Command{
		Use:   "inspect [name]",
		Short: "Describe the configured model, or a registry entry by name",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runModelInspect,
	})
	return modelCmd
}

func runModelImport(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]
	payload, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	model, err := ml.Decode(payload, water.FieldNames())
	if err != nil {
		return &ml.LoadError{Source: file, Err: err}
	}

	if err := openRegistry(cmd); err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveModel(name, model.ModelType, payload); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %s\n", name, model.Describe())
	return nil
}

func runModelList(cmd *cobra.Command, args []string) error {
	if err := openRegistry(cmd); err != nil {
		return err
	}
	defer db.Close()

	records, err := db.ListModels()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no models")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "TYPE", "CREATED")
	for _, r := range records {
		t.Row(r.Name, r.ModelType, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func runModelInspect(cmd *cobra.Command, args []string) error {
	var (
		model *ml.Model
		err   error
	)
	if len(args) == 1 {
		model, err = inspectRegistryModel(cmd, args[0])
	} else {
		cfg, _, cerr := loadConfig(cmd)
		if cerr != nil {
			return cerr
		}
		model, err = loadClassifier(cfg)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, model.Describe())
	fmt.Fprintln(out, "features:", strings.Join(model.FeatureNames, ", "))
	for i, tree := range model.Trees {
		fmt.Fprintf(out, "tree %d: %d nodes\n", i, len(tree.Nodes))
	}
	return nil
}

func inspectRegistryModel(cmd *cobra.Command, name string) (*ml.Model, error) {
	if err := openRegistry(cmd); err != nil {
		return nil, err
	}
	defer db.Close()

	record, err := db.LoadModel(name)
	if err != nil {
		return nil, err
	}
	model, err := ml.Decode(record.Payload, water.FieldNames())
	if err != nil {
		return nil, &ml.LoadError{Source: name, Err: err}
	}
	return model, nil
}
