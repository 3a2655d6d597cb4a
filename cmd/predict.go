package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"potability/water"
)

type predictOutput struct {
	Class      string           `json:"class"`
	Label      int              `json:"label"`
	Text       string           `json:"text"`
	Potable    float64          `json:"potable"`
	NonPotable float64          `json:"non_potable"`
	Advisories []water.Advisory `json:"advisories,omitempty"`
}

func newPredictCmd() *cobra.Command {
	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one sample given as flags",
		Long: "Classify one sample. Each measurement flag counts as a change event only " +
			"when it is given, so every one of the nine flags is required.",
		Args: cobra.NoArgs,
		RunE: runPredict,
	}
	for _, spec := range water.Specs() {
		predictCmd.Flags().Float64(spec.Name, spec.Default(), spec.Label())
	}
	predictCmd.Flags().Bool("json", false, "Print the result as JSON")
	return predictCmd
}

func runPredict(cmd *cobra.Command, args []string) error {
	session := water.NewSession()
	for _, f := range water.Fields() {
		name := f.String()
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(name)
		if err != nil {
			return err
		}
		if err := session.SetValue(f, v); err != nil {
			return err
		}
	}

	// Gate before loading so a short command line fails fast.
	if !session.Complete() {
		missing := make([]string, 0, water.FieldCount)
		for _, f := range session.Missing() {
			missing = append(missing, "--"+f.String())
		}
		return fmt.Errorf("%w (missing %v)", water.ErrIncompleteInput, missing)
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	model, err := loadClassifier(cfg)
	if err != nil {
		return err
	}

	result, err := water.Classify(session, model)
	if err != nil {
		var invErr *water.InvocationError
		if errors.As(err, &invErr) {
			return fmt.Errorf("classification failed: %w", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	advisories := session.Advisories()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(predictOutput{
			Class:      result.Class.Key(),
			Label:      int(result.Class),
			Text:       result.Class.String(),
			Potable:    result.PotableProbability(),
			NonPotable: result.NonPotableProbability(),
			Advisories: advisories,
		})
	}

	fmt.Fprintln(out, result.Summary())
	for _, a := range advisories {
		fmt.Fprintln(out, "note:", a)
	}
	return nil
}
