package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kazuma-desu/gset/pkg/cliconfig"
	"github.com/kazuma-desu/gset/pkg/cliout"
)

var (
	applyOpts struct {
		FilePath   string
		DryRun     bool
		NoValidate bool
		Strict     bool
	}

	applyCmd = &cobra.Command{
		Use:   "apply -f FILE",
		Short: "Apply a YAML configuration document to the resolved backend",
		Long: `Parse a YAML document into flattened key/value entries, validate them, and
write them to the resolved backend as a single atomic changeset. Similar to
'kubectl apply', validation runs before anything is written.`,
		Example: `  # Apply configuration from a file
  gset apply -f settings.yaml

  # Preview changes without applying
  gset apply -f settings.yaml --dry-run

  # Treat validation warnings as errors
  gset apply -f settings.yaml --strict

  # Skip validation (not recommended)
  gset apply -f settings.yaml --no-validate`,
		RunE: runApply,
	}
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVarP(&applyOpts.FilePath, "file", "f", "",
		"path to a YAML configuration document (required)")
	applyCmd.Flags().BoolVar(&applyOpts.DryRun, "dry-run", false,
		"preview the changeset without applying it")
	applyCmd.Flags().BoolVar(&applyOpts.NoValidate, "no-validate", false,
		"skip validation (not recommended)")
	applyCmd.Flags().BoolVar(&applyOpts.Strict, "strict", false,
		"treat validation warnings as errors")

	if err := applyCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark flag as required: %v", err))
	}
}

func runApply(_ *cobra.Command, _ []string) error {
	entries, err := loadEntriesFromFile(applyOpts.FilePath)
	if err != nil {
		return err
	}
	logVerbose("Parsed configuration", "file", applyOpts.FilePath, "entries", len(entries))

	if !applyOpts.NoValidate {
		result := cliconfig.Validate(entries, applyOpts.Strict)
		printValidationResult(result)
		if !result.Valid {
			return fmt.Errorf("validation failed, not applying")
		}
		logVerboseInfo("Validation passed")
	}

	if applyOpts.DryRun {
		for _, e := range entries {
			cliout.Info(fmt.Sprintf("Would put: %s = %v", e.Key, e.Value))
		}
		return nil
	}

	ctx, cancel := getOperationContext()
	defer cancel()

	b, cleanup, err := resolveBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	cs := cliconfig.ToChangeset(entries)
	if err := b.WriteBatch(ctx, cs, nil); err != nil {
		return wrapContextError(fmt.Errorf("failed to apply configuration: %w", err))
	}

	cliout.Success(fmt.Sprintf("Applied %d entries", len(entries)))
	return nil
}

func loadEntriesFromFile(path string) ([]cliconfig.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cliconfig.Flatten(doc), nil
}

func printValidationResult(result *cliconfig.Result) {
	for _, issue := range result.Issues {
		switch issue.Level {
		case cliconfig.LevelError:
			cliout.Error(fmt.Sprintf("%s: %s", issue.Key, issue.Message))
		case cliconfig.LevelWarning:
			cliout.Warning(fmt.Sprintf("%s: %s", issue.Key, issue.Message))
		}
	}
}
