package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/cliconfig"
)

var (
	validateOpts struct {
		FilePath string
		Strict   bool
	}

	validateCmd = &cobra.Command{
		Use:   "validate -f FILE",
		Short: "Validate a YAML configuration document without applying it",
		Long: `Parse and validate a YAML configuration document without writing it to any
backend. Checks key format, duplicate keys, and value size, and reports
errors and warnings. Useful in CI pipelines or pre-deployment checks.`,
		Example: `  # Validate a configuration file
  gset validate -f settings.yaml

  # Strict mode (treat warnings as errors)
  gset validate -f settings.yaml --strict`,
		RunE: runValidate,
	}
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateOpts.FilePath, "file", "f", "",
		"path to a YAML configuration document (required)")
	validateCmd.Flags().BoolVar(&validateOpts.Strict, "strict", false,
		"treat validation warnings as errors")

	if err := validateCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark flag as required: %v", err))
	}
}

func runValidate(_ *cobra.Command, _ []string) error {
	entries, err := loadEntriesFromFile(validateOpts.FilePath)
	if err != nil {
		return err
	}
	logVerbose("Parsed configuration", "file", validateOpts.FilePath, "entries", len(entries))

	result := cliconfig.Validate(entries, validateOpts.Strict)
	printValidationResult(result)

	if !result.Valid {
		return fmt.Errorf("validation failed")
	}
	return nil
}
