package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/cliconfig"
	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/value"
)

var (
	diffOpts struct {
		FilePath      string
		Prefix        string
		ShowUnchanged bool
	}

	diffCmd = &cobra.Command{
		Use:   "diff -f FILE",
		Short: "Compare a local YAML document with the resolved backend's state",
		Long: `Compare a local YAML configuration document with the current state of the
resolved backend. Shows which keys would be added or modified by an
equivalent 'gset apply'. Only keys named in the document are read from the
backend, so no key is ever reported as deleted.`,
		Example: `  # Compare a file against the backend
  gset diff -f settings.yaml

  # Include unchanged keys
  gset diff -f settings.yaml --show-unchanged

  # Only compare keys under a prefix
  gset diff -f settings.yaml --prefix /app/config

  # JSON output for scripting
  gset diff -f settings.yaml -o json`,
		RunE: runDiff,
	}
)

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVarP(&diffOpts.FilePath, "file", "f", "",
		"path to a YAML configuration document (required)")
	diffCmd.Flags().BoolVar(&diffOpts.ShowUnchanged, "show-unchanged", false,
		"show keys that are unchanged")
	diffCmd.Flags().StringVar(&diffOpts.Prefix, "prefix", "",
		"only compare keys with this prefix")

	if err := diffCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark flag as required: %v", err))
	}
}

func runDiff(_ *cobra.Command, _ []string) error {
	format, err := cliout.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	entries, err := loadEntriesFromFile(diffOpts.FilePath)
	if err != nil {
		return err
	}

	if diffOpts.Prefix != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if strings.HasPrefix(e.Key, diffOpts.Prefix) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	logVerbose("Parsed configuration", "file", diffOpts.FilePath, "entries", len(entries))

	ctx, cancel := getOperationContext()
	defer cancel()

	b, cleanup, err := resolveBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	want := make(map[string]value.Value, len(entries))
	have := make(map[string]value.Value, len(entries))
	for _, e := range entries {
		want[e.Key] = cliconfig.BoxScalar(e.Value)
		if v, found, err := backendReadValue(ctx, b, e.Key); err == nil && found {
			have[e.Key] = v
		}
	}

	result := cliout.DiffValues(have, want)
	return cliout.PrintDiffResult(result, format, diffOpts.ShowUnchanged)
}
