package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/cliout"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get the value stored at a key",
	Long: `Get the value stored at a key.

The key is read from the resolved backend directly; no pending changeset is
layered in front of it. A key with no stored value is reported as a
"key not found" error.`,
	Example: `  # Get a single key
  gset get /app/config/host

  # JSON output
  gset get /app/config/host -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(_ *cobra.Command, args []string) error {
	format, err := cliout.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	key := args[0]

	ctx, cancel := getOperationContext()
	defer cancel()

	b, cleanup, err := resolveBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	v, found, err := backendReadValue(ctx, b, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("key not found: %s", key)
	}

	return cliout.PrintEntries([]cliout.Entry{{Key: key, Value: v}}, format)
}
