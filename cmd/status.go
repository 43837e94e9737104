package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/cliout"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which backend gset would use and whether it's reachable",
	Long: `Status resolves the active connection (from --connection, or the
gconfig current connection), dials its backend, and reports whether that
succeeded.`,
	Example: `  gset status
  gset status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	conn, name, connErr := currentConnection()
	hasConnection := connErr == nil && conn != nil

	b, cleanup, dialErr := resolveBackend()
	if dialErr == nil {
		defer cleanup()
	}

	switch outputFormat {
	case cliout.FormatJSON.String():
		return printStatusJSON(name, hasConnection, b, connErr, dialErr)
	default:
		printStatusSimple(name, hasConnection, b, connErr, dialErr)
		return nil
	}
}

func printStatusSimple(name string, hasConnection bool, b interface{ Name() string }, connErr, dialErr error) {
	fmt.Println("Connection")
	fmt.Println("----------")
	switch {
	case connErr != nil:
		fmt.Printf("  error: %v\n", connErr)
	case !hasConnection:
		fmt.Println("  none configured (falls back to in-memory storage)")
	default:
		fmt.Printf("  name: %s\n", name)
	}
	fmt.Println()
	fmt.Println("Backend")
	fmt.Println("-------")
	if dialErr != nil {
		fmt.Printf("  status: UNREACHABLE\n")
		fmt.Printf("  error:  %v\n", dialErr)
		return
	}
	fmt.Printf("  status: REACHABLE\n")
	fmt.Printf("  kind:   %s\n", b.Name())
}

func printStatusJSON(name string, hasConnection bool, b interface{ Name() string }, connErr, dialErr error) error {
	data := map[string]any{
		"connection":    name,
		"hasConnection": hasConnection,
	}
	if connErr != nil {
		data["connectionError"] = connErr.Error()
	}
	if dialErr != nil {
		data["reachable"] = false
		data["error"] = dialErr.Error()
	} else {
		data["reachable"] = true
		data["backend"] = b.Name()
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
