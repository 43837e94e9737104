package cmd

import (
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the list of global flags inherited by all commands",
	Long:  `Print the list of global command-line options (flags) that can be passed to any command.`,
	Run:   runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, _ []string) {
	cmd.Print(`The following options can be passed to any command:

    --connection='':
        Named backend connection to use (overrides the current connection)

    --log-level='':
        Log level (debug, info, warn, error) - overrides config file

    -o, --output='simple':
        Output format (simple, json, table, tree)

    --timeout=30s:
        Timeout for backend operations (e.g., 30s, 1m, 2m30s)
`)
}
