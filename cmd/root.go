// Package cmd implements the gset command-line interface: a kubectl-like
// CLI exercising pkg/backend and its concrete backends, grounded on etu's
// cobra-based command layout.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/gconfig"
	"github.com/kazuma-desu/gset/pkg/logger"
)

const defaultOperationTimeout = 30 * time.Second

var (
	logLevel         string
	connectionName   string
	outputFormat     string
	operationTimeout time.Duration

	rootCmd = &cobra.Command{
		Use:   "gset",
		Short: "A kubectl-like CLI for the gset settings backend",
		Long: `gset is a command-line client for the settings backend abstraction:
a pluggable, hierarchically-keyed, typed key/value store with an observer
fabric for change notifications.

Exit Codes:
  0  Success
  1  Any error (invalid input, a backend that cannot be resolved, a key
     that is not found, ...); failures are not told apart by exit code

Use 'gset options' to see all available global flags.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogging()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error) - overrides config file")
	rootCmd.PersistentFlags().StringVar(&connectionName, "connection", "",
		"named backend connection to use (overrides the current connection)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", cliout.FormatSimple.String(),
		fmt.Sprintf("output format (%s)", strings.Join(formatNames(), ", ")))
	rootCmd.PersistentFlags().DurationVar(&operationTimeout, "timeout", defaultOperationTimeout,
		"timeout for backend operations (e.g., 30s, 1m, 2m30s)")

	hideAllGlobalFlags()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configureLogging() {
	level := "warn"

	if cfg, err := gconfig.LoadConfig(); err == nil && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	if logLevel != "" {
		level = logLevel
	}

	logger.SetLevel(level)
}

func formatNames() []string {
	formats := cliout.AllFormats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.String()
	}
	return names
}

// hideAllGlobalFlags hides most persistent flags from the main help output,
// keeping --output and --connection visible for discoverability. Use
// 'gset options' to see the rest.
func hideAllGlobalFlags() {
	visible := map[string]bool{"output": true, "connection": true}
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if !visible[f.Name] {
			_ = rootCmd.PersistentFlags().MarkHidden(f.Name)
		}
	})
}
