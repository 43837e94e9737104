package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/cliconfig"
	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/path"
)

var (
	putOpts struct {
		dryRun   bool
		validate bool
	}

	putCmd = &cobra.Command{
		Use:   "put <key> [value]",
		Short: "Write a value to a key",
		Long:  `Write a single key/value pair to the resolved backend. Value can be given as an argument or piped via stdin using '-'.`,
		Example: `  # Put with inline value
  gset put /app/config/host localhost

  # Put from stdin
  echo my-value | gset put /app/config/name -

  # Preview without writing
  gset put /app/config/host localhost --dry-run

  # Validate the key before writing
  gset put /app/config/host localhost --validate`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPut,
	}
)

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().BoolVar(&putOpts.dryRun, "dry-run", false,
		"preview the write without applying it")
	putCmd.Flags().BoolVar(&putOpts.validate, "validate", false,
		"validate the key before writing")
}

func runPut(_ *cobra.Command, args []string) error {
	key := args[0]

	if !path.IsKey(key) {
		return fmt.Errorf("malformed key: %s", key)
	}

	raw, err := resolveValue(args, os.Stdin)
	if err != nil {
		return err
	}

	if putOpts.validate {
		result := cliconfig.Validate([]cliconfig.Entry{{Key: key, Value: raw}}, false)
		if !result.Valid {
			return fmt.Errorf("validation failed: %s", issuesSummary(result))
		}
		if !isQuietOutput() {
			cliout.Success("Validation passed")
		}
	}

	v := cliconfig.BoxScalar(cliconfig.ParseScalar(raw))

	if putOpts.dryRun {
		cliout.Info(fmt.Sprintf("Would put: %s = %s", key, cliout.Truncate(raw, 50)))
		return nil
	}

	ctx, cancel := getOperationContext()
	defer cancel()

	b, cleanup, err := resolveBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := backendWrite(ctx, b, key, v); err != nil {
		return wrapContextError(fmt.Errorf("failed to put key: %w", err))
	}

	cliout.Success(fmt.Sprintf("Put: %s", key))
	return nil
}

func resolveValue(args []string, stdin io.Reader) (string, error) {
	if len(args) < 2 || args[1] == "-" {
		return readValueFromStdin(stdin)
	}
	return args[1], nil
}

func readValueFromStdin(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok {
		stat, err := f.Stat()
		if err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return "", fmt.Errorf("no value provided: use 'gset put <key> <value>' or pipe a value via stdin")
		}
	}

	var builder strings.Builder
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}

	value := builder.String()
	if value == "" {
		return "", fmt.Errorf("empty value received from stdin")
	}
	return value, nil
}

func issuesSummary(result *cliconfig.Result) string {
	var msgs []string
	for _, issue := range result.Issues {
		if issue.Level == cliconfig.LevelError {
			msgs = append(msgs, issue.Message)
		}
	}
	return strings.Join(msgs, "; ")
}
