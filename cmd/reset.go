package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/path"
)

var (
	resetOpts struct {
		prefix bool
		force  bool
		dryRun bool
	}

	resetCmd = &cobra.Command{
		Use:   "reset <key>",
		Short: "Reset a key (or all keys under a prefix) back to absent",
		Long:  `Reset removes a key's stored value, so subsequent reads fall through to whatever default the consumer compiles in.`,
		Example: `  # Reset a single key
  gset reset /app/config/host

  # Reset every key under a prefix (asks for confirmation)
  gset reset /app/config/ --prefix

  # Skip confirmation
  gset reset /app/config/ --prefix --force

  # Preview what would be reset
  gset reset /app/config/ --prefix --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: runReset,
	}
)

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVar(&resetOpts.prefix, "prefix", false,
		"reset every key under the given directory")
	resetCmd.Flags().BoolVar(&resetOpts.force, "force", false,
		"skip the confirmation prompt for a prefix reset")
	resetCmd.Flags().BoolVar(&resetOpts.dryRun, "dry-run", false,
		"preview what would be reset without applying it")
}

func runReset(_ *cobra.Command, args []string) error {
	key := args[0]

	ctx, cancel := getOperationContext()
	defer cancel()

	b, cleanup, err := resolveBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	if resetOpts.prefix {
		if !path.IsDir(key) {
			return fmt.Errorf("malformed directory: %s", key)
		}
		return runResetPrefix(ctx, b, key)
	}

	if !path.IsKey(key) {
		return fmt.Errorf("malformed key: %s", key)
	}
	return runResetSingle(ctx, b, key)
}

func runResetSingle(ctx context.Context, b backend.Backend, key string) error {
	if resetOpts.dryRun {
		cliout.Info(fmt.Sprintf("Would reset: %s", key))
		return nil
	}

	if err := backendReset(ctx, b, key); err != nil {
		return wrapContextError(fmt.Errorf("failed to reset key: %w", err))
	}
	cliout.Success(fmt.Sprintf("Reset: %s", key))
	return nil
}

func runResetPrefix(ctx context.Context, b backend.Backend, dir string) error {
	suffixes, err := listKeys(b, dir)
	if err != nil {
		return err
	}
	if len(suffixes) == 0 {
		cliout.Warning(fmt.Sprintf("No keys found under: %s", dir))
		return nil
	}

	keys := make([]string, len(suffixes))
	for i, s := range suffixes {
		keys[i] = dir + s
	}

	if resetOpts.dryRun {
		cliout.Info(fmt.Sprintf("Would reset %d keys under %q:", len(keys), dir))
		for _, k := range keys {
			fmt.Printf("  %s\n", k)
		}
		return nil
	}

	if !resetOpts.force && !confirmReset(keys, dir, os.Stdin, os.Stdout) {
		cliout.Info("Reset canceled")
		return nil
	}

	cs := changeset.New()
	for _, k := range keys {
		cs.AddReset(k)
	}
	if err := b.WriteBatch(ctx, cs, nil); err != nil {
		return wrapContextError(fmt.Errorf("failed to reset prefix: %w", err))
	}

	cliout.Success(fmt.Sprintf("Reset %d keys under: %s", len(keys), dir))
	return nil
}

func confirmReset(keys []string, dir string, in io.Reader, out io.Writer) bool {
	fmt.Fprintf(out, "The following %d keys will be reset:\n", len(keys))
	for _, k := range keys {
		fmt.Fprintf(out, "  %s\n", k)
	}
	fmt.Fprintf(out, "\nReset all keys under %q? [y/N]: ", dir)

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		response := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return response == "y" || response == "yes"
	}
	return false
}
