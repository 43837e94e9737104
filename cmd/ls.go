package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/path"
)

var lsCmd = &cobra.Command{
	Use:   "ls <dir>",
	Short: "List the keys stored under a directory",
	Long: `List the keys stored under dir, using the backend's optional ListKeys
enumeration extension. A backend that doesn't support it reports an error
rather than silently returning nothing.`,
	Example: `  # List all keys
  gset ls /

  # List keys under /app
  gset ls /app/

  # JSON output for scripting
  gset ls /app/ -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(_ *cobra.Command, args []string) error {
	dir := args[0]
	if !path.IsDir(dir) {
		return fmt.Errorf("malformed directory: %s", dir)
	}

	_, cancel := getOperationContext()
	defer cancel()

	b, cleanup, err := resolveBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	suffixes, err := listKeys(b, dir)
	if err != nil {
		return err
	}
	sort.Strings(suffixes)

	switch outputFormat {
	case cliout.FormatSimple.String():
		for _, s := range suffixes {
			fmt.Println(dir + s)
		}
		return nil
	case cliout.FormatJSON.String():
		keys := make([]string, len(suffixes))
		for i, s := range suffixes {
			keys[i] = dir + s
		}
		data, err := json.Marshal(map[string]any{"keys": keys, "count": len(keys)})
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case cliout.FormatTable.String():
		rows := make([][]string, len(suffixes))
		for i, s := range suffixes {
			rows[i] = []string{dir + s}
		}
		fmt.Println(cliout.RenderTable(cliout.TableConfig{Headers: []string{"KEY"}, Rows: rows}))
		return nil
	default:
		return fmt.Errorf("invalid output format for ls: %s (use simple, json, or table)", outputFormat)
	}
}
