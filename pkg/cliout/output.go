package cliout

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/kazuma-desu/gset/pkg/value"
)

// Entry pairs a settings key with the value read from a backend, ready for
// display. Value is the zero Value for a key that was reset or never set.
type Entry struct {
	Key   string
	Value value.Value
}

// PrintEntries renders entries in the requested format.
func PrintEntries(entries []Entry, format Format) error {
	switch format {
	case FormatSimple, "":
		return printEntriesSimple(entries)
	case FormatJSON:
		return printEntriesJSON(entries)
	case FormatTable:
		return printEntriesTable(entries)
	case FormatTree:
		return printEntriesTree(entries)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printEntriesSimple(entries []Entry) error {
	for _, e := range entries {
		key := StyleIfTerminal(keyStyle, e.Key)
		val := StyleIfTerminal(valueStyle, FormatPayload(e.Value))
		fmt.Printf("%s\n%s\n\n", key, val)
	}
	return nil
}

func printEntriesJSON(entries []Entry) error {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		payload, _ := value.Payload(e.Value)
		out = append(out, map[string]any{"key": e.Key, "value": payload})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printEntriesTable(entries []Entry) error {
	if len(entries) == 0 {
		Info("no keys found")
		return nil
	}

	headers := []string{"KEY", "VALUE"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Key, Truncate(FormatPayload(e.Value), 60)}
	}

	fmt.Println(RenderTable(TableConfig{Headers: headers, Rows: rows}))
	return nil
}

func printEntriesTree(entries []Entry) error {
	t := buildTree(entries)
	fmt.Println(t)
	return nil
}

// buildTree lays entries out under their common key hierarchy, the same way
// a directory listing nests under its path segments.
func buildTree(entries []Entry) *tree.Tree {
	root := tree.Root("/").
		RootStyle(treeRootStyle).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(treeEnumeratorStyle)

	nodes := map[string]*tree.Tree{"/": root}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	for _, e := range sorted {
		parts := strings.Split(strings.Trim(e.Key, "/"), "/")
		current := ""
		for i, part := range parts {
			if part == "" {
				continue
			}
			parent := current
			if parent == "" {
				parent = "/"
			}
			current = current + "/" + part

			if _, exists := nodes[current]; exists {
				continue
			}
			parentNode := nodes[parent]

			if i == len(parts)-1 {
				display := treeKeyStyle.Render(part) + " " + treeValueStyle.Render(Truncate(FormatPayload(e.Value), 50))
				parentNode.Child(tree.New().Root(display))
				continue
			}

			dir := tree.New().Root(treeDirStyle.Render(part + "/")).EnumeratorStyle(treeEnumeratorStyle)
			parentNode.Child(dir)
			nodes[current] = dir
		}
	}

	return root
}

// Info prints an informational line.
func Info(msg string) {
	fmt.Println(StyleIfTerminal(valueStyle, "⋯ "+msg))
}

// Success prints a success line.
func Success(msg string) {
	fmt.Println(StyleIfTerminal(successStyle, "✓ "+msg))
}

// Error prints an error line.
func Error(msg string) {
	fmt.Println(StyleIfTerminal(errorStyle, "✗ "+msg))
}

// Warning prints a warning line.
func Warning(msg string) {
	fmt.Println(StyleIfTerminal(warningStyle, "⚠ "+msg))
}

// Prompt prints a styled prompt without a trailing newline.
func Prompt(msg string) {
	fmt.Print(StyleIfTerminal(keyStyle, "? ") + msg)
}

// PrintError renders err inside an error panel.
func PrintError(err error) {
	msg := StyleIfTerminal(errorStyle, fmt.Sprintf("✗ Error: %v", err))
	fmt.Println(StyleIfTerminal(errorPanelStyle, msg))
}
