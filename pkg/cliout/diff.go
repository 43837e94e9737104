package cliout

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/kazuma-desu/gset/pkg/value"
)

// DiffStatus classifies how a key differs between two value sets.
type DiffStatus string

const (
	DiffStatusAdded     DiffStatus = "added"
	DiffStatusModified  DiffStatus = "modified"
	DiffStatusDeleted   DiffStatus = "deleted"
	DiffStatusUnchanged DiffStatus = "unchanged"
)

// DiffEntry describes one key's change between an old and new value set.
type DiffEntry struct {
	Key      string
	Status   DiffStatus
	OldValue string
	NewValue string
}

// DiffResult is a full comparison with summary counts.
type DiffResult struct {
	Entries   []*DiffEntry
	Added     int
	Modified  int
	Deleted   int
	Unchanged int
}

// DiffValues compares two key sets, such as a changeset about to be applied
// against the values currently in a backend. A key present only in want is
// an addition; a key present only in have is a deletion the apply would
// leave untouched (want never resets it).
func DiffValues(have, want map[string]value.Value) *DiffResult {
	result := &DiffResult{Entries: make([]*DiffEntry, 0, len(have)+len(want))}

	keys := make([]string, 0, len(have)+len(want))
	seen := make(map[string]struct{})
	for k := range want {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range have {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		haveVal, hasHave := have[key]
		wantVal, hasWant := want[key]
		entry := &DiffEntry{Key: key}

		switch {
		case !hasHave && hasWant:
			entry.Status = DiffStatusAdded
			entry.NewValue = FormatPayload(wantVal)
		case hasHave && !hasWant:
			entry.Status = DiffStatusDeleted
			entry.OldValue = FormatPayload(haveVal)
		case FormatPayload(haveVal) != FormatPayload(wantVal):
			entry.Status = DiffStatusModified
			entry.OldValue = FormatPayload(haveVal)
			entry.NewValue = FormatPayload(wantVal)
		default:
			entry.Status = DiffStatusUnchanged
			entry.OldValue = FormatPayload(haveVal)
			entry.NewValue = FormatPayload(wantVal)
		}

		result.Entries = append(result.Entries, entry)
		switch entry.Status {
		case DiffStatusAdded:
			result.Added++
		case DiffStatusModified:
			result.Modified++
		case DiffStatusDeleted:
			result.Deleted++
		case DiffStatusUnchanged:
			result.Unchanged++
		}
	}

	return result
}

// PrintDiffResult renders result in the requested format.
func PrintDiffResult(result *DiffResult, format Format, showUnchanged bool) error {
	switch format {
	case FormatSimple, "":
		return printDiffSimple(result, showUnchanged)
	case FormatJSON:
		return printDiffJSON(result, showUnchanged)
	case FormatTable:
		return printDiffTable(result, showUnchanged)
	default:
		return fmt.Errorf("unsupported diff format: %s", format)
	}
}

func printDiffSimple(result *DiffResult, showUnchanged bool) error {
	Info(fmt.Sprintf("diff: +%d ~%d -%d", result.Added, result.Modified, result.Deleted))
	fmt.Println()

	printDiffGroup(result.Entries, DiffStatusAdded)
	printDiffGroup(result.Entries, DiffStatusModified)
	printDiffGroup(result.Entries, DiffStatusDeleted)
	if showUnchanged {
		printDiffGroup(result.Entries, DiffStatusUnchanged)
	}

	printDiffSummary(result, showUnchanged)
	return nil
}

func printDiffGroup(entries []*DiffEntry, status DiffStatus) {
	var group []*DiffEntry
	for _, e := range entries {
		if e.Status == status {
			group = append(group, e)
		}
	}
	if len(group) == 0 {
		return
	}

	style, prefix, title := diffStyleFor(status)
	fmt.Println(StyleIfTerminal(style, fmt.Sprintf("%s (%d):", title, len(group))))
	for _, e := range group {
		printDiffEntry(prefix, e)
	}
	fmt.Println()
}

func diffStyleFor(status DiffStatus) (lipgloss.Style, string, string) {
	switch status {
	case DiffStatusAdded:
		return addedStyle, "+", "Added"
	case DiffStatusModified:
		return modifiedStyle, "~", "Modified"
	case DiffStatusDeleted:
		return deletedStyle, "-", "Deleted"
	default:
		return unchangedStyle, "=", "Unchanged"
	}
}

func printDiffEntry(prefix string, e *DiffEntry) {
	style, _, _ := diffStyleFor(e.Status)
	fmt.Printf("  %s %s\n", StyleIfTerminal(style, prefix), StyleIfTerminal(keyStyle, e.Key))
	switch e.Status {
	case DiffStatusAdded:
		fmt.Printf("    %s\n", StyleIfTerminal(newValueStyle, e.NewValue))
	case DiffStatusDeleted:
		fmt.Printf("    %s\n", StyleIfTerminal(oldValueStyle, e.OldValue))
	case DiffStatusModified:
		fmt.Printf("    old: %s\n", StyleIfTerminal(oldValueStyle, e.OldValue))
		fmt.Printf("    new: %s\n", StyleIfTerminal(newValueStyle, e.NewValue))
	}
}

func printDiffSummary(result *DiffResult, showUnchanged bool) {
	fmt.Printf("summary: +%d ~%d -%d", result.Added, result.Modified, result.Deleted)
	if showUnchanged {
		fmt.Printf(" =%d", result.Unchanged)
	}
	fmt.Printf(" = %d total\n", len(result.Entries))
}

func printDiffJSON(result *DiffResult, showUnchanged bool) error {
	type jsonEntry struct {
		Key      string `json:"key"`
		Status   string `json:"status"`
		OldValue string `json:"old_value,omitempty"`
		NewValue string `json:"new_value,omitempty"`
	}

	entries := make([]jsonEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		if !showUnchanged && e.Status == DiffStatusUnchanged {
			continue
		}
		entries = append(entries, jsonEntry{Key: e.Key, Status: string(e.Status), OldValue: e.OldValue, NewValue: e.NewValue})
	}

	out := map[string]any{
		"added":    result.Added,
		"modified": result.Modified,
		"deleted":  result.Deleted,
		"entries":  entries,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printDiffTable(result *DiffResult, showUnchanged bool) error {
	var entries []*DiffEntry
	for _, e := range result.Entries {
		if !showUnchanged && e.Status == DiffStatusUnchanged {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		Success("no changes")
		return nil
	}

	headers := []string{"STATUS", "KEY", "OLD", "NEW"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		style, prefix, _ := diffStyleFor(e.Status)
		rows[i] = []string{
			StyleIfTerminal(style, prefix),
			e.Key,
			StyleIfTerminal(oldValueStyle, Truncate(e.OldValue, 40)),
			StyleIfTerminal(newValueStyle, Truncate(e.NewValue, 40)),
		}
	}

	fmt.Println(RenderTable(TableConfig{Headers: headers, Rows: rows}))
	fmt.Println()
	printDiffSummary(result, showUnchanged)
	return nil
}
