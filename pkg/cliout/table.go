package cliout

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableConfig holds the headers and rows for RenderTable.
type TableConfig struct {
	Headers []string
	Rows    [][]string
}

// RenderTable builds a styled lipgloss table with rounded borders and
// alternating row colors.
func RenderTable(config TableConfig) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorPrimary)).
		Headers(config.Headers...).
		Rows(config.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
			}
			if row%2 == 0 {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("#FCFCFA")).Padding(0, 1)
		})

	return t.Render()
}
