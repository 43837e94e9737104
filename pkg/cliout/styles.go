package cliout

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorHighlight = lipgloss.Color("#06B6D4")
)

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	errorPanelStyle   = panelStyle.BorderForeground(colorError)
	warningPanelStyle = panelStyle.BorderForeground(colorWarning)
	successPanelStyle = panelStyle.BorderForeground(colorSuccess)
	infoPanelStyle    = panelStyle.BorderForeground(colorInfo)
)

var (
	treeRootStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	treeDirStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	treeKeyStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	treeValueStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	treeEnumeratorStyle = lipgloss.NewStyle().
				Foreground(colorMuted)
)

var (
	addedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	modifiedStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	deletedStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	unchangedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	oldValueStyle = lipgloss.NewStyle().Foreground(colorError)
	newValueStyle = lipgloss.NewStyle().Foreground(colorSuccess)
)
