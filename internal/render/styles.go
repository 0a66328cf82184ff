// Package render turns Skein API views into terminal output: markdown
// message bodies as styled ANSI text and listings as tables. All styling
// degrades to plain text when stdout is not a terminal.
package render

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary = lipgloss.Color("#7C6BA8") // violet
	colorAccent  = lipgloss.Color("#3F7CAC") // blue
	colorMuted   = lipgloss.Color("#6B7280") // gray
	colorCode    = lipgloss.Color("#C4A050") // amber
	colorQuote   = lipgloss.Color("#8A9A5B") // moss
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	authorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	boldStyle = lipgloss.NewStyle().
			Bold(true)

	italicStyle = lipgloss.NewStyle().
			Italic(true)

	codeStyle = lipgloss.NewStyle().
			Foreground(colorCode)

	quoteStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorQuote)

	linkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(colorAccent)

	bulletStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)
)
