package render

import (
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/skeinhq/skein-cli/internal/config"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern = regexp.MustCompile(`(^|[^*])\*([^*]+)\*`)
	codePattern   = regexp.MustCompile("`([^`]+)`")
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// Renderer formats message bodies and listings for the terminal.
type Renderer struct {
	// markdown enables markdown styling of message bodies.
	markdown bool
	// color enables ANSI styling. Off when stdout is not a terminal.
	color bool
}

// NewRenderer creates a renderer honoring the markdown setting and the
// terminal capabilities of stdout.
func NewRenderer(cfg *config.Config) *Renderer {
	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return &Renderer{
		markdown: cfg.Markdown,
		color:    color,
	}
}

// styled applies a style only when color output is on.
func (r *Renderer) styled(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

// Markdown renders a message body for the terminal. With markdown disabled
// or without a terminal the body passes through untouched.
func (r *Renderer) Markdown(body string) string {
	if !r.markdown || !r.color {
		return body
	}

	var out []string
	inCodeBlock := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			out = append(out, codeStyle.Render("  "+line))
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "### "):
			out = append(out, headingStyle.Render(strings.TrimPrefix(trimmed, "### ")))
		case strings.HasPrefix(trimmed, "## "):
			out = append(out, headingStyle.Render(strings.TrimPrefix(trimmed, "## ")))
		case strings.HasPrefix(trimmed, "# "):
			out = append(out, headingStyle.Render(strings.TrimPrefix(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "> "):
			out = append(out, quoteStyle.Render("│ "+strings.TrimPrefix(trimmed, "> ")))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			out = append(out, bulletStyle.Render("  • ")+r.inline(trimmed[2:]))
		default:
			out = append(out, r.inline(line))
		}
	}
	return strings.Join(out, "\n")
}

// inline styles bold, italic, inline code, and links within one line.
func (r *Renderer) inline(line string) string {
	line = codePattern.ReplaceAllStringFunc(line, func(m string) string {
		return codeStyle.Render(strings.Trim(m, "`"))
	})
	line = boldPattern.ReplaceAllStringFunc(line, func(m string) string {
		return boldStyle.Render(strings.TrimSuffix(strings.TrimPrefix(m, "**"), "**"))
	})
	line = italicPattern.ReplaceAllStringFunc(line, func(m string) string {
		sub := italicPattern.FindStringSubmatch(m)
		return sub[1] + italicStyle.Render(sub[2])
	})
	line = linkPattern.ReplaceAllStringFunc(line, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		return linkStyle.Render(sub[1]) + mutedStyle.Render(" ("+sub[2]+")")
	})
	return line
}
