// Package views renders the notes panel. Functions here are pure: they take
// plain data and return strings, so the update package owns all state.
package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type PanelData struct {
	Width        int
	Header       string
	Banner       string
	Body         string
	Composer     string
	StatusLine   string
	StatusError  bool
	Footer       string
	Notification string
	Overlay      string
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1)
	alertStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("11")).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	authorStyle  = lipgloss.NewStyle().Bold(true)
	ownNoteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// RenderPanel stacks the panel sections. An overlay replaces the note list
// while it is open.
func RenderPanel(data PanelData) string {
	width := data.Width
	if width <= 0 {
		width = 80
	}
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	body := data.Body
	if data.Overlay != "" {
		body = data.Overlay
	}

	lines := []string{headerStyle.Render(data.Header)}
	if data.Banner != "" {
		lines = append(lines, bannerStyle.Width(inner+2).Render(data.Banner))
	}
	lines = append(lines, panelStyle.Width(inner).Render(body))
	if data.Notification != "" {
		lines = append(lines, alertStyle.Width(inner).Render(data.Notification))
	}
	if data.Composer != "" {
		lines = append(lines, panelStyle.Width(inner).Render(data.Composer))
	}
	if data.StatusLine != "" {
		if data.StatusError {
			lines = append(lines, errorStyle.Render(data.StatusLine))
		} else {
			lines = append(lines, statusStyle.Render(data.StatusLine))
		}
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// RenderMarkdownWidth wraps at width; note bodies use it so long lines fit
// the viewport.
func RenderMarkdownWidth(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		return RenderMarkdown(md)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
