package present

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	green = lipgloss.Color("#16a34a")
	red   = lipgloss.Color("#dc2626")
	muted = lipgloss.Color("#6b7280")

	resultPanel = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(green)

	errorPanel = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(red)

	resultTitle = lipgloss.NewStyle().Bold(true)
	errorTitle  = lipgloss.NewStyle().Foreground(red).Bold(true)
	errorText   = lipgloss.NewStyle().Foreground(red)
	faint       = lipgloss.NewStyle().Foreground(muted)
)

// Options controls rendering.
type Options struct {
	// ShowDetail expands the diagnostic detail of an error.
	ShowDetail bool
}

// Render draws the view as a terminal panel. Empty views render as "".
func Render(v View, opts Options) string {
	switch v.Kind {
	case KindResult:
		body := strings.Join([]string{
			resultTitle.Render("Analysis Results"),
			"Mean NDVI: " + v.MeanNDVI,
			faint.Render("Last updated: " + v.Date),
		}, "\n")
		return resultPanel.Render(body)

	case KindError:
		lines := []string{
			errorTitle.Render("Error"),
			errorText.Render(v.Message),
		}
		if v.Detail != "" {
			if opts.ShowDetail {
				lines = append(lines, "", faint.Render("▾ Details"), faint.Render(v.Detail))
			} else {
				lines = append(lines, "", faint.Render("▸ Show details (--details)"))
			}
		}
		return errorPanel.Render(strings.Join(lines, "\n"))
	}
	return ""
}
