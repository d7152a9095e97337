// Package presenter renders analysis results for people and programs.
package presenter

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

// Palette holds the colours used by Text.
type Palette struct {
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Link    lipgloss.Color
	Present lipgloss.Color
	Warning lipgloss.Color
	Missing lipgloss.Color
	Border  lipgloss.Color
}

// DefaultPalette returns the default colours.
func DefaultPalette() Palette {
	return Palette{
		Accent:  lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Link:    lipgloss.Color("#1A0DAB"), // Search result blue
		Present: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Missing: lipgloss.Color("#F38BA8"), // Red
		Border:  lipgloss.Color("#45475A"), // Border gray
	}
}

type styles struct {
	heading lipgloss.Style
	bold    lipgloss.Style
	muted   lipgloss.Style
	link    lipgloss.Style
	card    lipgloss.Style
	filled  lipgloss.Style
	empty   lipgloss.Style
	badges  map[analyzer.Status]lipgloss.Style
}

// newStyles binds the palette to w, so colour output follows the terminal
// w is attached to and plain writers get none.
func newStyles(w io.Writer, p Palette, width int) styles {
	r := lipgloss.NewRenderer(w)
	badge := r.NewStyle().Bold(true).Width(badgeWidth)

	return styles{
		heading: r.NewStyle().Bold(true).Foreground(p.Accent),
		bold:    r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(p.Muted),
		link:    r.NewStyle().Foreground(p.Link),
		card: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1).
			Width(width),
		filled: r.NewStyle().Foreground(p.Accent),
		empty:  r.NewStyle().Foreground(p.Muted),
		badges: map[analyzer.Status]lipgloss.Style{
			analyzer.StatusPresent: badge.Foreground(p.Present),
			analyzer.StatusWarning: badge.Foreground(p.Warning),
			analyzer.StatusMissing: badge.Foreground(p.Missing),
		},
	}
}
