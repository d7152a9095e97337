package presenter

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

const (
	badgeWidth   = 9
	gaugeWidth   = 30
	defaultWidth = 72

	noTitle       = "(no title)"
	noDescription = "(no description)"
	noImage       = "[no preview image]"
)

// Options controls Text rendering.
type Options struct {
	// Width of the preview cards in cells. Zero means 72.
	Width int
	// Palette overrides DefaultPalette when non-nil.
	Palette *Palette
}

// Text writes a human-readable report of r to w.
func Text(w io.Writer, r *analyzer.Result, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	palette := DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	s := newStyles(w, palette, width)

	sections := []string{
		s.heading.Render("Meta tag report for "+r.URL),
		gauge(s, r.Score, r.MaxScore),
		"",
		s.heading.Render("Search result"),
		searchCard(s, r),
		s.heading.Render("Social share"),
		socialCard(s, r),
		"",
		s.heading.Render(fmt.Sprintf("Tags (%d/%d present)", r.Present(), len(r.Results))),
	}
	for _, f := range r.Results {
		sections = append(sections, findingLine(s, f))
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, sections...))
	return err
}

func gauge(s styles, score, maxScore int) string {
	filled := 0
	if maxScore > 0 {
		filled = score * gaugeWidth / maxScore
	}
	filled = max(0, min(filled, gaugeWidth))

	bar := s.filled.Render(strings.Repeat("█", filled)) +
		s.empty.Render(strings.Repeat("░", gaugeWidth-filled))
	return fmt.Sprintf("Score %d/%d %s", score, maxScore, bar)
}

func searchCard(s styles, r *analyzer.Result) string {
	return s.card.Render(lipgloss.JoinVertical(lipgloss.Left,
		s.muted.Render(breadcrumb(r.URL)),
		s.link.Render(orPlaceholder(r.Preview.Title, noTitle)),
		orPlaceholder(r.Preview.Description, noDescription),
	))
}

func socialCard(s styles, r *analyzer.Result) string {
	image := orPlaceholder(r.Preview.Image, noImage)
	return s.card.Render(lipgloss.JoinVertical(lipgloss.Left,
		s.muted.Render(image),
		s.muted.Render(strings.ToUpper(host(r.URL))),
		s.bold.Render(orPlaceholder(r.Preview.Title, noTitle)),
		orPlaceholder(r.Preview.Description, noDescription),
	))
}

func findingLine(s styles, f analyzer.Finding) string {
	badge := s.badges[f.Status].Render(strings.ToUpper(string(f.Status)))
	line := badge + " " + f.Tag
	if f.Value != nil {
		line += s.muted.Render("  " + oneLine(*f.Value))
	}
	return line
}

func orPlaceholder(v *string, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return oneLine(*v)
}

func oneLine(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// breadcrumb renders a URL the way search engines display it:
// host › path › segments.
func breadcrumb(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	parts := []string{u.Hostname()}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, " › ")
}
