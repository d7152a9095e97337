package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/seo-optimizer/tagcheck/analyzer"
	"github.com/seo-optimizer/tagcheck/fetcher"
	"github.com/seo-optimizer/tagcheck/presenter"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Fetcher fetcher.PageFetcher
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log fetch details to stderr"`

	Analyze AnalyzeCmd `cmd:"" help:"Fetch a page and report its meta tags"`
	File    FileCmd    `cmd:"" help:"Report the meta tags of a local HTML file"`
}

func (c *CLI) logLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	URL          string        `arg:"" help:"Page URL (http or https)"`
	JSON         bool          `short:"j" help:"Print the result as JSON"`
	Timeout      time.Duration `default:"15s" help:"Give up on the page after this long"`
	UserAgent    string        `name:"user-agent" help:"User-Agent header to send"`
	AllowPrivate bool          `name:"allow-private" help:"Allow loopback and private network addresses"`
}

// FileCmd is the "file" subcommand.
type FileCmd struct {
	Path string `arg:"" help:"HTML file to read, or - for stdin"`
	URL  string `help:"URL the page is served from (defaults to a file:// URL)"`
	JSON bool   `short:"j" help:"Print the result as JSON"`
}

func render(deps *Dependencies, result *analyzer.Result, asJSON bool) error {
	if asJSON {
		return presenter.JSON(deps.Stdout, result, true)
	}
	return presenter.Text(deps.Stdout, result, presenter.Options{Width: cardWidth(deps.Stdout)})
}

// cardWidth fits the preview cards to the terminal, or returns 0 for the
// presenter default when w is not one.
func cardWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 30 {
		return 0
	}
	return min(width-4, 100)
}

// errorMessage returns the user-facing text for err.
func errorMessage(err error) string {
	var fe *fetcher.Error
	if errors.As(err, &fe) {
		return fmt.Sprintf("%s (%s)", fe.Message(), fe.Kind)
	}
	return err.Error()
}
