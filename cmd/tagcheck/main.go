package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/seo-optimizer/tagcheck/fetcher"
	"github.com/seo-optimizer/tagcheck/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Fetcher overrides the HTTP fetcher built from the analyze flags.
	Fetcher fetcher.PageFetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("tagcheck"),
		kong.Description("Check the SEO meta tags of a web page."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		err := errors.New("no command specified. Run 'tagcheck --help' to see available commands")
		fmt.Fprintln(stderr, err)
		return err
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}

	deps.Fetcher = m.Fetcher
	if strings.HasPrefix(kongCtx.Command(), "analyze") && deps.Fetcher == nil {
		deps.Fetcher = fetcher.New(
			fetcher.WithTimeout(cli.Analyze.Timeout),
			fetcher.WithUserAgent(cli.Analyze.UserAgent),
			fetcher.WithAllowPrivateNetworks(cli.Analyze.AllowPrivate),
			fetcher.WithLogger(logging.New(stderr, cli.logLevel(), "text")),
		)
	}

	return kongCtx.Run(deps)
}
