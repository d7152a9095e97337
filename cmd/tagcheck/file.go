package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

// Run executes the file command.
func (c *FileCmd) Run(deps *Dependencies) error {
	html, err := c.read()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}

	pageURL := c.URL
	if pageURL == "" {
		pageURL = fileURL(c.Path)
	}

	return render(deps, analyzer.Analyze(html, pageURL), c.JSON)
}

// read returns the file as UTF-8, honouring a <meta charset> declaration.
func (c *FileCmd) read() (string, error) {
	var r io.Reader = os.Stdin
	if c.Path != "-" {
		f, err := os.Open(c.Path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", c.Path, err)
		}
		defer f.Close()
		r = f
	}

	decoded, err := charset.NewReader(r, "text/html")
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.Path, err)
	}

	raw, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", c.Path, err)
	}
	return string(raw), nil
}

func fileURL(path string) string {
	if path == "-" {
		return "stdin"
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
