package main

import (
	"fmt"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(deps *Dependencies) error {
	html, err := deps.Fetcher.Fetch(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorMessage(err))
		return err
	}

	return render(deps, analyzer.Analyze(html, c.URL), c.JSON)
}
