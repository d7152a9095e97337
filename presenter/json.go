package presenter

import (
	"encoding/json"
	"io"

	"github.com/seo-optimizer/tagcheck/analyzer"
)

// JSON writes r to w in its wire format.
func JSON(w io.Writer, r *analyzer.Result, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}
