package analyzer

// MaxScore is the ceiling reported with every result.
const MaxScore = 100

// Status is the outcome of a single tag lookup.
type Status string

const (
	StatusPresent Status = "present"
	StatusMissing Status = "missing"
	StatusWarning Status = "warning"
)

// Result represents the meta tag analysis of a single page
type Result struct {
	URL      string    `json:"url"`
	Score    int       `json:"score"`
	MaxScore int       `json:"maxScore"`
	Results  []Finding `json:"results"`
	Preview  Preview   `json:"preview"`
}

// Finding is the outcome for one TagRule. Value is nil for missing tags,
// an explanatory message for warnings and the raw tag content otherwise.
type Finding struct {
	Tag    string  `json:"tag"`
	Status Status  `json:"status"`
	Value  *string `json:"value"`
}

// Preview is the search/social preview projection of a page.
type Preview struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image,omitempty"`
}

// Finding returns the finding for tag, if the result has one.
func (r *Result) Finding(tag string) (Finding, bool) {
	for _, f := range r.Results {
		if f.Tag == tag {
			return f, true
		}
	}
	return Finding{}, false
}

// Present reports how many findings have StatusPresent.
func (r *Result) Present() int {
	n := 0
	for _, f := range r.Results {
		if f.Status == StatusPresent {
			n++
		}
	}
	return n
}
