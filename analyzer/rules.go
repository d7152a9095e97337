package analyzer

// Lookup locates a tag value in the document: the first Element whose
// MatchAttr equals Match (ASCII case-insensitive) and carries a non-blank
// ValueAttr. An empty ValueAttr reads the element's text content instead.
type Lookup struct {
	Element   string
	MatchAttr string
	Match     string
	ValueAttr string
	// Token matches Match against a space-separated list, as for link rel.
	Token bool
}

// TagRule describes one inspected tag and how it is scored.
type TagRule struct {
	Key     string
	Lookups []Lookup
	Points  int

	// Scoring when no lookup yields a value.
	AbsentStatus Status
	AbsentPoints int
	AbsentNote   string
}

const (
	noRobotsNote    = "no robots tag found"
	noCanonicalNote = "no canonical link found"
)

// rules is the declaration order of every finding in a Result.
var rules = []TagRule{
	{
		Key:          "title",
		Lookups:      []Lookup{{Element: "title"}},
		Points:       20,
		AbsentStatus: StatusMissing,
	},
	metaNameRule("description", 20),
	{
		Key:          "robots",
		Lookups:      []Lookup{metaName("robots")},
		Points:       10,
		AbsentStatus: StatusWarning,
		AbsentPoints: 5,
		AbsentNote:   noRobotsNote,
	},
	{
		Key:          "canonical",
		Lookups:      []Lookup{{Element: "link", MatchAttr: "rel", Match: "canonical", ValueAttr: "href", Token: true}},
		Points:       10,
		AbsentStatus: StatusWarning,
		AbsentNote:   noCanonicalNote,
	},
	openGraphRule("og:title"),
	openGraphRule("og:description"),
	openGraphRule("og:image"),
	openGraphRule("og:type"),
	openGraphRule("og:url"),
	twitterRule("twitter:card"),
	twitterRule("twitter:title"),
	twitterRule("twitter:description"),
	twitterRule("twitter:image"),
}

func metaName(name string) Lookup {
	return Lookup{Element: "meta", MatchAttr: "name", Match: name, ValueAttr: "content"}
}

func metaProperty(property string) Lookup {
	return Lookup{Element: "meta", MatchAttr: "property", Match: property, ValueAttr: "content"}
}

func metaNameRule(name string, points int) TagRule {
	return TagRule{
		Key:          name,
		Lookups:      []Lookup{metaName(name)},
		Points:       points,
		AbsentStatus: StatusMissing,
	}
}

// Open Graph is specified with property=, but name= is common in the wild.
func openGraphRule(key string) TagRule {
	return TagRule{
		Key:          key,
		Lookups:      []Lookup{metaProperty(key), metaName(key)},
		Points:       2,
		AbsentStatus: StatusMissing,
	}
}

func twitterRule(key string) TagRule {
	return TagRule{
		Key:          key,
		Lookups:      []Lookup{metaName(key), metaProperty(key)},
		Points:       2,
		AbsentStatus: StatusMissing,
	}
}

// Rules returns a copy of the declared rules in finding order.
func Rules() []TagRule {
	out := make([]TagRule, len(rules))
	for i, r := range rules {
		r.Lookups = append([]Lookup(nil), r.Lookups...)
		out[i] = r
	}
	return out
}

// Keys returns the tag keys in finding order.
func Keys() []string {
	keys := make([]string, len(rules))
	for i, r := range rules {
		keys[i] = r.Key
	}
	return keys
}

// AttainableScore is the sum of all present-tag points before clamping.
func AttainableScore() int {
	total := 0
	for _, r := range rules {
		total += r.Points
	}
	return total
}
