package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Analyze extracts the inspected tags from htmlText and scores them.
//
// It never fails: markup is parsed leniently and every lookup that finds
// nothing is reported as absent. pageURL is only echoed back. Analyze keeps
// no state and is safe for concurrent use.
func Analyze(htmlText, pageURL string) *Result {
	doc := parseDocument(htmlText)

	result := &Result{
		URL:      pageURL,
		MaxScore: MaxScore,
		Results:  make([]Finding, 0, len(rules)),
	}
	values := make(map[string]string, len(rules))

	score := 0
	for _, rule := range rules {
		value, ok := extract(doc, rule.Lookups)
		if ok {
			values[rule.Key] = value
		}
		finding, points := evaluate(rule, value, ok)
		result.Results = append(result.Results, finding)
		score += points
	}

	result.Score = clamp(score, 0, MaxScore)
	result.Preview = Preview{
		Title:       firstOf(values, "og:title", "title"),
		Description: firstOf(values, "og:description", "description"),
		Image:       firstOf(values, "og:image", "twitter:image"),
	}
	return result
}

func parseDocument(htmlText string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		// html.Parse only fails on reader errors, which strings.Reader never returns.
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}

// extract tries each lookup in order and returns the first value found.
func extract(doc *goquery.Document, lookups []Lookup) (string, bool) {
	for _, l := range lookups {
		if value, ok := lookup(doc, l); ok {
			return value, true
		}
	}
	return "", false
}

func lookup(doc *goquery.Document, l Lookup) (string, bool) {
	candidates := doc.Find(l.Element).FilterFunction(func(_ int, s *goquery.Selection) bool {
		// <title> and friends inside inline SVG describe the graphic, not the page.
		if s.ParentsFiltered("svg").Length() > 0 {
			return false
		}
		return l.MatchAttr == "" || l.matches(s.AttrOr(l.MatchAttr, ""))
	})

	if l.ValueAttr == "" {
		text := strings.TrimSpace(candidates.First().Text())
		return text, text != ""
	}

	var value string
	found := false
	candidates.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, exists := s.Attr(l.ValueAttr)
		if !exists || strings.TrimSpace(v) == "" {
			return true
		}
		value, found = v, true
		return false
	})
	return value, found
}

func (l Lookup) matches(attr string) bool {
	if !l.Token {
		return strings.EqualFold(strings.TrimSpace(attr), l.Match)
	}
	for _, tok := range strings.Fields(attr) {
		if strings.EqualFold(tok, l.Match) {
			return true
		}
	}
	return false
}

func evaluate(rule TagRule, value string, ok bool) (Finding, int) {
	if ok {
		return Finding{Tag: rule.Key, Status: StatusPresent, Value: &value}, rule.Points
	}

	finding := Finding{Tag: rule.Key, Status: rule.AbsentStatus}
	if rule.AbsentStatus == StatusWarning {
		note := rule.AbsentNote
		finding.Value = &note
	}
	return finding, rule.AbsentPoints
}

func firstOf(values map[string]string, keys ...string) *string {
	for _, key := range keys {
		if v, ok := values[key]; ok {
			return &v
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
