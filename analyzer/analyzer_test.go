package analyzer

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPage = `<!DOCTYPE html>
<html>
<head>
	<title>  Example Domain  </title>
	<meta name="description" content="An example page for tests.">
	<meta name="robots" content="index, follow">
	<link rel="canonical" href="https://example.com/">
	<meta property="og:title" content="OG Example">
	<meta property="og:description" content="OG description">
	<meta property="og:image" content="https://example.com/og.png">
	<meta property="og:type" content="website">
	<meta property="og:url" content="https://example.com/">
	<meta name="twitter:card" content="summary_large_image">
	<meta name="twitter:title" content="Twitter Example">
	<meta name="twitter:description" content="Twitter description">
	<meta name="twitter:image" content="https://example.com/tw.png">
</head>
<body><h1>Hello</h1></body>
</html>`

var wantKeys = []string{
	"title", "description", "robots", "canonical",
	"og:title", "og:description", "og:image", "og:type", "og:url",
	"twitter:card", "twitter:title", "twitter:description", "twitter:image",
}

func findingKeys(r *Result) []string {
	keys := make([]string, len(r.Results))
	for i, f := range r.Results {
		keys[i] = f.Tag
	}
	return keys
}

func TestAnalyze_FullDocument(t *testing.T) {
	result := Analyze(fullPage, "https://example.com/")

	assert.Equal(t, "https://example.com/", result.URL)
	assert.Equal(t, 78, result.Score)
	assert.Equal(t, MaxScore, result.MaxScore)
	assert.Equal(t, wantKeys, findingKeys(result))

	for _, f := range result.Results {
		assert.Equal(t, StatusPresent, f.Status, f.Tag)
		require.NotNil(t, f.Value, f.Tag)
	}

	title, ok := result.Finding("title")
	require.True(t, ok)
	assert.Equal(t, "Example Domain", *title.Value)

	robots, _ := result.Finding("robots")
	assert.Equal(t, "index, follow", *robots.Value)

	canonical, _ := result.Finding("canonical")
	assert.Equal(t, "https://example.com/", *canonical.Value)

	require.NotNil(t, result.Preview.Title)
	assert.Equal(t, "OG Example", *result.Preview.Title)
	assert.Equal(t, "OG description", *result.Preview.Description)
	assert.Equal(t, "https://example.com/og.png", *result.Preview.Image)
}

func TestAnalyze_EmptyDocument(t *testing.T) {
	for _, input := range []string{"<html></html>", ""} {
		result := Analyze(input, "https://example.com/")

		assert.Equal(t, 5, result.Score)
		assert.Equal(t, wantKeys, findingKeys(result))

		for _, f := range result.Results {
			switch f.Tag {
			case "robots":
				assert.Equal(t, StatusWarning, f.Status)
				require.NotNil(t, f.Value)
				assert.Equal(t, "no robots tag found", *f.Value)
			case "canonical":
				assert.Equal(t, StatusWarning, f.Status)
				require.NotNil(t, f.Value)
				assert.Equal(t, "no canonical link found", *f.Value)
			default:
				assert.Equal(t, StatusMissing, f.Status, f.Tag)
				assert.Nil(t, f.Value, f.Tag)
			}
		}

		assert.Nil(t, result.Preview.Title)
		assert.Nil(t, result.Preview.Description)
		assert.Nil(t, result.Preview.Image)
	}
}

func TestAnalyze_Scoring(t *testing.T) {
	testCases := []struct {
		name  string
		html  string
		score int
	}{
		{
			name:  "title only",
			html:  `<title>Hi</title>`,
			score: 20 + 5,
		},
		{
			name:  "title and description",
			html:  `<title>Hi</title><meta name="description" content="d">`,
			score: 20 + 20 + 5,
		},
		{
			name:  "robots present replaces partial credit",
			html:  `<meta name="robots" content="noindex">`,
			score: 10,
		},
		{
			name:  "canonical present",
			html:  `<link rel="canonical" href="/a">`,
			score: 5 + 10,
		},
		{
			name:  "open graph only",
			html:  `<meta property="og:title" content="t"><meta property="og:type" content="article">`,
			score: 5 + 2 + 2,
		},
		{
			name:  "twitter only",
			html:  `<meta name="twitter:card" content="summary">`,
			score: 5 + 2,
		},
		{
			name:  "blank title is absent",
			html:  `<title>   </title>`,
			score: 5,
		},
		{
			name:  "blank description is absent",
			html:  `<meta name="description" content="  ">`,
			score: 5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Analyze(tc.html, "https://example.com/")
			assert.Equal(t, tc.score, result.Score)
			assert.Len(t, result.Results, len(wantKeys))
		})
	}
}

func TestAnalyze_LookupFallbacks(t *testing.T) {
	t.Run("og name fallback", func(t *testing.T) {
		result := Analyze(`<meta name="og:title" content="named">`, "")
		f, _ := result.Finding("og:title")
		assert.Equal(t, StatusPresent, f.Status)
		assert.Equal(t, "named", *f.Value)
	})

	t.Run("og property wins over name", func(t *testing.T) {
		result := Analyze(`<meta name="og:title" content="named"><meta property="og:title" content="prop">`, "")
		f, _ := result.Finding("og:title")
		assert.Equal(t, "prop", *f.Value)
	})

	t.Run("twitter property fallback", func(t *testing.T) {
		result := Analyze(`<meta property="twitter:card" content="summary">`, "")
		f, _ := result.Finding("twitter:card")
		assert.Equal(t, StatusPresent, f.Status)
		assert.Equal(t, "summary", *f.Value)
	})

	t.Run("twitter name wins over property", func(t *testing.T) {
		result := Analyze(`<meta property="twitter:card" content="prop"><meta name="twitter:card" content="named">`, "")
		f, _ := result.Finding("twitter:card")
		assert.Equal(t, "named", *f.Value)
	})

	t.Run("case-insensitive names", func(t *testing.T) {
		result := Analyze(`<META NAME="Description" CONTENT="Mixed Case">`, "")
		f, _ := result.Finding("description")
		assert.Equal(t, StatusPresent, f.Status)
		assert.Equal(t, "Mixed Case", *f.Value)
	})

	t.Run("rel token list", func(t *testing.T) {
		result := Analyze(`<link rel="alternate canonical" href="https://example.com/c">`, "")
		f, _ := result.Finding("canonical")
		assert.Equal(t, StatusPresent, f.Status)
		assert.Equal(t, "https://example.com/c", *f.Value)
	})

	t.Run("values are not trimmed", func(t *testing.T) {
		result := Analyze(`<meta name="description" content=" padded ">`, "")
		f, _ := result.Finding("description")
		assert.Equal(t, " padded ", *f.Value)
	})

	t.Run("first non-blank element wins", func(t *testing.T) {
		result := Analyze(`<meta name="robots"><meta name="robots" content="noindex">`, "")
		f, _ := result.Finding("robots")
		assert.Equal(t, "noindex", *f.Value)
	})

	t.Run("svg title ignored", func(t *testing.T) {
		result := Analyze(`<body><svg><title>icon</title></svg></body>`, "")
		f, _ := result.Finding("title")
		assert.Equal(t, StatusMissing, f.Status)
	})
}

func TestAnalyze_Preview(t *testing.T) {
	testCases := []struct {
		name        string
		html        string
		title       *string
		description *string
		image       *string
	}{
		{
			name:        "base fallback",
			html:        `<title>Base</title><meta name="description" content="Base desc"><meta name="twitter:image" content="tw.png">`,
			title:       ptr("Base"),
			description: ptr("Base desc"),
			image:       ptr("tw.png"),
		},
		{
			name:  "og preferred",
			html:  `<title>Base</title><meta property="og:title" content="OG"><meta property="og:image" content="og.png"><meta name="twitter:image" content="tw.png">`,
			title: ptr("OG"),
			image: ptr("og.png"),
		},
		{
			name: "twitter title is not a preview fallback",
			html: `<meta name="twitter:title" content="TW">`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			preview := Analyze(tc.html, "").Preview
			assert.Equal(t, tc.title, preview.Title)
			assert.Equal(t, tc.description, preview.Description)
			assert.Equal(t, tc.image, preview.Image)
		})
	}
}

func TestAnalyze_MalformedMarkup(t *testing.T) {
	inputs := []string{
		`<html><head><title>Unclosed`,
		`<meta name="description" content="x"<<<>>><title>T</title>`,
		`</html></head><meta property="og:image" content='a.png'>`,
		"\x00\xff\xfe<title>\x00</title>",
	}
	for _, input := range inputs {
		result := Analyze(input, "https://example.com/")
		assert.Len(t, result.Results, len(wantKeys))
		assert.GreaterOrEqual(t, result.Score, 0)
		assert.LessOrEqual(t, result.Score, MaxScore)
	}
}

func TestAnalyze_StatusValueInvariants(t *testing.T) {
	for _, input := range []string{fullPage, "", `<title>x</title><meta name="robots" content="all">`} {
		for _, f := range Analyze(input, "").Results {
			switch f.Status {
			case StatusMissing:
				assert.Nil(t, f.Value, f.Tag)
			case StatusWarning:
				require.NotNil(t, f.Value, f.Tag)
				assert.NotEmpty(t, *f.Value)
			case StatusPresent:
				require.NotNil(t, f.Value, f.Tag)
				assert.NotEqual(t, noRobotsNote, *f.Value)
				assert.NotEqual(t, noCanonicalNote, *f.Value)
			default:
				t.Errorf("unexpected status %q for %s", f.Status, f.Tag)
			}
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	first, err := json.Marshal(Analyze(fullPage, "https://example.com/"))
	require.NoError(t, err)
	second, err := json.Marshal(Analyze(fullPage, "https://example.com/"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestAnalyze_JSONShape(t *testing.T) {
	data, err := json.Marshal(Analyze("<html></html>", "https://example.com/"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.EqualValues(t, 100, decoded["maxScore"])
	results := decoded["results"].([]any)
	first := results[0].(map[string]any)
	assert.Contains(t, first, "value")
	assert.Nil(t, first["value"])

	preview := decoded["preview"].(map[string]any)
	assert.NotContains(t, preview, "image")
	assert.Contains(t, preview, "title")
}

func TestAnalyze_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 78, Analyze(fullPage, "").Score)
		}()
	}
	wg.Wait()
}

func TestRules(t *testing.T) {
	assert.Equal(t, wantKeys, Keys())
	assert.Equal(t, 78, AttainableScore())
	assert.LessOrEqual(t, AttainableScore(), MaxScore)

	copied := Rules()
	copied[0].Points = 1000
	copied[4].Lookups[0].Match = "changed"
	assert.Equal(t, 20, rules[0].Points)
	assert.Equal(t, "og:title", rules[4].Lookups[0].Match)
}

func ptr(s string) *string { return &s }
