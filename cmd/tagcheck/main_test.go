package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/tagcheck/analyzer"
	main "github.com/seo-optimizer/tagcheck/cmd/tagcheck"
	"github.com/seo-optimizer/tagcheck/fetcher"
)

const page = `<html><head>
<title>Local page</title>
<meta name="description" content="Served from disk">
<link rel="canonical" href="https://example.com/">
</head></html>`

type stubFetcher struct {
	html string
	err  error
}

func (f *stubFetcher) Fetch(context.Context, string) (string, error) {
	return f.html, f.err
}

func run(t *testing.T, m *main.Main, args ...string) (stdout, stderr *bytes.Buffer, err error) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	err = m.Run(context.Background(), args, stdout, stderr)
	return stdout, stderr, err
}

func decodeResult(t *testing.T, b *bytes.Buffer) analyzer.Result {
	t.Helper()
	var result analyzer.Result
	require.NoError(t, json.Unmarshal(b.Bytes(), &result))
	return result
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, main.NewMain(), "--help")
	require.NoError(t, err)

	for _, cmd := range []string{"analyze", "file"} {
		assert.Contains(t, stdout.String(), cmd)
	}
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, main.NewMain())
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "no command specified")
}

func TestCmdFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	t.Run("json with url", func(t *testing.T) {
		t.Parallel()

		stdout, stderr, err := run(t, main.NewMain(), "file", path, "--url", "https://example.com/", "--json")
		require.NoError(t, err)
		assert.Empty(t, stderr.String())

		result := decodeResult(t, stdout)
		assert.Equal(t, "https://example.com/", result.URL)
		assert.Equal(t, 20+20+5+10, result.Score)
		assert.Len(t, result.Results, 13)
	})

	t.Run("defaults to file url", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, main.NewMain(), "file", path, "-j")
		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.ToSlash(path), decodeResult(t, stdout).URL)
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, main.NewMain(), "file", path)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Score 55/100")
		assert.Contains(t, stdout.String(), "Local page")
		assert.Contains(t, stdout.String(), "[no preview image]")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := run(t, main.NewMain(), "file", filepath.Join(t.TempDir(), "nope.html"))
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error:")
	})
}

func TestCmdFile_Latin1(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "latin1.html")
	body := []byte("<meta charset=\"iso-8859-1\"><title>Caf\xe9</title>")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	stdout, _, err := run(t, main.NewMain(), "file", path, "--json")
	require.NoError(t, err)

	result := decodeResult(t, stdout)
	require.NotNil(t, result.Preview.Title)
	assert.Equal(t, "Café", *result.Preview.Title)
}

func TestCmdAnalyze(t *testing.T) {
	t.Parallel()

	t.Run("stub fetcher", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Fetcher = &stubFetcher{html: page}

		stdout, _, err := run(t, m, "analyze", "https://example.com", "--json")
		require.NoError(t, err)
		assert.Equal(t, 55, decodeResult(t, stdout).Score)
	})

	t.Run("fetch error", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Fetcher = &stubFetcher{err: &fetcher.Error{Kind: fetcher.KindTimeout, URL: "https://example.com"}}

		stdout, stderr, err := run(t, m, "analyze", "https://example.com")
		require.Error(t, err)
		assert.Equal(t, fetcher.KindTimeout, fetcher.KindOf(err))
		assert.Contains(t, stderr.String(), "The page took too long to respond (timeout)")
		assert.Empty(t, stdout.String())
	})

	t.Run("global flag before command", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := run(t, main.NewMain(), "-v", "analyze", "ftp://example.com/")
		require.Error(t, err)
		assert.Equal(t, fetcher.KindInvalidURL, fetcher.KindOf(err))
		assert.Contains(t, stderr.String(), "invalid-url")
	})

	t.Run("local server needs allow-private", func(t *testing.T) {
		t.Parallel()

		userAgents := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgents <- r.UserAgent()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		}))
		defer srv.Close()

		_, stderr, err := run(t, main.NewMain(), "analyze", srv.URL)
		require.Error(t, err)
		assert.Equal(t, fetcher.KindBlockedHost, fetcher.KindOf(err))
		assert.Contains(t, stderr.String(), "blocked-host")

		stdout, _, err := run(t, main.NewMain(), "analyze", srv.URL, "--allow-private", "--user-agent", "tagcheck-test", "--json")
		require.NoError(t, err)
		assert.Equal(t, 55, decodeResult(t, stdout).Score)
		assert.Equal(t, "tagcheck-test", <-userAgents)
	})
}
