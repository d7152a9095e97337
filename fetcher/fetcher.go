// Package fetcher retrieves page HTML over HTTP and classifies failures
// into a closed set of kinds for the API boundary.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	// DefaultTimeout bounds a whole fetch, redirects and body included.
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent identifies the analyzer to the sites it fetches.
	DefaultUserAgent = "tagcheck/1.0 (+https://github.com/seo-optimizer/tagcheck)"

	// DefaultMaxBodySize caps how much of a page is read.
	DefaultMaxBodySize int64 = 5 << 20
)

// PageFetcher retrieves the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Ensure Fetcher implements PageFetcher at compile time.
var _ PageFetcher = (*Fetcher)(nil)

// Fetcher performs HTTP GET requests for page HTML.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodySize  int64
	allowPrivate bool
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for a fetch. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the largest body that will be read. 0 disables the limit.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithAllowPrivateNetworks permits loopback and private addresses.
// Needed for tests and intranet deployments.
func WithAllowPrivateNetworks(allow bool) Option {
	return func(f *Fetcher) {
		f.allowPrivate = allow
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	dialer := &net.Dialer{Timeout: f.timeout, KeepAlive: 30 * time.Second}
	dial := dialer.DialContext
	if !f.allowPrivate {
		dial = safeDialContext(dialer, net.DefaultResolver)
	}

	transport := &http.Transport{
		DialContext:         dial,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
	}
	return f
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Hostname() == "" {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: fmt.Errorf("missing host")}
	}
	return u, nil
}

// Fetch downloads rawURL and returns its body decoded to UTF-8.
// Every error returned is an *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	logger := f.logger.With(slog.String("url", rawURL))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		ferr := classify(rawURL, err)
		logger.DebugContext(ctx, "fetch failed", slog.String("kind", string(ferr.Kind)), slog.Any("error", err))
		return "", ferr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.DebugContext(ctx, "upstream error", slog.Int("status_code", resp.StatusCode))
		return "", &Error{Kind: KindUpstreamError, URL: rawURL, StatusCode: resp.StatusCode}
	}

	raw, err := readLimited(resp.Body, f.maxBodySize)
	if err != nil {
		return "", classify(rawURL, err)
	}

	body, err := decode(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", classify(rawURL, err)
	}

	logger.DebugContext(ctx, "fetched page",
		slog.Int("status_code", resp.StatusCode),
		slog.Int("bytes", len(raw)),
		slog.Duration("duration", time.Since(start)),
	)
	return body, nil
}

// readLimited reads up to limit bytes from r. If the body exceeds the
// limit it returns an error. A limit of 0 reads without limit.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	// Read limit+1 bytes so overflow is detectable.
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &errTooLarge{limit: limit}
	}
	return data, nil
}

// decode converts raw to UTF-8 using the Content-Type charset or, failing
// that, a <meta charset> sniff of the first bytes.
func decode(raw []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		// Unknown charset label: hand the bytes through untouched.
		return string(raw), nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decoding body: %w", err)
	}
	return string(out), nil
}
