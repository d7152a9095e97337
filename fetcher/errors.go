package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// Kind classifies why a page could not be fetched.
type Kind string

const (
	KindInvalidURL        Kind = "invalid-url"
	KindBlockedHost       Kind = "blocked-host"
	KindDNSFailure        Kind = "dns-failure"
	KindConnectionRefused Kind = "connection-refused"
	KindUpstreamError     Kind = "upstream-error"
	KindTooLarge          Kind = "response-too-large"
	KindTimeout           Kind = "timeout"
	KindNoResponse        Kind = "no-response"
)

// Kinds lists every Kind a Fetcher can return.
var Kinds = []Kind{
	KindInvalidURL,
	KindBlockedHost,
	KindDNSFailure,
	KindConnectionRefused,
	KindUpstreamError,
	KindTooLarge,
	KindTimeout,
	KindNoResponse,
}

// Error is returned by Fetch for every failure.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int // set for KindUpstreamError
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUpstreamError:
		return fmt.Sprintf("fetch %s: upstream responded with %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns a short explanation suitable for end users.
func (e *Error) Message() string {
	switch e.Kind {
	case KindInvalidURL:
		return "The URL is not a valid http(s) address"
	case KindBlockedHost:
		return "The URL points to a private or local network address"
	case KindDNSFailure:
		return "The host name could not be resolved"
	case KindConnectionRefused:
		return "The server refused the connection"
	case KindUpstreamError:
		return fmt.Sprintf("The page responded with status %d", e.StatusCode)
	case KindTooLarge:
		return "The page is too large to analyze"
	case KindTimeout:
		return "The page took too long to respond"
	default:
		return "The server closed the connection without responding"
	}
}

// KindOf returns the Kind of err, or "" if err did not come from a Fetcher.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// errBlocked is returned by the dialer when every resolved address is private.
type errBlocked struct {
	host string
}

func (e *errBlocked) Error() string {
	return fmt.Sprintf("blocked connection to private/local address for %s", e.host)
}

// errTooLarge is returned when a body exceeds the configured limit.
type errTooLarge struct {
	limit int64
}

func (e *errTooLarge) Error() string {
	return fmt.Sprintf("response body exceeds maximum allowed size (%d bytes)", e.limit)
}

// classify maps a transport error onto the closed set of kinds. DNS errors
// are checked before timeouts since a resolver timeout is still a failure
// to resolve the name.
func classify(rawURL string, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	kind := KindNoResponse

	var (
		blocked  *errBlocked
		tooLarge *errTooLarge
		dnsErr   *net.DNSError
		netErr   net.Error
	)
	switch {
	case errors.As(err, &blocked):
		kind = KindBlockedHost
	case errors.As(err, &tooLarge):
		kind = KindTooLarge
	case errors.As(err, &dnsErr):
		kind = KindDNSFailure
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = KindConnectionRefused
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, context.Canceled):
		kind = KindNoResponse
	}

	return &Error{Kind: kind, URL: rawURL, Err: err}
}
