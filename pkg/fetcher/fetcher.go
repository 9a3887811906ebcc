// Package fetcher defines the HTTP gateway used to talk to the listing site
// and its image CDN.
// Implement the Fetcher interface to swap the transport, for example to
// replay recorded pages in tests.
package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Fetcher abstracts GET requests against the site.
type Fetcher interface {
	// Fetch retrieves path, which is either site-relative or a CDN URL,
	// with optional query parameters.
	Fetch(ctx context.Context, path string, params url.Values) (Response, error)

	// Close releases any resources.
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "colly").
	Type() string
}

// Response is a successful (HTTP 200) response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
	Duration    time.Duration
}

// Text returns the body as a string.
func (r Response) Text() string {
	return string(r.Body)
}

// HTTPStatusError indicates the server answered with a status other than 200.
// Check with errors.As.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d for %s", e.StatusCode, e.URL)
}

// TransportError indicates the request never produced an HTTP response
// (DNS failure, refused connection, timeout).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BodyTooLargeError indicates the response exceeded the configured body
// limit and was cut off.
type BodyTooLargeError struct {
	URL   string
	Limit int
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("response from %s exceeds %d bytes", e.URL, e.Limit)
}
