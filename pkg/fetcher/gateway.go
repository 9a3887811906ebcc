package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/truckscout/internal/logger"
)

// Config holds configuration for the gateway.
type Config struct {
	BaseURL           string        // Site origin prepended to relative paths
	CDNPrefix         string        // Paths with this prefix are fetched verbatim
	UserAgent         string
	Timeout           time.Duration
	MaxBodySize       int     // Bytes; larger responses fail. 0 = colly default
	RequestsPerSecond float64 // 0 = no pacing
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the settings for truckscout24.de.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://www.truckscout24.de",
		CDNPrefix: "https://cdn",
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// Gateway issues GET requests with Colly.
// It implements the Fetcher interface.
type Gateway struct {
	config  Config
	limiter *rate.Limiter
}

// NewGateway creates a gateway. Empty fields fall back to DefaultConfig.
func NewGateway(cfg Config) *Gateway {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.CDNPrefix == "" {
		cfg.CDNPrefix = def.CDNPrefix
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	g := &Gateway{config: cfg}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return g
}

// Resolve turns a site-relative path into an absolute URL. CDN URLs are
// returned unchanged.
func (g *Gateway) Resolve(path string) string {
	if strings.HasPrefix(path, g.config.CDNPrefix) {
		return path
	}
	return g.config.BaseURL + path
}

// Fetch performs a GET and returns the body of a 200 response.
func (g *Gateway) Fetch(ctx context.Context, path string, params url.Values) (Response, error) {
	target, err := withParams(g.Resolve(path), params)
	if err != nil {
		return Response{}, &TransportError{URL: path, Err: err}
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return Response{}, &TransportError{URL: target, Err: err}
		}
	}

	logger.DebugContext(ctx, "fetch starting", "url", target)
	result := Response{URL: target, FetchedAt: time.Now()}

	// A fresh collector per request keeps colly's visited-URL tracking
	// from rejecting repeated AJAX calls.
	c := colly.NewCollector(
		colly.UserAgent(g.config.UserAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(g.config.Timeout)
	if g.config.MaxBodySize > 0 {
		// colly truncates silently; one spare byte reveals the cut
		c.MaxBodySize = g.config.MaxBodySize + 1
	}

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		if r.Headers != nil {
			result.ContentType = r.Headers.Get("Content-Type")
		}
		result.Body = r.Body
		logger.DebugContext(ctx, "fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		result.StatusCode = statusCode
		fetchErr = err
		logger.DebugContext(ctx, "fetch error", "url", target, "status", statusCode, "error", err)
	})

	visitErr := c.Visit(target)
	result.Duration = time.Since(result.FetchedAt)

	if fetchErr == nil {
		fetchErr = visitErr
	}
	if fetchErr != nil {
		if result.StatusCode > 0 {
			return result, &HTTPStatusError{URL: target, StatusCode: result.StatusCode}
		}
		return result, &TransportError{URL: target, Err: fetchErr}
	}

	// Colly accepts 201 and 202 as success.
	if result.StatusCode != 200 {
		return result, &HTTPStatusError{URL: target, StatusCode: result.StatusCode}
	}
	if g.config.MaxBodySize > 0 && len(result.Body) > g.config.MaxBodySize {
		return result, &BodyTooLargeError{URL: target, Limit: g.config.MaxBodySize}
	}

	logger.DebugContext(ctx, "fetch complete", "url", target, "duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// Close releases resources.
func (g *Gateway) Close() error {
	return nil
}

// Type returns the fetcher type.
func (g *Gateway) Type() string {
	return "colly"
}

// withParams merges params into the query string of rawURL.
func withParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// IsStatus reports whether err is an HTTPStatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *HTTPStatusError
	return errors.As(err, &se) && se.StatusCode == code
}
