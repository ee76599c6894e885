// Package webclient abstracts page fetching behind a small interface with
// pluggable backends: plain net/http for static markup and chromedp for
// marketing sites that only render their tags client-side.
package webclient

import (
	"context"
	"net/http"
	"time"
)

// Request describes a single fetch.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the backend-independent fetch result.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// WebClient executes requests. Implementations must honor ctx cancellation.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience wrapper for simple GET requests.
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}

// Backend names accepted by the factory.
const (
	BackendNetHTTP  = "nethttp"
	BackendChromedp = "chromedp"
)

// Config carries the options shared by all backends.
type Config struct {
	// Backend selects the registered implementation; empty means nethttp.
	Backend string

	// Timeout bounds a single fetch. Zero means 30 seconds.
	Timeout time.Duration

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}
