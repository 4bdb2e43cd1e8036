package httpclient

import (
	"net/http"
	"time"
)

// New returns an HTTP client with the given timeout. A nil transport keeps
// http.DefaultTransport.
func New(timeout time.Duration, transport http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
