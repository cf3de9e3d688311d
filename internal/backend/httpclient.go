package backend

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Header names managed by the session manager.
const (
	HeaderAuthorization = "Authorization"
	HeaderClientID      = "Client-Id"
)

// HTTP implements API over the provider's REST endpoints.
type HTTP struct {
	// apiURL is the base URL for API requests (e.g., "https://api.twitch.tv/helix")
	apiURL string
	// revokeURL is the token revocation endpoint
	revokeURL string
	// client is the underlying HTTP client with configured timeout
	client *http.Client

	mu      sync.RWMutex
	headers http.Header
}

// Option customizes an HTTP client.
type Option func(*HTTP)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) { h.client = c }
}

// New creates an HTTP client for the given API base URL and revocation endpoint.
// It configures a 10-second timeout for all requests.
func New(apiURL, revokeURL string, opts ...Option) *HTTP {
	h := &HTTP{
		apiURL:    strings.TrimRight(apiURL, "/"),
		revokeURL: revokeURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		headers:   make(http.Header),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetHeader sets a default header.
func (h *HTTP) SetHeader(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.headers.Set(key, value)
}

// DelHeader removes a default header.
func (h *HTTP) DelHeader(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.headers.Del(key)
}

// Header returns a default header value.
func (h *HTTP) Header(key string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.headers.Get(key)
}

// setStandardHeaders copies the default headers onto req.
// Headers already present on req win.
func (h *HTTP) setStandardHeaders(req *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, vals := range h.headers {
		if req.Header.Get(k) != "" {
			continue
		}
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "streamauth-cli/1.0")
}
