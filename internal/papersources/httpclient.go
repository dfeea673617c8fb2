package papersources

import (
	"fmt"
	"net/http"
	"time"
)

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Scheduler gates every request. Nil means no gating.
	Scheduler Scheduler
}

// HTTPClient wraps http.Client with a request scheduler and default headers.
// Requests are never retried: a failed call is reported once and the caller
// degrades. It is safe for concurrent use.
type HTTPClient struct {
	client    *http.Client
	scheduler Scheduler
	config    HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Helixir-CitationService/1.0"
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = Immediate()
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		scheduler: cfg.Scheduler,
		config:    cfg,
	}
}

// Do waits for the scheduler, sets the User-Agent header and executes req
// exactly once. Non-2xx responses are returned as-is for the caller to
// classify.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	if err := c.scheduler.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("scheduler wait: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
