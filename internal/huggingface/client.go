// Package huggingface fetches dataset rows and space metadata from the
// Hugging Face hub and its datasets-server API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/paperrank/internal/fetch"
)

const (
	// HubURL is the Hugging Face hub base URL.
	HubURL = "https://huggingface.co"

	// DatasetsServerURL is the datasets-server API base URL.
	DatasetsServerURL = "https://datasets-server.huggingface.co"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// MaxPageSize is the largest page the datasets-server /rows endpoint returns.
	MaxPageSize = 100

	// RateLimit is requests per second against both APIs.
	RateLimit = 5.0

	source = "huggingface"
)

// Client is a rate-limited client for the Hugging Face APIs.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	hubURL     string
	serverURL  string
	token      string
	pageSize   int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHubURL sets the hub base URL (for testing).
func WithHubURL(u string) ClientOption {
	return func(c *Client) {
		c.hubURL = u
	}
}

// WithDatasetsServerURL sets the datasets-server base URL (for testing).
func WithDatasetsServerURL(u string) ClientOption {
	return func(c *Client) {
		c.serverURL = u
	}
}

// WithToken sets the access token for gated or private datasets.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithPageSize sets the number of rows requested per page (1..100).
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 && n <= MaxPageSize {
			c.pageSize = n
		}
	}
}

// WithRateLimit sets the request rate. Zero or less disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new Hugging Face client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		hubURL:     HubURL,
		serverURL:  DatasetsServerURL,
		pageSize:   MaxPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON performs a rate-limited GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, base, path string, query url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fetch.NetworkError(source, reqURL, err)
	}
	defer resp.Body.Close()

	if err := fetch.CheckResponse(source, resp); err != nil {
		return err
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// compactJSON renders v on one line, for cells holding nested values.
func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
