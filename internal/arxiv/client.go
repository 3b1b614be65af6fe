// Package arxiv fetches paper metadata from the arXiv export API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/paperrank/internal/fetch"
)

const (
	// BaseURL is the arXiv export API query endpoint.
	BaseURL = "https://export.arxiv.org/api/query"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultInterval is the minimum spacing between requests asked for by
	// the arXiv API terms of use.
	DefaultInterval = time.Second

	source = "arxiv"
)

// Paper is the metadata arXiv returns for one identifier.
type Paper struct {
	ArxivID  string   `json:"arxiv_id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
}

// Client is a rate-limited client for the arXiv export API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithInterval sets the minimum spacing between requests. Zero disables
// rate limiting.
func WithInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new arXiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultInterval), 1),
		baseURL:    BaseURL,
		userAgent:  "paperrank",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPaper fetches one paper by arXiv identifier (e.g. "2301.07041").
// Returns an error matching fetch.ErrNotFound if arXiv has no such paper.
func (c *Client) GetPaper(ctx context.Context, arxivID string) (*Paper, error) {
	arxivID = strings.TrimSpace(arxivID)
	if arxivID == "" {
		return nil, fmt.Errorf("empty arXiv id")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + "?" + url.Values{"id_list": {arxivID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetch.NetworkError(source, reqURL, err)
	}
	defer resp.Body.Close()

	if err := fetch.CheckResponse(source, resp); err != nil {
		return nil, err
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	return f.paper(arxivID)
}

// Atom feed structures. encoding/xml matches on local names, so the Atom
// namespace needs no special handling.
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID      string   `xml:"id"`
	Title   string   `xml:"title"`
	Summary string   `xml:"summary"`
	Authors []author `xml:"author"`
}

type author struct {
	Name string `xml:"name"`
}

// errorIDPrefix marks the pseudo-entry arXiv returns for malformed ids.
const errorIDPrefix = "http://arxiv.org/api/errors"

func (f *feed) paper(arxivID string) (*Paper, error) {
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("arXiv paper %s: %w", arxivID, fetch.ErrNotFound)
	}

	e := f.Entries[0]
	if strings.HasPrefix(e.ID, errorIDPrefix) {
		return nil, fmt.Errorf("arXiv paper %s: %w: %s", arxivID, fetch.ErrNotFound, collapse(e.Summary))
	}
	// Unknown but well-formed ids come back as an entry with no title.
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Summary) == "" {
		return nil, fmt.Errorf("arXiv paper %s: %w", arxivID, fetch.ErrNotFound)
	}

	p := &Paper{
		ArxivID:  arxivID,
		Title:    collapse(e.Title),
		Abstract: strings.TrimSpace(e.Summary),
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	return p, nil
}

// collapse trims s and joins internal whitespace runs (arXiv wraps titles).
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
