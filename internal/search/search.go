// Package search provides the web-search contract the knowledge explorer
// consumes, plus an HTTP implementation and a static fixture for tests.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"mindloop/internal/logging"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Source  string `json:"source"`
}

// Client is the consumed search contract. Implementations must honor the
// context deadline.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

// HTTPConfig holds configuration for the HTTP search client.
type HTTPConfig struct {
	BaseURL        string        // Search endpoint; the query is sent as ?q=
	Timeout        time.Duration // Per-request timeout
	UserAgent      string
	BlockedDomains []string // Hits whose link matches are dropped
}

// DefaultHTTPConfig returns sensible defaults.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		BaseURL:   "https://html.duckduckgo.com/html/",
		Timeout:   20 * time.Second,
		UserAgent: "mindloop/0.3 (Knowledge Explorer)",
		BlockedDomains: []string{
			"facebook.com", "twitter.com", "instagram.com",
			"linkedin.com", "tiktok.com", // Social media noise
		},
	}
}

// HTTPClient queries an HTML search endpoint and extracts result links and
// snippets from the response markup.
type HTTPClient struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPClient creates an HTTP search client.
func NewHTTPClient(config HTTPConfig) *HTTPClient {
	if config.BaseURL == "" {
		config = DefaultHTTPConfig()
	}
	return &HTTPClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Search implements Client.
func (c *HTTPClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	timer := logging.StartTimer(logging.CategorySearch, "HTTPClient.Search")
	defer timer.StopWithThreshold(5 * time.Second)

	if maxResults <= 0 {
		maxResults = 5
	}

	endpoint := c.config.BaseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("search: read body: %w", err)
	}

	results := c.extractResults(string(body), maxResults)
	logging.Search("query %q: %d results", query, len(results))
	return results, nil
}

// extractResults pulls anchors with non-trivial link text out of the result
// markup. Relative links and blocked domains are dropped.
func (c *HTTPClient) extractResults(markup string, maxResults int) []Result {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		logging.SearchDebug("extract: parse failed: %v", err)
		return nil
	}

	var results []Result
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			link := attr(n, "href")
			title := strings.TrimSpace(nodeText(n))
			if c.acceptLink(link) && len(title) >= 10 {
				results = append(results, Result{
					Title:   title,
					Snippet: title,
					Link:    link,
					Source:  "web_search",
				})
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return results
}

func (c *HTTPClient) acceptLink(link string) bool {
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return false
	}
	for _, blocked := range c.config.BlockedDomains {
		if strings.Contains(link, blocked) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// =============================================================================
// STATIC CLIENT (tests, offline mode)
// =============================================================================

// StaticClient returns canned results keyed by substring match on the query.
// It is safe for concurrent use; the explorer fans queries out across
// goroutines.
type StaticClient struct {
	// Results maps a query substring to its hits. The empty key is the
	// fallback for unmatched queries.
	Results map[string][]Result

	mu      sync.Mutex
	queries []string
}

// Search implements Client.
func (s *StaticClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	for key, hits := range s.Results {
		if key != "" && strings.Contains(query, key) {
			return limit(hits, maxResults), nil
		}
	}
	return limit(s.Results[""], maxResults), nil
}

// Queries returns a copy of every query received, in order.
func (s *StaticClient) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

func limit(hits []Result, max int) []Result {
	if max > 0 && len(hits) > max {
		return hits[:max]
	}
	return hits
}
