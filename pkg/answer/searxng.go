package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultSearchTimeout = 10 * time.Second
	defaultMaxResults    = 8
)

// SearxClient queries a SearXNG instance for source documents.
type SearxClient struct {
	baseURL    string
	httpClient *http.Client
	maxResults int
}

// SearxOption configures the client.
type SearxOption func(*SearxClient)

// WithSearxHTTPClient injects a custom http.Client.
func WithSearxHTTPClient(hc *http.Client) SearxOption {
	return func(c *SearxClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxResults caps how many results a search returns.
func WithMaxResults(n int) SearxOption {
	return func(c *SearxClient) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// NewSearxClient constructs a SearXNG search client.
func NewSearxClient(baseURL string, opts ...SearxOption) (*SearxClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("answer: searx base url is required")
	}
	client := &SearxClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultSearchTimeout},
		maxResults: defaultMaxResults,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searxResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searxResponse struct {
	Results []searxResult `json:"results"`
}

// Search runs one query and maps the results to source documents.
func (c *SearxClient) Search(ctx context.Context, query string) ([]SourceDoc, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	reqURL := c.baseURL + "/search?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("answer: build search request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("answer: search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("answer: read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("answer: search http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("answer: decode search response: %w", err)
	}

	docs := make([]SourceDoc, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		if result.URL == "" {
			continue
		}
		docs = append(docs, SourceDoc{
			Title:   result.Title,
			URL:     result.URL,
			Snippet: result.Content,
		})
		if len(docs) >= c.maxResults {
			break
		}
	}
	return docs, nil
}
