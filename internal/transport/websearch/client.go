// Package websearch is the HTTP client for the external search provider used
// by the fallback stage. The provider speaks a plain JSON GET API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/usecase/fallback"
)

const maxResponseBytes = 1 << 20

// Client calls the search provider.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// Config holds provider settings.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// New creates a search client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		URL     string `json:"url"`
	} `json:"results"`
}

// Search implements fallback.Searcher.
func (c *Client) Search(
	ctx context.Context, query string, hint domain.Category,
) ([]fallback.WebResult, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint: %w", domain.ErrSearchUnavailable, err)
	}
	q := u.Query()
	q.Set("q", query)
	if hint != domain.CategoryNone && hint != domain.CategoryOther {
		q.Set("category", string(hint))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned %d", domain.ErrSearchUnavailable, resp.StatusCode)
	}

	var parsed searchResponse
	body := io.LimitReader(resp.Body, maxResponseBytes)
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrSearchUnavailable, err)
	}

	out := make([]fallback.WebResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Title == "" && r.Snippet == "" {
			continue
		}
		out = append(out, fallback.WebResult{
			Title:   r.Title,
			Snippet: r.Snippet,
			URL:     r.URL,
		})
	}
	return out, nil
}

// HealthCheck probes the provider with a HEAD request.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probe search provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("search provider returned %d", resp.StatusCode)
	}
	return nil
}
