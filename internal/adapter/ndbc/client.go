// Package ndbc retrieves the NDBC station catalog and latest-conditions feeds.
package ndbc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	userAgent = "buoy-placefile/1.0 (+https://www.ndbc.noaa.gov/)"

	// maxFeedBytes bounds a single feed body. The full conditions feed is
	// under 2 MB.
	maxFeedBytes = 32 << 20
)

// Client fetches the two NDBC feeds over HTTP.
type Client struct {
	catalogURL    string
	conditionsURL string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates an NDBC feed client.
func NewClient(catalogURL, conditionsURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		catalogURL:    catalogURL,
		conditionsURL: conditionsURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchCatalog returns the raw station catalog XML.
func (c *Client) FetchCatalog(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, c.catalogURL, "catalog")
}

// FetchConditions returns the raw latest-observations text.
func (c *Client) FetchConditions(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, c.conditionsURL, "conditions")
}

func (c *Client) fetch(ctx context.Context, url, feed string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", feed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("fetch %s: status %d: %s", feed, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", feed, err)
	}
	if len(body) > maxFeedBytes {
		return nil, fmt.Errorf("read %s: body exceeds %d bytes", feed, maxFeedBytes)
	}

	c.logger.Debug("feed fetched", "feed", feed, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}
