// Package searchapi is the HTTP client for the remote search and profile
// endpoints. It is deliberately thin: retries, debouncing, and timeout
// racing are the query pipeline's job, not the transport's.
package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/pkg/logger"
)

const defaultRequestTimeout = 10 * time.Second

// Client talks to the remote API.
type Client struct {
	baseURL string
	hc      *http.Client
	log     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds individual HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Client for the API rooted at baseURL, e.g.
// "https://api.statiq.app/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultRequestTimeout},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the remote search endpoint. Results carry no ordering
// guarantee across repeated calls.
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	u := c.baseURL + "/search?q=" + url.QueryEscape(query)

	var results []model.SearchResult
	if err := c.getJSON(ctx, u, &results); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return results, nil
}

// TeamDetail fetches a team profile, used to enrich snapshots with fields
// the search payload lacks (team color in particular).
func (c *Client) TeamDetail(ctx context.Context, id string) (model.EntityDetail, error) {
	var detail model.EntityDetail
	u := c.baseURL + "/teams/" + url.PathEscape(id)
	if err := c.getJSON(ctx, u, &detail); err != nil {
		return model.EntityDetail{}, fmt.Errorf("team detail %q: %w", id, err)
	}
	return detail, nil
}

// PlayerDetail fetches a player profile.
func (c *Client) PlayerDetail(ctx context.Context, id string) (model.EntityDetail, error) {
	var detail model.EntityDetail
	u := c.baseURL + "/players/" + url.PathEscape(id)
	if err := c.getJSON(ctx, u, &detail); err != nil {
		return model.EntityDetail{}, fmt.Errorf("player detail %q: %w", id, err)
	}
	return detail, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
