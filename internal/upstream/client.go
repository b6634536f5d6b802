// Package upstream implements the HTTP client for the market-data provider
// (a Polygon.io-compatible REST API). Every call is a single GET with the
// server-held API key, a fixed timeout, and no retries; an optional
// client-side throttle caps the outbound request rate.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"marketgate/internal/models"

	"golang.org/x/time/rate"
)

// Snapshot directions accepted by the provider's market snapshot endpoint.
const (
	DirectionGainers = "gainers"
	DirectionLosers  = "losers"
)

// Error is returned when the provider answers with a non-2xx status.
type Error struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Provider is the outbound contract the market service depends on.
// Snapshot, TickerDetails and News return the decoded payload as-is for
// pass-through endpoints; Aggs decodes into typed bars for reshaping.
type Provider interface {
	Snapshot(ctx context.Context, direction string) (map[string]interface{}, error)
	Aggs(ctx context.Context, symbol string, multiplier int, timespan, day string) (*AggsResponse, error)
	TickerDetails(ctx context.Context, symbol string) (map[string]interface{}, error)
	News(ctx context.Context, symbol string, limit int) (map[string]interface{}, error)
}

// Client calls the provider over HTTP. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	throttle   *rate.Limiter
}

// NewClient creates a provider client from configuration. The HTTP client
// timeout bounds each outbound call; there is no retry.
func NewClient(cfg models.UpstreamConfig) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if cfg.MaxRequestsPerSecond > 0 {
		c.throttle = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), cfg.MaxRequestsPerSecond)
	}
	return c
}

// Configured reports whether an API key is set. Used by the health endpoint.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Snapshot fetches the gainers or losers market snapshot.
func (c *Client) Snapshot(ctx context.Context, direction string) (map[string]interface{}, error) {
	if direction != DirectionGainers && direction != DirectionLosers {
		return nil, fmt.Errorf("invalid snapshot direction: %s", direction)
	}

	path := "/v2/snapshot/locale/us/markets/stocks/" + direction

	var payload map[string]interface{}
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Aggs fetches aggregate bars for a symbol over a single day.
// timespan is "minute" or "day"; multiplier is the bar width in that unit.
func (c *Client) Aggs(ctx context.Context, symbol string, multiplier int, timespan, day string) (*AggsResponse, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		url.PathEscape(symbol), multiplier, timespan, day, day)

	query := url.Values{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {"1000"},
	}

	var payload AggsResponse
	if err := c.get(ctx, path, query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// TickerDetails fetches reference data (including share counts) for a symbol.
func (c *Client) TickerDetails(ctx context.Context, symbol string) (map[string]interface{}, error) {
	path := "/v3/reference/tickers/" + url.PathEscape(symbol)

	var payload map[string]interface{}
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// News fetches recent news articles for a symbol.
func (c *Client) News(ctx context.Context, symbol string, limit int) (map[string]interface{}, error) {
	query := url.Values{
		"ticker": {symbol},
		"limit":  {fmt.Sprintf("%d", limit)},
	}

	var payload map[string]interface{}
	if err := c.get(ctx, "/v2/reference/news", query, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// get performs a single provider call and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return fmt.Errorf("throttle wait: %w", err)
		}
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("apiKey", c.apiKey)

	reqURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &Error{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	return nil
}
