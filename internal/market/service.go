// Package market implements the business logic behind the market data
// endpoints: choosing the trading day, translating request parameters into
// provider queries, and reshaping provider payloads for clients.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"marketgate/internal/models"
	"marketgate/internal/upstream"
)

// newsLimit is the fixed number of articles requested from the provider.
const newsLimit = 10

// Service handles market data retrieval and reshaping business logic
type Service struct {
	provider upstream.Provider
	now      func() time.Time
}

// NewService creates a new market service backed by the given provider
func NewService(provider upstream.Provider) *Service {
	return &Service{
		provider: provider,
		now:      time.Now,
	}
}

// Gainers returns the current top-gaining US stocks snapshot
func (s *Service) Gainers(ctx context.Context) (map[string]interface{}, error) {
	payload, err := s.provider.Snapshot(ctx, upstream.DirectionGainers)
	if err != nil {
		slog.Error("Upstream snapshot fetch failed", "direction", "gainers", "error", err)
		return nil, NewUpstreamError("Failed to fetch gainers", err)
	}
	return payload, nil
}

// Losers returns the current top-losing US stocks snapshot
func (s *Service) Losers(ctx context.Context) (map[string]interface{}, error) {
	payload, err := s.provider.Snapshot(ctx, upstream.DirectionLosers)
	if err != nil {
		slog.Error("Upstream snapshot fetch failed", "direction", "losers", "error", err)
		return nil, NewUpstreamError("Failed to fetch losers", err)
	}
	return payload, nil
}

// Historical returns reshaped OHLCV bars for a symbol on a past trading day.
func (s *Service) Historical(ctx context.Context, symbol string, daysBack int, interval string) (*models.HistoricalResponse, error) {
	if daysBack < 0 {
		return nil, NewInvalidRequestError("days_back must be non-negative", nil)
	}

	multiplier, timespan, err := parseInterval(interval)
	if err != nil {
		return nil, NewInvalidRequestError("Invalid interval", err)
	}

	day := s.marketDate(daysBack).Format("2006-01-02")

	aggs, err := s.provider.Aggs(ctx, symbol, multiplier, timespan, day)
	if err != nil {
		slog.Error("Upstream aggregates fetch failed", "symbol", symbol, "date", day, "error", err)
		return nil, NewUpstreamError("Failed to fetch historical data", err)
	}

	response := &models.HistoricalResponse{
		Results: make([]models.Bar, len(aggs.Results)),
	}
	for i, agg := range aggs.Results {
		response.Results[i] = reshapeBar(agg)
	}
	return response, nil
}

// Float returns reference data (including share counts) for a symbol
func (s *Service) Float(ctx context.Context, symbol string) (map[string]interface{}, error) {
	payload, err := s.provider.TickerDetails(ctx, symbol)
	if err != nil {
		slog.Error("Upstream ticker details fetch failed", "symbol", symbol, "error", err)
		return nil, NewUpstreamError("Failed to fetch float data", err)
	}
	return payload, nil
}

// News returns recent news articles for a symbol
func (s *Service) News(ctx context.Context, symbol string) (map[string]interface{}, error) {
	payload, err := s.provider.News(ctx, symbol, newsLimit)
	if err != nil {
		slog.Error("Upstream news fetch failed", "symbol", symbol, "error", err)
		return nil, NewUpstreamError("Failed to fetch news", err)
	}
	return payload, nil
}

// Volume sums the minute-bar volumes for the most recent trading day.
func (s *Service) Volume(ctx context.Context, symbol string) (*models.VolumeResponse, error) {
	day := s.marketDate(0).Format("2006-01-02")

	aggs, err := s.provider.Aggs(ctx, symbol, 1, "minute", day)
	if err != nil {
		slog.Error("Upstream aggregates fetch failed", "symbol", symbol, "date", day, "error", err)
		return nil, NewUpstreamError("Failed to fetch volume data", err)
	}

	var total float64
	for _, agg := range aggs.Results {
		total += agg.Volume
	}

	return &models.VolumeResponse{
		Symbol: symbol,
		Volume: total,
	}, nil
}

// marketDate resolves the trading day daysBack days before the most recent
// one. Weekends roll back to the preceding Friday before daysBack applies,
// so daysBack counts calendar days from that Friday.
func (s *Service) marketDate(daysBack int) time.Time {
	d := s.now().UTC()
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, -1)
	case time.Sunday:
		d = d.AddDate(0, 0, -2)
	}
	return d.AddDate(0, 0, -daysBack)
}

// parseInterval maps the request interval to the provider's bar range.
// "day" selects daily bars; any positive integer selects minute bars of
// that width.
func parseInterval(interval string) (multiplier int, timespan string, err error) {
	if interval == "day" {
		return 1, "day", nil
	}
	minutes, err := strconv.Atoi(interval)
	if err != nil || minutes <= 0 {
		return 0, "", fmt.Errorf("interval must be \"day\" or a positive minute count, got %q", interval)
	}
	return minutes, "minute", nil
}

func reshapeBar(agg upstream.Agg) models.Bar {
	return models.Bar{
		Timestamp:    time.UnixMilli(agg.Timestamp).UTC(),
		Open:         agg.Open,
		High:         agg.High,
		Low:          agg.Low,
		Close:        agg.Close,
		Volume:       agg.Volume,
		VWAP:         agg.VWAP,
		Transactions: agg.Transactions,
	}
}
