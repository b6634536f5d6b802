package market

import (
	"context"

	"marketgate/internal/models"
)

// ServiceInterface defines the interface for market data operations
type ServiceInterface interface {
	// Gainers returns the current top-gaining US stocks snapshot
	Gainers(ctx context.Context) (map[string]interface{}, error)

	// Losers returns the current top-losing US stocks snapshot
	Losers(ctx context.Context) (map[string]interface{}, error)

	// Historical returns reshaped OHLCV bars for a symbol. daysBack selects
	// the trading day and interval is "day" or a minute-bar width ("1", "5", ...)
	Historical(ctx context.Context, symbol string, daysBack int, interval string) (*models.HistoricalResponse, error)

	// Float returns reference data (share counts) for a symbol
	Float(ctx context.Context, symbol string) (map[string]interface{}, error)

	// News returns recent news articles for a symbol
	News(ctx context.Context, symbol string) (map[string]interface{}, error)

	// Volume returns the accumulated intraday trading volume for a symbol
	Volume(ctx context.Context, symbol string) (*models.VolumeResponse, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
