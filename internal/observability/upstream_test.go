package observability

import (
	"context"
	"errors"
	"testing"

	"marketgate/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider records calls so delegation can be asserted.
type stubProvider struct {
	calls []string
	err   error
}

func (s *stubProvider) Snapshot(ctx context.Context, direction string) (map[string]interface{}, error) {
	s.calls = append(s.calls, "Snapshot:"+direction)
	return map[string]interface{}{"status": "OK"}, s.err
}

func (s *stubProvider) Aggs(ctx context.Context, symbol string, multiplier int, timespan, day string) (*upstream.AggsResponse, error) {
	s.calls = append(s.calls, "Aggs:"+symbol)
	return &upstream.AggsResponse{Ticker: symbol}, s.err
}

func (s *stubProvider) TickerDetails(ctx context.Context, symbol string) (map[string]interface{}, error) {
	s.calls = append(s.calls, "TickerDetails:"+symbol)
	return map[string]interface{}{}, s.err
}

func (s *stubProvider) News(ctx context.Context, symbol string, limit int) (map[string]interface{}, error) {
	s.calls = append(s.calls, "News:"+symbol)
	return map[string]interface{}{}, s.err
}

func TestInstrumentedProviderDelegates(t *testing.T) {
	stub := &stubProvider{}
	instrumented, err := NewInstrumentedProvider(stub)
	require.NoError(t, err)

	ctx := context.Background()

	payload, err := instrumented.Snapshot(ctx, upstream.DirectionGainers)
	require.NoError(t, err)
	assert.Equal(t, "OK", payload["status"])

	aggs, err := instrumented.Aggs(ctx, "AAPL", 5, "minute", "2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", aggs.Ticker)

	_, err = instrumented.TickerDetails(ctx, "TSLA")
	require.NoError(t, err)

	_, err = instrumented.News(ctx, "NVDA", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Snapshot:gainers",
		"Aggs:AAPL",
		"TickerDetails:TSLA",
		"News:NVDA",
	}, stub.calls)
}

func TestInstrumentedProviderPropagatesErrors(t *testing.T) {
	stub := &stubProvider{err: errors.New("provider down")}
	instrumented, err := NewInstrumentedProvider(stub)
	require.NoError(t, err)

	_, err = instrumented.Snapshot(context.Background(), upstream.DirectionLosers)
	assert.ErrorContains(t, err, "provider down")
}
