package market

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"marketgate/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider implements the upstream.Provider interface for testing
type MockProvider struct {
	snapshot      map[string]interface{}
	aggs          *upstream.AggsResponse
	tickerDetails map[string]interface{}
	news          map[string]interface{}
	err           error

	lastDirection  string
	lastSymbol     string
	lastMultiplier int
	lastTimespan   string
	lastDay        string
	lastLimit      int
}

func (m *MockProvider) Snapshot(ctx context.Context, direction string) (map[string]interface{}, error) {
	m.lastDirection = direction
	return m.snapshot, m.err
}

func (m *MockProvider) Aggs(ctx context.Context, symbol string, multiplier int, timespan, day string) (*upstream.AggsResponse, error) {
	m.lastSymbol = symbol
	m.lastMultiplier = multiplier
	m.lastTimespan = timespan
	m.lastDay = day
	return m.aggs, m.err
}

func (m *MockProvider) TickerDetails(ctx context.Context, symbol string) (map[string]interface{}, error) {
	m.lastSymbol = symbol
	return m.tickerDetails, m.err
}

func (m *MockProvider) News(ctx context.Context, symbol string, limit int) (map[string]interface{}, error) {
	m.lastSymbol = symbol
	m.lastLimit = limit
	return m.news, m.err
}

// newTestService pins the clock to a Tuesday so date arithmetic is stable.
func newTestService(provider upstream.Provider) *Service {
	svc := NewService(provider)
	svc.now = func() time.Time {
		return time.Date(2025, 1, 7, 15, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestGainersPassesThroughPayload(t *testing.T) {
	mock := &MockProvider{snapshot: map[string]interface{}{"status": "OK"}}
	svc := newTestService(mock)

	payload, err := svc.Gainers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", payload["status"])
	assert.Equal(t, upstream.DirectionGainers, mock.lastDirection)
}

func TestLosersPassesThroughPayload(t *testing.T) {
	mock := &MockProvider{snapshot: map[string]interface{}{"status": "OK"}}
	svc := newTestService(mock)

	_, err := svc.Losers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, upstream.DirectionLosers, mock.lastDirection)
}

func TestGainersUpstreamFailure(t *testing.T) {
	mock := &MockProvider{err: errors.New("connection refused")}
	svc := newTestService(mock)

	_, err := svc.Gainers(context.Background())
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	assert.Equal(t, "Failed to fetch gainers", svcErr.Message)
}

func TestHistoricalReshapesBars(t *testing.T) {
	mock := &MockProvider{
		aggs: &upstream.AggsResponse{
			Results: []upstream.Agg{
				{Timestamp: 1736262000000, Open: 10, High: 12, Low: 9.5, Close: 11, Volume: 5000, VWAP: 10.8, Transactions: 120},
			},
		},
	}
	svc := newTestService(mock)

	resp, err := svc.Historical(context.Background(), "AAPL", 1, "5")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	bar := resp.Results[0]
	assert.Equal(t, time.UnixMilli(1736262000000).UTC(), bar.Timestamp)
	assert.Equal(t, float64(10), bar.Open)
	assert.Equal(t, float64(11), bar.Close)
	assert.Equal(t, float64(5000), bar.Volume)
	assert.Equal(t, int64(120), bar.Transactions)

	assert.Equal(t, "AAPL", mock.lastSymbol)
	assert.Equal(t, 5, mock.lastMultiplier)
	assert.Equal(t, "minute", mock.lastTimespan)
	// Tuesday Jan 7 minus one day
	assert.Equal(t, "2025-01-06", mock.lastDay)
}

func TestHistoricalDayInterval(t *testing.T) {
	mock := &MockProvider{aggs: &upstream.AggsResponse{}}
	svc := newTestService(mock)

	_, err := svc.Historical(context.Background(), "AAPL", 0, "day")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.lastMultiplier)
	assert.Equal(t, "day", mock.lastTimespan)
	assert.Equal(t, "2025-01-07", mock.lastDay)
}

func TestHistoricalInvalidInterval(t *testing.T) {
	tests := []string{"week", "0", "-5", "", "5m"}
	for _, interval := range tests {
		t.Run("interval_"+interval, func(t *testing.T) {
			svc := newTestService(&MockProvider{})
			_, err := svc.Historical(context.Background(), "AAPL", 0, interval)
			require.Error(t, err)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
		})
	}
}

func TestHistoricalNegativeDaysBack(t *testing.T) {
	svc := newTestService(&MockProvider{})
	_, err := svc.Historical(context.Background(), "AAPL", -1, "5")
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
}

func TestHistoricalEmptyResults(t *testing.T) {
	mock := &MockProvider{aggs: &upstream.AggsResponse{}}
	svc := newTestService(mock)

	resp, err := svc.Historical(context.Background(), "AAPL", 0, "1")
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestFloatPassesThroughPayload(t *testing.T) {
	mock := &MockProvider{tickerDetails: map[string]interface{}{"results": map[string]interface{}{"ticker": "TSLA"}}}
	svc := newTestService(mock)

	payload, err := svc.Float(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Contains(t, payload, "results")
	assert.Equal(t, "TSLA", mock.lastSymbol)
}

func TestNewsRequestsFixedLimit(t *testing.T) {
	mock := &MockProvider{news: map[string]interface{}{"results": []interface{}{}}}
	svc := newTestService(mock)

	_, err := svc.News(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Equal(t, "NVDA", mock.lastSymbol)
	assert.Equal(t, 10, mock.lastLimit)
}

func TestVolumeSumsMinuteBars(t *testing.T) {
	mock := &MockProvider{
		aggs: &upstream.AggsResponse{
			Results: []upstream.Agg{
				{Volume: 1000},
				{Volume: 2500},
				{Volume: 499.5},
			},
		},
	}
	svc := newTestService(mock)

	resp, err := svc.Volume(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, 3999.5, resp.Volume)

	assert.Equal(t, 1, mock.lastMultiplier)
	assert.Equal(t, "minute", mock.lastTimespan)
	assert.Equal(t, "2025-01-07", mock.lastDay)
}

func TestVolumeEmptyDay(t *testing.T) {
	mock := &MockProvider{aggs: &upstream.AggsResponse{}}
	svc := newTestService(mock)

	resp, err := svc.Volume(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.Volume)
}

func TestMarketDateWeekendRollback(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		daysBack int
		want     string
	}{
		{
			name: "saturday rolls back to friday",
			now:  time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC),
			want: "2025-01-10",
		},
		{
			name: "sunday rolls back to friday",
			now:  time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC),
			want: "2025-01-10",
		},
		{
			name: "weekday stays",
			now:  time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC),
			want: "2025-01-08",
		},
		{
			name:     "days back applies after rollback",
			now:      time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC),
			daysBack: 3,
			want:     "2025-01-07",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&MockProvider{})
			svc.now = func() time.Time { return tt.now }
			got := svc.marketDate(tt.daysBack).Format("2006-01-02")
			assert.Equal(t, tt.want, got)
		})
	}
}
