package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketgate/internal/license"
	"marketgate/internal/market"
	"marketgate/internal/models"
	"marketgate/internal/usage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMarketService implements market.ServiceInterface for handler tests
type mockMarketService struct {
	snapshot   map[string]interface{}
	historical *models.HistoricalResponse
	volume     *models.VolumeResponse
	err        error

	lastDaysBack int
	lastInterval string
	lastSymbol   string
}

func (m *mockMarketService) Gainers(ctx context.Context) (map[string]interface{}, error) {
	return m.snapshot, m.err
}

func (m *mockMarketService) Losers(ctx context.Context) (map[string]interface{}, error) {
	return m.snapshot, m.err
}

func (m *mockMarketService) Historical(ctx context.Context, symbol string, daysBack int, interval string) (*models.HistoricalResponse, error) {
	m.lastSymbol = symbol
	m.lastDaysBack = daysBack
	m.lastInterval = interval
	return m.historical, m.err
}

func (m *mockMarketService) Float(ctx context.Context, symbol string) (map[string]interface{}, error) {
	m.lastSymbol = symbol
	return m.snapshot, m.err
}

func (m *mockMarketService) News(ctx context.Context, symbol string) (map[string]interface{}, error) {
	m.lastSymbol = symbol
	return m.snapshot, m.err
}

func (m *mockMarketService) Volume(ctx context.Context, symbol string) (*models.VolumeResponse, error) {
	m.lastSymbol = symbol
	return m.volume, m.err
}

func newTestRouter(service market.ServiceInterface, store usage.Store) *mux.Router {
	handlers := NewHandlers(service, store, true)
	return SetupRoutes(handlers, models.NewDefaultConfig())
}

func doRequest(t *testing.T, router *mux.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	return errResp
}

func TestGainersHandler(t *testing.T) {
	service := &mockMarketService{snapshot: map[string]interface{}{"status": "OK"}}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/gainers")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "OK", payload["status"])
}

func TestGainersHandlerUpstreamFailure(t *testing.T) {
	service := &mockMarketService{err: market.NewUpstreamError("Failed to fetch gainers", assert.AnError)}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/gainers")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	errResp := decodeError(t, rec)
	assert.Equal(t, "Failed to fetch gainers", errResp.Error)
	assert.Equal(t, models.ErrorCodeUpstreamError, errResp.Code)
	// Internal detail never leaks to clients
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestHistoricalHandlerDefaults(t *testing.T) {
	service := &mockMarketService{historical: &models.HistoricalResponse{Results: []models.Bar{}}}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/historical/AAPL")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL", service.lastSymbol)
	assert.Equal(t, 0, service.lastDaysBack)
	assert.Equal(t, "1", service.lastInterval)
}

func TestHistoricalHandlerQueryParams(t *testing.T) {
	service := &mockMarketService{historical: &models.HistoricalResponse{}}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/historical/TSLA?days_back=3&interval=day")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, service.lastDaysBack)
	assert.Equal(t, "day", service.lastInterval)
}

func TestHistoricalHandlerBadDaysBack(t *testing.T) {
	service := &mockMarketService{historical: &models.HistoricalResponse{}}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/historical/AAPL?days_back=soon")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, models.ErrorCodeInvalidRequest, errResp.Code)
}

func TestHistoricalHandlerInvalidInterval(t *testing.T) {
	service := &mockMarketService{err: market.NewInvalidRequestError("Invalid interval", assert.AnError)}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/historical/AAPL?interval=week")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVolumeHandler(t *testing.T) {
	service := &mockMarketService{volume: &models.VolumeResponse{Symbol: "AAPL", Volume: 4200}}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/volume/AAPL")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.VolumeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, float64(4200), resp.Volume)
}

func TestNewsHandler(t *testing.T) {
	service := &mockMarketService{snapshot: map[string]interface{}{"results": []interface{}{}}}
	rec := doRequest(t, newTestRouter(service, nil), http.MethodGet, "/news/NVDA")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NVDA", service.lastSymbol)
}

func TestHealthCheckHandler(t *testing.T) {
	rec := doRequest(t, newTestRouter(&mockMarketService{}, usage.NewMemoryStore()), http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusHealthy, resp.Status)
	assert.Contains(t, resp.Components, "api")
	assert.Contains(t, resp.Components, "upstream")
	assert.Contains(t, resp.Components, "usage_store")
	assert.Equal(t, true, resp.Metrics["upstream_api_configured"])
}

func TestHealthCheckDegradedWithoutAPIKey(t *testing.T) {
	handlers := NewHandlers(&mockMarketService{}, nil, false)
	router := SetupRoutes(handlers, models.NewDefaultConfig())

	rec := doRequest(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusDegraded, resp.Status)
	assert.Equal(t, false, resp.Metrics["upstream_api_configured"])
}

func TestUsageHandler(t *testing.T) {
	store := usage.NewMemoryStore()
	handlers := NewHandlers(&mockMarketService{}, store, true)

	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	req = req.WithContext(license.NewContext(req.Context(), "test-license-123"))
	rec := httptest.NewRecorder()
	handlers.Usage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "totals")
}

func TestUsageHandlerWithoutLicense(t *testing.T) {
	handlers := NewHandlers(&mockMarketService{}, usage.NewMemoryStore(), true)

	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	rec := httptest.NewRecorder()
	handlers.Usage(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsageHandlerDisabled(t *testing.T) {
	handlers := NewHandlers(&mockMarketService{}, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	req = req.WithContext(license.NewContext(req.Context(), "test-license-123"))
	rec := httptest.NewRecorder()
	handlers.Usage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHomeHandler(t *testing.T) {
	rec := doRequest(t, newTestRouter(&mockMarketService{}, nil), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusHealthy, resp.Status)
}
