package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"marketgate/internal/license"
	"marketgate/internal/market"
	"marketgate/internal/models"
	"marketgate/internal/usage"
	"marketgate/internal/version"

	"github.com/gorilla/mux"
)

// Handlers contains HTTP handlers for the market data API
type Handlers struct {
	marketService      market.ServiceInterface
	usageStore         usage.Store
	upstreamConfigured bool
	versionInfo        version.Info
}

// NewHandlers creates a new handlers instance
func NewHandlers(marketService market.ServiceInterface, usageStore usage.Store, upstreamConfigured bool) *Handlers {
	return &Handlers{
		marketService:      marketService,
		usageStore:         usageStore,
		upstreamConfigured: upstreamConfigured,
		versionInfo:        version.GetInfo(),
	}
}

// Home handles the root endpoint
// GET /
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	response := &models.HomeResponse{
		Message:   "Market data API proxy",
		Status:    models.StatusHealthy,
		Timestamp: time.Now(),
	}
	h.writeJSONResponse(w, r, http.StatusOK, response)
}

// HealthCheck handles health check requests
// GET /health and GET /api/v1/health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.versionInfo.Version

	response.AddComponent("api", models.StatusHealthy, "API is operational")

	if h.upstreamConfigured {
		response.AddComponent("upstream", models.StatusHealthy, "Upstream API key configured")
	} else {
		response.Status = models.StatusDegraded
		response.AddComponent("upstream", models.StatusDegraded, "Upstream API key not configured")
	}
	response.AddMetric("upstream_api_configured", h.upstreamConfigured)

	if h.usageStore != nil {
		if err := h.usageStore.Ping(r.Context()); err != nil {
			response.Status = models.StatusDegraded
			response.AddComponent("usage_store", models.StatusUnhealthy, "Usage store unreachable")
		} else {
			response.AddComponent("usage_store", models.StatusHealthy, "Usage store is operational")
		}
	}

	h.writeJSONResponse(w, r, http.StatusOK, response)
}

// Gainers handles top-gainers snapshot requests
// GET /gainers
func (h *Handlers) Gainers(w http.ResponseWriter, r *http.Request) {
	payload, err := h.marketService.Gainers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, r, http.StatusOK, payload)
}

// Losers handles top-losers snapshot requests
// GET /losers
func (h *Handlers) Losers(w http.ResponseWriter, r *http.Request) {
	payload, err := h.marketService.Losers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, r, http.StatusOK, payload)
}

// Historical handles historical bar requests
// GET /historical/{symbol}?days_back=N&interval=M
func (h *Handlers) Historical(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	daysBack := 0
	if param := r.URL.Query().Get("days_back"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil {
			h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "days_back must be an integer")
			return
		}
		daysBack = parsed
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1"
	}

	response, err := h.marketService.Historical(r.Context(), symbol, daysBack, interval)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, r, http.StatusOK, response)
}

// Float handles share-float reference data requests
// GET /float/{symbol}
func (h *Handlers) Float(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	payload, err := h.marketService.Float(r.Context(), symbol)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, r, http.StatusOK, payload)
}

// News handles news requests
// GET /news/{symbol}
func (h *Handlers) News(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	payload, err := h.marketService.News(r.Context(), symbol)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, r, http.StatusOK, payload)
}

// Volume handles intraday volume requests
// GET /volume/{symbol}
func (h *Handlers) Volume(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	response, err := h.marketService.Volume(r.Context(), symbol)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, r, http.StatusOK, response)
}

// Usage reports per-endpoint request totals for the calling license
// GET /usage
func (h *Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	if h.usageStore == nil {
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Usage accounting is disabled")
		return
	}

	licenseKey, ok := license.FromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, r, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "Invalid license key")
		return
	}

	totals, err := h.usageStore.Totals(r.Context(), licenseKey)
	if err != nil {
		slog.Error("Failed to read usage totals", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Failed to read usage totals")
		return
	}

	h.writeJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"totals": totals,
	})
}

// handleServiceError maps service errors to HTTP responses. The upstream
// failure detail stays in the log; clients get the generic message.
func (h *Handlers) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *market.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.StatusCode >= http.StatusInternalServerError {
			slog.Error("Service error", "path", r.URL.Path, "code", svcErr.Code, "error", err)
		}
		h.writeErrorResponse(w, r, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	slog.Error("Unexpected error", "path", r.URL.Path, "error", err)
	h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; just log it.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = RequestIDFromContext(r.Context())
	h.writeJSONResponse(w, r, statusCode, errorResp)
}
