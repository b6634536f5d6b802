// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - The "error" field always carries the human-readable message so thin
//   clients can display it directly
// - Machine-readable codes for programmatic handling
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// ErrorResponse provides structured error information.
//
// The Error field carries the message itself ({"error": "Invalid license
// key"}); Code and RequestID are supplementary context for clients and
// support tooling. Upstream failure detail is logged server-side and never
// surfaced here.
type ErrorResponse struct {
	Error     string    `json:"error"`                // Human-readable error message
	Code      string    `json:"code,omitempty"`       // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`            // Error occurrence time
	RequestID string    `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HomeResponse is returned by the root endpoint.
type HomeResponse struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Bar is a single OHLCV aggregate reshaped from the upstream wire format
// (o/h/l/c/v/vw/n/t) into self-describing field names.
type Bar struct {
	Timestamp    time.Time `json:"timestamp"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume"`
	VWAP         float64   `json:"vwap,omitempty"`
	Transactions int64     `json:"transactions,omitempty"`
}

// HistoricalResponse wraps reshaped bars for the historical endpoint.
type HistoricalResponse struct {
	Results []Bar `json:"results"`
}

// VolumeResponse reports the summed intraday volume for a symbol.
type VolumeResponse struct {
	Symbol string  `json:"symbol"`
	Volume float64 `json:"volume"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
	StatusUnknown   = "unknown"   // Status indeterminate
)

// Standard HTTP Error Codes
//
// Error Code Strategy:
// - Upper-case with underscores for consistency
// - Maps to standard HTTP status codes
// - Machine-readable for client error handling
const (
	ErrorCodeNotFound       = "NOT_FOUND"           // 404: Route or resource doesn't exist
	ErrorCodeBadRequest     = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeInvalidRequest = "INVALID_REQUEST"     // 400: Invalid request data
	ErrorCodeInternalError  = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeUnauthorized   = "UNAUTHORIZED"        // 401: Missing or invalid license key
	ErrorCodeRateLimited    = "RATE_LIMIT_EXCEEDED" // 429: Per-license ceiling reached
	ErrorCodeUpstreamError  = "UPSTREAM_ERROR"      // 500: Provider call failed
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
