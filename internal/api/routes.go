package api

import (
	"encoding/json"
	"net/http"

	"marketgate/internal/models"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*routeConfig)

type routeConfig struct {
	routerOpts []func(*mux.Router)
	protection []mux.MiddlewareFunc
}

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(rc *routeConfig) {
		rc.routerOpts = append(rc.routerOpts, func(r *mux.Router) {
			r.Use(otelmux.Middleware(serviceName,
				otelmux.WithFilter(func(r *http.Request) bool {
					return r.URL.Path != "/health" &&
						r.URL.Path != "/api/v1/health" &&
						r.URL.Path != "/metrics"
				}),
			))
		})
	}
}

// WithProtection sets the middleware chain applied to every license-gated
// route, in order (license validation, rate limiting, usage accounting).
func WithProtection(middlewares ...mux.MiddlewareFunc) RouteOption {
	return func(rc *routeConfig) {
		rc.protection = append(rc.protection, middlewares...)
	}
}

// SetupRoutes configures the HTTP routes for the API.
//
// Data routes are registered twice, at the bare path and under /api/v1,
// both behind the protection chain. The root and health endpoints stay
// open so load balancers can probe without credentials.
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	rc := &routeConfig{}
	for _, opt := range opts {
		opt(rc)
	}

	router := mux.NewRouter()

	for _, opt := range rc.routerOpts {
		opt(router)
	}

	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.HandleFunc("/", handlers.Home).Methods("GET")
	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	protected := func(handler http.Handler) http.Handler {
		for i := len(rc.protection) - 1; i >= 0; i-- {
			handler = rc.protection[i](handler)
		}
		return handler
	}

	dataRoutes := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/gainers", handlers.Gainers},
		{"/losers", handlers.Losers},
		{"/historical/{symbol}", handlers.Historical},
		{"/float/{symbol}", handlers.Float},
		{"/news/{symbol}", handlers.News},
		{"/volume/{symbol}", handlers.Volume},
		{"/usage", handlers.Usage},
	}

	for _, route := range dataRoutes {
		router.Handle(route.path, protected(route.handler)).Methods("GET")
		router.Handle("/api/v1"+route.path, protected(route.handler)).Methods("GET")
	}

	// Preflight requests must match a route: mux dispatches unmatched
	// methods to MethodNotAllowedHandler without running the middleware
	// chain, so the CORS middleware would never see them. The CORS
	// middleware short-circuits OPTIONS with 204 before this handler runs.
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("OPTIONS")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		errorResp := models.NewErrorResponse("Endpoint not found", models.ErrorCodeNotFound)
		json.NewEncoder(w).Encode(errorResp)
	})

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		errorResp := models.NewErrorResponse("Method not allowed", models.ErrorCodeInvalidRequest)
		json.NewEncoder(w).Encode(errorResp)
	})

	return router
}
