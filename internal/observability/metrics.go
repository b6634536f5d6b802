package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"marketgate/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the gateway's Prometheus metrics on a port separate
// from the proxy listener, so scrapes never pass through the license gate or
// count against a rate limit window.
type MetricsServer struct {
	server *http.Server
	path   string
}

// NewMetricsServer builds the metrics HTTP server from the metrics section of
// the service configuration. When no Prometheus exporter is registered the
// server still starts, serving 404 on the metrics path.
func NewMetricsServer(cfg models.MetricsConfig, provider *Provider) *MetricsServer {
	mux := http.NewServeMux()

	if provider != nil && provider.promExporter != nil {
		mux.Handle(cfg.Path, promhttp.Handler())
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: mux,
		},
		path: cfg.Path,
	}
}

// Start begins serving metrics in a blocking call.
// Returns http.ErrServerClosed on graceful shutdown.
func (ms *MetricsServer) Start() error {
	slog.Info("Starting metrics server", "addr", ms.server.Addr, "path", ms.path)
	return ms.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
