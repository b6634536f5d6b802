package usage

import (
	"log/slog"
	"net/http"
	"time"

	"marketgate/internal/license"

	"github.com/gorilla/mux"
)

// Middleware records one usage increment per authorized request. It runs
// after license validation so the key is on the request context; recording
// failures are logged and never fail the request.
func Middleware(store Store) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			licenseKey, ok := license.FromContext(r.Context())
			if ok {
				endpoint := r.URL.Path
				if route := mux.CurrentRoute(r); route != nil {
					if template, err := route.GetPathTemplate(); err == nil {
						endpoint = template
					}
				}

				if err := store.Increment(r.Context(), licenseKey, endpoint, time.Now()); err != nil {
					slog.Warn("Failed to record usage", "endpoint", endpoint, "error", err)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
