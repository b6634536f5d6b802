package license

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"marketgate/internal/models"

	"github.com/gorilla/mux"
)

// Middleware enforces the license gate on protected routes. Requests with a
// missing or unknown X-License-Key header are rejected with 401 before any
// rate-limit accounting happens; valid keys are stored on the request context
// for downstream middleware and handlers.
func Middleware(validator *Validator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(Header)
			if !validator.Validate(key) {
				slog.Warn("Invalid license key",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)

				errorResp := models.NewErrorResponse("Invalid license key", models.ErrorCodeUnauthorized)
				json.NewEncoder(w).Encode(errorResp)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), key)))
		})
	}
}
