package api

import (
	"crypto/subtle"
	"net/http"
)

// RunTokenAuth is middleware that validates requests against the shared run
// token. It checks the token query parameter first — the scheduler is a
// plain URL pinger — then falls back to the X-Run-Token header.
//
// An empty configured token disables auth (development mode); callers should
// log a warning when that happens.
func RunTokenAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.URL.Query().Get("token")
			if got == "" {
				got = r.Header.Get("X-Run-Token")
			}

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				respondJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"ok":    false,
					"error": "unauthorized",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
