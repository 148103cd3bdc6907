package middleware

import (
	"net/http"
)

// NoStore returns middleware that disables intermediary caching. Search and
// suggest responses are personalized per session and must not be cached.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
