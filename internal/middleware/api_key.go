package middleware

import (
	"net/http"
)

// APIKey validates the X-API-Key header on service-to-service mutation
// routes. Mutations must flow through this service's dispatcher, so only the
// marketplace's own collaborators (enrollment flow, lesson player, review
// feature) hold the key.
func APIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" || providedKey != apiKey {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or missing API key"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
