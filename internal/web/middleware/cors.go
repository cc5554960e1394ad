// Package middleware holds the HTTP middleware of the web server.
package middleware

import (
	"net/http"
	"net/url"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// parseAllowedOrigins reads a comma-separated origin list.
func parseAllowedOrigins(env string) mapset.Set[string] {
	origins := mapset.NewThreadUnsafeSet[string]()
	for o := range strings.SplitSeq(env, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins.Add(o)
		}
	}
	return origins
}

// isLocalhostOrigin returns true if the origin is http(s)://localhost with any port.
func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1"
}

// isOriginAllowed checks whether a request origin should receive CORS headers.
func isOriginAllowed(origin string, allowed mapset.Set[string]) bool {
	if origin == "" {
		return false
	}
	return isLocalhostOrigin(origin) || allowed.Contains(origin)
}

// CORS returns middleware that answers cross-origin requests from the
// origins in WEB_ALLOWED_ORIGINS. Localhost is always allowed so a local
// review UI can drive the API.
func CORS() func(http.Handler) http.Handler {
	allowed := parseAllowedOrigins(os.Getenv("WEB_ALLOWED_ORIGINS"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if isOriginAllowed(origin, allowed) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Requested-With")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets headers that keep API responses from being sniffed
// or framed.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	}
}
