package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// SecurityHeadersConfig allows customization of security headers
type SecurityHeadersConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ReferrerPolicy        string
	// NoStorePaths are path prefixes whose responses must never be cached.
	NoStorePaths []string
}

// DefaultSecurityHeaders returns the configuration for a JSON API whose
// credential endpoints must not be cached.
func DefaultSecurityHeaders(production bool) SecurityHeadersConfig {
	return SecurityHeadersConfig{
		EnableHSTS:            production,
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		ReferrerPolicy:        "no-referrer",
		NoStorePaths:          []string{"/code", "/token"},
	}
}

func SecurityHeadersWithConfig(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")

			if config.EnableHSTS {
				hstsValue := fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
				if config.HSTSIncludeSubdomains {
					hstsValue += "; includeSubDomains"
				}
				h.Set("Strict-Transport-Security", hstsValue)
			}

			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}

			if hasPathPrefix(r.URL.Path, config.NoStorePaths) {
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSConfig allows customization of CORS headers
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig allows the given origins to call every route.
func DefaultCORSConfig(origins []string) CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-client_secret", RequestIDHeader},
		MaxAge:         86400, // 24 hours
	}
}

// CORSWithConfig answers preflight requests itself and decorates every other
// response for allowed origins.
func CORSWithConfig(config CORSConfig) func(http.Handler) http.Handler {
	wildcard := slices.Contains(config.AllowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowOrigin := false
			switch {
			case wildcard && !config.AllowCredentials:
				allowOrigin = true
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && (wildcard || slices.Contains(config.AllowedOrigins, origin)):
				allowOrigin = true
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if allowOrigin {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Expose-Headers", strings.Join([]string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"}, ", "))

				if config.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if config.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", config.MaxAge))
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasPathPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
