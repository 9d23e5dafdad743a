package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
	"github.com/freekieb7/go-newsgate/internal/web/response"
)

// RateLimit defines rate limiting parameters for a group of routes
type RateLimit struct {
	Requests int           // Number of requests allowed
	Window   time.Duration // Time window for the requests
	KeyFunc  KeyFunction   // Function to generate the rate limiting key
	Scope    string        // Keeps limits of different route groups apart
}

// KeyFunction defines how to generate the rate limiting key from the request
type KeyFunction func(r *http.Request) string

// KeyByIP generates keys based on the connecting peer address. Forwarding
// headers are ignored; use KeyByClientIP behind a proxy.
var KeyByIP KeyFunction = func(r *http.Request) string {
	return GetClientIP(r, nil)
}

// KeyByClientIP keys on the client address reported by the given proxies.
func KeyByClientIP(trusted []netip.Prefix) KeyFunction {
	if len(trusted) == 0 {
		return KeyByIP
	}
	return func(r *http.Request) string {
		return GetClientIP(r, trusted)
	}
}

// ParseTrustedProxies accepts plain addresses and CIDR ranges.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy range %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy address %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// GetClientIP extracts the client IP from the request. X-Forwarded-For and
// X-Real-IP only count when the peer is one of the trusted proxies.
func GetClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}

	if !isTrustedProxy(peer, trusted) {
		return peer
	}

	// X-Forwarded-For: first entry is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return peer
}

func isTrustedProxy(peer string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware rejects callers over limit with a 429 envelope and
// reports the budget in X-RateLimit-* headers. Limiter failures let the
// request through.
func RateLimitMiddleware(rateLimiter RateLimiter, limit RateLimit, logger *slog.Logger) func(http.Handler) http.Handler {
	keyFunc := limit.KeyFunc
	if keyFunc == nil {
		keyFunc = KeyByIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				key = "unknown"
			}
			if limit.Scope != "" {
				key = limit.Scope + ":" + key
			}

			allowed, err := rateLimiter.Allow(r.Context(), key, limit.Requests, limit.Window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limiter failed",
					slog.String("key", key),
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			remaining, _ := rateLimiter.GetRemaining(r.Context(), key, limit.Requests, limit.Window)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Window", limit.Window.String())

			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(limit.Window.Seconds())))
				response.ErrorResponse(w, apperrors.RateLimitedError("Rate limit exceeded", nil), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
