package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context, and with it every upstream call and
// store query made on behalf of the request. Handlers see the deadline as a
// context error from whatever they were waiting on.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
