package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/freekieb7/go-newsgate/internal/auth"
	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
	"github.com/freekieb7/go-newsgate/internal/web/response"
)

type authContextKey struct{}

// AuthState is the per-request outcome of bearer token verification.
type AuthState struct {
	Authenticated bool
	Claims        auth.Claims
}

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	VerifyToken(raw string) (auth.Claims, error)
}

// WithAuthState returns a copy of ctx carrying state.
func WithAuthState(ctx context.Context, state AuthState) context.Context {
	return context.WithValue(ctx, authContextKey{}, state)
}

// AuthStateFromContext returns the verification outcome for the request.
// Requests that never passed through Authenticate are unauthenticated.
func AuthStateFromContext(ctx context.Context) AuthState {
	state, _ := ctx.Value(authContextKey{}).(AuthState)
	return state
}

func IsAuthenticated(ctx context.Context) bool {
	return AuthStateFromContext(ctx).Authenticated
}

// Authenticate records on every request whether it carries a valid bearer
// token. It never rejects a request; RequireAuthenticated does that per route.
func Authenticate(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := AuthState{}

			header := r.Header.Get("Authorization")
			if header != "" {
				raw, ok := bearerToken(header)
				if !ok {
					logger.WarnContext(r.Context(), "Invalid Token",
						slog.String("path", r.URL.Path),
						slog.String("error", "malformed authorization header"))
				} else if claims, err := verifier.VerifyToken(raw); err != nil {
					logger.WarnContext(r.Context(), "Invalid Token",
						slog.String("path", r.URL.Path),
						slog.String("reason", tokenFailureReason(err)),
						slog.String("error", err.Error()))
				} else {
					state = AuthState{Authenticated: true, Claims: claims}
				}
			}

			next.ServeHTTP(w, r.WithContext(WithAuthState(r.Context(), state)))
		})
	}
}

// RequireAuthenticated rejects requests Authenticate did not mark as
// authenticated with a 401 envelope.
func RequireAuthenticated(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r.Context()) {
				logger.WarnContext(r.Context(), "Authentication failed", slog.String("path", r.URL.Path))
				response.ErrorResponse(w, apperrors.UnauthorizedError(nil), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrSubjectMismatch):
		return "subject_mismatch"
	default:
		return "invalid"
	}
}
