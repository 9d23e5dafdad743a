package handler

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/freekieb7/go-newsgate/internal/auth"
	"github.com/freekieb7/go-newsgate/internal/config"
	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
	"github.com/freekieb7/go-newsgate/internal/health"
	"github.com/freekieb7/go-newsgate/internal/news"
	"github.com/freekieb7/go-newsgate/internal/web/middleware"
	"github.com/freekieb7/go-newsgate/internal/web/response"
)

// Dependencies is everything the routes are built from. A nil RateLimiter
// disables rate limiting.
type Dependencies struct {
	Auth        *auth.Service
	AuthMode    config.AuthMode
	News        *news.Service
	Health      *health.Checker
	RateLimiter middleware.RateLimiter
	RateLimit   config.RateLimit
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
	Logger         *slog.Logger
}

// Router dispatches to the registered routes and answers unmatched
// requests with an envelope instead of the mux's plain-text replies.
type Router struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

func NewRouter(deps Dependencies) *Router {
	mux := http.NewServeMux()

	authRoutes := middleware.Chain()
	newsRoutes := middleware.Chain(middleware.RequireAuthenticated(deps.Logger))
	if deps.RateLimiter != nil {
		keyFunc := middleware.KeyByClientIP(deps.TrustedProxies)
		authRoutes = middleware.Chain(
			middleware.RateLimitMiddleware(deps.RateLimiter, middleware.RateLimit{
				Requests: deps.RateLimit.AuthRequests,
				Window:   deps.RateLimit.WindowDuration,
				KeyFunc:  keyFunc,
				Scope:    "auth",
			}, deps.Logger),
		)
		newsRoutes = middleware.Chain(
			middleware.RequireAuthenticated(deps.Logger),
			middleware.RateLimitMiddleware(deps.RateLimiter, middleware.RateLimit{
				Requests: deps.RateLimit.APIRequests,
				Window:   deps.RateLimit.WindowDuration,
				KeyFunc:  keyFunc,
				Scope:    "news",
			}, deps.Logger),
		)
	}

	authHandler := NewAuthHandler(deps.Auth, deps.AuthMode, deps.Logger)
	authHandler.RegisterRoutes(mux, authRoutes)

	newsHandler := NewNewsHandler(deps.News, deps.Logger)
	newsHandler.RegisterRoutes(mux, newsRoutes)

	if deps.Health != nil {
		healthHandler := NewHealthHandler(deps.Health)
		healthHandler.RegisterRoutes(mux)
	}

	return &Router{mux: mux, logger: deps.Logger}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, pattern := rt.mux.Handler(r)
	if pattern != "" {
		rt.mux.ServeHTTP(w, r)
		return
	}

	// Let the mux decide between 404 and 405, then replace its body.
	captured := &statusCapture{header: make(http.Header)}
	h.ServeHTTP(captured, r)

	if captured.status == http.StatusMethodNotAllowed {
		if allow := captured.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		response.ErrorResponse(w, apperrors.MethodNotAllowedError(response.MsgMethodNotAllowed), rt.logger)
		return
	}
	response.NotFound(w, r)
}

type statusCapture struct {
	header http.Header
	status int
}

func (p *statusCapture) Header() http.Header { return p.header }

func (p *statusCapture) Write(b []byte) (int, error) {
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return len(b), nil
}

func (p *statusCapture) WriteHeader(status int) {
	if p.status == 0 {
		p.status = status
	}
}
