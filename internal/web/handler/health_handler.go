package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/freekieb7/go-newsgate/internal/health"
	"github.com/freekieb7/go-newsgate/internal/web/response"
)

type HealthHandler struct {
	HealthChecker *health.Checker
}

func NewHealthHandler(healthChecker *health.Checker) HealthHandler {
	return HealthHandler{
		HealthChecker: healthChecker,
	}
}

// RegisterRoutes sets up the health endpoints. They never require a token.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /health/live", h.HandleLiveness)
	mux.HandleFunc("GET /health/ready", h.HandleReadiness)
}

// HandleHealth reports every dependency.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	writeHealth(w, h.HealthChecker.CheckHealth(ctx))
}

// HandleLiveness only confirms the process is serving.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	writeHealth(w, h.HealthChecker.CheckLiveness(ctx))
}

// HandleReadiness checks that the article store is reachable.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	writeHealth(w, h.HealthChecker.CheckReadiness(ctx))
}

func writeHealth(w http.ResponseWriter, status health.HealthStatus) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	httpStatus := http.StatusOK
	if !status.Healthy() {
		httpStatus = http.StatusServiceUnavailable
	}

	response.Write(w, httpStatus, status, "")
}
