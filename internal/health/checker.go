package health

import (
	"context"
	"log/slog"
	"time"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStatus is the view of the cache the checker needs.
type CacheStatus interface {
	Enabled() bool
	Health(ctx context.Context) error
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Checker provides liveness and readiness checks
type Checker struct {
	DB      Pinger
	Cache   CacheStatus
	Logger  *slog.Logger
	Version string
	started time.Time
	now     func() time.Time
}

func NewChecker(db Pinger, cache CacheStatus, logger *slog.Logger, version string) *Checker {
	return &Checker{
		DB:      db,
		Cache:   cache,
		Logger:  logger,
		Version: version,
		started: time.Now(),
		now:     time.Now,
	}
}

// HealthStatus is the overall result with one entry per dependency.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
	Critical  bool    `json:"critical"`
}

func (s HealthStatus) Healthy() bool {
	return s.Status != StatusUnhealthy
}

// CheckHealth checks every dependency. The cache is not critical: an
// unreachable cache degrades the service but does not make it unhealthy.
func (h *Checker) CheckHealth(ctx context.Context) HealthStatus {
	components := map[string]ComponentHealth{
		"database": h.checkDatabase(ctx),
		"cache":    h.checkCache(ctx),
	}

	now := h.now()
	return HealthStatus{
		Status:     determineOverallStatus(components),
		Timestamp:  now.UTC().Format(time.RFC3339),
		Version:    h.Version,
		Uptime:     now.Sub(h.started).Truncate(time.Second).String(),
		Components: components,
	}
}

// CheckLiveness only proves the process is serving requests.
func (h *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusHealthy,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Components: map[string]ComponentHealth{
			"process": {Status: StatusHealthy, Message: "service is responsive", Critical: true},
		},
	}
}

// CheckReadiness checks only the dependencies requests cannot be served without.
func (h *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	components := map[string]ComponentHealth{
		"database": h.checkDatabase(ctx),
	}

	return HealthStatus{
		Status:     determineOverallStatus(components),
		Timestamp:  h.now().UTC().Format(time.RFC3339),
		Components: components,
	}
}

func (h *Checker) checkDatabase(ctx context.Context) ComponentHealth {
	if h.DB == nil {
		return ComponentHealth{Status: StatusUnhealthy, Message: "database not configured", Critical: true}
	}

	start := h.now()
	err := h.DB.Ping(ctx)
	latency := h.now().Sub(start)

	if err != nil {
		h.Logger.Error("Database health check failed", "error", err, "latency", latency)
		return ComponentHealth{
			Status:    StatusUnhealthy,
			Message:   "database connection failed: " + err.Error(),
			LatencyMS: millis(latency),
			Critical:  true,
		}
	}

	status, message := StatusHealthy, "database connection successful"
	if latency > 5*time.Second {
		status, message = StatusUnhealthy, "database response time too slow"
	} else if latency > 100*time.Millisecond {
		status, message = StatusDegraded, "database response time elevated"
	}

	return ComponentHealth{Status: status, Message: message, LatencyMS: millis(latency), Critical: true}
}

func (h *Checker) checkCache(ctx context.Context) ComponentHealth {
	if h.Cache == nil || !h.Cache.Enabled() {
		return ComponentHealth{Status: StatusHealthy, Message: "cache disabled"}
	}

	start := h.now()
	err := h.Cache.Health(ctx)
	latency := h.now().Sub(start)

	if err != nil {
		h.Logger.Warn("Cache health check failed", "error", err)
		return ComponentHealth{
			Status:    StatusDegraded,
			Message:   "redis cache unavailable: " + err.Error(),
			LatencyMS: millis(latency),
		}
	}
	return ComponentHealth{Status: StatusHealthy, Message: "cache operational", LatencyMS: millis(latency)}
}

func determineOverallStatus(components map[string]ComponentHealth) string {
	hasDegraded := false
	for _, component := range components {
		if component.Critical && component.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if component.Status != StatusHealthy {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
