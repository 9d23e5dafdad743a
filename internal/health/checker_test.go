package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type fakeCache struct {
	enabled bool
	err     error
}

func (c fakeCache) Enabled() bool                    { return c.enabled }
func (c fakeCache) Health(ctx context.Context) error { return c.err }

func newTestChecker(db Pinger, cache CacheStatus) *Checker {
	return NewChecker(db, cache, slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
}

func TestChecker_CheckHealth(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		db     Pinger
		cache  CacheStatus
		status string
	}{
		{"all healthy", ok, fakeCache{enabled: true}, StatusHealthy},
		{"cache disabled", ok, fakeCache{}, StatusHealthy},
		{"cache down degrades", ok, fakeCache{enabled: true, err: errors.New("dial tcp")}, StatusDegraded},
		{"database down", down, fakeCache{enabled: true}, StatusUnhealthy},
		{"database missing", nil, nil, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := newTestChecker(tt.db, tt.cache).CheckHealth(context.Background())
			assert.Equal(t, tt.status, status.Status)
			assert.Contains(t, status.Components, "database")
			assert.Contains(t, status.Components, "cache")
			assert.Equal(t, "test", status.Version)
		})
	}
}

func TestChecker_Readiness(t *testing.T) {
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	status := newTestChecker(down, fakeCache{enabled: true, err: errors.New("x")}).CheckReadiness(context.Background())

	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.False(t, status.Healthy())
	assert.NotContains(t, status.Components, "cache")
}

func TestChecker_Liveness(t *testing.T) {
	status := newTestChecker(nil, nil).CheckLiveness(context.Background())
	assert.True(t, status.Healthy())
}
