package container

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freekieb7/go-newsgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.Server{
			Port:           0,
			Environment:    config.EnvTesting,
			RequestTimeout: 5 * time.Second,
		},
		Auth: config.Auth{
			Mode:         config.AuthModeCode,
			ClientID:     "c1",
			ClientSecret: "secret",
			JWTSecret:    "jwt-secret",
			TokenTTL:     30 * time.Minute,
			CodeTTL:      5 * time.Minute,
			CodeCapacity: 5,
		},
		News: config.News{
			BaseURL:        "http://127.0.0.1:0",
			Timeout:        time.Second,
			DefaultCountry: "us",
		},
		Database:  config.Database{URL: "sqlite::memory:"},
		RateLimit: config.RateLimit{Enabled: true, AuthRequests: 10, APIRequests: 10, WindowDuration: time.Minute},
		CORS:      config.CORS{AllowedOrigins: []string{"*"}},
		LogLevel:  "error",
	}
}

func TestNew(t *testing.T) {
	c, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	assert.False(t, c.Cache.Enabled())
	require.NotNil(t, c.HttpServer)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c.HttpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("code then token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c.HttpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/code?client_id=c1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data struct {
				Code string `json:"code"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		rec = httptest.NewRecorder()
		c.HttpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/token?client_id=c1&client_secret=secret&code="+body.Data.Code, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("saved articles start empty", func(t *testing.T) {
		token, err := c.Auth.ExchangeSecretForToken(context.Background(), "secret")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/news/articles", nil)
		req.Header.Set("Authorization", "Bearer "+token.Token)
		rec := httptest.NewRecorder()
		c.HttpServer.Handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"success":true,"message":"Request Success","totalCount":0,"page":1,"limit":10,"nextPage":null,"prevPage":null,"pageCount":0,"data":[]}`,
			rec.Body.String())
	})
}

func TestNewRejectsUnknownCountry(t *testing.T) {
	cfg := testConfig()
	cfg.News.DefaultCountry = "zz"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewRejectsInvalidTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.TrustedProxies = []string{"proxy.internal"}

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "RATE_LIMIT_TRUSTED_PROXIES")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Server.Environment = config.EnvProduction
	cfg.LogLevel = "info"

	NewLogger(cfg, &buf).Info("hello")
	assert.True(t, json.Valid(buf.Bytes()))
}
