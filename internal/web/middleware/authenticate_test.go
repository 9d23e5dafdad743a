package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freekieb7/go-newsgate/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	valid map[string]auth.Claims
	err   error
}

func (s stubVerifier) VerifyToken(raw string) (auth.Claims, error) {
	if claims, ok := s.valid[raw]; ok {
		return claims, nil
	}
	if s.err != nil {
		return auth.Claims{}, s.err
	}
	return auth.Claims{}, auth.ErrTokenInvalid
}

func captureState(got *AuthState) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = AuthStateFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	claims := auth.Claims{Subject: "demo-client", ExpiresAt: time.Now().Add(time.Hour)}
	verifier := stubVerifier{valid: map[string]auth.Claims{"good": claims}}

	tests := []struct {
		name   string
		header string
		want   bool
		warns  bool
	}{
		{"no header", "", false, false},
		{"valid bearer", "Bearer good", true, false},
		{"case insensitive scheme", "bearer good", true, false},
		{"invalid token", "Bearer bad", false, true},
		{"wrong scheme", "Basic good", false, true},
		{"missing token", "Bearer ", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))

			var state AuthState
			handler := Authenticate(verifier, logger)(captureState(&state))

			req := httptest.NewRequest(http.MethodGet, "/news", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusNoContent, rr.Code, "the gate never rejects")
			assert.Equal(t, tt.want, state.Authenticated)
			if tt.want {
				assert.Equal(t, "demo-client", state.Claims.Subject)
			}
			if tt.warns {
				assert.Contains(t, logs.String(), "Invalid Token")
				assert.Contains(t, logs.String(), "path=/news")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestAuthenticate_LogsReason(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	verifier := stubVerifier{err: errors.Join(auth.ErrTokenExpired, errors.New("token is expired"))}

	var state AuthState
	handler := Authenticate(verifier, logger)(captureState(&state))

	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	req.Header.Set("Authorization", "Bearer old")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, state.Authenticated)
	assert.Contains(t, logs.String(), "reason=expired")
}

func TestRequireAuthenticated(t *testing.T) {
	verifier := stubVerifier{valid: map[string]auth.Claims{"good": {Subject: "demo-client"}}}
	handler := Chain(
		Authenticate(verifier, discardLogger()),
		RequireAuthenticated(discardLogger()),
	)(okHandler())

	t.Run("rejects unauthenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/news", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Authentication Failed! Invalid Credentials!", body["message"])
	})

	t.Run("passes authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/news", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("without gate", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RequireAuthenticated(discardLogger())(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/news", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthenticate_RealSigner(t *testing.T) {
	signer := auth.NewSigner("secret", "demo-client", time.Minute)
	raw, _, err := signer.Issue()
	require.NoError(t, err)

	var state AuthState
	handler := Authenticate(signerVerifier{signer}, discardLogger())(captureState(&state))

	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, state.Authenticated)

	req = httptest.NewRequest(http.MethodGet, "/news", nil)
	req.Header.Set("Authorization", "Bearer "+raw+"x")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, state.Authenticated)
}

type signerVerifier struct{ *auth.Signer }

func (s signerVerifier) VerifyToken(raw string) (auth.Claims, error) {
	return s.Verify(raw)
}
