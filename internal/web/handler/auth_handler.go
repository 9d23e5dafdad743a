package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/freekieb7/go-newsgate/internal/auth"
	"github.com/freekieb7/go-newsgate/internal/config"
	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
	"github.com/freekieb7/go-newsgate/internal/web/response"
)

// AuthHandler serves the credential endpoints. Which of them exist depends
// on the deployment's auth mode.
type AuthHandler struct {
	Auth   *auth.Service
	Mode   config.AuthMode
	Logger *slog.Logger
}

func NewAuthHandler(authService *auth.Service, mode config.AuthMode, logger *slog.Logger) AuthHandler {
	return AuthHandler{
		Auth:   authService,
		Mode:   mode,
		Logger: logger,
	}
}

// RegisterRoutes mounts the auth routes behind wrap. They are never behind
// the authentication requirement.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	switch h.Mode {
	case config.AuthModeSecret:
		mux.Handle("POST /token", wrap(http.HandlerFunc(h.HandleSecretToken)))
	default:
		mux.Handle("GET /code", wrap(http.HandlerFunc(h.HandleCode)))
		mux.Handle("GET /token", wrap(http.HandlerFunc(h.HandleCodeToken)))
	}
}

type codeResponse struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// HandleCode issues a one-time code for client_id.
func (h *AuthHandler) HandleCode(w http.ResponseWriter, r *http.Request) {
	p := newParams(r.URL.Query())
	clientID := p.String("client_id", 0)
	if err := p.Err(); err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	code, err := h.Auth.IssueCode(r.Context(), clientID)
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, codeResponse{Code: code})
}

// HandleCodeToken exchanges client credentials and a code for a token.
func (h *AuthHandler) HandleCodeToken(w http.ResponseWriter, r *http.Request) {
	p := newParams(r.URL.Query())
	clientID := p.String("client_id", 0)
	clientSecret := p.String("client_secret", 0)
	code := p.String("code", 0)
	if err := p.Err(); err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	token, err := h.Auth.ExchangeCodeForToken(r.Context(), clientID, clientSecret, code)
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, tokenResponse{Token: token.Token})
}

// HandleSecretToken exchanges the client secret, sent as JSON or as a form,
// for a token.
func (h *AuthHandler) HandleSecretToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	values, err := secretRequestValues(r)
	if err != nil {
		response.ErrorResponse(w, apperrors.Wrap(err, apperrors.CodeValidationFailed, "Invalid request body"), h.Logger)
		return
	}

	p := newParams(values)
	clientSecret := p.String("client_secret", 1)
	if err := p.Err(); err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	token, err := h.Auth.ExchangeSecretForToken(r.Context(), clientSecret)
	if err != nil {
		response.ErrorResponse(w, err, h.Logger)
		return
	}

	response.SuccessResponse(w, tokenResponse{Token: token.Token})
}

func secretRequestValues(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	var body struct {
		ClientSecret *string `json:"client_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}

	values := url.Values{}
	if body.ClientSecret != nil {
		values.Set("client_secret", *body.ClientSecret)
	}
	return values, nil
}
