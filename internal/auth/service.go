package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghijklmnopqrstuvwxyz"
	codeMinLength = 8
	codeMaxLength = 10
)

// Token is what a successful exchange hands back to the caller.
type Token struct {
	Token  string
	Claims Claims
}

// Service issues authorization codes and exchanges them, or the bare client
// secret, for signed access tokens.
type Service struct {
	Codes       *CodeStore
	Credentials CredentialVerifier
	Signer      *Signer
	Logger      *slog.Logger

	randomCode func() (string, error)
}

func NewService(codes *CodeStore, credentials CredentialVerifier, signer *Signer, logger *slog.Logger) *Service {
	return &Service{
		Codes:       codes,
		Credentials: credentials,
		Signer:      signer,
		Logger:      logger,
		randomCode:  GenerateCode,
	}
}

// IssueCode generates a fresh code for clientID, replacing any previous one.
func (s *Service) IssueCode(ctx context.Context, clientID string) (string, error) {
	code, err := s.randomCode()
	if err != nil {
		return "", apperrors.InternalError("failed to generate code", err)
	}

	s.Codes.Put(clientID, code)
	s.Logger.DebugContext(ctx, "Authorization code issued", slog.String("client_id", clientID))
	return code, nil
}

// ExchangeCodeForToken redeems a previously issued code. Credentials are
// checked first, so a wrong secret is always reported as ClientNotFound.
func (s *Service) ExchangeCodeForToken(ctx context.Context, clientID, clientSecret, code string) (Token, error) {
	if !s.Credentials.VerifyPair(clientID, clientSecret) {
		s.Logger.WarnContext(ctx, "Client credentials rejected", slog.String("client_id", clientID))
		return Token{}, apperrors.ClientNotFoundError(nil)
	}

	stored, ok := s.Codes.Get(clientID)
	if !ok {
		return Token{}, apperrors.CodeExpiredError(nil)
	}
	if !constantTimeEqual(stored.Code, code) {
		return Token{}, apperrors.InvalidCodeError(nil)
	}

	return s.issueToken(ctx)
}

// ExchangeSecretForToken skips the code step and trades the client secret
// directly for a token.
func (s *Service) ExchangeSecretForToken(ctx context.Context, clientSecret string) (Token, error) {
	if !s.Credentials.VerifySecret(clientSecret) {
		s.Logger.WarnContext(ctx, "Client secret rejected")
		return Token{}, apperrors.ClientNotFoundError(nil)
	}
	return s.issueToken(ctx)
}

// VerifyToken validates a bearer token presented by a caller.
func (s *Service) VerifyToken(raw string) (Claims, error) {
	return s.Signer.Verify(raw)
}

func (s *Service) issueToken(ctx context.Context) (Token, error) {
	signed, claims, err := s.Signer.Issue()
	if err != nil {
		return Token{}, apperrors.InternalError("failed to issue token", err)
	}
	s.Logger.InfoContext(ctx, "Access token issued", slog.Time("expires_at", claims.ExpiresAt))
	return Token{Token: signed, Claims: claims}, nil
}

// GenerateCode returns a random alphanumeric code whose length is drawn
// uniformly from [8, 10].
func GenerateCode() (string, error) {
	span := big.NewInt(codeMaxLength - codeMinLength + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("draw code length: %w", err)
	}
	length := codeMinLength + int(n.Int64())

	alphabet := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		idx, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("draw code character: %w", err)
		}
		code[i] = codeAlphabet[idx.Int64()]
	}
	return string(code), nil
}
