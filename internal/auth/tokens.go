package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. They are told apart in logs only; callers of the
// gate see a plain unauthenticated request either way.
var (
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenInvalid    = errors.New("token is invalid")
	ErrSubjectMismatch = errors.New("token subject does not match server identity")
)

// Claims carried by an access token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Signer issues and verifies HS256 access tokens. Tokens are stateless: the
// signature and expiry are the whole proof of validity.
type Signer struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(secret, subject string, ttl time.Duration) *Signer {
	return &Signer{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Subject returns the fixed server identity every token is issued for.
func (s *Signer) Subject() string {
	return s.subject
}

// Issue returns a signed token for the server identity that expires after the
// configured TTL.
func (s *Signer) Issue() (string, Claims, error) {
	now := s.now()
	claims := Claims{Subject: s.subject, ExpiresAt: now.Add(s.ttl)}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry and subject of raw.
func (s *Signer) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrTokenInvalid
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if parsed.Subject == "" || parsed.Subject != s.subject {
		return Claims{}, ErrSubjectMismatch
	}

	return Claims{Subject: parsed.Subject, ExpiresAt: parsed.ExpiresAt.Time}, nil
}
