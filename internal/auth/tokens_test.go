package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(clock *fakeClock) *Signer {
	signer := NewSigner("test-secret", "demo-client", 30*time.Minute)
	signer.now = clock.Now
	return signer
}

func TestSigner_IssueAndVerify(t *testing.T) {
	clock := newFakeClock()
	signer := newTestSigner(clock)

	raw, claims, err := signer.Issue()
	require.NoError(t, err)
	assert.Equal(t, "demo-client", claims.Subject)
	assert.Equal(t, clock.Now().Add(30*time.Minute), claims.ExpiresAt)

	t.Run("accepted before expiry", func(t *testing.T) {
		clock.Advance(29 * time.Minute)
		got, err := signer.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, "demo-client", got.Subject)
	})

	t.Run("rejected after expiry", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		_, err := signer.Verify(raw)
		assert.True(t, errors.Is(err, ErrTokenExpired), "got %v", err)
	})
}

func TestSigner_Claims(t *testing.T) {
	clock := newFakeClock()
	signer := newTestSigner(clock)

	raw, _, err := signer.Issue()
	require.NoError(t, err)

	var parsed jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)

	assert.Equal(t, "demo-client", parsed.Subject)
	assert.Equal(t, clock.Now().Add(30*time.Minute).Unix(), parsed.ExpiresAt.Unix())
}

func TestSigner_Rejects(t *testing.T) {
	clock := newFakeClock()
	signer := newTestSigner(clock)

	raw, _, err := signer.Issue()
	require.NoError(t, err)

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(raw, ".")
		require.Len(t, parts, 3)
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		_, err := signer.Verify(parts[0] + "." + parts[1] + "." + string(sig))
		assert.True(t, errors.Is(err, ErrTokenInvalid), "got %v", err)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewSigner("another-secret", "demo-client", time.Minute)
		other.now = clock.Now
		foreign, _, err := other.Issue()
		require.NoError(t, err)
		_, err = signer.Verify(foreign)
		assert.True(t, errors.Is(err, ErrTokenInvalid))
	})

	t.Run("wrong subject", func(t *testing.T) {
		other := NewSigner("test-secret", "someone-else", time.Minute)
		other.now = clock.Now
		foreign, _, err := other.Issue()
		require.NoError(t, err)
		_, err = signer.Verify(foreign)
		assert.True(t, errors.Is(err, ErrSubjectMismatch))
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
			_, err := signer.Verify(raw)
			assert.True(t, errors.Is(err, ErrTokenInvalid), raw)
		}
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "demo-client",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		})
		none, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = signer.Verify(none)
		assert.True(t, errors.Is(err, ErrTokenInvalid))
	})

	t.Run("missing expiry", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "demo-client"})
		noExp, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = signer.Verify(noExp)
		assert.Error(t, err)
	})
}
