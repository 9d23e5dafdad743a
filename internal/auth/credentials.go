package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials describes the single client this gateway accepts. Exactly which
// fields are set decides how a presented pair is checked: a plain secret is
// compared directly, ClientHash is the hex md5 of the canonical
// "client_id:<id>-client_secret:<secret>" string, and SecretBcrypt is a bcrypt
// hash of the secret alone.
type Credentials struct {
	ClientID     string
	ClientSecret string
	ClientHash   string
	SecretBcrypt string
}

// CredentialVerifier checks client credentials against the configured ones.
type CredentialVerifier struct {
	creds Credentials
}

func NewCredentialVerifier(creds Credentials) CredentialVerifier {
	creds.ClientHash = strings.ToLower(strings.TrimSpace(creds.ClientHash))
	return CredentialVerifier{creds: creds}
}

// ClientDigest returns the md5 digest used by the hashed credential format.
func ClientDigest(clientID, clientSecret string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("client_id:%s-client_secret:%s", clientID, clientSecret)))
	return hex.EncodeToString(sum[:])
}

// VerifyPair reports whether clientID and clientSecret match the known client.
func (v CredentialVerifier) VerifyPair(clientID, clientSecret string) bool {
	switch {
	case v.creds.ClientHash != "":
		return constantTimeEqual(ClientDigest(clientID, clientSecret), v.creds.ClientHash)
	case v.creds.SecretBcrypt != "":
		return constantTimeEqual(clientID, v.creds.ClientID) && v.verifyBcrypt(clientSecret)
	case v.creds.ClientSecret != "":
		idOK := constantTimeEqual(clientID, v.creds.ClientID)
		secretOK := constantTimeEqual(clientSecret, v.creds.ClientSecret)
		return idOK && secretOK
	}
	return false
}

// VerifySecret reports whether clientSecret alone matches the known client.
// The md5 digest format binds the id into the hash, so it is checked with the
// configured client id.
func (v CredentialVerifier) VerifySecret(clientSecret string) bool {
	switch {
	case v.creds.SecretBcrypt != "":
		return v.verifyBcrypt(clientSecret)
	case v.creds.ClientSecret != "":
		return constantTimeEqual(clientSecret, v.creds.ClientSecret)
	case v.creds.ClientHash != "":
		return constantTimeEqual(ClientDigest(v.creds.ClientID, clientSecret), v.creds.ClientHash)
	}
	return false
}

func (v CredentialVerifier) verifyBcrypt(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(v.creds.SecretBcrypt), []byte(secret)) == nil
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
