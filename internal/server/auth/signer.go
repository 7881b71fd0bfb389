// Package auth issues and verifies the bearer tokens returned by login.
package auth

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

const (
	FormatJWT    = "jwt"
	FormatPaseto = "paseto"
)

// Signer produces a tamper-evident token binding a user id and login time,
// and recovers the user id from such a token.
type Signer interface {
	Sign(userID string, issuedAt time.Time) (string, error)
	Verify(token string) (string, error)
}

// NewSigner builds the Signer for the configured token format. A zero
// validity produces tokens without an expiry.
func NewSigner(format string, secret string, validity time.Duration) (Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is empty")
	}
	switch strings.ToLower(format) {
	case "", FormatJWT:
		return NewJWTSigner([]byte(secret), validity), nil
	case FormatPaseto:
		key := sha256.Sum256([]byte(secret))
		return NewPasetoSigner(key[:], validity)
	default:
		return nil, fmt.Errorf("unknown token format %q", format)
	}
}
