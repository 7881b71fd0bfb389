package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/dmitrijs2005/vitae/internal/common"
)

// PasetoSigner issues v4.local tokens (XChaCha20-Poly1305 with a 32-byte key).
type PasetoSigner struct {
	key      paseto.V4SymmetricKey
	validity time.Duration
}

func NewPasetoSigner(symmetricKey []byte, validity time.Duration) (*PasetoSigner, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoSigner{key: key, validity: validity}, nil
}

func (s *PasetoSigner) Sign(userID string, issuedAt time.Time) (string, error) {
	token := paseto.NewToken()
	token.SetIssuedAt(issuedAt)
	token.SetNotBefore(issuedAt)
	if s.validity > 0 {
		token.SetExpiration(issuedAt.Add(s.validity))
	}
	token.SetString("user_id", userID)

	return token.V4Encrypt(s.key, nil), nil
}

func (s *PasetoSigner) Verify(tokenString string) (string, error) {
	// NewParserWithoutExpiryCheck so tokens without exp stay valid;
	// expiry is checked below when the claim is present.
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return "", common.ErrInvalidToken
	}

	if exp, err := token.GetExpiration(); err == nil && time.Now().After(exp) {
		return "", common.ErrTokenExpired
	}

	userID, err := token.GetString("user_id")
	if err != nil || userID == "" {
		return "", common.ErrInvalidToken
	}

	return userID, nil
}

