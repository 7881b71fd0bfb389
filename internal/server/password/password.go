// Package password hashes and verifies user passwords.
//
// Two algorithms are supported: bcrypt and argon2id. Digests carry their
// algorithm in the encoded prefix, so Verify works on either kind no matter
// which algorithm the Hasher currently writes with.
package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vitae/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	DefaultBcryptCost = 10

	// MaxBcryptBytes is the longest input bcrypt accepts.
	MaxBcryptBytes = 72
)

var (
	ErrInvalidHash     = errors.New("invalid password hash")
	ErrPasswordTooLong = fmt.Errorf("%w: password exceeds %d bytes", common.ErrValidation, MaxBcryptBytes)
)

// Hasher turns a plaintext password into a salted one-way digest and checks
// candidates against it.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

// New returns a Hasher writing digests with the named algorithm.
func New(algorithm string, bcryptCost int) (Hasher, error) {
	switch strings.ToLower(algorithm) {
	case "", AlgorithmBcrypt:
		if bcryptCost == 0 {
			bcryptCost = DefaultBcryptCost
		}
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
		return &BcryptHasher{Cost: bcryptCost}, nil
	case AlgorithmArgon2id:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unknown password hash algorithm %q", algorithm)
	}
}

// verify dispatches on the digest prefix.
func verify(plain, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return verifyArgon2(plain, digest)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return verifyBcrypt(plain, digest)
	default:
		return false, ErrInvalidHash
	}
}
