// Package auth holds the credential primitives: bcrypt password hashing and
// HS256 bearer tokens. Neither touches the store.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMalformedDigest is returned by Verify when the stored digest is not a bcrypt hash.
var ErrMalformedDigest = errors.New("auth: malformed password digest")

// DefaultCost matches the cost used for every stored operator hash.
const DefaultCost = 12

// PasswordHasher hashes and verifies operator passwords.
type PasswordHasher struct {
	cost int
	// dummy is compared against when the account does not exist, so that
	// unknown emails take as long as wrong passwords.
	dummy []byte
}

// NewPasswordHasher returns a hasher using cost, or DefaultCost when cost is out of range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("kioskpos-dummy-password"), cost)
	return &PasswordHasher{cost: cost, dummy: dummy}
}

// Hash salts and hashes plaintext. The salt is embedded in the digest.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A wrong password is (false, nil);
// only a digest bcrypt cannot parse yields an error.
func (h *PasswordHasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Join(ErrMalformedDigest, err)
	}
}

// Burn spends one comparison's worth of time against the dummy digest.
func (h *PasswordHasher) Burn(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
