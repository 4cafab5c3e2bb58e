// Package auth derives and checks the installation's credential digests.
//
// It intentionally avoids policy decisions and storage concerns.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// SecretEntropyBytes is the amount of randomness behind a secret key.
const SecretEntropyBytes = 32

var ErrUnauthorized = errors.New("auth: unauthorized")

// NewSecretKey returns the hex BLAKE3-256 digest of SecretEntropyBytes read
// from r. A nil r reads from crypto/rand.
func NewSecretKey(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	seed := make([]byte, SecretEntropyBytes)
	if _, err := io.ReadFull(r, seed); err != nil {
		return "", fmt.Errorf("auth: read secret entropy: %w", err)
	}
	sum := blake3.Sum256(seed)
	return hex.EncodeToString(sum[:]), nil
}

// Passhash is hex(sha256(credential || secret)). The layout matches hashes
// written by earlier lab installations.
func Passhash(credential, secret string) string {
	sum := sha256.Sum256([]byte(credential + secret))
	return hex.EncodeToString(sum[:])
}

// Verify reports ErrUnauthorized unless password hashes to passhash.
func Verify(passhash, password, secret string) error {
	if passhash == "" {
		return ErrUnauthorized
	}
	want := Passhash(password, secret)
	if subtle.ConstantTimeCompare([]byte(passhash), []byte(want)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Validator validates a login/password pair.
type Validator interface {
	Validate(login, password string) error
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(login, password string) error

func (f FuncValidator) Validate(login, password string) error {
	return f(login, password)
}
