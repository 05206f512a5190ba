package auth

import (
	"crypto/rand"

	"github.com/goliatone/go-errors"
)

const signingKeySize = 32

// SigningKey holds the process-wide HMAC key. Generated once at startup,
// never persisted, never rotated in-process; concurrent reads need no
// synchronization because the bytes are write-once.
type SigningKey struct {
	key []byte
}

// NewSigningKey generates a fresh random key. Every token signed by a
// previous process is invalid from here on.
func NewSigningKey() (*SigningKey, error) {
	key := make([]byte, signingKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate signing key")
	}
	return &SigningKey{key: key}, nil
}

// SigningKeyFromBytes wraps externally supplied key material. Intended for
// tests and for deployments that inject a key from a secret store.
func SigningKeyFromBytes(key []byte) (*SigningKey, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key must not be empty", errors.CategoryBadInput)
	}
	out := make([]byte, len(key))
	copy(out, key)
	return &SigningKey{key: out}, nil
}

// Bytes returns a copy so callers cannot mutate the shared key.
func (k *SigningKey) Bytes() []byte {
	out := make([]byte, len(k.key))
	copy(out, k.key)
	return out
}
