// Package crypto provides the optional at-rest sealing of stored account
// passwords. The store persists whatever the configured codec produces, so
// swapping plaintext storage for sealed storage never touches callers.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidCiphertext is returned by Open when the stored value is not a
// valid sealed credential (wrong key, truncated value, or tampering).
var ErrInvalidCiphertext = errors.New("invalid credential ciphertext")

// CredentialCodec converts between the user-supplied password and its
// persisted representation.
type CredentialCodec interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
}

// NewCredentialCodec returns a sealing codec when key is a 32-byte
// XChaCha20-Poly1305 key, or the plaintext pass-through when key is nil.
func NewCredentialCodec(key []byte) (CredentialCodec, error) {
	if len(key) == 0 {
		return plaintextCodec{}, nil
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("error creating credential cipher: %w", err)
	}

	return &sealedCodec{aead: aead}, nil
}

// plaintextCodec stores passwords as received. It preserves the observed
// behavior of the deployment when no credential key is configured.
type plaintextCodec struct{}

func (plaintextCodec) Seal(plaintext string) (string, error) { return plaintext, nil }
func (plaintextCodec) Open(stored string) (string, error)    { return stored, nil }

// sealedCodec seals passwords with XChaCha20-Poly1305. The random nonce is
// prepended to the ciphertext and the whole value is base64-encoded with a
// versioned prefix so plaintext rows written before the key was configured
// are still readable.
type sealedCodec struct {
	aead cipher.AEAD
}

const sealedPrefix = "v1:"

func (c *sealedCodec) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("error generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *sealedCodec) Open(stored string) (string, error) {
	if len(stored) < len(sealedPrefix) || stored[:len(sealedPrefix)] != sealedPrefix {
		// row predates the credential key
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(stored[len(sealedPrefix):])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}

	if len(raw) < c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}

	return string(plaintext), nil
}
