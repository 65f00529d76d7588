package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// sealedPrefix marks a value produced by Seal with a key
	sealedPrefix = "enc:v1:"
	// plainPrefix marks unsealed text that would otherwise read as marked
	plainPrefix = "txt:v1:"
)

const nonceSize = 24

// ErrOpen is returned when a sealed value cannot be authenticated
var ErrOpen = errors.New("failed to open sealed value")

// Sealer encrypts short text values at rest using NaCl secretbox.
// A nil *Sealer passes values through unchanged.
type Sealer struct {
	key [32]byte
}

// NewSealer creates a sealer from a hex encoded 32 byte key
func NewSealer(hexKey string) (*Sealer, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid message key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("message key must be 32 bytes, got %d", len(raw))
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

// Seal encrypts plaintext under a fresh random nonce. Without a key the
// text is stored as is, unless it starts with one of the markers.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if s == nil {
		if IsSealed(plaintext) || strings.HasPrefix(plaintext, plainPrefix) {
			return plainPrefix + plaintext, nil
		}
		return plaintext, nil
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// were written without a key and are returned as is.
func (s *Sealer) Open(value string) (string, error) {
	if rest, ok := strings.CutPrefix(value, plainPrefix); ok {
		return rest, nil
	}
	if !IsSealed(value) {
		return value, nil
	}
	if s == nil {
		return "", fmt.Errorf("%w: no key configured", ErrOpen)
	}
	box, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	out, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpen
	}
	return string(out), nil
}

// IsSealed reports whether value carries the sealed prefix
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}
