// Package secure encrypts secrets at rest and issues signed session tokens.
//
// Both use fernet tokens (AES-128-CBC + HMAC-SHA256). Secrets are sealed with
// the application key and sessions with a key derived from it, so a stored
// ciphertext never verifies as a session whatever plaintext it holds.
package secure

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
)

const (
	sessionPrefix = "session:"

	// sessionKeyLabel separates the session key from the secrets key.
	sessionKeyLabel = "stock-tracker/session"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrEmptySecret  = errors.New("secret key is empty")
)

// Box holds the application key and the session key derived from it.
type Box struct {
	keys        []*fernet.Key
	sessionKeys []*fernet.Key
}

// NewBox builds a Box from SECRET_KEY. A base64-encoded 32 byte fernet key is
// used as is; any other non-empty string is stretched with SHA-256.
func NewBox(secret string) (*Box, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key, err := fernet.DecodeKey(secret)
	if err != nil {
		derived := fernet.Key(sha256.Sum256([]byte(secret)))
		key = &derived
	}

	return &Box{
		keys:        []*fernet.Key{key},
		sessionKeys: []*fernet.Key{deriveKey(key, sessionKeyLabel)},
	}, nil
}

// deriveKey returns HMAC-SHA256(key, label) as a fernet key.
func deriveKey(key *fernet.Key, label string) *fernet.Key {
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(label)) //nolint:errcheck // hash.Hash writes never fail

	var derived fernet.Key
	copy(derived[:], mac.Sum(nil))
	return &derived
}

// GenerateKey returns a fresh base64-encoded fernet key.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return k.Encode(), nil
}

// Encrypt seals plain. The empty string stays empty.
func (b *Box) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plain), b.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return string(tok), nil
}

// Decrypt opens a value produced by Encrypt.
func (b *Box) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, b.keys)
	if msg == nil {
		return "", ErrInvalidToken
	}
	return string(msg), nil
}

// IssueSession returns a session token for username.
func (b *Box) IssueSession(username string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(sessionPrefix+username), b.sessionKeys[0])
	if err != nil {
		return "", fmt.Errorf("failed to issue session: %w", err)
	}
	return string(tok), nil
}

// VerifySession returns the username of a session token younger than ttl.
func (b *Box) VerifySession(token string, ttl time.Duration) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), ttl, b.sessionKeys)
	if msg == nil {
		return "", ErrInvalidToken
	}

	username, ok := strings.CutPrefix(string(msg), sessionPrefix)
	if !ok || username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}
