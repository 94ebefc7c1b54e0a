package secure

import (
	"errors"
	"testing"
	"time"
)

func newTestBox(t *testing.T) *Box {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	b, err := NewBox(key)
	if err != nil {
		t.Fatalf("NewBox() failed: %v", err)
	}
	return b
}

func TestBox_EncryptDecrypt(t *testing.T) {
	b := newTestBox(t)

	t.Run("round trip", func(t *testing.T) {
		tok, err := b.Encrypt("uQiRzpo4DXghDmr9QzzfQu27cmVRsG")
		if err != nil {
			t.Fatalf("Encrypt() failed: %v", err)
		}
		if tok == "uQiRzpo4DXghDmr9QzzfQu27cmVRsG" {
			t.Fatal("Expected ciphertext to differ from plaintext")
		}

		plain, err := b.Decrypt(tok)
		if err != nil {
			t.Fatalf("Decrypt() failed: %v", err)
		}
		if plain != "uQiRzpo4DXghDmr9QzzfQu27cmVRsG" {
			t.Errorf("Expected original plaintext, got %q", plain)
		}
	})

	t.Run("empty stays empty", func(t *testing.T) {
		tok, _ := b.Encrypt("")
		if tok != "" {
			t.Errorf("Expected empty token, got %q", tok)
		}
		plain, err := b.Decrypt("")
		if err != nil || plain != "" {
			t.Errorf("Expected empty plaintext, got %q, %v", plain, err)
		}
	})

	t.Run("foreign key cannot decrypt", func(t *testing.T) {
		tok, _ := b.Encrypt("secret")
		other := newTestBox(t)

		if _, err := other.Decrypt(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestNewBox(t *testing.T) {
	t.Run("derives a key from a passphrase", func(t *testing.T) {
		a, err := NewBox("correct horse battery staple")
		if err != nil {
			t.Fatalf("NewBox() failed: %v", err)
		}
		b, _ := NewBox("correct horse battery staple")

		tok, _ := a.Encrypt("x")
		if plain, err := b.Decrypt(tok); err != nil || plain != "x" {
			t.Errorf("Expected same passphrase to share a key, got %q, %v", plain, err)
		}
	})

	t.Run("rejects an empty secret", func(t *testing.T) {
		if _, err := NewBox(""); !errors.Is(err, ErrEmptySecret) {
			t.Errorf("Expected ErrEmptySecret, got %v", err)
		}
	})
}

// TestBox_Session tests session issue and verification.
//
// WHY: Sessions are the only authentication on every portfolio endpoint.
func TestBox_Session(t *testing.T) {
	b := newTestBox(t)

	t.Run("valid session", func(t *testing.T) {
		tok, err := b.IssueSession("alice")
		if err != nil {
			t.Fatalf("IssueSession() failed: %v", err)
		}

		user, err := b.VerifySession(tok, time.Hour)
		if err != nil {
			t.Fatalf("VerifySession() failed: %v", err)
		}
		if user != "alice" {
			t.Errorf("Expected alice, got %q", user)
		}
	})

	t.Run("encrypted secrets are not sessions", func(t *testing.T) {
		tok, _ := b.Encrypt("alice")

		if _, err := b.VerifySession(tok, time.Hour); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	// WHY: Users choose their Pushover key freely. A key shaped like a session
	// payload must not turn its stored ciphertext into a login token.
	t.Run("secret shaped like a session payload is not a session", func(t *testing.T) {
		tok, err := b.Encrypt(sessionPrefix + "alice")
		if err != nil {
			t.Fatalf("Encrypt() failed: %v", err)
		}

		if user, err := b.VerifySession(tok, time.Hour); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got user %q, err %v", user, err)
		}
	})

	t.Run("session tokens do not decrypt as secrets", func(t *testing.T) {
		tok, _ := b.IssueSession("alice")

		if _, err := b.Decrypt(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		tok, _ := b.IssueSession("alice")
		tampered := tok[:len(tok)-2] + "AA"

		if _, err := b.VerifySession(tampered, time.Hour); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := b.VerifySession("", time.Hour); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}
