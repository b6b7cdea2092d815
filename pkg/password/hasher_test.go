package password

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := New(WithCost(bcrypt.MinCost))

	hash, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if hash == "correct-horse" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := h.Verify("correct-horse", hash); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
	if err := h.Verify("wrong-password", hash); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() error = %v, want %v", err, ErrPasswordMismatch)
	}
	if err := h.Verify("correct-horse", "not-a-bcrypt-hash"); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("Verify() error = %v, want %v", err, ErrInvalidHash)
	}
}

func TestHashRejectsShortPasswords(t *testing.T) {
	h := New(WithCost(bcrypt.MinCost))
	if _, err := h.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("Hash() error = %v, want %v", err, ErrPasswordTooShort)
	}
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken() error: %v", err)
	}
	b, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken() error: %v", err)
	}
	if a == b {
		t.Error("two session tokens must not collide")
	}
	if len(a) < 32 {
		t.Errorf("token too short: %d chars", len(a))
	}
}
