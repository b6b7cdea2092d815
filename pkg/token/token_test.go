package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

func newTestKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	return pub, priv
}

func newTestLicense(t *testing.T) *license.License {
	t.Helper()
	p := plan.Plan{
		Tier:         plan.TierProfessional,
		Name:         "Professional",
		PriceUSD:     99,
		ProjectLimit: 25,
		DurationDays: 30,
		Features:     []plan.Feature{plan.FeatureTestGeneration, plan.FeatureAIEnhancement},
	}
	lic, err := license.New("user@example.com", p, 30)
	if err != nil {
		t.Fatalf("create license: %v", err)
	}
	return lic
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv := newTestKeys(t)
	signer, err := NewSigner(priv, Config{Issuer: "testmate-licensing"})
	if err != nil {
		t.Fatalf("NewSigner() error: %v", err)
	}
	verifier, err := NewVerifier(pub)
	if err != nil {
		t.Fatalf("NewVerifier() error: %v", err)
	}

	lic := newTestLicense(t)
	signed, err := signer.Sign(lic)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	claims, err := verifier.Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}

	if claims.LicenseID != lic.ID().String() {
		t.Errorf("LicenseID = %q, want %q", claims.LicenseID, lic.ID().String())
	}
	if claims.Holder() != "user@example.com" {
		t.Errorf("Holder() = %q, want user@example.com", claims.Holder())
	}
	if claims.Tier != plan.TierProfessional {
		t.Errorf("Tier = %q, want professional", claims.Tier)
	}
	if claims.ProjectLimit != 25 {
		t.Errorf("ProjectLimit = %d, want 25", claims.ProjectLimit)
	}
	if len(claims.Features) != 2 {
		t.Errorf("Features = %v, want 2 entries", claims.Features)
	}
	// Unix-second truncation is expected from the encoding.
	if got := claims.ExpiresAtTime(); got.Unix() != lic.ExpiresAt().Unix() {
		t.Errorf("ExpiresAtTime() = %v, want %v", got, lic.ExpiresAt())
	}

	id, err := claims.LicenseSharedID()
	if err != nil {
		t.Fatalf("LicenseSharedID() error: %v", err)
	}
	if id != lic.ID() {
		t.Errorf("LicenseSharedID() = %v, want %v", id, lic.ID())
	}
}

func TestVerifyWrongKey(t *testing.T) {
	_, priv := newTestKeys(t)
	otherPub, _ := newTestKeys(t)

	signer, _ := NewSigner(priv, Config{Issuer: "testmate-licensing"})
	verifier, _ := NewVerifier(otherPub)

	signed, err := signer.Sign(newTestLicense(t))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("Verify() error = %v, want %v", err, ErrSignatureMismatch)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	pub, priv := newTestKeys(t)
	signer, _ := NewSigner(priv, Config{Issuer: "testmate-licensing"})
	verifier, _ := NewVerifier(pub)

	signed, err := signer.Sign(newTestLicense(t))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	// Truncating the signature must never verify.
	tampered := signed[:len(signed)-4]
	if _, err := verifier.Verify(tampered); err == nil {
		t.Error("Verify() accepted a tampered token")
	}
}

func TestVerifyPayloadBitFlips(t *testing.T) {
	pub, priv := newTestKeys(t)
	signer, _ := NewSigner(priv, Config{Issuer: "testmate-licensing"})
	verifier, _ := NewVerifier(pub)

	signed, err := signer.Sign(newTestLicense(t))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	firstDot := strings.IndexByte(signed, '.')
	secondDot := strings.LastIndexByte(signed, '.')
	if firstDot < 0 || secondDot <= firstDot {
		t.Fatalf("token is not three dot-separated segments: %q", signed)
	}

	// Flipping any single bit in the claims segment must yield a
	// signature mismatch or a decode failure, never a successful
	// verification with altered fields.
	for pos := firstDot + 1; pos < secondDot; pos++ {
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(signed)
			mutated[pos] ^= 1 << bit
			if string(mutated) == signed {
				continue
			}

			_, err := verifier.Verify(string(mutated))
			if err == nil {
				t.Fatalf("Verify() accepted payload with bit %d flipped at offset %d", bit, pos)
			}
			if !errors.Is(err, ErrSignatureMismatch) && !errors.Is(err, ErrMalformed) {
				t.Fatalf("Verify() with bit %d flipped at offset %d: error = %v, want %v or %v",
					bit, pos, err, ErrSignatureMismatch, ErrMalformed)
			}
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	pub, priv := newTestKeys(t)
	signer, _ := NewSigner(priv, Config{Issuer: "testmate-licensing"})
	verifier, _ := NewVerifier(pub)

	past := time.Now().UTC().Add(-time.Hour)
	lic := license.Reconstitute(shared.NewID(), "user@example.com", plan.TierBasic,
		past.AddDate(0, -1, 0), past, 5, nil, false, time.Time{})

	signed, err := signer.Sign(lic)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if _, err := verifier.Verify(signed); !errors.Is(err, ErrExpired) {
		t.Errorf("Verify() error = %v, want %v", err, ErrExpired)
	}
}

func TestVerifyMalformed(t *testing.T) {
	pub, _ := newTestKeys(t)
	verifier, _ := NewVerifier(pub)

	for _, input := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := verifier.Verify(input); !errors.Is(err, ErrMalformed) {
			t.Errorf("Verify(%q) error = %v, want %v", input, err, ErrMalformed)
		}
	}
}

func TestPrivateKeyFromSeed(t *testing.T) {
	_, priv := newTestKeys(t)
	seed := priv.Seed()

	tests := []struct {
		name    string
		encoded string
		wantErr bool
	}{
		{"std base64 seed", base64.StdEncoding.EncodeToString(seed), false},
		{"url base64 seed", base64.URLEncoding.EncodeToString(seed), false},
		{"raw base64 seed", base64.RawStdEncoding.EncodeToString(seed), false},
		{"full private key", base64.StdEncoding.EncodeToString(priv), false},
		{"wrong length", base64.StdEncoding.EncodeToString(seed[:16]), true},
		{"not base64", "!!!not-base64!!!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := PrivateKeyFromSeed(tt.encoded)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrivateKeyFromSeed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !key.Equal(priv) {
				t.Error("decoded key does not match original")
			}
		})
	}
}

func TestPublicKeyFromString(t *testing.T) {
	pub, _ := newTestKeys(t)

	key, err := PublicKeyFromString(base64.StdEncoding.EncodeToString(pub))
	if err != nil {
		t.Fatalf("PublicKeyFromString() error: %v", err)
	}
	if !key.Equal(pub) {
		t.Error("decoded key does not match original")
	}

	if _, err := PublicKeyFromString("AAAA"); err == nil {
		t.Error("expected error for wrong-length key")
	}
}
