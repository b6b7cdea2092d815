// Package token encodes and verifies signed license tokens.
//
// A license token is an opaque string: a JWT signed with an Ed25519 private
// key (EdDSA), carrying the license's canonical field set. The signature
// covers every field, so any mutation invalidates the token, and holders of
// the public key can verify offline without the signing secret.
package token

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

// Verification failures, each reported distinctly.
var (
	// ErrMalformed is returned when the token cannot be decoded at all.
	ErrMalformed = errors.New("malformed license token")
	// ErrSignatureMismatch is returned when the embedded signature does
	// not verify against the canonical fields.
	ErrSignatureMismatch = errors.New("license token signature mismatch")
	// ErrExpired is returned when the token's expiry has passed. The
	// boundary is inclusive: expiresAt == now is expired.
	ErrExpired = errors.New("license token expired")
)

// Claims is the canonical field set embedded in a license token.
type Claims struct {
	LicenseID    string         `json:"lid"`
	Tier         plan.Tier      `json:"tier"`
	ProjectLimit int            `json:"project_limit"`
	Features     []plan.Feature `json:"features,omitempty"`

	jwt.RegisteredClaims
}

// Config holds token codec configuration.
type Config struct {
	Issuer string
}

// Signer issues signed license tokens.
type Signer struct {
	key    ed25519.PrivateKey
	issuer string
}

// NewSigner creates a signer from an Ed25519 private key.
func NewSigner(key ed25519.PrivateKey, cfg Config) (*Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	return &Signer{key: key, issuer: cfg.Issuer}, nil
}

// Sign encodes a license into a signed token string.
func (s *Signer) Sign(lic *license.License) (string, error) {
	claims := Claims{
		LicenseID:    lic.ID().String(),
		Tier:         lic.Tier(),
		ProjectLimit: lic.ProjectLimit(),
		Features:     lic.Features(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   lic.Holder(),
			IssuedAt:  jwt.NewNumericDate(lic.IssuedAt()),
			ExpiresAt: jwt.NewNumericDate(lic.ExpiresAt()),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign license token: %w", err)
	}
	return signed, nil
}

// Public returns the verification key matching the signing key.
func (s *Signer) Public() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Verifier checks license tokens against the issuance public key.
// Verification is a pure read: it never mutates state and is safe to run
// concurrently on every request.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier creates a verifier from an Ed25519 public key.
func NewVerifier(key ed25519.PublicKey) (*Verifier, error) {
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("verification key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return &Verifier{key: key}, nil
}

// Verify decodes a token and checks its signature and expiry, returning
// the embedded claims. Failure reasons are distinct: ErrMalformed,
// ErrSignatureMismatch, ErrExpired.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureMismatch
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

// LicenseSharedID parses the embedded license ID.
func (c *Claims) LicenseSharedID() (shared.ID, error) {
	return shared.IDFromString(c.LicenseID)
}

// Holder returns the holder identity (the subject claim).
func (c *Claims) Holder() string {
	return c.Subject
}

// ExpiresAtTime returns the expiry instant.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Key material helpers

// PrivateKeyFromSeed decodes a base64 (std or URL, padded or not) Ed25519
// seed into a private key. Keys are supplied via process configuration,
// never embedded in source.
func PrivateKeyFromSeed(encoded string) (ed25519.PrivateKey, error) {
	raw, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("signing key must be a %d-byte seed or %d-byte private key, got %d bytes",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

// PublicKeyFromString decodes a base64 Ed25519 public key.
func PublicKeyFromString(encoded string) (ed25519.PublicKey, error) {
	raw, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode verification key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("verification key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	return nil, errors.New("not valid base64")
}
