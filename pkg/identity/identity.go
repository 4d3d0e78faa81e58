// Package identity implements Ed25519 keypair generation, detached
// signing/verification, and passphrase-protected secret-key storage
// (spec.md §4.2).
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// idEncoding is URL-safe, unpadded base64, matching spec.md §6's
// "Identity format": 43 characters for a 32-byte Ed25519 public key.
var idEncoding = base64.RawURLEncoding

// Id is an identity's stable name: the URL-safe unpadded base64 encoding of
// an Ed25519 public key.
type Id string

// String returns the identity as it appears on the wire.
func (id Id) String() string { return string(id) }

// PublicKey decodes id back into an ed25519.PublicKey.
func (id Id) PublicKey() (ed25519.PublicKey, error) {
	raw, err := idEncoding.DecodeString(string(id))
	if err != nil {
		return nil, fmt.Errorf("identity: bad id encoding: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("identity: id decodes to %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// IDFromPublicKey encodes pk as an Id.
func IDFromPublicKey(pk ed25519.PublicKey) Id {
	return Id(idEncoding.EncodeToString(pk))
}

// ErrBadSignature is returned by Verify when a signature does not validate.
var ErrBadSignature = errors.New("identity: signature verification failed")

// Generate creates a new Ed25519 keypair and returns the identity plus its
// secret seed (ed25519.SeedSize bytes). Callers must pass the seed to Lock
// before persisting it; an unlocked seed is never written to disk by this
// package.
func Generate() (Id, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, fmt.Errorf("identity: generate: %w", err)
	}
	seed := priv.Seed()
	return IDFromPublicKey(pub), seed, nil
}

// Sign produces a detached Ed25519 signature over body (the canonical bytes
// of a proof, as produced by pkg/codec.Marshal).
func Sign(seed []byte, body []byte) ([]byte, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("identity: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return ed25519.Sign(priv, body), nil
}

// Verify reports whether signature is a valid Ed25519 signature by id over
// body.
func Verify(id Id, body []byte, signature []byte) error {
	pub, err := id.PublicKey()
	if err != nil {
		return err
	}
	if !ed25519.Verify(pub, body, signature) {
		return ErrBadSignature
	}
	return nil
}

// SeedToPublicKey regenerates the public key a seed would produce, used by
// Unlock to check the invariant that a decrypted seed regenerates the
// advertised public key (spec.md §3).
func SeedToPublicKey(seed []byte) (ed25519.PublicKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("identity: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), nil
}
