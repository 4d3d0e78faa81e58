package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// ErrBadPassphrase is returned by Unlock when the AEAD tag does not
// validate — the sole signal of passphrase failure per spec.md §3's LockedId
// invariant.
var ErrBadPassphrase = errors.New("identity: bad passphrase")

const (
	saltSize  = 16
	nonceSize = 24 // secretbox nonce size
)

// KDFParams are the Argon2id cost parameters, stored alongside the
// ciphertext so they can be upgraded over time without breaking existing
// identities (spec.md §4.2).
type KDFParams struct {
	Algorithm   string `yaml:"algorithm"`
	TimeCost    uint32 `yaml:"time-cost"`
	MemoryKiB   uint32 `yaml:"memory-kib"`
	Parallelism uint8  `yaml:"parallelism"`
}

// DefaultKDFParams mirrors Argon2id's recommended interactive parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Algorithm:   "argon2id",
		TimeCost:    3,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
	}
}

// LockedId is a passphrase-protected secret key plus the public identity
// material needed to use it (spec.md §3, §6's "LockedId file").
type LockedId struct {
	PublicId   Id        `yaml:"id"`
	URL        string    `yaml:"url,omitempty"`
	KDF        KDFParams `yaml:"kdf"`
	Salt       []byte    `yaml:"salt"`
	Nonce      []byte    `yaml:"nonce"`
	Ciphertext []byte    `yaml:"ciphertext"`
}

// Lock seals seed under passphrase using an Argon2id-derived key and
// XSalsa20-Poly1305 (nacl/secretbox) AEAD.
func Lock(id Id, url string, seed []byte, passphrase string, params KDFParams) (*LockedId, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("identity: lock: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("identity: lock: %w", err)
	}

	key := deriveKey(passphrase, salt, params)
	sealed := secretbox.Seal(nil, seed, &nonce, &key)

	return &LockedId{
		PublicId:   id,
		URL:        url,
		KDF:        params,
		Salt:       salt,
		Nonce:      nonce[:],
		Ciphertext: sealed,
	}, nil
}

// Unlock decrypts the seed and verifies it regenerates PublicId, per the
// LockedId invariant in spec.md §3. Success is indicated solely by the AEAD
// tag validating; ErrBadPassphrase is the only failure mode for a wrong
// passphrase.
func (l *LockedId) Unlock(passphrase string) ([]byte, error) {
	if len(l.Nonce) != nonceSize {
		return nil, fmt.Errorf("identity: unlock: bad nonce length %d", len(l.Nonce))
	}
	var nonce [nonceSize]byte
	copy(nonce[:], l.Nonce)

	key := deriveKey(passphrase, l.Salt, l.KDF)
	seed, ok := secretbox.Open(nil, l.Ciphertext, &nonce, &key)
	if !ok {
		return nil, ErrBadPassphrase
	}

	pub, err := SeedToPublicKey(seed)
	if err != nil {
		return nil, err
	}
	want, err := l.PublicId.PublicKey()
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(pub, want) != 1 {
		return nil, ErrBadPassphrase
	}
	return seed, nil
}

func deriveKey(passphrase string, salt []byte, params KDFParams) [32]byte {
	derived := argon2.IDKey([]byte(passphrase), salt, params.TimeCost, params.MemoryKiB, params.Parallelism, 32)
	var key [32]byte
	copy(key[:], derived)
	return key
}
