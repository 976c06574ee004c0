package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// tokenEntropyBytes is the raw entropy per token. 48 bytes (384 bits) keeps a
// comfortable margin over the 256-bit floor and encodes to a 64-char string.
const tokenEntropyBytes = 48

// minLookupKeyBytes is the minimum accepted fingerprint key length.
const minLookupKeyBytes = 32

// ErrLookupKeyTooShort is returned when the configured fingerprint key is
// below the minimum length.
var ErrLookupKeyTooShort = errors.New("token lookup key too short")

// TokenCodec issues opaque bearer tokens and the storage forms derived from
// them: a salted Argon2id digest (the only value that proves possession) and
// a keyed HMAC-SHA256 fingerprint used to narrow candidate scans.
//
// The fingerprint is deterministic, so it can be indexed, but it is useless
// to an offline attacker who holds the database without the server-side key.
// It is never accepted as a match by itself; every candidate still goes
// through the slow constant-time verify.
type TokenCodec struct {
	hasher    *Argon2Hasher
	lookupKey []byte
}

// NewTokenCodec builds a codec from hashing parameters and the server-held
// fingerprint key.
func NewTokenCodec(params Argon2Params, lookupKey []byte) (*TokenCodec, error) {
	if len(lookupKey) < minLookupKeyBytes {
		return nil, ErrLookupKeyTooShort
	}
	return &TokenCodec{
		hasher:    NewArgon2Hasher(params),
		lookupKey: lookupKey,
	}, nil
}

// NewEphemeralTokenCodec generates a random fingerprint key for dev/test
// runtimes. Sessions do not survive a restart with an ephemeral key: the
// fingerprints stop matching, which is acceptable only outside production.
func NewEphemeralTokenCodec(params Argon2Params) (*TokenCodec, error) {
	key := make([]byte, minLookupKeyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("ephemeral lookup key: %w", err)
	}
	return NewTokenCodec(params, key)
}

// Generate produces a URL-safe opaque token from the OS CSPRNG.
func (c *TokenCodec) Generate() (string, error) {
	raw := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Hash returns the salted Argon2id digest under which the token is stored.
func (c *TokenCodec) Hash(token string) (string, error) {
	return c.hasher.Hash(token)
}

// Verify reports whether token matches digest. Malformed digests are not a
// match rather than an error.
func (c *TokenCodec) Verify(token, digest string) bool {
	return c.hasher.Verify(token, digest)
}

// Fingerprint returns the keyed lookup discriminator for a token.
func (c *TokenCodec) Fingerprint(token string) string {
	m := hmac.New(sha256.New, c.lookupKey)
	_, _ = m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}
