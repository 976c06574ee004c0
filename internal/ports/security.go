package ports

// TokenCodec produces opaque bearer tokens and the one-way forms under which
// they are stored.
//
// Hash output is a salted, memory-hard digest: two hashes of the same token
// differ, so the store cannot index by it. Fingerprint exists for exactly
// that reason: a deterministic, keyed, non-reversible discriminator that
// narrows candidate scans without ever standing in for verification.
type TokenCodec interface {
	Generate() (string, error)
	Hash(token string) (string, error)
	Verify(token, digest string) bool
	Fingerprint(token string) string
}

// PasswordHasher abstracts credential hashing for local accounts.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
