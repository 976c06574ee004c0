package domain

import (
	"time"

	"github.com/google/uuid"
)

// User lifecycle states.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// LoginMethod identifies how a session was established.
type LoginMethod string

const (
	LoginMethodLocal LoginMethod = "local"
	LoginMethodSAML  LoginMethod = "saml"
)

// User is the canonical authentication identity aggregate.
// It keeps only auth-relevant state; tenant and role ownership live elsewhere
// in the platform and are never consulted by the session core.
type User struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
	SSOProvider  string
	SSOID        string
	FirstName    string
	LastName     string
	Status       string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName joins the stored name parts for user-facing summaries.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// Session binds a user to the hashes of their current token pair and an
// absolute expiry. At most one row exists per user at any instant; a new
// login replaces whatever session existed before it.
//
// Token plaintext is never stored. The hash columns hold salted Argon2id
// digests; the fingerprint columns hold keyed, non-reversible lookup
// discriminators used only to narrow candidate scans.
type Session struct {
	SessionID        uuid.UUID
	UserID           uuid.UUID
	AccessTokenHash  string
	AccessTokenFP    string
	RefreshTokenHash string
	RefreshTokenFP   string
	LoginMethod      LoginMethod
	ExpiresAt        time.Time
	SessionIndex     string
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasRefreshToken reports whether the session carries a refresh credential.
func (s Session) HasRefreshToken() bool {
	return s.RefreshTokenHash != ""
}

// Expired reports whether the session is logically dead at the given instant.
// An expired row must never be returned as valid; readers delete it instead.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
