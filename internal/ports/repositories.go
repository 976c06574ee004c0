package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/posturehq/auth-service/internal/domain"
)

// CreateUserParams captures the inputs for provisioning an identity record.
// The password hash is optional: SSO-provisioned users never receive one.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	SSOProvider  string
	SSOID        string
	FirstName    string
	LastName     string
	Status       string
	CreatedAt    time.Time
}

// UserRepository defines persistence operations for user identities.
// This core never deletes users; deactivation is owned by the wider platform.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
	UpdateSSOProvider(ctx context.Context, userID uuid.UUID, provider, status string, updatedAt time.Time) error
	TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// SessionReplaceParams carries everything needed to atomically supersede a
// user's sessions with a single new one. Both token slots hold digests and
// fingerprints only; plaintext never crosses this boundary.
type SessionReplaceParams struct {
	UserID           uuid.UUID
	AccessTokenHash  string
	AccessTokenFP    string
	RefreshTokenHash string
	RefreshTokenFP   string
	LoginMethod      domain.LoginMethod
	ExpiresAt        time.Time
	SessionIndex     string
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
}

// SessionRepository manages persistent session rows.
//
// Replace must serialize per user: two concurrent logins for the same user
// must not both observe "no existing session", or the single-session
// invariant breaks. The Postgres adapter takes a row lock on the user for
// the duration of the delete-then-insert.
//
// The fingerprint listings narrow the candidate scan; they are not proof of
// a match. Callers verify each candidate against the salted digest.
type SessionRepository interface {
	Replace(ctx context.Context, params SessionReplaceParams) (domain.Session, error)
	ListByAccessFingerprint(ctx context.Context, fp string) ([]domain.Session, error)
	ListByRefreshFingerprint(ctx context.Context, fp string) ([]domain.Session, error)
	UpdateAccessToken(ctx context.Context, sessionID uuid.UUID, tokenHash, tokenFP string, updatedAt time.Time) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
