package application

import (
	"time"

	"github.com/posturehq/auth-service/internal/domain"
)

// Config carries the session-lifecycle knobs resolved at bootstrap.
type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// SSOProviderName tags users provisioned or confirmed through the bridge.
	SSOProviderName      string
	FailedLoginThreshold int
	LockoutDuration      time.Duration
}

// ClientMeta is request-scoped network metadata stored on the session row
// for operator visibility. It carries no authority.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// UserSummary is the caller-facing projection of an identity. It never
// contains credential material.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginResult returns the plaintext token pair exactly once, at issuance.
// RefreshToken is empty unless the login requested "remember me", in which
// case RefreshExpiresAt carries the refresh window so the transport layer can
// give the refresh cookie the full session lifetime.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	ExpiresInMinutes int64
	RefreshExpiresAt time.Time
	User             UserSummary
}

// RefreshResult carries the rotated access token. The refresh token itself
// is never reissued, so it does not appear here.
type RefreshResult struct {
	AccessToken      string
	ExpiresInMinutes int64
}

// LogoutResult reports which kind of session was torn down so the transport
// layer can decide whether to trigger SAML single-logout.
type LogoutResult struct {
	LoginMethod domain.LoginMethod
}

// SSOLoginResult is the bridge's issuance result. SSO sessions always carry
// both tokens. Provisioned is true exactly when this call created the user.
type SSOLoginResult struct {
	AccessToken      string
	RefreshToken     string
	ExpiresInMinutes int64
	RefreshExpiresAt time.Time
	Provisioned      bool
	User             UserSummary
}

func toUserSummary(u domain.User) UserSummary {
	return UserSummary{
		ID:    u.UserID.String(),
		Email: u.Email,
		Name:  u.DisplayName(),
	}
}
