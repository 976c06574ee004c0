package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether the email or the password failed.
	// The reason is to prevent account-enumeration side channels: an unknown
	// email and a wrong password must be indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrMissingIdentity signals that the SSO layer handed over no usable subject.
	// The bridge must never fabricate a session from an empty identity.
	ErrMissingIdentity = errors.New("missing subject identity")
	// ErrNoRefreshToken is returned when refresh is attempted without a token.
	ErrNoRefreshToken = errors.New("no refresh token found")
	// ErrInvalidOrExpiredToken covers both unknown tokens and sessions whose
	// expiry has passed; expired rows are deleted as a side effect of lookup.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrStoreUnavailable wraps persistence-layer failures. Nothing is retried
	// internally; callers decide whether to retry.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	ErrAccountLocked = errors.New("account locked")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict")
)
