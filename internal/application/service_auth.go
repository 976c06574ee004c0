package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/posturehq/auth-service/internal/domain"
	"github.com/posturehq/auth-service/internal/ports"
)

// Login validates local credentials and issues a fresh session, revoking any
// session the user held before. Unknown email, wrong password, and
// password-less (SSO-only) accounts all fail with the same error so callers
// cannot probe which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string, rememberMe bool, meta ClientMeta) (LoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return LoginResult{}, err
	}

	lockKey := "login:" + normalized
	if err := s.checkLockout(ctx, lockKey); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.failLogin(ctx, lockKey, normalized, "user_not_found")
			return LoginResult{}, domain.ErrInvalidCredentials
		}
		return LoginResult{}, storeErr(err)
	}
	if user.Status != domain.UserStatusActive {
		s.failLogin(ctx, lockKey, normalized, "account_inactive")
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		// SSO-only account: no local credential exists, but the failure must
		// be indistinguishable from a wrong password.
		s.failLogin(ctx, lockKey, normalized, "no_password_hash")
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.failLogin(ctx, lockKey, normalized, "invalid_password")
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	s.clearLockout(ctx, lockKey)

	accessToken, err := s.codec.Generate()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate access token: %w", err)
	}
	accessHash, err := s.codec.Hash(accessToken)
	if err != nil {
		return LoginResult{}, fmt.Errorf("hash access token: %w", err)
	}

	var refreshToken, refreshHash, refreshFP string
	if rememberMe {
		refreshToken, err = s.codec.Generate()
		if err != nil {
			return LoginResult{}, fmt.Errorf("generate refresh token: %w", err)
		}
		refreshHash, err = s.codec.Hash(refreshToken)
		if err != nil {
			return LoginResult{}, fmt.Errorf("hash refresh token: %w", err)
		}
		refreshFP = s.codec.Fingerprint(refreshToken)
	}

	now := s.nowFn()
	ttl := s.cfg.AccessTokenTTL
	if rememberMe {
		ttl = s.cfg.RefreshTokenTTL
	}

	if _, err := s.sessions.Create(ctx, ports.SessionReplaceParams{
		UserID:           user.UserID,
		AccessTokenHash:  accessHash,
		AccessTokenFP:    s.codec.Fingerprint(accessToken),
		RefreshTokenHash: refreshHash,
		RefreshTokenFP:   refreshFP,
		LoginMethod:      domain.LoginMethodLocal,
		ExpiresAt:        now.Add(ttl),
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		CreatedAt:        now,
	}); err != nil {
		return LoginResult{}, storeErr(err)
	}

	if err := s.users.TouchLastLogin(ctx, user.UserID, now); err != nil {
		slog.Default().WarnContext(ctx, "failed to update last login",
			"module", "application",
			"layer", "application",
			"operation", "login",
			"outcome", "warning",
			"user_id", user.UserID.String(),
			"error", err,
		)
	}

	s.observeLogin(string(domain.LoginMethodLocal), "success")
	slog.Default().InfoContext(ctx, "local login completed",
		"module", "application",
		"layer", "application",
		"operation", "login",
		"outcome", "success",
		"user_id", user.UserID.String(),
		"remember_me", rememberMe,
	)

	result := LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresInMinutes: int64(s.cfg.AccessTokenTTL.Minutes()),
		User:             toUserSummary(user),
	}
	if rememberMe {
		result.RefreshExpiresAt = now.Add(s.cfg.RefreshTokenTTL)
	}
	return result, nil
}

// Refresh rotates a new access token into the session that owns the
// presented refresh token. The refresh token is never reissued and the
// session's expiry is never extended: one refresh token remains valid until
// expires_at or an explicit logout, however many times it is used.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if refreshToken == "" {
		return RefreshResult{}, domain.ErrNoRefreshToken
	}

	sess, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return RefreshResult{}, domain.ErrInvalidOrExpiredToken
		}
		return RefreshResult{}, storeErr(err)
	}

	accessToken, err := s.codec.Generate()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("generate access token: %w", err)
	}
	accessHash, err := s.codec.Hash(accessToken)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("hash access token: %w", err)
	}

	if err := s.sessions.RotateAccessToken(ctx, sess.SessionID, accessHash, s.codec.Fingerprint(accessToken)); err != nil {
		return RefreshResult{}, storeErr(err)
	}

	slog.Default().InfoContext(ctx, "access token rotated",
		"module", "application",
		"layer", "application",
		"operation", "refresh",
		"outcome", "success",
		"session_id", sess.SessionID.String(),
	)

	return RefreshResult{
		AccessToken:      accessToken,
		ExpiresInMinutes: int64(s.cfg.AccessTokenTTL.Minutes()),
	}, nil
}

// Logout tears down the session matching either presented token, access
// first. Logout always succeeds: absent or already-invalid tokens make it a
// no-op reporting the local method, so clearing cookies twice is harmless.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) (LogoutResult, error) {
	result := LogoutResult{LoginMethod: domain.LoginMethodLocal}

	sess, err := s.resolveSessionForLogout(ctx, accessToken, refreshToken)
	if err != nil {
		return LogoutResult{}, err
	}
	if sess == nil {
		return result, nil
	}

	if err := s.sessions.Delete(ctx, sess.SessionID); err != nil {
		return LogoutResult{}, storeErr(err)
	}
	result.LoginMethod = sess.LoginMethod

	slog.Default().InfoContext(ctx, "session deleted on logout",
		"module", "application",
		"layer", "application",
		"operation", "logout",
		"outcome", "success",
		"session_id", sess.SessionID.String(),
		"login_method", string(sess.LoginMethod),
	)
	return result, nil
}

func (s *Service) resolveSessionForLogout(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	if accessToken != "" {
		sess, err := s.sessions.FindByAccessToken(ctx, accessToken)
		switch {
		case err == nil:
			return &sess, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, storeErr(err)
		}
	}
	if refreshToken != "" {
		sess, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
		switch {
		case err == nil:
			return &sess, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, storeErr(err)
		}
	}
	return nil, nil
}

// Authenticate resolves the user behind a presented access token. It exists
// for the surrounding platform's request middleware; the session core itself
// only needs it for ownership checks.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (UserSummary, error) {
	if accessToken == "" {
		return UserSummary{}, domain.ErrInvalidOrExpiredToken
	}
	sess, err := s.sessions.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return UserSummary{}, domain.ErrInvalidOrExpiredToken
		}
		return UserSummary{}, storeErr(err)
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return UserSummary{}, domain.ErrInvalidOrExpiredToken
		}
		return UserSummary{}, storeErr(err)
	}
	return toUserSummary(user), nil
}
