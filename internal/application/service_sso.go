package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/posturehq/auth-service/internal/domain"
	"github.com/posturehq/auth-service/internal/ports"
)

// CompleteSSOLogin turns a verified identity-provider subject into a local
// session. The caller has already validated the assertion upstream; this
// method only receives the extracted subject email and the provider's session
// index. Unknown subjects are provisioned just in time. Both an access and a
// refresh token are always issued, and no session state is written unless the
// whole flow succeeds.
func (s *Service) CompleteSSOLogin(ctx context.Context, subjectEmail, sessionIndex string, meta ClientMeta) (SSOLoginResult, error) {
	if subjectEmail == "" {
		return SSOLoginResult{}, domain.ErrMissingIdentity
	}
	normalized, err := normalizeEmail(subjectEmail)
	if err != nil {
		return SSOLoginResult{}, domain.ErrMissingIdentity
	}

	user, provisioned, err := s.findOrProvisionUser(ctx, normalized)
	if err != nil {
		return SSOLoginResult{}, err
	}

	accessToken, err := s.codec.Generate()
	if err != nil {
		return SSOLoginResult{}, fmt.Errorf("generate access token: %w", err)
	}
	accessHash, err := s.codec.Hash(accessToken)
	if err != nil {
		return SSOLoginResult{}, fmt.Errorf("hash access token: %w", err)
	}
	refreshToken, err := s.codec.Generate()
	if err != nil {
		return SSOLoginResult{}, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshHash, err := s.codec.Hash(refreshToken)
	if err != nil {
		return SSOLoginResult{}, fmt.Errorf("hash refresh token: %w", err)
	}

	now := s.nowFn()
	if _, err := s.sessions.Create(ctx, ports.SessionReplaceParams{
		UserID:           user.UserID,
		AccessTokenHash:  accessHash,
		AccessTokenFP:    s.codec.Fingerprint(accessToken),
		RefreshTokenHash: refreshHash,
		RefreshTokenFP:   s.codec.Fingerprint(refreshToken),
		LoginMethod:      domain.LoginMethodSAML,
		ExpiresAt:        now.Add(s.cfg.AccessTokenTTL),
		SessionIndex:     sessionIndex,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		CreatedAt:        now,
	}); err != nil {
		return SSOLoginResult{}, storeErr(err)
	}

	if err := s.users.TouchLastLogin(ctx, user.UserID, now); err != nil {
		slog.Default().WarnContext(ctx, "failed to update last login",
			"module", "application",
			"layer", "application",
			"operation", "sso_login",
			"outcome", "warning",
			"user_id", user.UserID.String(),
			"error", err,
		)
	}

	s.observeLogin(string(domain.LoginMethodSAML), "success")
	slog.Default().InfoContext(ctx, "sso login completed",
		"module", "application",
		"layer", "application",
		"operation", "sso_login",
		"outcome", "success",
		"user_id", user.UserID.String(),
		"provisioned", provisioned,
	)

	return SSOLoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresInMinutes: int64(s.cfg.AccessTokenTTL.Minutes()),
		// SSO refresh tokens die with the access window, so the cookie
		// gets the same expiry as the session row.
		RefreshExpiresAt: now.Add(s.cfg.AccessTokenTTL),
		Provisioned:      provisioned,
		User:             toUserSummary(user),
	}, nil
}

// findOrProvisionUser resolves the subject email to a local account,
// creating one when none exists. Existing accounts are tagged with the
// configured provider and reactivated, so a deactivated employee coming back
// through the IdP regains access without manual intervention.
func (s *Service) findOrProvisionUser(ctx context.Context, email string) (domain.User, bool, error) {
	now := s.nowFn()

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.SSOProvider != s.cfg.SSOProviderName || user.Status != domain.UserStatusActive {
			if err := s.users.UpdateSSOProvider(ctx, user.UserID, s.cfg.SSOProviderName, domain.UserStatusActive, now); err != nil {
				return domain.User{}, false, storeErr(err)
			}
			user.SSOProvider = s.cfg.SSOProviderName
			user.Status = domain.UserStatusActive
		}
		return user, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, false, storeErr(err)
	}

	first, last := nameFromEmail(email)
	created, err := s.users.Create(ctx, ports.CreateUserParams{
		Email:       email,
		SSOProvider: s.cfg.SSOProviderName,
		SSOID:       email,
		FirstName:   first,
		LastName:    last,
		Status:      domain.UserStatusActive,
		CreatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a provisioning race; the winner's row is what we want.
			existing, getErr := s.users.GetByEmail(ctx, email)
			if getErr != nil {
				return domain.User{}, false, storeErr(getErr)
			}
			return existing, false, nil
		}
		return domain.User{}, false, storeErr(err)
	}

	slog.Default().InfoContext(ctx, "user provisioned from identity provider",
		"module", "application",
		"layer", "application",
		"operation", "provision_user",
		"outcome", "success",
		"user_id", created.UserID.String(),
		"provider", s.cfg.SSOProviderName,
	)
	return created, true, nil
}
