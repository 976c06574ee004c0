package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/posturehq/auth-service/internal/domain"
)

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: malformed email address", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

// nameFromEmail synthesizes a first/last name pair from the local part of an
// email address, used when an identity provider supplies no profile fields.
// "jane.doe@corp.example" becomes ("Jane", "Doe"); a single-word local part
// leaves the last name empty.
func nameFromEmail(email string) (first, last string) {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	titled := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		titled = append(titled, strings.ToUpper(p[:1])+strings.ToLower(p[1:]))
	}
	switch len(titled) {
	case 0:
		return "", ""
	case 1:
		return titled[0], ""
	default:
		return titled[0], strings.Join(titled[1:], " ")
	}
}

// storeErr classifies repository failures. Domain sentinels pass through
// untouched; anything else is an infrastructure fault surfaced as
// ErrStoreUnavailable so transport layers answer 503 rather than 401.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}

func (s *Service) checkLockout(ctx context.Context, key string) error {
	if s.lockouts == nil {
		return nil
	}
	state, err := s.lockouts.Get(ctx, key)
	if err != nil {
		// A degraded lockout store must not take logins down with it.
		slog.Default().WarnContext(ctx, "lockout store unavailable",
			"module", "application",
			"layer", "application",
			"operation", "check_lockout",
			"outcome", "warning",
			"error", err,
		)
		return nil
	}
	if state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		return domain.ErrAccountLocked
	}
	return nil
}

func (s *Service) failLogin(ctx context.Context, key, email, reason string) {
	s.observeLogin(string(domain.LoginMethodLocal), "failure")
	slog.Default().WarnContext(ctx, "local login rejected",
		"module", "application",
		"layer", "application",
		"operation", "login",
		"outcome", "failure",
		"email", email,
		"reason", reason,
	)
	if s.lockouts == nil {
		return
	}
	if _, err := s.lockouts.RecordFailure(ctx, key, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration); err != nil {
		slog.Default().WarnContext(ctx, "failed to record login failure",
			"module", "application",
			"layer", "application",
			"operation", "record_failure",
			"outcome", "warning",
			"error", err,
		)
	}
}

func (s *Service) clearLockout(ctx context.Context, key string) {
	if s.lockouts == nil {
		return
	}
	if err := s.lockouts.Clear(ctx, key); err != nil {
		slog.Default().WarnContext(ctx, "failed to clear lockout state",
			"module", "application",
			"layer", "application",
			"operation", "clear_lockout",
			"outcome", "warning",
			"error", err,
		)
	}
}
