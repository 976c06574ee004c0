package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/posturehq/auth-service/internal/domain"
	"github.com/posturehq/auth-service/internal/ports"
)

// SessionStore wraps the session repository with the verification scan and
// lazy-expiry semantics. Repositories stay dumb: they enumerate rows by
// fingerprint; this layer decides what actually matches.
type SessionStore struct {
	repo    ports.SessionRepository
	codec   ports.TokenCodec
	metrics Metrics
	nowFn   func() time.Time
}

// Create atomically replaces every session owned by the user with the new
// one. Serialization per user is the repository's contract.
func (s *SessionStore) Create(ctx context.Context, params ports.SessionReplaceParams) (domain.Session, error) {
	return s.repo.Replace(ctx, params)
}

// FindByAccessToken resolves a session from an access token. Tokens are
// stored as salted digests, so the store cannot index them directly: it
// enumerates candidates sharing the token's keyed fingerprint and verifies
// each with the slow constant-time compare. Expired candidates are deleted
// on sight and never returned.
func (s *SessionStore) FindByAccessToken(ctx context.Context, token string) (domain.Session, error) {
	rows, err := s.repo.ListByAccessFingerprint(ctx, s.codec.Fingerprint(token))
	if err != nil {
		return domain.Session{}, err
	}
	return s.matchCandidate(ctx, token, rows, func(sess domain.Session) string {
		return sess.AccessTokenHash
	})
}

// FindByRefreshToken is the same scan over the refresh-token slot.
func (s *SessionStore) FindByRefreshToken(ctx context.Context, token string) (domain.Session, error) {
	rows, err := s.repo.ListByRefreshFingerprint(ctx, s.codec.Fingerprint(token))
	if err != nil {
		return domain.Session{}, err
	}
	return s.matchCandidate(ctx, token, rows, func(sess domain.Session) string {
		return sess.RefreshTokenHash
	})
}

func (s *SessionStore) matchCandidate(ctx context.Context, token string, rows []domain.Session, digestOf func(domain.Session) string) (domain.Session, error) {
	if s.metrics != nil {
		s.metrics.LookupCandidates(len(rows))
	}
	now := s.nowFn()
	for _, sess := range rows {
		digest := digestOf(sess)
		if digest == "" || !s.codec.Verify(token, digest) {
			continue
		}
		if sess.Expired(now) {
			// Lazy expiry: the row is logically dead, remove it instead of
			// returning it. Deletion failure is not the caller's problem.
			if err := s.repo.Delete(ctx, sess.SessionID); err != nil {
				slog.Default().WarnContext(ctx, "failed to reap expired session",
					"module", "application",
					"layer", "application",
					"operation", "session_lookup",
					"outcome", "warning",
					"session_id", sess.SessionID.String(),
					"error", err,
				)
			} else if s.metrics != nil {
				s.metrics.ExpiredSessionReaped()
			}
			continue
		}
		return sess, nil
	}
	return domain.Session{}, domain.ErrNotFound
}

// RotateAccessToken swaps the access-token digest in place. The refresh
// slot and expires_at are deliberately untouched: refresh never extends a
// session's life.
func (s *SessionStore) RotateAccessToken(ctx context.Context, sessionID uuid.UUID, tokenHash, tokenFP string) error {
	return s.repo.UpdateAccessToken(ctx, sessionID, tokenHash, tokenFP, s.nowFn())
}

// Delete removes a single session. Deleting a non-existent session is not
// an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return s.repo.Delete(ctx, sessionID)
}

// DeleteByUser removes every session owned by the user.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteByUser(ctx, userID)
}
