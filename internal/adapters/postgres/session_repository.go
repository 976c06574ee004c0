package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/posturehq/auth-service/internal/domain"
	"github.com/posturehq/auth-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct {
	db *gorm.DB
}

// Replace installs the user's new session and removes whatever session the
// user held before, in one transaction. The user row is locked first so two
// concurrent logins for the same user serialize and exactly one session
// survives.
func (r *sessionRepository) Replace(ctx context.Context, params ports.SessionReplaceParams) (domain.Session, error) {
	var rec sessionModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner userModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", params.UserID).
			Take(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		if err := tx.Where("user_id = ?", params.UserID).Delete(&sessionModel{}).Error; err != nil {
			return err
		}

		rec = sessionModel{
			UserID:           params.UserID,
			AccessTokenHash:  params.AccessTokenHash,
			AccessTokenFP:    params.AccessTokenFP,
			RefreshTokenHash: params.RefreshTokenHash,
			RefreshTokenFP:   params.RefreshTokenFP,
			LoginMethod:      string(params.LoginMethod),
			ExpiresAt:        params.ExpiresAt,
			SessionIndex:     params.SessionIndex,
			IPAddress:        nullableString(params.IPAddress),
			UserAgent:        params.UserAgent,
			CreatedAt:        params.CreatedAt,
			UpdatedAt:        params.CreatedAt,
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) ListByAccessFingerprint(ctx context.Context, fingerprint string) ([]domain.Session, error) {
	return r.listByFingerprint(ctx, "access_token_fp", fingerprint)
}

func (r *sessionRepository) ListByRefreshFingerprint(ctx context.Context, fingerprint string) ([]domain.Session, error) {
	return r.listByFingerprint(ctx, "refresh_token_fp", fingerprint)
}

func (r *sessionRepository) listByFingerprint(ctx context.Context, column, fingerprint string) ([]domain.Session, error) {
	if fingerprint == "" {
		return nil, nil
	}
	var rows []sessionModel
	if err := r.db.WithContext(ctx).
		Where(column+" = ?", fingerprint).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainSession(row))
	}
	return result, nil
}

func (r *sessionRepository) UpdateAccessToken(ctx context.Context, sessionID uuid.UUID, tokenHash, tokenFP string, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"access_token_hash": tokenHash,
			"access_token_fp":   tokenFP,
			"updated_at":        updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&sessionModel{}).Error
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&sessionModel{}).Error
}
