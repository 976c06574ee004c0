package postgres

import (
	"errors"
	"strings"

	"github.com/posturehq/auth-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainUser(row userModel) domain.User {
	return domain.User{
		UserID:       row.UserID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		SSOProvider:  row.SSOProvider,
		SSOID:        row.SSOID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Status:       row.Status,
		LastLogin:    row.LastLogin,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainSession(row sessionModel) domain.Session {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.Session{
		SessionID:        row.SessionID,
		UserID:           row.UserID,
		AccessTokenHash:  row.AccessTokenHash,
		AccessTokenFP:    row.AccessTokenFP,
		RefreshTokenHash: row.RefreshTokenHash,
		RefreshTokenFP:   row.RefreshTokenFP,
		LoginMethod:      domain.LoginMethod(row.LoginMethod),
		ExpiresAt:        row.ExpiresAt,
		SessionIndex:     row.SessionIndex,
		IPAddress:        ip,
		UserAgent:        row.UserAgent,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
