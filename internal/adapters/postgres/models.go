package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email"`
	PasswordHash string     `gorm:"column:password_hash"`
	SSOProvider  string     `gorm:"column:sso_provider"`
	SSOID        string     `gorm:"column:sso_id"`
	FirstName    string     `gorm:"column:first_name"`
	LastName     string     `gorm:"column:last_name"`
	Status       string     `gorm:"column:status"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type sessionModel struct {
	SessionID        uuid.UUID `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID `gorm:"column:user_id"`
	AccessTokenHash  string    `gorm:"column:access_token_hash"`
	AccessTokenFP    string    `gorm:"column:access_token_fp"`
	RefreshTokenHash string    `gorm:"column:refresh_token_hash"`
	RefreshTokenFP   string    `gorm:"column:refresh_token_fp"`
	LoginMethod      string    `gorm:"column:login_method"`
	ExpiresAt        time.Time `gorm:"column:expires_at"`
	SessionIndex     string    `gorm:"column:session_index"`
	IPAddress        *string   `gorm:"column:ip_address"`
	UserAgent        string    `gorm:"column:user_agent"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string { return "user_sessions" }
