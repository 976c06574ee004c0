package postgres

import (
	"github.com/posturehq/auth-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Users    ports.UserRepository
	Sessions ports.SessionRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    &userRepository{db: db},
		Sessions: &sessionRepository{db: db},
	}
}
