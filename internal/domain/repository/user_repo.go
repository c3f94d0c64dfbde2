package repository

import (
	"context"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// UpdatePassword сохраняет новый пароль; хеширование выполняет BeforeSave сущности
	UpdatePassword(ctx context.Context, userID uint, newPassword string) error
}
