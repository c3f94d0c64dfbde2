package repository

import (
	"context"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"gorm.io/gorm"
)

// ProgressRepository определяет методы для работы со сводками прогресса
type ProgressRepository interface {
	// GetForUpdate гарантирует наличие строки (user, quiz, section) и читает ее с блокировкой.
	// seed используется только при вставке новой строки.
	GetForUpdate(tx *gorm.DB, seed *entity.Progress) (*entity.Progress, error)
	Save(tx *gorm.DB, progress *entity.Progress) error
	ListByUser(ctx context.Context, userID uint) ([]entity.Progress, error)
	DeleteByQuiz(tx *gorm.DB, quizID uint) error
}
