package repository

import (
	"context"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"gorm.io/gorm"
)

// QuizSummary - викторина со счетчиками для списков
type QuizSummary struct {
	Quiz          entity.Quiz
	QuestionCount int64
	SectionCount  int64
}

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(tx *gorm.DB, quiz *entity.Quiz) error
	// GetByID возвращает викторину с предзагруженным File (нужен для проверки владельца)
	GetByID(ctx context.Context, id uint) (*entity.Quiz, error)
	// GetWithSections дополнительно предзагружает разделы по возрастанию id
	GetWithSections(ctx context.Context, id uint) (*entity.Quiz, error)
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]QuizSummary, int64, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	UpdateInfo(ctx context.Context, id uint, title, description string) error
	Delete(tx *gorm.DB, id uint) error
}

// SectionRepository определяет методы для работы с разделами викторины
type SectionRepository interface {
	Create(tx *gorm.DB, section *entity.Section) error
	GetByID(ctx context.Context, id uint) (*entity.Section, error)
	ListByQuiz(ctx context.Context, quizID uint) ([]entity.Section, error)
	DeleteByQuiz(tx *gorm.DB, quizID uint) error
}
