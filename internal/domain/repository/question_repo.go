package repository

import (
	"context"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"gorm.io/gorm"
)

// QuestionScope - набор вопросов попытки: вся викторина или один раздел.
// Порядок всегда детерминирован: по возрастанию id.
type QuestionScope struct {
	QuizID    uint
	SectionID *uint
}

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	CreateBatch(tx *gorm.DB, questions []entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	List(ctx context.Context, scope QuestionScope) ([]entity.Question, error)
	Count(ctx context.Context, scope QuestionScope) (int64, error)
	// GetNth возвращает n-й (с 1) вопрос в порядке по id
	GetNth(ctx context.Context, scope QuestionScope, n int) (*entity.Question, error)
	CountBySection(ctx context.Context, quizID uint) (map[uint]int64, error)
	Update(tx *gorm.DB, question *entity.Question) error
	DeleteByQuiz(tx *gorm.DB, quizID uint) error
}
