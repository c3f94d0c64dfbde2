package repository

import (
	"context"
	"time"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"gorm.io/gorm"
)

// AttemptStats - агрегаты по завершенным попыткам пользователя
type AttemptStats struct {
	CompletedCount int64
	AverageScore   float64
}

// AttemptRepository определяет методы для работы с попытками
type AttemptRepository interface {
	// Create возвращает ошибку с apperrors.ErrConflict, если у пользователя уже есть незавершенная попытка
	Create(ctx context.Context, attempt *entity.Attempt) error
	GetByID(ctx context.Context, id uint) (*entity.Attempt, error)
	GetActive(ctx context.Context, userID, quizID uint) (*entity.Attempt, error)
	// MarkCompleted атомарно переводит completed=false -> true.
	// Если попытка уже завершена, возвращает apperrors.ErrConflict.
	MarkCompleted(tx *gorm.DB, attemptID uint, score float64, endTime time.Time) error
	CountCompleted(tx *gorm.DB, userID, quizID uint, sectionID *uint) (int64, error)
	ListByUserAndQuiz(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error)
	ListRecentCompleted(ctx context.Context, userID uint, limit int) ([]entity.Attempt, error)
	Stats(ctx context.Context, userID uint) (AttemptStats, error)
	DeleteByQuiz(tx *gorm.DB, quizID uint) error
}

// AnswerRepository определяет методы для работы с ответами
type AnswerRepository interface {
	// Upsert вставляет или перезаписывает ответ по (attempt, question)
	Upsert(ctx context.Context, answer *entity.Answer) error
	Get(ctx context.Context, attemptID, questionID uint) (*entity.Answer, error)
	ListByAttempt(ctx context.Context, attemptID uint) ([]entity.Answer, error)
	CountCorrect(tx *gorm.DB, attemptID uint) (int64, error)
	// CountSelectedFrom считает ответы на вопрос с selected_option >= minOption
	CountSelectedFrom(tx *gorm.DB, questionID uint, minOption int) (int64, error)
	// RecomputeCorrectness пересчитывает is_correct всех ответов на вопрос
	RecomputeCorrectness(tx *gorm.DB, questionID uint, answerIndex int) error
	DeleteByQuiz(tx *gorm.DB, quizID uint) error
}
