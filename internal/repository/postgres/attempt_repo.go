package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create создает попытку.
// Частичный уникальный индекс idx_attempts_active_user_quiz допускает max 1 незавершенную попытку:
// 23505 -> ErrConflict.
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.Attempt) error {
	err := r.db.WithContext(ctx).Omit("Quiz", "Answers").Create(attempt).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: active attempt for user #%d quiz #%d", apperrors.ErrConflict, attempt.UserID, attempt.QuizID)
		}
		return err
	}
	return nil
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(ctx context.Context, id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

// GetActive возвращает незавершенную попытку пользователя по викторине
func (r *AttemptRepo) GetActive(ctx context.Context, userID, quizID uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND completed = ?", userID, quizID, false).
		Take(&attempt).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

// MarkCompleted атомарно переводит попытку в completed (условный UPDATE).
// - RowsAffected == 0 и попытка существует -> ErrConflict (уже завершена)
// - попытки нет -> ErrNotFound
func (r *AttemptRepo) MarkCompleted(tx *gorm.DB, attemptID uint, score float64, endTime time.Time) error {
	db := conn(r.db, tx)
	result := db.Model(&entity.Attempt{}).
		Where("id = ? AND completed = ?", attemptID, false).
		Updates(map[string]interface{}{
			"completed":  true,
			"end_time":   endTime,
			"score":      score,
			"updated_at": endTime,
		})
	if result.Error != nil {
		return fmt.Errorf("complete attempt #%d failed: %w", attemptID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&entity.Attempt{}).Where("id = ?", attemptID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: attempt #%d already completed", apperrors.ErrConflict, attemptID)
	}
	return nil
}

// CountCompleted возвращает число завершенных попыток по (user, quiz, section).
// sectionID == nil считает только попытки по всей викторине.
func (r *AttemptRepo) CountCompleted(tx *gorm.DB, userID, quizID uint, sectionID *uint) (int64, error) {
	query := conn(r.db, tx).Model(&entity.Attempt{}).
		Where("user_id = ? AND quiz_id = ? AND completed = ?", userID, quizID, true)
	if sectionID == nil {
		query = query.Where("section_id IS NULL")
	} else {
		query = query.Where("section_id = ?", *sectionID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// ListByUserAndQuiz возвращает историю попыток, новые первыми
func (r *AttemptRepo) ListByUserAndQuiz(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("start_time DESC, id DESC").
		Find(&attempts).Error
	return attempts, err
}

// ListRecentCompleted возвращает последние завершенные попытки вместе с викториной
func (r *AttemptRepo) ListRecentCompleted(ctx context.Context, userID uint, limit int) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Preload("Quiz").
		Where("user_id = ? AND completed = ?", userID, true).
		Order("end_time DESC, id DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// Stats считает количество и средний балл завершенных попыток
func (r *AttemptRepo) Stats(ctx context.Context, userID uint) (repository.AttemptStats, error) {
	var row struct {
		CompletedCount int64
		AverageScore   *float64
	}
	err := r.db.WithContext(ctx).Model(&entity.Attempt{}).
		Select("COUNT(*) AS completed_count, AVG(score) AS average_score").
		Where("user_id = ? AND completed = ?", userID, true).
		Scan(&row).Error
	if err != nil {
		return repository.AttemptStats{}, err
	}
	stats := repository.AttemptStats{CompletedCount: row.CompletedCount}
	if row.AverageScore != nil {
		stats.AverageScore = entity.RoundTo(*row.AverageScore, 2)
	}
	return stats, nil
}

// DeleteByQuiz удаляет все попытки викторины. Ответы должны быть удалены раньше.
func (r *AttemptRepo) DeleteByQuiz(tx *gorm.DB, quizID uint) error {
	return conn(r.db, tx).Where("quiz_id = ?", quizID).Delete(&entity.Attempt{}).Error
}
