package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

// ProgressRepo реализует repository.ProgressRepository
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo создает новый репозиторий прогресса
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

func (r *ProgressRepo) lockRow(db *gorm.DB, userID, quizID uint, sectionID *uint) (*entity.Progress, error) {
	query := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID)
	if sectionID == nil {
		query = query.Where("section_id IS NULL")
	} else {
		query = query.Where("section_id = ?", *sectionID)
	}
	var progress entity.Progress
	if err := query.Take(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetForUpdate читает строку прогресса с SELECT ... FOR UPDATE, при отсутствии вставляет seed.
// Конкурентная вставка гасится ON CONFLICT DO NOTHING по уникальному индексу
// (user_id, quiz_id, COALESCE(section_id, 0)), после чего строка перечитывается под блокировкой.
func (r *ProgressRepo) GetForUpdate(tx *gorm.DB, seed *entity.Progress) (*entity.Progress, error) {
	db := conn(r.db, tx)
	progress, err := r.lockRow(db, seed.UserID, seed.QuizID, seed.SectionID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := db.Omit("Quiz").Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, err
	}
	progress, err = r.lockRow(db, seed.UserID, seed.QuizID, seed.SectionID)
	if err != nil {
		return nil, notFound(err)
	}
	return progress, nil
}

// Save сохраняет строку прогресса
func (r *ProgressRepo) Save(tx *gorm.DB, progress *entity.Progress) error {
	return conn(r.db, tx).Omit("Quiz").Save(progress).Error
}

// ListByUser возвращает прогресс пользователя вместе с викторинами, последние попытки первыми
func (r *ProgressRepo) ListByUser(ctx context.Context, userID uint) ([]entity.Progress, error) {
	var rows []entity.Progress
	err := r.db.WithContext(ctx).
		Preload("Quiz").
		Where("user_id = ?", userID).
		Order("last_attempt_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// DeleteByQuiz удаляет весь прогресс по викторине
func (r *ProgressRepo) DeleteByQuiz(tx *gorm.DB, quizID uint) error {
	return conn(r.db, tx).Where("quiz_id = ?", quizID).Delete(&entity.Progress{}).Error
}
