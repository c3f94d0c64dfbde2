package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Upsert: INSERT ... ON CONFLICT (attempt_id, question_id) DO UPDATE.
// Повторный ответ перезаписывает выбранный вариант, правильность и время.
func (r *AnswerRepo) Upsert(ctx context.Context, answer *entity.Answer) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option", "is_correct", "response_time_ms", "updated_at"}),
	}).Create(answer).Error
}

// Get возвращает ответ на вопрос в рамках попытки
func (r *AnswerRepo) Get(ctx context.Context, attemptID, questionID uint) (*entity.Answer, error) {
	var answer entity.Answer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Take(&answer).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &answer, nil
}

// ListByAttempt возвращает ответы попытки в порядке вопросов
func (r *AnswerRepo) ListByAttempt(ctx context.Context, attemptID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id").
		Find(&answers).Error
	return answers, err
}

// CountCorrect считает правильные ответы попытки
func (r *AnswerRepo) CountCorrect(tx *gorm.DB, attemptID uint) (int64, error) {
	var count int64
	err := conn(r.db, tx).Model(&entity.Answer{}).
		Where("attempt_id = ? AND is_correct = ?", attemptID, true).
		Count(&count).Error
	return count, err
}

// CountSelectedFrom считает ответы, выбравшие вариант с индексом minOption или дальше
func (r *AnswerRepo) CountSelectedFrom(tx *gorm.DB, questionID uint, minOption int) (int64, error) {
	var count int64
	err := conn(r.db, tx).Model(&entity.Answer{}).
		Where("question_id = ? AND selected_option >= ?", questionID, minOption).
		Count(&count).Error
	return count, err
}

// RecomputeCorrectness пересчитывает is_correct после смены правильного ответа
func (r *AnswerRepo) RecomputeCorrectness(tx *gorm.DB, questionID uint, answerIndex int) error {
	return conn(r.db, tx).Model(&entity.Answer{}).
		Where("question_id = ?", questionID).
		Update("is_correct", gorm.Expr("selected_option = ?", answerIndex)).
		Error
}

// DeleteByQuiz удаляет ответы всех попыток викторины
func (r *AnswerRepo) DeleteByQuiz(tx *gorm.DB, quizID uint) error {
	db := conn(r.db, tx)
	attemptIDs := db.Model(&entity.Attempt{}).Select("id").Where("quiz_id = ?", quizID)
	return db.Where("attempt_id IN (?)", attemptIDs).Delete(&entity.Answer{}).Error
}
