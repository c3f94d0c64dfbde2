package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
)

// createBatchSize - размер пачки INSERT при импорте вопросов
const createBatchSize = 200

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// CreateBatch создает пакет вопросов в переданной транзакции
func (r *QuestionRepo) CreateBatch(tx *gorm.DB, questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return conn(r.db, tx).Omit("Section").CreateInBatches(&questions, createBatchSize).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

func (r *QuestionRepo) scoped(ctx context.Context, scope repository.QuestionScope) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Question{}).Where("quiz_id = ?", scope.QuizID)
	if scope.SectionID != nil {
		query = query.Where("section_id = ?", *scope.SectionID)
	}
	return query
}

// List возвращает вопросы набора по возрастанию id
func (r *QuestionRepo) List(ctx context.Context, scope repository.QuestionScope) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.scoped(ctx, scope).Order("id").Find(&questions).Error
	return questions, err
}

// Count возвращает размер набора
func (r *QuestionRepo) Count(ctx context.Context, scope repository.QuestionScope) (int64, error) {
	var count int64
	err := r.scoped(ctx, scope).Count(&count).Error
	return count, err
}

// GetNth возвращает n-й вопрос набора. n вне диапазона -> ErrNotFound.
func (r *QuestionRepo) GetNth(ctx context.Context, scope repository.QuestionScope, n int) (*entity.Question, error) {
	if n < 1 {
		return nil, apperrors.ErrNotFound
	}
	var question entity.Question
	err := r.scoped(ctx, scope).Order("id").Offset(n - 1).Limit(1).Take(&question).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

type sectionCount struct {
	SectionID uint
	Count     int64
}

// CountBySection возвращает число вопросов в каждом разделе викторины
func (r *QuestionRepo) CountBySection(ctx context.Context, quizID uint) (map[uint]int64, error) {
	var rows []sectionCount
	err := r.db.WithContext(ctx).Model(&entity.Question{}).
		Select("section_id, COUNT(*) AS count").
		Where("quiz_id = ?", quizID).
		Group("section_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.SectionID] = row.Count
	}
	return out, nil
}

// Update сохраняет редактируемые поля вопроса
func (r *QuestionRepo) Update(tx *gorm.DB, question *entity.Question) error {
	result := conn(r.db, tx).Model(&entity.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"text":         question.Text,
			"options":      question.Options,
			"answer_index": question.AnswerIndex,
			"explanation":  question.Explanation,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByQuiz удаляет все вопросы викторины
func (r *QuestionRepo) DeleteByQuiz(tx *gorm.DB, quizID uint) error {
	return conn(r.db, tx).Where("quiz_id = ?", quizID).Delete(&entity.Question{}).Error
}
