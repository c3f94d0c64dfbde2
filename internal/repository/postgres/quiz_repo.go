package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину
func (r *QuizRepo) Create(tx *gorm.DB, quiz *entity.Quiz) error {
	return conn(r.db, tx).Omit("File", "Sections", "Questions").Create(quiz).Error
}

// GetByID возвращает викторину по ID вместе с записью файла
func (r *QuizRepo) GetByID(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	if err := r.db.WithContext(ctx).Preload("File").First(&quiz, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &quiz, nil
}

// GetWithSections возвращает викторину с файлом и разделами
func (r *QuizRepo) GetWithSections(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).
		Preload("File").
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("sections.id") }).
		First(&quiz, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &quiz, nil
}

func (r *QuizRepo) ownerScope(ctx context.Context, ownerID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entity.Quiz{}).
		Joins("JOIN uploaded_files ON uploaded_files.id = quizzes.file_id").
		Where("uploaded_files.user_id = ?", ownerID)
}

// ListByOwner возвращает страницу викторин пользователя (новые первыми) и total count
func (r *QuizRepo) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]repository.QuizSummary, int64, error) {
	var total int64
	if err := r.ownerScope(ctx, ownerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []entity.Quiz
	err := r.ownerScope(ctx, ownerID).
		Select("quizzes.*").
		Order("quizzes.created_at DESC, quizzes.id DESC").
		Limit(limit).Offset(offset).
		Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}
	if len(quizzes) == 0 {
		return []repository.QuizSummary{}, total, nil
	}

	ids := make([]uint, len(quizzes))
	for i := range quizzes {
		ids[i] = quizzes[i].ID
	}
	questionCounts, err := r.countByQuiz(ctx, &entity.Question{}, ids)
	if err != nil {
		return nil, 0, err
	}
	sectionCounts, err := r.countByQuiz(ctx, &entity.Section{}, ids)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]repository.QuizSummary, len(quizzes))
	for i, q := range quizzes {
		summaries[i] = repository.QuizSummary{
			Quiz:          q,
			QuestionCount: questionCounts[q.ID],
			SectionCount:  sectionCounts[q.ID],
		}
	}
	return summaries, total, nil
}

type quizCount struct {
	QuizID uint
	Count  int64
}

func (r *QuizRepo) countByQuiz(ctx context.Context, model interface{}, quizIDs []uint) (map[uint]int64, error) {
	var rows []quizCount
	err := r.db.WithContext(ctx).Model(model).
		Select("quiz_id, COUNT(*) AS count").
		Where("quiz_id IN ?", quizIDs).
		Group("quiz_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.QuizID] = row.Count
	}
	return out, nil
}

// CountByOwner возвращает число викторин пользователя
func (r *QuizRepo) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var total int64
	err := r.ownerScope(ctx, ownerID).Count(&total).Error
	return total, err
}

// UpdateInfo точечно обновляет название и описание без полного Save
func (r *QuizRepo) UpdateInfo(ctx context.Context, id uint, title, description string) error {
	result := r.db.WithContext(ctx).Model(&entity.Quiz{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":       title,
			"description": description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete удаляет викторину. Зависимые строки удаляются вызывающей транзакцией заранее.
func (r *QuizRepo) Delete(tx *gorm.DB, id uint) error {
	return conn(r.db, tx).Delete(&entity.Quiz{}, id).Error
}

// SectionRepo реализует repository.SectionRepository
type SectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo создает новый репозиторий разделов
func NewSectionRepo(db *gorm.DB) *SectionRepo {
	return &SectionRepo{db: db}
}

func (r *SectionRepo) Create(tx *gorm.DB, section *entity.Section) error {
	return conn(r.db, tx).Create(section).Error
}

func (r *SectionRepo) GetByID(ctx context.Context, id uint) (*entity.Section, error) {
	var section entity.Section
	if err := r.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &section, nil
}

func (r *SectionRepo) ListByQuiz(ctx context.Context, quizID uint) ([]entity.Section, error) {
	var sections []entity.Section
	err := r.db.WithContext(ctx).Where("quiz_id = ?", quizID).Order("id").Find(&sections).Error
	return sections, err
}

func (r *SectionRepo) DeleteByQuiz(tx *gorm.DB, quizID uint) error {
	return conn(r.db, tx).Where("quiz_id = ?", quizID).Delete(&entity.Section{}).Error
}
