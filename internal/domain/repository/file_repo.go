package repository

import (
	"context"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"gorm.io/gorm"
)

// FileRepository определяет методы для работы с записями загруженных файлов
type FileRepository interface {
	Create(tx *gorm.DB, file *entity.UploadedFile) error
	GetByID(ctx context.Context, id uint) (*entity.UploadedFile, error)
	// CountQuizzes возвращает число викторин, ссылающихся на файл
	CountQuizzes(tx *gorm.DB, fileID uint) (int64, error)
	Delete(tx *gorm.DB, id uint) error
}
