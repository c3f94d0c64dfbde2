package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

// FileRepo реализует repository.FileRepository
type FileRepo struct {
	db *gorm.DB
}

// NewFileRepo создает новый репозиторий файлов
func NewFileRepo(db *gorm.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(tx *gorm.DB, file *entity.UploadedFile) error {
	return conn(r.db, tx).Create(file).Error
}

func (r *FileRepo) GetByID(ctx context.Context, id uint) (*entity.UploadedFile, error) {
	var file entity.UploadedFile
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}

func (r *FileRepo) CountQuizzes(tx *gorm.DB, fileID uint) (int64, error) {
	var count int64
	err := conn(r.db, tx).Model(&entity.Quiz{}).Where("file_id = ?", fileID).Count(&count).Error
	return count, err
}

func (r *FileRepo) Delete(tx *gorm.DB, id uint) error {
	return conn(r.db, tx).Delete(&entity.UploadedFile{}, id).Error
}
