package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Поддерживаемые типы загружаемых файлов
const (
	FileTypeCSV  = "csv"
	FileTypeJSON = "json"
)

// FileNameMaxLength - лимит колонки file_name, длинные имена обрезаются
const FileNameMaxLength = 100

// UploadedFile - ссылка на blob во внешнем хранилище.
// На практике один файл порождает ровно один Quiz, это обеспечивает импорт, а не схема.
type UploadedFile struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     uint              `gorm:"not null;index" json:"user_id"`
	User       *User             `gorm:"foreignKey:UserID" json:"-"`
	FileName   string            `gorm:"size:100;not null" json:"file_name"`
	StorageKey string            `gorm:"size:255;not null" json:"-"`
	FileType   string            `gorm:"size:4;not null" json:"file_type"`
	SizeBytes  int64             `gorm:"not null;default:0" json:"size_bytes"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	UploadedAt time.Time         `gorm:"not null" json:"uploaded_at"`
}

// TableName определяет имя таблицы для GORM
func (UploadedFile) TableName() string {
	return "uploaded_files"
}

// IsOwnedBy проверяет владельца файла
func (f *UploadedFile) IsOwnedBy(userID uint) bool {
	return f != nil && f.UserID == userID
}
