package entity

import (
	"time"
	"unicode"
)

// Лимиты текстовых полей. При импорте длинные значения обрезаются, а не отклоняются.
const (
	QuizTitleMaxLength          = 50
	QuizDescriptionMaxLength    = 200
	SectionNameMaxLength        = 50
	SectionDescriptionMaxLength = 200
)

// QuizTitleMinLength - минимальная длина названия при редактировании
const QuizTitleMinLength = 3

// DefaultSectionName используется, когда у вопроса не указан раздел
const DefaultSectionName = "General"

// Quiz представляет викторину, созданную из загруженного файла
type Quiz struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	FileID      uint          `gorm:"not null;index" json:"file_id"`
	File        *UploadedFile `gorm:"foreignKey:FileID" json:"-"`
	Title       string        `gorm:"size:50;not null" json:"title"`
	Description string        `gorm:"size:200;not null;default:''" json:"description"`
	Sections    []Section     `gorm:"foreignKey:QuizID" json:"sections,omitempty"`
	Questions   []Question    `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// IsOwnedBy: владелец викторины - пользователь, загрузивший файл.
// File должен быть предзагружен.
func (q *Quiz) IsOwnedBy(userID uint) bool {
	return q.File.IsOwnedBy(userID)
}

// Section - именованная группа вопросов внутри викторины. Имя уникально в пределах викторины.
type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	QuizID      uint      `gorm:"not null;uniqueIndex:idx_sections_quiz_name" json:"quiz_id"`
	Name        string    `gorm:"size:50;not null;uniqueIndex:idx_sections_quiz_name" json:"name"`
	Description string    `gorm:"size:200;not null;default:''" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Section) TableName() string {
	return "sections"
}

// TruncateRunes обрезает строку до limit символов (не байт).
func TruncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// IsValidQuizTitle: 3-50 символов, только буквы, цифры, пробелы, "-" и "_".
// Проверка применяется при редактировании; при импорте название только обрезается.
func IsValidQuizTitle(title string) bool {
	n := len([]rune(title))
	if n < QuizTitleMinLength || n > QuizTitleMaxLength {
		return false
	}
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}
