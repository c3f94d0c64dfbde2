package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Допустимое количество вариантов ответа
const (
	MinAnswerOptions      = 2
	MaxAnswerOptions      = 6
	QuestionTextMaxLength = 500
	ExplanationMaxLength  = 1000
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		// sqlite отдает TEXT строкой
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question - вопрос викторины. Всегда принадлежит ровно одному разделу.
// Инвариант: 0 <= AnswerIndex < len(Options).
type Question struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	QuizID      uint        `gorm:"not null;index" json:"quiz_id"`
	SectionID   uint        `gorm:"not null;index" json:"section_id"`
	Section     *Section    `gorm:"foreignKey:SectionID" json:"-"`
	Text        string      `gorm:"size:500;not null" json:"text"`
	Options     StringArray `gorm:"type:jsonb;not null" json:"options"`
	AnswerIndex int         `gorm:"not null" json:"-"` // Скрыто от клиента
	Explanation string      `gorm:"size:1000;not null;default:''" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.AnswerIndex
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func (q *Question) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(q.Options)
}

// Validate проверяет количество вариантов и индекс правильного ответа.
func (q *Question) Validate() error {
	if n := len(q.Options); n < MinAnswerOptions || n > MaxAnswerOptions {
		return ErrInvalidOptionCount
	}
	for _, opt := range q.Options {
		if opt == "" {
			return ErrEmptyOption
		}
	}
	if !q.IsValidOption(q.AnswerIndex) {
		return ErrAnswerIndexOutOfRange
	}
	return nil
}

var (
	ErrInvalidOptionCount    = errors.New("question must have between 2 and 6 options")
	ErrEmptyOption           = errors.New("answer options must not be empty")
	ErrAnswerIndexOutOfRange = errors.New("answer index is out of range")
)
