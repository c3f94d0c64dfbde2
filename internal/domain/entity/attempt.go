package entity

import (
	"errors"
	"math"
	"time"
)

// Состояния попытки. NotStarted не хранится: попытка появляется в БД сразу в InProgress.
const (
	AttemptStateInProgress = "in_progress"
	AttemptStateCompleted  = "completed"
)

// DefaultResumeCeiling - максимальный возраст незавершенной попытки, которую еще можно продолжить
const DefaultResumeCeiling = 24 * time.Hour

// ErrEmptyQuiz возвращается при подсчете результата для викторины без вопросов
var ErrEmptyQuiz = errors.New("quiz has no questions")

// Attempt - прохождение викторины одним пользователем.
// Не более одной незавершенной попытки на (user, quiz): частичный уникальный индекс.
type Attempt struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index;uniqueIndex:idx_attempts_active_user_quiz,where:completed = false" json:"user_id"`
	QuizID    uint       `gorm:"not null;index;uniqueIndex:idx_attempts_active_user_quiz,where:completed = false" json:"quiz_id"`
	Quiz      *Quiz      `gorm:"foreignKey:QuizID" json:"-"`
	SectionID *uint      `gorm:"index" json:"section_id,omitempty"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Score     *float64   `gorm:"type:numeric(5,2)" json:"score,omitempty"`
	Completed bool       `gorm:"not null;default:false" json:"completed"`
	Answers   []Answer   `gorm:"foreignKey:AttemptID" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "attempts"
}

// State возвращает текущее состояние попытки
func (a *Attempt) State() string {
	if a.Completed {
		return AttemptStateCompleted
	}
	return AttemptStateInProgress
}

// BelongsTo проверяет владельца попытки
func (a *Attempt) BelongsTo(userID uint) bool {
	return a.UserID == userID
}

// IsExpired: незавершенная попытка старше ceiling больше не может быть продолжена
func (a *Attempt) IsExpired(now time.Time, ceiling time.Duration) bool {
	return !a.Completed && now.Sub(a.StartTime) > ceiling
}

// CalculateScore считает процент правильных ответов с точностью до сотых.
// Неотвеченные вопросы считаются неправильными.
func CalculateScore(correct, total int) (float64, error) {
	if total <= 0 {
		return 0, ErrEmptyQuiz
	}
	if correct < 0 {
		correct = 0
	}
	if correct > total {
		correct = total
	}
	return RoundTo(float64(correct)/float64(total)*100, 2), nil
}

// RoundTo округляет значение до places знаков после запятой
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
