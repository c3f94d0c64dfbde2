package entity

import (
	"time"
)

// MasteryLevel - качественная оценка результата
type MasteryLevel string

const (
	MasteryExpert        MasteryLevel = "Expert"
	MasteryAdvanced      MasteryLevel = "Advanced"
	MasteryIntermediate  MasteryLevel = "Intermediate"
	MasteryBeginner      MasteryLevel = "Beginner"
	MasteryNeedsPractice MasteryLevel = "Needs Practice"
)

// MasteryLevelForScore: граничные значения относятся к более высокому уровню.
func MasteryLevelForScore(score float64) MasteryLevel {
	switch {
	case score >= 90:
		return MasteryExpert
	case score >= 80:
		return MasteryAdvanced
	case score >= 70:
		return MasteryIntermediate
	case score >= 60:
		return MasteryBeginner
	default:
		return MasteryNeedsPractice
	}
}

// Progress - сводка по (user, quiz[, section]). Создается только после завершенной попытки.
// Попытки по всей викторине пишутся в строку с SectionID = nil.
type Progress struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	UserID          uint         `gorm:"not null;index:idx_progress_user_quiz" json:"user_id"`
	QuizID          uint         `gorm:"not null;index:idx_progress_user_quiz" json:"quiz_id"`
	Quiz            *Quiz        `gorm:"foreignKey:QuizID" json:"-"`
	SectionID       *uint        `gorm:"index" json:"section_id,omitempty"`
	AttemptsCount   int          `gorm:"not null;default:0" json:"attempts_count"`
	BestScore       float64      `gorm:"type:numeric(5,2);not null;default:0" json:"best_score"`
	LastScore       float64      `gorm:"type:numeric(5,2);not null;default:0" json:"last_score"`
	LastAttemptDate time.Time    `gorm:"not null" json:"last_attempt_date"`
	MasteryLevel    MasteryLevel `gorm:"size:20;not null" json:"mastery_level"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Progress) TableName() string {
	return "progress"
}

// Apply применяет результат завершенной попытки.
// completedAttempts - актуальное число завершенных попыток из БД, счетчик не инкрементируется.
// Уровень считается по последнему результату, а не по лучшему.
func (p *Progress) Apply(score float64, completedAttempts int, at time.Time) {
	p.AttemptsCount = completedAttempts
	if score > p.BestScore {
		p.BestScore = score
	}
	p.LastScore = score
	p.LastAttemptDate = at
	p.MasteryLevel = MasteryLevelForScore(score)
}
