package entity

import (
	"time"
)

// MaxResponseTimeMs - значения вне [0, MaxResponseTimeMs] считаются "не измерено" и сохраняются как 0
const MaxResponseTimeMs int64 = int64(24 * time.Hour / time.Millisecond)

// Answer - ответ пользователя на вопрос в рамках попытки. Уникален по (attempt, question).
type Answer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AttemptID      uint      `gorm:"not null;uniqueIndex:idx_answers_attempt_question" json:"attempt_id"`
	QuestionID     uint      `gorm:"not null;index;uniqueIndex:idx_answers_attempt_question" json:"question_id"`
	SelectedOption int       `gorm:"not null" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	ResponseTimeMs int64     `gorm:"not null;default:0" json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}

// NewAnswer строит ответ. Правильность всегда вычисляется по вопросу.
func NewAnswer(attemptID uint, question *Question, selectedOption int, responseTimeMs int64) *Answer {
	return &Answer{
		AttemptID:      attemptID,
		QuestionID:     question.ID,
		SelectedOption: selectedOption,
		IsCorrect:      question.IsCorrect(selectedOption),
		ResponseTimeMs: NormalizeResponseTime(responseTimeMs),
	}
}

// NormalizeResponseTime приводит некорректное время ответа к 0
func NormalizeResponseTime(ms int64) int64 {
	if ms < 0 || ms > MaxResponseTimeMs {
		return 0
	}
	return ms
}
