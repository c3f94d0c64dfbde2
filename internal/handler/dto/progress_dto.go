package dto

import (
	"time"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/service"
)

// ProgressResponse - сводка по викторине или разделу
type ProgressResponse struct {
	QuizID          uint                `json:"quiz_id"`
	QuizTitle       string              `json:"quiz_title,omitempty"`
	SectionID       *uint               `json:"section_id,omitempty"`
	AttemptsCount   int                 `json:"attempts_count"`
	BestScore       float64             `json:"best_score"`
	LastScore       float64             `json:"last_score"`
	LastAttemptDate time.Time           `json:"last_attempt_date"`
	MasteryLevel    entity.MasteryLevel `json:"mastery_level"`
}

// RecentAttemptResponse - завершенная попытка на дашборде
type RecentAttemptResponse struct {
	AttemptResponse
	QuizTitle string `json:"quiz_title,omitempty"`
}

// DashboardResponse - агрегаты пользователя
type DashboardResponse struct {
	TotalQuizzes      int64                   `json:"total_quizzes"`
	CompletedAttempts int64                   `json:"completed_attempts"`
	AverageScore      float64                 `json:"average_score"`
	RecentAttempts    []RecentAttemptResponse `json:"recent_attempts"`
}

func NewProgressResponse(p *entity.Progress) ProgressResponse {
	resp := ProgressResponse{
		QuizID:          p.QuizID,
		SectionID:       p.SectionID,
		AttemptsCount:   p.AttemptsCount,
		BestScore:       p.BestScore,
		LastScore:       p.LastScore,
		LastAttemptDate: p.LastAttemptDate,
		MasteryLevel:    p.MasteryLevel,
	}
	if p.Quiz != nil {
		resp.QuizTitle = p.Quiz.Title
	}
	return resp
}

func NewProgressListResponse(rows []entity.Progress) []ProgressResponse {
	out := make([]ProgressResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewProgressResponse(&rows[i]))
	}
	return out
}

func NewDashboardResponse(d *service.Dashboard) *DashboardResponse {
	resp := &DashboardResponse{
		TotalQuizzes:      d.TotalQuizzes,
		CompletedAttempts: d.CompletedAttempts,
		AverageScore:      d.AverageScore,
		RecentAttempts:    make([]RecentAttemptResponse, 0, len(d.RecentAttempts)),
	}
	for i := range d.RecentAttempts {
		a := &d.RecentAttempts[i]
		recent := RecentAttemptResponse{AttemptResponse: NewAttemptResponse(a)}
		if a.Quiz != nil {
			recent.QuizTitle = a.Quiz.Title
		}
		resp.RecentAttempts = append(resp.RecentAttempts, recent)
	}
	return resp
}
