package dto

import (
	"time"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/service"
)

// AttemptResponse - попытка прохождения
type AttemptResponse struct {
	ID        uint       `json:"id"`
	QuizID    uint       `json:"quiz_id"`
	SectionID *uint      `json:"section_id,omitempty"`
	State     string     `json:"state"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Score     *float64   `json:"score,omitempty"`
}

// AnswerResponse - сохраненный ответ
type AnswerResponse struct {
	QuestionID     uint  `json:"question_id"`
	SelectedOption int   `json:"selected_option"`
	IsCorrect      bool  `json:"is_correct"`
	ResponseTimeMs int64 `json:"response_time_ms"`
}

// StartAttemptResponse - созданная попытка и первый вопрос
type StartAttemptResponse struct {
	Attempt        AttemptResponse  `json:"attempt"`
	TotalQuestions int              `json:"total_questions"`
	FirstQuestion  QuestionResponse `json:"first_question"`
}

// AttemptDetailResponse - попытка со счетчиками
type AttemptDetailResponse struct {
	Attempt        AttemptResponse `json:"attempt"`
	TotalQuestions int             `json:"total_questions"`
	AnsweredCount  int             `json:"answered_count"`
}

// AttemptQuestionResponse - вопрос N с навигацией
type AttemptQuestionResponse struct {
	Question       QuestionResponse `json:"question"`
	Number         int              `json:"number"`
	TotalQuestions int              `json:"total_questions"`
	Answer         *AnswerResponse  `json:"answer,omitempty"`
	CanGoBack      bool             `json:"can_go_back"`
	CanGoForward   bool             `json:"can_go_forward"`
	CanSubmit      bool             `json:"can_submit"`
}

// CompletionResponse - итог завершения
type CompletionResponse struct {
	Attempt        AttemptResponse     `json:"attempt"`
	Score          float64             `json:"score"`
	CorrectAnswers int                 `json:"correct_answers"`
	TotalQuestions int                 `json:"total_questions"`
	MasteryLevel   entity.MasteryLevel `json:"mastery_level"`
	Progress       *ProgressResponse   `json:"progress,omitempty"`
}

// ResumeResponse - состояние для продолжения
type ResumeResponse struct {
	Attempt            AttemptResponse   `json:"attempt"`
	TotalQuestions     int               `json:"total_questions"`
	AnsweredCount      int               `json:"answered_count"`
	ProgressPercentage float64           `json:"progress_percentage"`
	AllAnswered        bool              `json:"all_answered"`
	NextQuestionNumber int               `json:"next_question_number,omitempty"`
	NextQuestion       *QuestionResponse `json:"next_question,omitempty"`
}

// ReviewItemResponse - разбор одного вопроса
type ReviewItemResponse struct {
	Number         int              `json:"number"`
	Question       QuestionResponse `json:"question"`
	CorrectOption  int              `json:"correct_option"`
	Explanation    string           `json:"explanation,omitempty"`
	SelectedOption *int             `json:"selected_option,omitempty"`
	IsCorrect      bool             `json:"is_correct"`
	ResponseTimeMs int64            `json:"response_time_ms"`
}

// AttemptResultResponse - разбор завершенной попытки
type AttemptResultResponse struct {
	Attempt        AttemptResponse      `json:"attempt"`
	Score          float64              `json:"score"`
	CorrectAnswers int                  `json:"correct_answers"`
	TotalQuestions int                  `json:"total_questions"`
	MasteryLevel   entity.MasteryLevel  `json:"mastery_level"`
	Items          []ReviewItemResponse `json:"items"`
}

// NewAttemptResponse создает DTO попытки
func NewAttemptResponse(a *entity.Attempt) AttemptResponse {
	return AttemptResponse{
		ID:        a.ID,
		QuizID:    a.QuizID,
		SectionID: a.SectionID,
		State:     a.State(),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Score:     a.Score,
	}
}

// NewAttemptListResponse создает DTO истории попыток
func NewAttemptListResponse(attempts []entity.Attempt) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for i := range attempts {
		out = append(out, NewAttemptResponse(&attempts[i]))
	}
	return out
}

// NewAnswerResponse создает DTO ответа
func NewAnswerResponse(a *entity.Answer) *AnswerResponse {
	if a == nil {
		return nil
	}
	return &AnswerResponse{
		QuestionID:     a.QuestionID,
		SelectedOption: a.SelectedOption,
		IsCorrect:      a.IsCorrect,
		ResponseTimeMs: a.ResponseTimeMs,
	}
}

func NewStartAttemptResponse(r *service.StartResult) *StartAttemptResponse {
	return &StartAttemptResponse{
		Attempt:        NewAttemptResponse(r.Attempt),
		TotalQuestions: r.TotalQuestions,
		FirstQuestion:  NewQuestionResponse(r.FirstQuestion),
	}
}

func NewAttemptDetailResponse(v *service.AttemptView) *AttemptDetailResponse {
	return &AttemptDetailResponse{
		Attempt:        NewAttemptResponse(v.Attempt),
		TotalQuestions: v.TotalQuestions,
		AnsweredCount:  v.AnsweredCount,
	}
}

func NewAttemptQuestionResponse(v *service.QuestionView) *AttemptQuestionResponse {
	return &AttemptQuestionResponse{
		Question:       NewQuestionResponse(v.Question),
		Number:         v.Number,
		TotalQuestions: v.TotalQuestions,
		Answer:         NewAnswerResponse(v.Answer),
		CanGoBack:      v.CanGoBack,
		CanGoForward:   v.CanGoForward,
		CanSubmit:      v.CanSubmit,
	}
}

func NewCompletionResponse(r *service.CompletionResult) *CompletionResponse {
	resp := &CompletionResponse{
		Attempt:        NewAttemptResponse(r.Attempt),
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		MasteryLevel:   r.MasteryLevel,
	}
	if r.Progress != nil {
		p := NewProgressResponse(r.Progress)
		resp.Progress = &p
	}
	return resp
}

func NewResumeResponse(s *service.ResumeState) *ResumeResponse {
	resp := &ResumeResponse{
		Attempt:            NewAttemptResponse(s.Attempt),
		TotalQuestions:     s.TotalQuestions,
		AnsweredCount:      s.AnsweredCount,
		ProgressPercentage: s.ProgressPercentage,
		AllAnswered:        s.AllAnswered,
		NextQuestionNumber: s.NextQuestionNumber,
	}
	if s.NextQuestion != nil {
		q := NewQuestionResponse(s.NextQuestion)
		resp.NextQuestion = &q
	}
	return resp
}

func NewAttemptResultResponse(r *service.AttemptResult) *AttemptResultResponse {
	resp := &AttemptResultResponse{
		Attempt:        NewAttemptResponse(r.Attempt),
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		MasteryLevel:   r.MasteryLevel,
		Items:          make([]ReviewItemResponse, 0, len(r.Items)),
	}
	for i := range r.Items {
		item := &r.Items[i]
		review := ReviewItemResponse{
			Number:        item.Number,
			Question:      NewQuestionResponse(&item.Question),
			CorrectOption: item.Question.AnswerIndex,
			Explanation:   item.Question.Explanation,
		}
		if item.Answer != nil {
			selected := item.Answer.SelectedOption
			review.SelectedOption = &selected
			review.IsCorrect = item.Answer.IsCorrect
			review.ResponseTimeMs = item.Answer.ResponseTimeMs
		}
		resp.Items = append(resp.Items, review)
	}
	return resp
}
