package dto

import (
	"time"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	"github.com/yourusername/quizcanvas-api/internal/handler/helper"
	"github.com/yourusername/quizcanvas-api/internal/service"
)

// QuestionResponse - вопрос для прохождения, без правильного ответа
type QuestionResponse struct {
	ID        uint                    `json:"id"`
	QuizID    uint                    `json:"quiz_id"`
	SectionID uint                    `json:"section_id"`
	Text      string                  `json:"text"`
	Options   []helper.QuestionOption `json:"options"`
}

// AuthoringQuestionResponse - вопрос для владельца, с правильным ответом и пояснением
type AuthoringQuestionResponse struct {
	QuestionResponse
	AnswerIndex int    `json:"answer_index"`
	Explanation string `json:"explanation,omitempty"`
}

// SectionResponse - раздел викторины
type SectionResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	QuestionCount int64  `json:"question_count"`
}

// QuizResponse - викторина в списке
type QuizResponse struct {
	ID            uint      `json:"id"`
	FileID        uint      `json:"file_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int64     `json:"question_count"`
	SectionCount  int64     `json:"section_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// QuizDetailResponse - викторина с разделами и вопросами
type QuizDetailResponse struct {
	QuizResponse
	FileName  string                      `json:"file_name,omitempty"`
	FileType  string                      `json:"file_type,omitempty"`
	Sections  []SectionResponse           `json:"sections"`
	Questions []AuthoringQuestionResponse `json:"questions"`
}

// PaginatedQuizResponse - страница списка викторин
type PaginatedQuizResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// UploadResponse - результат импорта файла
type UploadResponse struct {
	QuizID        uint            `json:"quiz_id"`
	FileID        uint            `json:"file_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	QuestionCount int             `json:"question_count"`
	SectionIDs    map[string]uint `json:"section_ids"`
	Metadata      interface{}     `json:"metadata"`
}

// NewQuestionResponse создает DTO вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:        q.ID,
		QuizID:    q.QuizID,
		SectionID: q.SectionID,
		Text:      q.Text,
		Options:   helper.ConvertOptionsToObjects(q.Options),
	}
}

// NewAuthoringQuestionResponse создает DTO вопроса для владельца
func NewAuthoringQuestionResponse(q *entity.Question) AuthoringQuestionResponse {
	return AuthoringQuestionResponse{
		QuestionResponse: NewQuestionResponse(q),
		AnswerIndex:      q.AnswerIndex,
		Explanation:      q.Explanation,
	}
}

// NewQuizListResponse создает DTO страницы викторин
func NewQuizListResponse(page *service.QuizPage) *PaginatedQuizResponse {
	quizzes := make([]QuizResponse, 0, len(page.Items))
	for _, item := range page.Items {
		quizzes = append(quizzes, newQuizSummary(item))
	}
	return &PaginatedQuizResponse{Quizzes: quizzes, Total: page.Total, Page: page.Page, PerPage: page.PageSize}
}

func newQuizSummary(item repository.QuizSummary) QuizResponse {
	r := newQuizResponse(&item.Quiz)
	r.QuestionCount = item.QuestionCount
	r.SectionCount = item.SectionCount
	return r
}

func newQuizResponse(q *entity.Quiz) QuizResponse {
	return QuizResponse{
		ID:          q.ID,
		FileID:      q.FileID,
		Title:       q.Title,
		Description: q.Description,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// NewQuizResponse создает DTO викторины без счетчиков
func NewQuizResponse(q *entity.Quiz) QuizResponse {
	return newQuizResponse(q)
}

// NewQuizDetailResponse создает DTO викторины с разделами и вопросами
func NewQuizDetailResponse(d *service.QuizDetail) *QuizDetailResponse {
	resp := &QuizDetailResponse{
		QuizResponse: newQuizResponse(d.Quiz),
		Sections:     make([]SectionResponse, 0, len(d.Sections)),
		Questions:    make([]AuthoringQuestionResponse, 0, len(d.Questions)),
	}
	resp.QuestionCount = int64(d.QuestionCount)
	resp.SectionCount = int64(len(d.Sections))
	if d.Quiz.File != nil {
		resp.FileName = d.Quiz.File.FileName
		resp.FileType = d.Quiz.File.FileType
	}
	for _, s := range d.Sections {
		resp.Sections = append(resp.Sections, SectionResponse{
			ID:            s.Section.ID,
			Name:          s.Section.Name,
			Description:   s.Section.Description,
			QuestionCount: s.QuestionCount,
		})
	}
	for i := range d.Questions {
		resp.Questions = append(resp.Questions, NewAuthoringQuestionResponse(&d.Questions[i]))
	}
	return resp
}

// NewUploadResponse создает DTO результата импорта
func NewUploadResponse(r *service.IngestionResult) *UploadResponse {
	return &UploadResponse{
		QuizID:        r.QuizID,
		FileID:        r.FileID,
		Title:         r.Title,
		Description:   r.Description,
		QuestionCount: r.QuestionCount,
		SectionIDs:    r.SectionIDs,
		Metadata:      r.Metadata,
	}
}
