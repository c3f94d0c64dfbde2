package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizcanvas-api/internal/handler/dto"
	"github.com/yourusername/quizcanvas-api/internal/handler/helper"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/internal/service"
)

// QuizHandler обрабатывает запросы, связанные с викторинами
type QuizHandler struct {
	quizService      *service.QuizService
	ingestionService *service.IngestionService
	maxUploadBytes   int64
	log              *logger.Logger
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(
	quizService *service.QuizService,
	ingestionService *service.IngestionService,
	maxUploadBytes int64,
	log *logger.Logger,
) *QuizHandler {
	return &QuizHandler{
		quizService:      quizService,
		ingestionService: ingestionService,
		maxUploadBytes:   maxUploadBytes,
		log:              log.With("component", "QuizHandler"),
	}
}

// UpdateQuizRequest - частичное обновление викторины
type UpdateQuizRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// UpdateQuestionRequest - новое содержимое вопроса целиком
type UpdateQuestionRequest struct {
	Text        string   `json:"text" binding:"required"`
	Options     []string `json:"options" binding:"required"`
	AnswerIndex *int     `json:"answer_index" binding:"required"`
	Explanation *string  `json:"explanation"`
}

// Upload импортирует викторину из CSV или JSON файла
// POST /api/quizzes (multipart: file, title, description)
func (h *QuizHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "File is required", nil)
		return
	}

	f, err := header.Open()
	if err != nil {
		badRequest(c, "Failed to read uploaded file", nil)
		return
	}
	defer f.Close()

	// Читаем на байт больше лимита: превышение отклонит парсер с FILE_TOO_LARGE
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		badRequest(c, "Failed to read uploaded file", nil)
		return
	}

	result, err := h.ingestionService.Upload(c.Request.Context(), service.UploadInput{
		OwnerID:     currentUserID(c),
		FileName:    header.Filename,
		Data:        data,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewUploadResponse(result))
}

// ListQuizzes возвращает страницу своих викторин
// GET /api/quizzes?page=1&page_size=10
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page := helper.ParseIntDefault(c.DefaultQuery("page", "1"), 1)
	pageSize := helper.ParseIntDefault(c.DefaultQuery("page_size", "10"), service.DefaultPageSize)

	result, err := h.quizService.List(c.Request.Context(), currentUserID(c), page, pageSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizListResponse(result))
}

// GetQuiz возвращает викторину с разделами и вопросами
// GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	detail, err := h.quizService.Detail(c.Request.Context(), currentUserID(c), quizID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizDetailResponse(detail))
}

// UpdateQuiz меняет название и/или описание
// PATCH /api/quizzes/:id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	var req UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}
	if req.Title == nil && req.Description == nil {
		badRequest(c, "Nothing to update", nil)
		return
	}

	quiz, err := h.quizService.UpdateInfo(c.Request.Context(), currentUserID(c), quizID, req.Title, req.Description)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz))
}

// DeleteQuiz удаляет викторину со всеми вопросами, попытками и файлом
// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	if err := h.quizService.Delete(c.Request.Context(), currentUserID(c), quizID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetFileURL возвращает временную ссылку на исходный файл
// GET /api/quizzes/:id/file-url
func (h *QuizHandler) GetFileURL(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	url, expiresAt, err := h.quizService.FileURL(c.Request.Context(), currentUserID(c), quizID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expires_at": expiresAt.UTC().Format(time.RFC3339)})
}

// UpdateQuestion сохраняет вопрос и пересчитывает уже данные ответы
// PATCH /api/quizzes/:id/questions/:questionId
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	questionID := c.MustGet("questionID").(uint)

	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}

	question, err := h.quizService.UpdateQuestion(c.Request.Context(), currentUserID(c), quizID, questionID, service.QuestionUpdate{
		Text:        req.Text,
		Options:     req.Options,
		AnswerIndex: *req.AnswerIndex,
		Explanation: req.Explanation,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthoringQuestionResponse(question))
}
