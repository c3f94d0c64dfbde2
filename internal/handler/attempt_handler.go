package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizcanvas-api/internal/handler/dto"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/internal/service"
)

// AttemptHandler обрабатывает прохождение викторин
type AttemptHandler struct {
	attemptService *service.AttemptService
	log            *logger.Logger
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attemptService *service.AttemptService, log *logger.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		log:            log.With("component", "AttemptHandler"),
	}
}

// StartAttemptRequest - необязательное ограничение попытки одним разделом
type StartAttemptRequest struct {
	SectionID *uint `json:"section_id"`
}

// SubmitAnswerRequest - ответ на вопрос. selected_option разбирается вручную:
// допускается только целое число, строка или дробь - ошибка INVALID_OPTION_TYPE.
type SubmitAnswerRequest struct {
	QuestionID     uint            `json:"question_id" binding:"required"`
	SelectedOption json.RawMessage `json:"selected_option" binding:"required"`
	ResponseTimeMs int64           `json:"response_time_ms"`
}

// StartAttempt начинает прохождение викторины
// POST /api/quizzes/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	// Тело необязательно
	var req StartAttemptRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
			return
		}
	}

	result, err := h.attemptService.Start(c.Request.Context(), currentUserID(c), quizID, req.SectionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewStartAttemptResponse(result))
}

// ListAttempts возвращает историю попыток по викторине
// GET /api/quizzes/:id/attempts
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	attempts, err := h.attemptService.History(c.Request.Context(), currentUserID(c), quizID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": dto.NewAttemptListResponse(attempts)})
}

// GetAttempt возвращает попытку
// GET /api/attempts/:id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)

	view, err := h.attemptService.Get(c.Request.Context(), currentUserID(c), attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptDetailResponse(view))
}

// GetQuestion возвращает вопрос с номером :number (с 1)
// GET /api/attempts/:id/questions/:number
func (h *AttemptHandler) GetQuestion(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		badRequest(c, "Invalid question number", nil)
		return
	}

	view, err := h.attemptService.GetQuestion(c.Request.Context(), currentUserID(c), attemptID, n)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptQuestionResponse(view))
}

// SubmitAnswer сохраняет или перезаписывает ответ
// PUT /api/attempts/:id/answers
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", map[string]interface{}{"reason": err.Error()})
		return
	}
	selected, err := strconv.Atoi(string(req.SelectedOption))
	if err != nil {
		respondError(c, h.log, apperrors.Validation(apperrors.CodeInvalidOptionType, "selected_option must be an integer"))
		return
	}

	answer, err := h.attemptService.SubmitAnswer(c.Request.Context(), currentUserID(c), attemptID, req.QuestionID, selected, req.ResponseTimeMs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAnswerResponse(answer))
}

// CompleteAttempt завершает попытку и возвращает итог
// POST /api/attempts/:id/complete
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)

	result, err := h.attemptService.Complete(c.Request.Context(), currentUserID(c), attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCompletionResponse(result))
}

// ResumeAttempt возвращает первый вопрос без ответа
// GET /api/attempts/:id/resume
func (h *AttemptHandler) ResumeAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)

	state, err := h.attemptService.Resume(c.Request.Context(), currentUserID(c), attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewResumeResponse(state))
}

// GetResult возвращает разбор завершенной попытки
// GET /api/attempts/:id/result
func (h *AttemptHandler) GetResult(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)

	result, err := h.attemptService.Result(c.Request.Context(), currentUserID(c), attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResultResponse(result))
}
