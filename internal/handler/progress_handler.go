package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizcanvas-api/internal/handler/dto"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/internal/service"
)

// ProgressHandler отдает прогресс, дашборд и выгрузку
type ProgressHandler struct {
	progressService *service.ProgressService
	reportService   *service.ReportService
	log             *logger.Logger
}

// NewProgressHandler создает обработчик прогресса
func NewProgressHandler(progressService *service.ProgressService, reportService *service.ReportService, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		reportService:   reportService,
		log:             log.With("component", "ProgressHandler"),
	}
}

// ListProgress возвращает прогресс по всем викторинам
// GET /api/progress
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	rows, err := h.progressService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": dto.NewProgressListResponse(rows)})
}

// ExportProgress выгружает прогресс в CSV или Excel
// GET /api/progress/export?format=csv|xlsx
func (h *ProgressHandler) ExportProgress(c *gin.Context) {
	format := c.DefaultQuery("format", service.ReportFormatCSV)
	if err := service.ValidateReportFormat(format); err != nil {
		respondError(c, h.log, err)
		return
	}

	// Буферизуем, чтобы ошибка посередине не оставила клиенту обрезанный файл с кодом 200
	var buf bytes.Buffer
	if err := h.reportService.Export(c.Request.Context(), currentUserID(c), format, &buf); err != nil {
		respondError(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("progress_%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, service.ContentType(format), buf.Bytes())
}

// GetDashboard возвращает агрегаты пользователя
// GET /api/dashboard
func (h *ProgressHandler) GetDashboard(c *gin.Context) {
	dash, err := h.progressService.Dashboard(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDashboardResponse(dash))
}
