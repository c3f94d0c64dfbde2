package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// Форматы выгрузки прогресса
const (
	ReportFormatCSV  = "csv"
	ReportFormatXLSX = "xlsx"
)

const progressSheetName = "Progress"

var progressHeaders = []string{"Quiz", "Section", "Attempts", "Best score", "Last score", "Mastery level", "Last attempt"}

// ReportService выгружает прогресс пользователя в CSV или XLSX
type ReportService struct {
	progress    *ProgressService
	sectionRepo repository.SectionRepository
	log         *logger.Logger
}

// NewReportService создает сервис выгрузки
func NewReportService(progress *ProgressService, sectionRepo repository.SectionRepository, log *logger.Logger) (*ReportService, error) {
	if progress == nil || sectionRepo == nil {
		return nil, fmt.Errorf("ProgressService and SectionRepository are required for ReportService")
	}
	return &ReportService{progress: progress, sectionRepo: sectionRepo, log: log.With("component", "ReportService")}, nil
}

// ContentType возвращает MIME-тип выгрузки
func ContentType(format string) string {
	if format == ReportFormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ValidateReportFormat проверяет формат до того, как ответ начнет писаться
func ValidateReportFormat(format string) error {
	switch format {
	case ReportFormatCSV, ReportFormatXLSX:
		return nil
	default:
		return apperrors.Validation(apperrors.CodeValidation, "format must be csv or xlsx")
	}
}

type reportRow struct {
	Quiz        string
	Section     string
	Attempts    int
	BestScore   float64
	LastScore   float64
	Mastery     string
	LastAttempt string
}

func (s *ReportService) rows(ctx context.Context, userID uint) ([]reportRow, error) {
	progress, err := s.progress.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	sectionNames := make(map[uint]string)
	out := make([]reportRow, 0, len(progress))
	for _, p := range progress {
		row := reportRow{
			Section:     "All sections",
			Attempts:    p.AttemptsCount,
			BestScore:   p.BestScore,
			LastScore:   p.LastScore,
			Mastery:     string(p.MasteryLevel),
			LastAttempt: p.LastAttemptDate.UTC().Format("2006-01-02 15:04:05"),
		}
		if p.Quiz != nil {
			row.Quiz = p.Quiz.Title
		}
		if p.SectionID != nil {
			name, ok := sectionNames[*p.SectionID]
			if !ok {
				if section, err := s.sectionRepo.GetByID(ctx, *p.SectionID); err == nil {
					name = section.Name
				}
				sectionNames[*p.SectionID] = name
			}
			row.Section = name
		}
		out = append(out, row)
	}
	return out, nil
}

// Export пишет прогресс пользователя в w в заданном формате
func (s *ReportService) Export(ctx context.Context, userID uint, format string, w io.Writer) error {
	if err := ValidateReportFormat(format); err != nil {
		return err
	}
	rows, err := s.rows(ctx, userID)
	if err != nil {
		return err
	}
	if format == ReportFormatXLSX {
		err = writeProgressXLSX(w, rows)
	} else {
		err = writeProgressCSV(w, rows)
	}
	if err != nil {
		s.log.Error("[ReportService] export failed", "user_id", userID, "format", format, "error", err)
		return apperrors.Internal(apperrors.CodeInternal, err)
	}
	return nil
}

// writeProgressCSV пишет CSV с UTF-8 BOM, чтобы Excel корректно открыл кириллицу
func writeProgressCSV(w io.Writer, rows []reportRow) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(progressHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			sanitizeForExcel(r.Quiz),
			sanitizeForExcel(r.Section),
			strconv.Itoa(r.Attempts),
			strconv.FormatFloat(r.BestScore, 'f', 2, 64),
			strconv.FormatFloat(r.LastScore, 'f', 2, 64),
			r.Mastery,
			r.LastAttempt,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeProgressXLSX пишет книгу через StreamWriter
func writeProgressXLSX(w io.Writer, rows []reportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", progressSheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(progressSheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headers := make([]interface{}, len(progressHeaders))
	for i, h := range progressHeaders {
		headers[i] = h
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{sanitizeForExcel(r.Quiz), sanitizeForExcel(r.Section), r.Attempts, r.BestScore, r.LastScore, r.Mastery, r.LastAttempt}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
