package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// RecentAttemptsLimit - сколько последних попыток показывает дашборд
const RecentAttemptsLimit = 5

// ProgressService ведет сводку прогресса и собирает дашборд
type ProgressService struct {
	progressRepo repository.ProgressRepository
	attemptRepo  repository.AttemptRepository
	quizRepo     repository.QuizRepository
	log          *logger.Logger
}

// NewProgressService создает сервис прогресса
func NewProgressService(
	progressRepo repository.ProgressRepository,
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	log *logger.Logger,
) (*ProgressService, error) {
	if progressRepo == nil || attemptRepo == nil || quizRepo == nil {
		return nil, fmt.Errorf("progress, attempt and quiz repositories are required for ProgressService")
	}
	return &ProgressService{
		progressRepo: progressRepo,
		attemptRepo:  attemptRepo,
		quizRepo:     quizRepo,
		log:          log.With("component", "ProgressService"),
	}, nil
}

// Record применяет результат только что завершенной попытки к строке (user, quiz[, section]).
// Должен вызываться в транзакции завершения, после MarkCompleted:
// attempts_count пересчитывается из БД, а не инкрементируется.
func (s *ProgressService) Record(tx *gorm.DB, attempt *entity.Attempt, score float64, at time.Time) (*entity.Progress, error) {
	completed, err := s.attemptRepo.CountCompleted(tx, attempt.UserID, attempt.QuizID, attempt.SectionID)
	if err != nil {
		return nil, fmt.Errorf("count completed attempts: %w", err)
	}

	progress, err := s.progressRepo.GetForUpdate(tx, &entity.Progress{
		UserID:          attempt.UserID,
		QuizID:          attempt.QuizID,
		SectionID:       attempt.SectionID,
		LastAttemptDate: at,
		MasteryLevel:    entity.MasteryLevelForScore(score),
	})
	if err != nil {
		return nil, fmt.Errorf("lock progress row: %w", err)
	}

	progress.Apply(score, int(completed), at)
	if err := s.progressRepo.Save(tx, progress); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return progress, nil
}

// List возвращает прогресс пользователя по всем викторинам
func (s *ProgressService) List(ctx context.Context, userID uint) ([]entity.Progress, error) {
	rows, err := s.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("[ProgressService] list progress failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	return rows, nil
}

// Dashboard - агрегаты для главной страницы пользователя
type Dashboard struct {
	TotalQuizzes      int64
	CompletedAttempts int64
	AverageScore      float64
	RecentAttempts    []entity.Attempt
}

// Dashboard собирает счетчики и последние завершенные попытки
func (s *ProgressService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	totalQuizzes, err := s.quizRepo.CountByOwner(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	stats, err := s.attemptRepo.Stats(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	recent, err := s.attemptRepo.ListRecentCompleted(ctx, userID, RecentAttemptsLimit)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	return &Dashboard{
		TotalQuizzes:      totalQuizzes,
		CompletedAttempts: stats.CompletedCount,
		AverageScore:      stats.AverageScore,
		RecentAttempts:    recent,
	}, nil
}
