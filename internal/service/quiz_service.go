package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// Пагинация списка викторин
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// QuizService предоставляет методы для работы со своими викторинами
type QuizService struct {
	db           *gorm.DB
	fileRepo     repository.FileRepository
	quizRepo     repository.QuizRepository
	sectionRepo  repository.SectionRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	answerRepo   repository.AnswerRepository
	progressRepo repository.ProgressRepository
	blobs        BlobStore
	fileURLTTL   time.Duration
	log          *logger.Logger
}

// QuizRepositories - набор репозиториев, нужных сервисам викторин и попыток
type QuizRepositories struct {
	Files     repository.FileRepository
	Quizzes   repository.QuizRepository
	Sections  repository.SectionRepository
	Questions repository.QuestionRepository
	Attempts  repository.AttemptRepository
	Answers   repository.AnswerRepository
	Progress  repository.ProgressRepository
}

func (r QuizRepositories) validate() error {
	if r.Files == nil || r.Quizzes == nil || r.Sections == nil || r.Questions == nil ||
		r.Attempts == nil || r.Answers == nil || r.Progress == nil {
		return fmt.Errorf("all quiz repositories are required")
	}
	return nil
}

// NewQuizService создает новый сервис викторин
func NewQuizService(db *gorm.DB, repos QuizRepositories, blobs BlobStore, fileURLTTL time.Duration, log *logger.Logger) (*QuizService, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required for QuizService")
	}
	if err := repos.validate(); err != nil {
		return nil, err
	}
	if blobs == nil {
		return nil, fmt.Errorf("BlobStore is required for QuizService")
	}
	if fileURLTTL <= 0 {
		fileURLTTL = time.Hour
	}
	return &QuizService{
		db:           db,
		fileRepo:     repos.Files,
		quizRepo:     repos.Quizzes,
		sectionRepo:  repos.Sections,
		questionRepo: repos.Questions,
		attemptRepo:  repos.Attempts,
		answerRepo:   repos.Answers,
		progressRepo: repos.Progress,
		blobs:        blobs,
		fileURLTTL:   fileURLTTL,
		log:          log.With("component", "QuizService"),
	}, nil
}

// QuizPage - страница списка викторин
type QuizPage struct {
	Items    []repository.QuizSummary
	Total    int64
	Page     int
	PageSize int
}

// SectionSummary - раздел с числом вопросов
type SectionSummary struct {
	Section       entity.Section
	QuestionCount int64
}

// QuizDetail - викторина владельца со всеми разделами и вопросами
type QuizDetail struct {
	Quiz          *entity.Quiz
	Sections      []SectionSummary
	Questions     []entity.Question
	QuestionCount int
}

// NormalizePage приводит параметры пагинации к допустимым значениям
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// List возвращает страницу викторин пользователя
func (s *QuizService) List(ctx context.Context, userID uint, page, pageSize int) (*QuizPage, error) {
	page, pageSize = NormalizePage(page, pageSize)
	items, total, err := s.quizRepo.ListByOwner(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		s.log.Error("[QuizService] list quizzes failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	return &QuizPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetOwned возвращает викторину, если она принадлежит пользователю
func (s *QuizService) GetOwned(ctx context.Context, userID, quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, mapRepoErr(err, quizNotFound)
	}
	if err := ensureQuizOwner(quiz, userID); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Detail возвращает викторину с разделами, счетчиками и вопросами
func (s *QuizService) Detail(ctx context.Context, userID, quizID uint) (*QuizDetail, error) {
	quiz, err := s.quizRepo.GetWithSections(ctx, quizID)
	if err != nil {
		return nil, mapRepoErr(err, quizNotFound)
	}
	if err := ensureQuizOwner(quiz, userID); err != nil {
		return nil, err
	}

	counts, err := s.questionRepo.CountBySection(ctx, quiz.ID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	questions, err := s.questionRepo.List(ctx, repository.QuestionScope{QuizID: quiz.ID})
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}

	sections := make([]SectionSummary, 0, len(quiz.Sections))
	for _, sec := range quiz.Sections {
		sections = append(sections, SectionSummary{Section: sec, QuestionCount: counts[sec.ID]})
	}
	return &QuizDetail{Quiz: quiz, Sections: sections, Questions: questions, QuestionCount: len(questions)}, nil
}

// UpdateInfo меняет название и/или описание. nil - поле не меняется.
func (s *QuizService) UpdateInfo(ctx context.Context, userID, quizID uint, title, description *string) (*entity.Quiz, error) {
	quiz, err := s.GetOwned(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	newTitle, newDescription := quiz.Title, quiz.Description
	if title != nil {
		newTitle = strings.TrimSpace(*title)
		if !entity.IsValidQuizTitle(newTitle) {
			return nil, apperrors.Validation(apperrors.CodeTitleInvalid,
				"title must be 3-50 characters of letters, digits, spaces, '-' or '_'")
		}
	}
	if description != nil {
		newDescription = strings.TrimSpace(*description)
		if len([]rune(newDescription)) > entity.QuizDescriptionMaxLength {
			return nil, apperrors.Validation(apperrors.CodeValidation,
				fmt.Sprintf("description must be at most %d characters", entity.QuizDescriptionMaxLength))
		}
	}

	if err := s.quizRepo.UpdateInfo(ctx, quiz.ID, newTitle, newDescription); err != nil {
		return nil, mapRepoErr(err, quizNotFound)
	}
	quiz.Title, quiz.Description = newTitle, newDescription
	return quiz, nil
}

// QuestionUpdate - новое содержимое вопроса. Все поля проверяются вместе.
type QuestionUpdate struct {
	Text        string
	Options     []string
	AnswerIndex int
	Explanation *string
}

// UpdateQuestion сохраняет вопрос и пересчитывает правильность уже данных ответов в той же транзакции
func (s *QuizService) UpdateQuestion(ctx context.Context, userID, quizID, questionID uint, upd QuestionUpdate) (*entity.Question, error) {
	if _, err := s.GetOwned(ctx, userID, quizID); err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, mapRepoErr(err, questionNotFound)
	}
	if question.QuizID != quizID {
		return nil, questionNotFound()
	}

	text := strings.TrimSpace(upd.Text)
	if text == "" {
		return nil, apperrors.Validation(apperrors.CodeValidation, "question text is required")
	}
	if len([]rune(text)) > entity.QuestionTextMaxLength {
		return nil, apperrors.Validation(apperrors.CodeValidation,
			fmt.Sprintf("question text must be at most %d characters", entity.QuestionTextMaxLength))
	}
	options := make(entity.StringArray, len(upd.Options))
	for i, opt := range upd.Options {
		options[i] = strings.TrimSpace(opt)
	}

	question.Text = text
	question.Options = options
	question.AnswerIndex = upd.AnswerIndex
	if upd.Explanation != nil {
		question.Explanation = entity.TruncateRunes(strings.TrimSpace(*upd.Explanation), entity.ExplanationMaxLength)
	}
	if err := question.Validate(); err != nil {
		return nil, apperrors.Validation(apperrors.CodeValidation, err.Error())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Сохраненные ответы должны остаться в диапазоне новых вариантов
		orphaned, err := s.answerRepo.CountSelectedFrom(tx, question.ID, len(options))
		if err != nil {
			return err
		}
		if orphaned > 0 {
			return apperrors.Conflict(apperrors.CodeOptionsInUse,
				"cannot remove options that were already selected in attempts").
				WithDetails(map[string]interface{}{"answers": orphaned})
		}
		if err := s.questionRepo.Update(tx, question); err != nil {
			return err
		}
		return s.answerRepo.RecomputeCorrectness(tx, question.ID, question.AnswerIndex)
	})
	if appErr, ok := apperrors.As(err); ok {
		return nil, appErr
	}
	if err != nil {
		s.log.Error("[QuizService] update question failed", "question_id", questionID, "error", err)
		return nil, mapRepoErr(err, questionNotFound)
	}
	return question, nil
}

// Delete удаляет викторину и все зависимые строки в порядке зависимостей.
// Файл удаляется, только если на него больше не ссылается ни одна викторина, и только после удаления blob.
// Ошибка удаления blob откатывает всю транзакцию.
func (s *QuizService) Delete(ctx context.Context, userID, quizID uint) error {
	quiz, err := s.GetOwned(ctx, userID, quizID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name string
			fn   func(*gorm.DB, uint) error
		}{
			{"answers", s.answerRepo.DeleteByQuiz},
			{"attempts", s.attemptRepo.DeleteByQuiz},
			{"progress", s.progressRepo.DeleteByQuiz},
			{"questions", s.questionRepo.DeleteByQuiz},
			{"sections", s.sectionRepo.DeleteByQuiz},
			{"quiz", s.quizRepo.Delete},
		}
		for _, step := range steps {
			if err := step.fn(tx, quiz.ID); err != nil {
				return fmt.Errorf("delete %s of quiz #%d: %w", step.name, quiz.ID, err)
			}
		}

		remaining, err := s.fileRepo.CountQuizzes(tx, quiz.FileID)
		if err != nil {
			return err
		}
		if remaining > 0 || quiz.File == nil {
			return nil
		}
		existed, err := s.blobs.Delete(ctx, quiz.File.StorageKey)
		if err != nil {
			return fmt.Errorf("delete blob: %w", err)
		}
		if !existed {
			s.log.Warn("[QuizService] blob already missing", "file_id", quiz.FileID)
		}
		return s.fileRepo.Delete(tx, quiz.FileID)
	})
	if err != nil {
		s.log.Error("[QuizService] delete quiz failed", "quiz_id", quizID, "error", err)
		return apperrors.Internal(apperrors.CodeInternal, err)
	}
	s.log.Info("[QuizService] quiz deleted", "quiz_id", quizID, "user_id", userID)
	return nil
}

// FileURL возвращает временную ссылку на исходный файл викторины
func (s *QuizService) FileURL(ctx context.Context, userID, quizID uint) (string, time.Time, error) {
	quiz, err := s.GetOwned(ctx, userID, quizID)
	if err != nil {
		return "", time.Time{}, err
	}
	url, err := s.blobs.PresignedGet(ctx, quiz.File.StorageKey, s.fileURLTTL)
	if err != nil {
		s.log.Error("[QuizService] presign failed", "quiz_id", quizID, "error", err)
		return "", time.Time{}, apperrors.Wrap(apperrors.ErrInternal, apperrors.CodeStorageFailed, "failed to create download link", err)
	}
	return url, time.Now().Add(s.fileURLTTL), nil
}
