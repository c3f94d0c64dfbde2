package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// AttemptService управляет жизненным циклом попытки: start -> answer -> complete, плюс resume.
// Порядок вопросов детерминирован (по id) и одинаков при каждом чтении.
type AttemptService struct {
	db            *gorm.DB
	quizRepo      repository.QuizRepository
	sectionRepo   repository.SectionRepository
	questionRepo  repository.QuestionRepository
	attemptRepo   repository.AttemptRepository
	answerRepo    repository.AnswerRepository
	progress      *ProgressService
	resumeCeiling time.Duration
	log           *logger.Logger
	now           func() time.Time
}

// NewAttemptService создает сервис попыток
func NewAttemptService(db *gorm.DB, repos QuizRepositories, progress *ProgressService, resumeCeiling time.Duration, log *logger.Logger) (*AttemptService, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required for AttemptService")
	}
	if err := repos.validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, fmt.Errorf("ProgressService is required for AttemptService")
	}
	if resumeCeiling <= 0 {
		resumeCeiling = entity.DefaultResumeCeiling
	}
	return &AttemptService{
		db:            db,
		quizRepo:      repos.Quizzes,
		sectionRepo:   repos.Sections,
		questionRepo:  repos.Questions,
		attemptRepo:   repos.Attempts,
		answerRepo:    repos.Answers,
		progress:      progress,
		resumeCeiling: resumeCeiling,
		log:           log.With("component", "AttemptService"),
		now:           time.Now,
	}, nil
}

func scopeOf(a *entity.Attempt) repository.QuestionScope {
	return repository.QuestionScope{QuizID: a.QuizID, SectionID: a.SectionID}
}

// loadOwnAttempt возвращает попытку, если она принадлежит пользователю
func (s *AttemptService) loadOwnAttempt(ctx context.Context, userID, attemptID uint) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, mapRepoErr(err, attemptNotFound)
	}
	if !attempt.BelongsTo(userID) {
		return nil, accessDenied()
	}
	return attempt, nil
}

func attemptCompleted() *apperrors.Error {
	return apperrors.Conflict(apperrors.CodeAttemptCompleted, "attempt is already completed")
}

func noQuestions() *apperrors.Error {
	return apperrors.Validation(apperrors.CodeNoQuestions, "quiz has no questions")
}

// StartResult - созданная попытка и первый вопрос
type StartResult struct {
	Attempt        *entity.Attempt
	TotalQuestions int
	FirstQuestion  *entity.Question
}

// Start создает попытку по викторине (или одному ее разделу).
// Вторая незавершенная попытка по (user, quiz) отсекается уникальным индексом и возвращается как конфликт
// с id существующей попытки: ее нужно продолжить или завершить.
func (s *AttemptService) Start(ctx context.Context, userID, quizID uint, sectionID *uint) (*StartResult, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, mapRepoErr(err, quizNotFound)
	}
	if err := ensureQuizOwner(quiz, userID); err != nil {
		return nil, err
	}
	if sectionID != nil {
		section, err := s.sectionRepo.GetByID(ctx, *sectionID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Internal(apperrors.CodeInternal, err)
		}
		if section == nil || section.QuizID != quiz.ID {
			return nil, apperrors.Validation(apperrors.CodeValidation, "section does not belong to this quiz")
		}
	}

	scope := repository.QuestionScope{QuizID: quiz.ID, SectionID: sectionID}
	total, err := s.questionRepo.Count(ctx, scope)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	if total == 0 {
		return nil, noQuestions()
	}

	attempt := &entity.Attempt{
		UserID:    userID,
		QuizID:    quiz.ID,
		SectionID: sectionID,
		StartTime: s.now(),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, s.concurrentAttempt(ctx, userID, quiz.ID)
		}
		s.log.Error("[AttemptService] create attempt failed", "user_id", userID, "quiz_id", quizID, "error", err)
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}

	first, err := s.questionRepo.GetNth(ctx, scope, 1)
	if err != nil {
		return nil, mapRepoErr(err, questionNotFound)
	}

	s.log.Info("[AttemptService] attempt started", "attempt_id", attempt.ID, "user_id", userID, "quiz_id", quiz.ID)
	return &StartResult{Attempt: attempt, TotalQuestions: int(total), FirstQuestion: first}, nil
}

func (s *AttemptService) concurrentAttempt(ctx context.Context, userID, quizID uint) error {
	conflict := apperrors.Conflict(apperrors.CodeConcurrentAttempt,
		"an attempt for this quiz is already in progress; resume or complete it first")
	existing, err := s.attemptRepo.GetActive(ctx, userID, quizID)
	if err != nil {
		return conflict
	}
	return conflict.WithDetails(map[string]interface{}{
		"existing_attempt_id": existing.ID,
		"started_at":          existing.StartTime,
		"expired":             existing.IsExpired(s.now(), s.resumeCeiling),
	})
}

// AttemptView - попытка и ее текущий счет ответов
type AttemptView struct {
	Attempt        *entity.Attempt
	TotalQuestions int
	AnsweredCount  int
}

// Get возвращает попытку пользователя
func (s *AttemptService) Get(ctx context.Context, userID, attemptID uint) (*AttemptView, error) {
	attempt, err := s.loadOwnAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	total, err := s.questionRepo.Count(ctx, scopeOf(attempt))
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	return &AttemptView{Attempt: attempt, TotalQuestions: int(total), AnsweredCount: len(answers)}, nil
}

// QuestionView - вопрос N попытки с ранее данным ответом и навигацией
type QuestionView struct {
	Attempt        *entity.Attempt
	Question       *entity.Question
	Number         int
	TotalQuestions int
	Answer         *entity.Answer
	CanGoBack      bool
	CanGoForward   bool
	CanSubmit      bool
}

// GetQuestion возвращает вопрос с номером n (с 1). Только чтение, состояние попытки не меняется.
func (s *AttemptService) GetQuestion(ctx context.Context, userID, attemptID uint, n int) (*QuestionView, error) {
	attempt, err := s.loadOwnAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	scope := scopeOf(attempt)
	total64, err := s.questionRepo.Count(ctx, scope)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	total := int(total64)
	if total == 0 {
		return nil, noQuestions()
	}
	if n < 1 {
		return nil, apperrors.Validation(apperrors.CodeNavBeforeStart, "question number must be at least 1").
			WithDetails(map[string]interface{}{"total_questions": total})
	}
	if n > total {
		return nil, apperrors.Validation(apperrors.CodeNavBeyondEnd,
			fmt.Sprintf("question number must be at most %d", total)).
			WithDetails(map[string]interface{}{"total_questions": total})
	}

	question, err := s.questionRepo.GetNth(ctx, scope, n)
	if err != nil {
		return nil, mapRepoErr(err, questionNotFound)
	}
	answer, err := s.answerRepo.Get(ctx, attempt.ID, question.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Internal(apperrors.CodeInternal, err)
		}
		answer = nil
	}

	return &QuestionView{
		Attempt:        attempt,
		Question:       question,
		Number:         n,
		TotalQuestions: total,
		Answer:         answer,
		CanGoBack:      n > 1,
		CanGoForward:   n < total,
		CanSubmit:      n == total,
	}, nil
}

// SubmitAnswer сохраняет (или перезаписывает) ответ на вопрос.
// Правильность всегда вычисляется заново по вопросу; время ответа вне диапазона сохраняется как 0.
func (s *AttemptService) SubmitAnswer(ctx context.Context, userID, attemptID, questionID uint, selectedOption int, responseTimeMs int64) (*entity.Answer, error) {
	attempt, err := s.loadOwnAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed {
		return nil, attemptCompleted()
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, mapRepoErr(err, questionNotFound)
	}
	if question.QuizID != attempt.QuizID || (attempt.SectionID != nil && question.SectionID != *attempt.SectionID) {
		return nil, questionNotFound()
	}
	if !question.IsValidOption(selectedOption) {
		return nil, apperrors.Validation(apperrors.CodeOptionOutOfRange,
			fmt.Sprintf("selected_option must be between 0 and %d", question.OptionsCount()-1)).
			WithDetails(map[string]interface{}{"options_count": question.OptionsCount()})
	}

	answer := entity.NewAnswer(attempt.ID, question, selectedOption, responseTimeMs)
	if err := s.answerRepo.Upsert(ctx, answer); err != nil {
		s.log.Error("[AttemptService] upsert answer failed", "attempt_id", attempt.ID, "question_id", questionID, "error", err)
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	return answer, nil
}

// CompletionResult - итог завершенной попытки
type CompletionResult struct {
	Attempt        *entity.Attempt
	Score          float64
	CorrectAnswers int
	TotalQuestions int
	MasteryLevel   entity.MasteryLevel
	Progress       *entity.Progress
}

// Complete завершает попытку и обновляет прогресс в одной транзакции.
// Переход completed=false -> true - условный UPDATE, поэтому две гонки за завершение не посчитают результат дважды.
func (s *AttemptService) Complete(ctx context.Context, userID, attemptID uint) (*CompletionResult, error) {
	attempt, err := s.loadOwnAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed {
		return nil, attemptCompleted()
	}
	total, err := s.questionRepo.Count(ctx, scopeOf(attempt))
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	if total == 0 {
		return nil, noQuestions()
	}

	var (
		score    float64
		correct  int64
		progress *entity.Progress
	)
	endTime := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		correct, err = s.answerRepo.CountCorrect(tx, attempt.ID)
		if err != nil {
			return err
		}
		score, err = entity.CalculateScore(int(correct), int(total))
		if err != nil {
			return err
		}
		if err := s.attemptRepo.MarkCompleted(tx, attempt.ID, score, endTime); err != nil {
			return err
		}
		progress, err = s.progress.Record(tx, attempt, score, endTime)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, attemptCompleted()
		}
		s.log.Error("[AttemptService] complete attempt failed", "attempt_id", attempt.ID, "error", err)
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}

	attempt.Completed = true
	attempt.EndTime = &endTime
	attempt.Score = &score
	if correct > total {
		correct = total
	}

	s.log.Info("[AttemptService] attempt completed", "attempt_id", attempt.ID, "user_id", userID, "score", score)
	return &CompletionResult{
		Attempt:        attempt,
		Score:          score,
		CorrectAnswers: int(correct),
		TotalQuestions: int(total),
		MasteryLevel:   entity.MasteryLevelForScore(score),
		Progress:       progress,
	}, nil
}

// ResumeState - куда вернуться в незавершенной попытке
type ResumeState struct {
	Attempt            *entity.Attempt
	TotalQuestions     int
	AnsweredCount      int
	ProgressPercentage float64
	AllAnswered        bool
	NextQuestionNumber int
	NextQuestion       *entity.Question
}

// Resume находит первый вопрос без ответа. Незавершенная попытка старше resumeCeiling
// считается просроченной: ее нельзя продолжить, нужно начать новую.
func (s *AttemptService) Resume(ctx context.Context, userID, attemptID uint) (*ResumeState, error) {
	attempt, err := s.loadOwnAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed {
		return nil, attemptCompleted()
	}
	if attempt.IsExpired(s.now(), s.resumeCeiling) {
		return nil, apperrors.Conflict(apperrors.CodeAttemptExpired,
			"attempt has expired; complete it and start a new one").
			WithDetails(map[string]interface{}{"started_at": attempt.StartTime})
	}

	questions, err := s.questionRepo.List(ctx, scopeOf(attempt))
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	answered := make(map[uint]struct{}, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = struct{}{}
	}

	state := &ResumeState{Attempt: attempt, TotalQuestions: len(questions), AllAnswered: true}
	for i := range questions {
		if _, ok := answered[questions[i].ID]; ok {
			state.AnsweredCount++
			continue
		}
		if state.NextQuestion == nil {
			state.NextQuestion = &questions[i]
			state.NextQuestionNumber = i + 1
			state.AllAnswered = false
		}
	}
	if state.TotalQuestions > 0 {
		state.ProgressPercentage = math.Round(float64(state.AnsweredCount)/float64(state.TotalQuestions)*1000) / 10
	}
	return state, nil
}

// ReviewItem - вопрос и ответ пользователя (nil - вопрос пропущен)
type ReviewItem struct {
	Number   int
	Question entity.Question
	Answer   *entity.Answer
}

// AttemptResult - разбор завершенной попытки
type AttemptResult struct {
	Attempt        *entity.Attempt
	Score          float64
	CorrectAnswers int
	TotalQuestions int
	MasteryLevel   entity.MasteryLevel
	Items          []ReviewItem
}

// Result возвращает разбор завершенной попытки с правильными ответами
func (s *AttemptService) Result(ctx context.Context, userID, attemptID uint) (*AttemptResult, error) {
	attempt, err := s.loadOwnAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Completed {
		return nil, apperrors.Conflict(apperrors.CodeAttemptNotDone, "attempt is not completed yet")
	}

	questions, err := s.questionRepo.List(ctx, scopeOf(attempt))
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	answers, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	byQuestion := make(map[uint]*entity.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	result := &AttemptResult{Attempt: attempt, TotalQuestions: len(questions)}
	if attempt.Score != nil {
		result.Score = *attempt.Score
	}
	result.MasteryLevel = entity.MasteryLevelForScore(result.Score)
	for i, q := range questions {
		answer := byQuestion[q.ID]
		if answer != nil && answer.IsCorrect {
			result.CorrectAnswers++
		}
		result.Items = append(result.Items, ReviewItem{Number: i + 1, Question: q, Answer: answer})
	}
	return result, nil
}

// History возвращает попытки пользователя по своей викторине, новые первыми
func (s *AttemptService) History(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, mapRepoErr(err, quizNotFound)
	}
	if err := ensureQuizOwner(quiz, userID); err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.ListByUserAndQuiz(ctx, userID, quiz.ID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	return attempts, nil
}
