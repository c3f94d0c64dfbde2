package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/internal/service/questionfile"
)

// IngestionService превращает загруженный файл в Quiz -> Section -> Question.
// Порядок: разбор (без побочных эффектов) -> запись blob -> одна транзакция БД.
type IngestionService struct {
	db           *gorm.DB
	fileRepo     repository.FileRepository
	quizRepo     repository.QuizRepository
	sectionRepo  repository.SectionRepository
	questionRepo repository.QuestionRepository
	blobs        BlobStore
	parser       *questionfile.Parser
	log          *logger.Logger
	now          func() time.Time
}

// NewIngestionService создает сервис импорта
func NewIngestionService(
	db *gorm.DB,
	fileRepo repository.FileRepository,
	quizRepo repository.QuizRepository,
	sectionRepo repository.SectionRepository,
	questionRepo repository.QuestionRepository,
	blobs BlobStore,
	parser *questionfile.Parser,
	log *logger.Logger,
) (*IngestionService, error) {
	if db == nil || fileRepo == nil || quizRepo == nil || sectionRepo == nil || questionRepo == nil {
		return nil, fmt.Errorf("database and repositories are required for IngestionService")
	}
	if blobs == nil {
		return nil, fmt.Errorf("BlobStore is required for IngestionService")
	}
	if parser == nil {
		parser = questionfile.NewParser(questionfile.DefaultMaxBytes)
	}
	return &IngestionService{
		db:           db,
		fileRepo:     fileRepo,
		quizRepo:     quizRepo,
		sectionRepo:  sectionRepo,
		questionRepo: questionRepo,
		blobs:        blobs,
		parser:       parser,
		log:          log.With("component", "IngestionService"),
		now:          time.Now,
	}, nil
}

// UploadInput - загруженный файл и необязательные переопределения названия/описания
type UploadInput struct {
	OwnerID     uint
	FileName    string
	Data        []byte
	Title       string
	Description string
}

// IngestionResult - идентификаторы созданных строк для ответа клиенту
type IngestionResult struct {
	QuizID        uint
	FileID        uint
	Title         string
	Description   string
	SectionIDs    map[string]uint
	QuestionCount int
	Metadata      questionfile.Metadata
}

// Upload разбирает файл, сохраняет его во внешнее хранилище и импортирует вопросы.
// Ошибка хранилища прерывает импорт до создания строк в БД.
// Ошибка транзакции откатывает все строки, а blob удаляется (best effort).
func (s *IngestionService) Upload(ctx context.Context, in UploadInput) (*IngestionResult, error) {
	fileName := strings.TrimSpace(filepath.Base(in.FileName))

	parsed, err := s.parser.Parse(in.Data, fileName)
	if err != nil {
		return nil, invalidFile(err)
	}

	obj, err := s.blobs.Put(ctx, in.OwnerID, fileName, in.Data)
	if err != nil {
		s.log.Error("[IngestionService] blob put failed", "owner_id", in.OwnerID, "file", fileName, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternal, apperrors.CodeStorageFailed, "failed to store uploaded file", err)
	}

	file := &entity.UploadedFile{
		UserID:     in.OwnerID,
		FileName:   entity.TruncateRunes(fileName, entity.FileNameMaxLength),
		StorageKey: obj.Key,
		FileType:   parsed.Format,
		SizeBytes:  int64(len(in.Data)),
		Metadata:   datatypes.JSONMap(parsed.Metadata.AsMap()),
		UploadedAt: s.now(),
	}

	result, err := s.Ingest(ctx, file, parsed.Questions, in.Title, in.Description)
	if err != nil {
		if _, delErr := s.blobs.Delete(ctx, obj.Key); delErr != nil {
			s.log.Warn("[IngestionService] orphan blob left after failed ingestion", "key", obj.Key, "error", delErr)
		}
		return nil, err
	}
	result.Metadata = parsed.Metadata

	s.log.Info("[IngestionService] quiz imported",
		"quiz_id", result.QuizID, "owner_id", in.OwnerID, "questions", result.QuestionCount, "sections", len(result.SectionIDs))
	return result, nil
}

// Ingest атомарно создает Quiz, его разделы и вопросы. Если file.ID == 0, строка файла создается
// в той же транзакции. Текстовые поля обрезаются до лимитов колонок (с потерей хвоста).
func (s *IngestionService) Ingest(ctx context.Context, file *entity.UploadedFile, questions []questionfile.Question, title, description string) (*IngestionResult, error) {
	if len(questions) == 0 {
		return nil, apperrors.Validation(apperrors.CodeNoQuestions, "file contains no questions")
	}

	quiz := &entity.Quiz{
		Title:       defaultTitle(title, file.FileName),
		Description: defaultDescription(description, file.FileName),
	}
	sectionIDs := make(map[string]uint)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if file.ID == 0 {
			if err := s.fileRepo.Create(tx, file); err != nil {
				return fmt.Errorf("create file row: %w", err)
			}
		}
		quiz.FileID = file.ID
		if err := s.quizRepo.Create(tx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}

		rows := make([]entity.Question, 0, len(questions))
		for _, q := range questions {
			name := entity.TruncateRunes(strings.TrimSpace(q.Section), entity.SectionNameMaxLength)
			if name == "" {
				name = entity.DefaultSectionName
			}
			sectionID, ok := sectionIDs[name]
			if !ok {
				section := &entity.Section{
					QuizID:      quiz.ID,
					Name:        name,
					Description: entity.TruncateRunes(fmt.Sprintf("Questions from section %s", name), entity.SectionDescriptionMaxLength),
				}
				if err := s.sectionRepo.Create(tx, section); err != nil {
					return fmt.Errorf("create section %q: %w", name, err)
				}
				sectionID = section.ID
				sectionIDs[name] = sectionID
			}

			rows = append(rows, entity.Question{
				QuizID:      quiz.ID,
				SectionID:   sectionID,
				Text:        entity.TruncateRunes(q.Text, entity.QuestionTextMaxLength),
				Options:     entity.StringArray(q.Options),
				AnswerIndex: q.AnswerIndex,
				Explanation: entity.TruncateRunes(q.Explanation, entity.ExplanationMaxLength),
			})
		}
		if err := s.questionRepo.CreateBatch(tx, rows); err != nil {
			return fmt.Errorf("create questions: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("[IngestionService] ingestion transaction failed", "file", file.FileName, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrInternal, apperrors.CodeIngestionFailed, "failed to import quiz", err)
	}

	return &IngestionResult{
		QuizID:        quiz.ID,
		FileID:        file.ID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		SectionIDs:    sectionIDs,
		QuestionCount: len(questions),
	}, nil
}

// invalidFile переводит ошибку разбора в ответ с кодом INVALID_FILE
func invalidFile(err error) error {
	var perr *questionfile.Error
	if !errors.As(err, &perr) {
		return apperrors.Wrap(apperrors.ErrValidation, apperrors.CodeInvalidFile, "invalid file", err)
	}
	details := map[string]interface{}{"kind": string(perr.Kind)}
	if perr.Position > 0 {
		details["position"] = perr.Position
	}
	return apperrors.Validation(apperrors.CodeInvalidFile, perr.Error()).WithDetails(details)
}

func defaultTitle(title, fileName string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}
	if title == "" {
		title = "Untitled quiz"
	}
	return entity.TruncateRunes(title, entity.QuizTitleMaxLength)
}

func defaultDescription(description, fileName string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		description = fmt.Sprintf("Quiz imported from %s", fileName)
	}
	return entity.TruncateRunes(description, entity.QuizDescriptionMaxLength)
}
