package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/internal/repository/postgres"
	"github.com/yourusername/quizcanvas-api/internal/service/questionfile"
	"github.com/yourusername/quizcanvas-api/pkg/database"
	"github.com/yourusername/quizcanvas-api/pkg/storage"
)

// testEnv - сервисы поверх настоящих репозиториев и in-memory SQLite
type testEnv struct {
	db        *gorm.DB
	repos     QuizRepositories
	blobs     *storage.MemoryStore
	ingestion *IngestionService
	quizzes   *QuizService
	attempts  *AttemptService
	progress  *ProgressService
	reports   *ReportService
	clock     *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewInMemorySQLite()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.NewNop()
	repos := QuizRepositories{
		Files:     postgres.NewFileRepo(db),
		Quizzes:   postgres.NewQuizRepo(db),
		Sections:  postgres.NewSectionRepo(db),
		Questions: postgres.NewQuestionRepo(db),
		Attempts:  postgres.NewAttemptRepo(db),
		Answers:   postgres.NewAnswerRepo(db),
		Progress:  postgres.NewProgressRepo(db),
	}
	env := &testEnv{
		db:    db,
		repos: repos,
		blobs: storage.NewMemoryStore(),
		clock: &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}

	parser := questionfile.NewParser(questionfile.DefaultMaxBytes)
	env.ingestion, err = NewIngestionService(db, repos.Files, repos.Quizzes, repos.Sections, repos.Questions, env.blobs, parser, log)
	require.NoError(t, err)
	env.ingestion.now = env.clock.Now

	env.quizzes, err = NewQuizService(db, repos, env.blobs, time.Hour, log)
	require.NoError(t, err)

	env.progress, err = NewProgressService(repos.Progress, repos.Attempts, repos.Quizzes, log)
	require.NoError(t, err)

	env.attempts, err = NewAttemptService(db, repos, env.progress, entity.DefaultResumeCeiling, log)
	require.NoError(t, err)
	env.attempts.now = env.clock.Now

	env.reports, err = NewReportService(env.progress, repos.Sections, log)
	require.NoError(t, err)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string) *entity.User {
	t.Helper()
	user := &entity.User{Username: name, Email: fmt.Sprintf("%s@example.com", name), Password: "Passw0rd"}
	require.NoError(t, postgres.NewUserRepo(e.db).Create(context.Background(), user))
	return user
}

// uploadCSV импортирует CSV из строк вида "вопрос,a,b,c,d,буква"
func (e *testEnv) uploadCSV(t *testing.T, owner *entity.User, body string) *IngestionResult {
	t.Helper()
	result, err := e.ingestion.Upload(context.Background(), UploadInput{
		OwnerID:  owner.ID,
		FileName: "quiz.csv",
		Data:     []byte(body),
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

const threeQuestionCSV = "question,option_a,option_b,option_c,option_d,correct_answer\n" +
	"Q1,a,b,c,d,a\n" +
	"Q2,a,b,c,d,b\n" +
	"Q3,a,b,c,d,c\n"

// failingBlobStore - хранилище, которое всегда падает
type failingBlobStore struct{}

var errBlobDown = errors.New("blob store unavailable")

func (failingBlobStore) Put(ctx context.Context, ownerID uint, filename string, data []byte) (storage.Object, error) {
	return storage.Object{}, errBlobDown
}

func (failingBlobStore) Delete(ctx context.Context, key string) (bool, error) {
	return false, errBlobDown
}

func (failingBlobStore) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", errBlobDown
}

func uintPtr(v uint) *uint { return &v }
