package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewInMemorySQLite()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *entity.User {
	t.Helper()
	user := &entity.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "Passw0rd!",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createQuiz создает файл, викторину, раздел и n вопросов (правильный ответ всегда 0)
func createQuiz(t *testing.T, db *gorm.DB, owner *entity.User, n int) (*entity.Quiz, *entity.Section, []entity.Question) {
	t.Helper()
	file := &entity.UploadedFile{
		UserID:     owner.ID,
		FileName:   "quiz.csv",
		StorageKey: fmt.Sprintf("quiz-files/%d/key.csv", owner.ID),
		FileType:   entity.FileTypeCSV,
		SizeBytes:  10,
		UploadedAt: time.Now(),
	}
	require.NoError(t, db.Create(file).Error)

	quiz := &entity.Quiz{FileID: file.ID, Title: "Quiz", Description: "d"}
	require.NoError(t, db.Omit("File", "Sections", "Questions").Create(quiz).Error)

	section := &entity.Section{QuizID: quiz.ID, Name: entity.DefaultSectionName}
	require.NoError(t, db.Create(section).Error)

	questions := make([]entity.Question, n)
	for i := range questions {
		questions[i] = entity.Question{
			QuizID:      quiz.ID,
			SectionID:   section.ID,
			Text:        fmt.Sprintf("Q%d", i+1),
			Options:     entity.StringArray{"a", "b", "c", "d"},
			AnswerIndex: 0,
		}
	}
	if n > 0 {
		require.NoError(t, db.Omit("Section").Create(&questions).Error)
	}
	return quiz, section, questions
}

func uintPtr(v uint) *uint { return &v }
