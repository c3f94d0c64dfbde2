package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

// NewSQLiteDB открывает SQLite с включенными внешними ключами.
// Используется в интеграционных тестах вместо Postgres.
func NewSQLiteDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// Одно соединение: in-memory база живет, пока оно открыто
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewInMemorySQLite создает изолированную in-memory базу со схемой из сущностей
func NewInMemorySQLite() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	db, err := NewSQLiteDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate создает схему по GORM-тегам. В Postgres схема ведется SQL-миграциями.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.UploadedFile{},
		&entity.Quiz{},
		&entity.Section{},
		&entity.Question{},
		&entity.Attempt{},
		&entity.Answer{},
		&entity.Progress{},
	)
}
