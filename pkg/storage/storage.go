// Package storage хранит загруженные файлы вопросов во внешнем blob-хранилище.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyPrefix - корень всех ключей загруженных файлов
const KeyPrefix = "quiz-files"

// Object - результат записи
type Object struct {
	Key string
	URL string
}

// ObjectKey строит ключ вида quiz-files/{owner}/{YYYY/MM/DD}/{uuid}.{ext}.
// Исходное имя файла в ключ не попадает.
func ObjectKey(ownerID uint, filename string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s/%d/%s/%s.%s", KeyPrefix, ownerID, now.UTC().Format("2006/01/02"), id, ext)
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
