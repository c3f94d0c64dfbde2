package service

import (
	"context"
	"time"

	"github.com/yourusername/quizcanvas-api/pkg/storage"
)

// BlobStore - внешнее хранилище загруженных файлов.
// Реализации: storage.GCSStore (prod) и storage.MemoryStore (локально и в тестах).
type BlobStore interface {
	Put(ctx context.Context, ownerID uint, filename string, data []byte) (storage.Object, error)
	Delete(ctx context.Context, key string) (bool, error)
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
