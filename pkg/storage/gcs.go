package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// GCSStore - хранилище в Google Cloud Storage
type GCSStore struct {
	client *storage.Client
	bucket string
	log    *logger.Logger
	now    func() time.Time
}

// NewGCSStore создает клиент GCS. Пустой credentialsFile - учетные данные по умолчанию (ADC).
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, log *logger.Logger) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log = log.With("service", "GCSStore", "bucket", bucket)
	log.Info("[GCSStore] object storage initialized")
	return &GCSStore{client: client, bucket: bucket, log: log, now: time.Now}, nil
}

// Put записывает файл пользователя под новым ключом
func (s *GCSStore) Put(ctx context.Context, ownerID uint, filename string, data []byte) (Object, error) {
	key := ObjectKey(ownerID, filename, s.now())

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeForKey(key)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	s.log.Debug("[GCSStore] object uploaded", "key", key, "bytes", len(data))
	return Object{Key: key, URL: fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)}, nil
}

// Delete удаляет объект. false - объекта уже не было.
func (s *GCSStore) Delete(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete GCS object %q: %w", key, err)
	}
	return true, nil
}

// PresignedGet выдает подписанную ссылку V4 на скачивание
func (s *GCSStore) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: s.now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %q: %w", key, err)
	}
	return url, nil
}

// Close закрывает клиент GCS
func (s *GCSStore) Close() error {
	return s.client.Close()
}
