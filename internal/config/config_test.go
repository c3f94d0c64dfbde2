package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_DBNAME", "quizcanvas")
	t.Setenv("DATABASE_USER", "quiz")
	t.Setenv("STORAGE_BACKEND", "memory")
}

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 24*time.Hour, cfg.Attempt.ResumeCeiling())
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL())
	assert.Equal(t, 24, cfg.JWT.ExpirationHrs)
	assert.Equal(t, "single", cfg.Redis.Mode)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: \"7070\"\nupload:\n  max_bytes: 1024\nattempt:\n  resume_ceiling_hrs: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port, "переменная окружения важнее файла")
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.Equal(t, 2*time.Hour, cfg.Attempt.ResumeCeiling())
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.NoError(t, err)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_StorageBackend(t *testing.T) {
	base := Config{
		JWT:      JWTConfig{Secret: "s"},
		Database: DatabaseConfig{Host: "h", DBName: "d", User: "u"},
		Upload:   UploadConfig{MaxBytes: 1},
		Attempt:  AttemptConfig{ResumeCeilingHrs: 24},
	}

	gcsNoBucket := base
	gcsNoBucket.Storage = StorageConfig{Backend: "gcs"}
	assert.Error(t, gcsNoBucket.Validate())

	unknown := base
	unknown.Storage = StorageConfig{Backend: "s3"}
	assert.Error(t, unknown.Validate())

	ok := base
	ok.Storage = StorageConfig{Backend: "gcs", Bucket: "quiz-files"}
	assert.NoError(t, ok.Validate())
}

func TestPostgresConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.PostgresConnectionString())
}
