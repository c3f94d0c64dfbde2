package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Email     EmailConfig
	Upload    UploadConfig
	Attempt   AttemptConfig
	RateLimit RateLimitConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string
	Mode            string // debug | release | test
	ReadTimeout     int    // секунды
	WriteTimeout    int
	ShutdownTimeout int
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	TrustedProxies  []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' используется первый адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// StorageConfig - хранилище загруженных файлов
type StorageConfig struct {
	Backend         string `mapstructure:"backend"` // gcs | memory
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	SignedURLTTLSec int    `mapstructure:"signed_url_ttl_sec"`
}

// EmailConfig - отправка писем через Resend. Пустой APIKey отключает отправку.
type EmailConfig struct {
	ResendAPIKey    string `mapstructure:"resend_api_key"`
	From            string `mapstructure:"from"`
	FrontendBaseURL string `mapstructure:"frontend_base_url"`
}

// UploadConfig - ограничения загрузки
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// AttemptConfig - правила попыток
type AttemptConfig struct {
	ResumeCeilingHrs int `mapstructure:"resume_ceiling_hrs"`
}

// RateLimitConfig - лимит запросов к /api/auth
type RateLimitConfig struct {
	AuthMaxRequests int `mapstructure:"auth_max_requests"`
	AuthWindowSec   int `mapstructure:"auth_window_sec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// SignedURLTTL возвращает время жизни ссылки на скачивание
func (s StorageConfig) SignedURLTTL() time.Duration {
	return time.Duration(s.SignedURLTTLSec) * time.Second
}

// Window возвращает длину окна лимита запросов
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.AuthWindowSec) * time.Second
}

// ResumeCeiling возвращает максимальный возраст попытки для продолжения
func (a AttemptConfig) ResumeCeiling() time.Duration {
	return time.Duration(a.ResumeCeilingHrs) * time.Hour
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.mode", "debug")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 30)
	vip.SetDefault("server.shutdowntimeout", 10)
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.migrations_path", "migrations")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")
	vip.SetDefault("jwt.expirationHrs", 24)
	vip.SetDefault("storage.backend", "gcs")
	vip.SetDefault("storage.signed_url_ttl_sec", 3600)
	vip.SetDefault("email.from", "QuizCanvas <no-reply@quizcanvas.app>")
	vip.SetDefault("email.frontend_base_url", "http://localhost:3000")
	vip.SetDefault("upload.max_bytes", 10<<20)
	vip.SetDefault("attempt.resume_ceiling_hrs", 24)
	vip.SetDefault("ratelimit.auth_max_requests", 20)
	vip.SetDefault("ratelimit.auth_window_sec", 60)
}

// Load загружает конфигурацию из .env, файла и переменных окружения
func Load(configPath string) (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Предупреждение: не удалось прочитать .env: %v", err)
	}

	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния
	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	bindings := map[string]string{
		"server.port":                "SERVER_PORT",
		"server.mode":                "GIN_MODE",
		"server.allowed_origins":     "CORS_ALLOWED_ORIGINS",
		"database.host":              "DATABASE_HOST",
		"database.port":              "DATABASE_PORT",
		"database.user":              "DATABASE_USER",
		"database.password":          "DATABASE_PASSWORD",
		"database.dbname":            "DATABASE_DBNAME",
		"database.sslmode":           "DATABASE_SSLMODE",
		"database.migrations_path":   "DATABASE_MIGRATIONS_PATH",
		"redis.mode":                 "REDIS_MODE",
		"redis.addrs":                "REDIS_ADDRS",
		"redis.addr":                 "REDIS_ADDR",
		"redis.password":             "REDIS_PASSWORD",
		"redis.db":                   "REDIS_DB",
		"redis.master_name":          "REDIS_MASTER_NAME",
		"jwt.secret":                 "JWT_SECRET",
		"jwt.expirationHrs":          "JWT_EXPIRATIONHRS",
		"storage.backend":            "STORAGE_BACKEND",
		"storage.bucket":             "STORAGE_BUCKET",
		"storage.credentials_file":   "GOOGLE_APPLICATION_CREDENTIALS",
		"storage.signed_url_ttl_sec": "STORAGE_SIGNED_URL_TTL_SEC",
		"email.resend_api_key":       "RESEND_API_KEY",
		"email.from":                 "EMAIL_FROM",
		"email.frontend_base_url":    "FRONTEND_BASE_URL",
		"upload.max_bytes":           "UPLOAD_MAX_BYTES",
		"attempt.resume_ceiling_hrs": "ATTEMPT_RESUME_CEILING_HRS",
	}
	for key, env := range bindings {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: тогда работаем на переменных окружения и умолчаниях
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Server.Mode == "release" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}
	switch c.Storage.Backend {
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for gcs backend (check STORAGE_BUCKET env var)")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend %q (expected gcs or memory)", c.Storage.Backend)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if c.Attempt.ResumeCeilingHrs <= 0 {
		return fmt.Errorf("attempt.resume_ceiling_hrs must be positive")
	}
	return nil
}
