package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	"github.com/yourusername/quizcanvas-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
	"github.com/yourusername/quizcanvas-api/pkg/auth"
)

// Время жизни токена сброса пароля
const PasswordResetTTL = time.Hour

const passwordResetKeyPrefix = "password_reset:"

// AuthService предоставляет методы для регистрации, входа и восстановления доступа
type AuthService struct {
	userRepo   repository.UserRepository
	cacheRepo  repository.CacheRepository
	jwtService *auth.JWTService
	notifier   Notifier
	log        *logger.Logger
}

// NewAuthService создает новый сервис аутентификации и возвращает ошибку при проблемах
func NewAuthService(
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	jwtService *auth.JWTService,
	notifier Notifier,
	log *logger.Logger,
) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for AuthService")
	}
	if cacheRepo == nil {
		return nil, fmt.Errorf("CacheRepository is required for AuthService")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for AuthService")
	}
	if notifier == nil {
		notifier = NewNoopNotifier(log)
	}
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		notifier:   notifier,
		log:        log.With("component", "AuthService"),
	}, nil
}

// RegisterInput содержит данные для регистрации
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult - пользователь и выданный токен
type AuthResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func weakPassword() *apperrors.Error {
	return apperrors.Validation(apperrors.CodeWeakPassword,
		"password must be 8-20 characters and contain an uppercase letter, a lowercase letter and a digit")
}

// RegisterUser регистрирует нового пользователя и сразу выдает токен
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	if input.Username == "" {
		return nil, apperrors.Validation(apperrors.CodeValidation, "username is required")
	}
	if len([]rune(input.Username)) > entity.UsernameMaxLength {
		return nil, apperrors.Validation(apperrors.CodeUsernameTooLong,
			fmt.Sprintf("username must be at most %d characters", entity.UsernameMaxLength))
	}
	if len(input.Email) > entity.EmailMaxLength {
		return nil, apperrors.Validation(apperrors.CodeEmailTooLong,
			fmt.Sprintf("email must be at most %d characters", entity.EmailMaxLength))
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, apperrors.Validation(apperrors.CodeValidation, "email is invalid")
	}
	if !entity.IsStrongPassword(input.Password) {
		return nil, weakPassword()
	}

	// Проверяем, существует ли пользователь с таким email
	_, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperrors.Conflict(apperrors.CodeEmailExists, "user with this email already exists")
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}

	// Проверяем, существует ли пользователь с таким username
	_, err = s.userRepo.GetByUsername(ctx, input.Username)
	if err == nil {
		return nil, apperrors.Conflict(apperrors.CodeUsernameExists, "user with this username already exists")
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}

	user := &entity.User{Username: input.Username, Email: input.Email, Password: input.Password}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Гонка двух регистраций: уникальный индекс сработал после проверок выше
			return nil, apperrors.Conflict(apperrors.CodeUsernameExists, "username or email already exists")
		}
		s.log.Error("[AuthService] create user failed", "username", input.Username, "error", err)
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}

	s.log.Info("[AuthService] user registered", "user_id", user.ID)
	return s.issue(user)
}

// LoginUser проверяет учетные данные. identifier - username или email.
func (s *AuthService) LoginUser(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	invalid := apperrors.New(apperrors.ErrUnauthorized, apperrors.CodeInvalidCredentials, "invalid credentials")
	if identifier == "" || password == "" {
		return nil, invalid
	}

	var (
		user *entity.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, normalizeEmail(identifier))
	} else {
		user, err = s.userRepo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	if !user.CheckPassword(password) {
		return nil, invalid
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *entity.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeInternal, err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset всегда отвечает успехом, чтобы не раскрывать наличие аккаунта.
// Ошибка отправки письма только логируется.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal(apperrors.CodeInternal, err)
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.cacheRepo.Set(ctx, passwordResetKeyPrefix+token, strconv.FormatUint(uint64(user.ID), 10), PasswordResetTTL); err != nil {
		s.log.Error("[AuthService] store reset token failed", "user_id", user.ID, "error", err)
		return apperrors.Internal(apperrors.CodeInternal, err)
	}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.log.Warn("[AuthService] password reset email failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// ConfirmPasswordReset погашает одноразовый токен и устанавливает новый пароль
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	invalid := apperrors.New(apperrors.ErrExpiredToken, apperrors.CodeInvalidResetToken, "reset token is invalid or expired")
	if token == "" {
		return invalid
	}
	if !entity.IsStrongPassword(newPassword) {
		return weakPassword()
	}

	value, err := s.cacheRepo.Take(ctx, passwordResetKeyPrefix+token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return invalid
		}
		return apperrors.Internal(apperrors.CodeInternal, err)
	}
	userID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return invalid
	}
	if err := s.userRepo.UpdatePassword(ctx, uint(userID), newPassword); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return invalid
		}
		return apperrors.Internal(apperrors.CodeInternal, err)
	}
	s.log.Info("[AuthService] password reset", "user_id", userID)
	return nil
}

// SendUsernameReminder отправляет имя пользователя на email, если аккаунт существует.
// Всегда отвечает успехом.
func (s *AuthService) SendUsernameReminder(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal(apperrors.CodeInternal, err)
	}
	if err := s.notifier.SendUsernameReminder(ctx, user.Email, user.Username); err != nil {
		s.log.Warn("[AuthService] username reminder email failed", "user_id", user.ID, "error", err)
	}
	return nil
}
