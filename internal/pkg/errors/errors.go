package errors

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен (например, ссылка сброса пароля) истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (например, уже есть незавершенная попытка).
	ErrConflict = errors.New("resource state conflict")

	// ErrInternal - сбой хранилища или транзакции. Клиент может повторить запрос позже.
	ErrInternal = errors.New("internal error")
)

// Машиночитаемые коды ошибок, возвращаемые клиенту
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeInvalidFile        = "INVALID_FILE"
	CodeIngestionFailed    = "INGESTION_FAILED"
	CodeQuizNotFound       = "QUIZ_NOT_FOUND"
	CodeQuestionNotFound   = "QUESTION_NOT_FOUND"
	CodeAttemptNotFound    = "ATTEMPT_NOT_FOUND"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeConcurrentAttempt  = "CONCURRENT_ATTEMPT"
	CodeAttemptCompleted   = "ATTEMPT_COMPLETED"
	CodeAttemptNotDone     = "ATTEMPT_NOT_COMPLETED"
	CodeAttemptExpired     = "ATTEMPT_EXPIRED"
	CodeNoQuestions        = "NO_QUESTIONS"
	CodeInvalidOptionType  = "INVALID_OPTION_TYPE"
	CodeOptionOutOfRange   = "OPTION_OUT_OF_RANGE"
	CodeOptionsInUse       = "OPTIONS_IN_USE"
	CodeNavBeforeStart     = "NAVIGATION_BEFORE_START"
	CodeNavBeyondEnd       = "NAVIGATION_BEYOND_END"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeUsernameTooLong    = "USERNAME_TOO_LONG"
	CodeEmailTooLong       = "EMAIL_TOO_LONG"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	CodeTitleInvalid       = "TITLE_VALIDATION_FAILED"
	CodeStorageFailed      = "STORAGE_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error - ошибка с машиночитаемым кодом. Kind - одна из общих ошибок выше,
// поэтому errors.Is(err, ErrConflict) продолжает работать.
type Error struct {
	Kind    error
	Code    string
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap позволяет errors.Is находить и Kind, и исходную причину.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

// WithDetails добавляет к ошибке дополнительные поля для ответа клиенту.
func (e *Error) WithDetails(kv map[string]interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(kv))
	}
	for k, v := range kv {
		e.Details[k] = v
	}
	return e
}

// New создает кодированную ошибку заданного вида.
func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap создает кодированную ошибку, сохраняя исходную причину (для логов, не для клиента).
func Wrap(kind error, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// Validation - сокращение для ошибок ввода.
func Validation(code, message string) *Error {
	return New(ErrValidation, code, message)
}

// Conflict - сокращение для конфликтов состояния.
func Conflict(code, message string) *Error {
	return New(ErrConflict, code, message)
}

// NotFound - сокращение для отсутствующих ресурсов.
func NotFound(code, message string) *Error {
	return New(ErrNotFound, code, message)
}

// Internal оборачивает системный сбой. Причина идет только в лог.
func Internal(code string, cause error) *Error {
	return Wrap(ErrInternal, code, "internal server error", cause)
}

// As возвращает кодированную ошибку из цепочки, если она есть.
func As(err error) (*Error, bool) {
	var coded *Error
	if errors.As(err, &coded) {
		return coded, true
	}
	return nil, false
}
