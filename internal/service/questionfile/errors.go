package questionfile

import (
	"fmt"

	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
)

// Kind - вид ошибки разбора. Все виды - ошибки пользовательского ввода, повторять их бессмысленно.
type Kind string

const (
	KindEmptyFile       Kind = "EMPTY_FILE"
	KindFileTooLarge    Kind = "FILE_TOO_LARGE"
	KindUnsupportedType Kind = "UNSUPPORTED_TYPE"
	KindEncoding        Kind = "ENCODING_ERROR"
	KindStructural      Kind = "STRUCTURAL_ERROR"
	KindRow             Kind = "ROW_ERROR"
)

// Error - типизированная ошибка разбора файла.
// Position: номер строки CSV (заголовок = 1) или 1-based позиция вопроса в JSON; 0, если не относится к записи.
type Error struct {
	Kind     Kind
	Position int
	Detail   string
	format   string
}

func (e *Error) Error() string {
	if e.Kind != KindRow {
		return e.Detail
	}
	if e.format == FormatJSON {
		return fmt.Sprintf("Question %d: %s", e.Position, e.Detail)
	}
	return fmt.Sprintf("Row %d: %s", e.Position, e.Detail)
}

// Unwrap: любая ошибка разбора - ошибка валидации
func (e *Error) Unwrap() error {
	return apperrors.ErrValidation
}

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func structuralf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStructural, Detail: fmt.Sprintf(format, args...)}
}

func csvRowError(row int, format string, args ...interface{}) *Error {
	return &Error{Kind: KindRow, Position: row, Detail: fmt.Sprintf(format, args...), format: FormatCSV}
}

func jsonItemError(pos int, format string, args ...interface{}) *Error {
	return &Error{Kind: KindRow, Position: pos, Detail: fmt.Sprintf(format, args...), format: FormatJSON}
}
