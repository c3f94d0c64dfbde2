package helper

import (
	"strconv"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

// QuestionOption - вариант ответа для фронтенда
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов с id и text.
// ID - 0-based индекс, тот же, что в answer_index и selected_option.
func ConvertOptionsToObjects(options entity.StringArray) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		converted[i] = QuestionOption{ID: i, Text: opt}
	}
	return converted
}

// ParseIntDefault разбирает query-параметр, при ошибке возвращает def
func ParseIntDefault(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
