package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_IsCorrect_CorrectAnswer(t *testing.T) {
	// Arrange
	question := &Question{
		ID:          1,
		QuizID:      1,
		Text:        "Какой язык используется в Go?",
		Options:     StringArray{"Python", "Go", "Java", "Rust"},
		AnswerIndex: 1, // "Go", индекс 1
	}

	// Act & Assert
	assert.True(t, question.IsCorrect(1), "IsCorrect должен вернуть true для правильного ответа")
}

func TestQuestion_IsCorrect_IncorrectAnswer(t *testing.T) {
	// Arrange
	question := &Question{
		ID:          1,
		AnswerIndex: 2,
	}

	// Act & Assert
	assert.False(t, question.IsCorrect(0), "IsCorrect должен вернуть false для неправильного ответа")
	assert.False(t, question.IsCorrect(1), "IsCorrect должен вернуть false для неправильного ответа")
	assert.False(t, question.IsCorrect(3), "IsCorrect должен вернуть false для неправильного ответа")
}

func TestQuestion_IsValidOption(t *testing.T) {
	// Arrange
	question := &Question{
		Options: StringArray{"A", "B", "C", "D"},
	}

	// Act & Assert: валидные опции
	assert.True(t, question.IsValidOption(0), "Индекс 0 должен быть валидным")
	assert.True(t, question.IsValidOption(3), "Индекс 3 должен быть валидным")

	// Assert: невалидные опции
	assert.False(t, question.IsValidOption(-1), "Отрицательный индекс должен быть невалидным")
	assert.False(t, question.IsValidOption(4), "Индекс вне диапазона должен быть невалидным")
}

func TestQuestion_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		q       Question
		wantErr error
	}{
		{"2 варианта", Question{Options: StringArray{"Да", "Нет"}, AnswerIndex: 1}, nil},
		{"6 вариантов", Question{Options: StringArray{"1", "2", "3", "4", "5", "6"}, AnswerIndex: 5}, nil},
		{"1 вариант", Question{Options: StringArray{"A"}, AnswerIndex: 0}, ErrInvalidOptionCount},
		{"7 вариантов", Question{Options: StringArray{"1", "2", "3", "4", "5", "6", "7"}}, ErrInvalidOptionCount},
		{"пустой вариант", Question{Options: StringArray{"A", ""}, AnswerIndex: 0}, ErrEmptyOption},
		{"индекс за пределами", Question{Options: StringArray{"A", "B"}, AnswerIndex: 2}, ErrAnswerIndexOutOfRange},
		{"отрицательный индекс", Question{Options: StringArray{"A", "B"}, AnswerIndex: -1}, ErrAnswerIndexOutOfRange},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestQuestion_OptionsCount(t *testing.T) {
	testCases := []struct {
		name     string
		options  StringArray
		expected int
	}{
		{"4 варианта", StringArray{"A", "B", "C", "D"}, 4},
		{"2 варианта", StringArray{"Да", "Нет"}, 2},
		{"0 вариантов", StringArray{}, 0},
		{"nil варианты", nil, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			question := &Question{Options: tc.options}
			assert.Equal(t, tc.expected, question.OptionsCount())
		})
	}
}

// Тесты для StringArray (JSONB сериализация)

func TestStringArray_Scan_ValidJSON(t *testing.T) {
	// Arrange
	jsonBytes := []byte(`["Option 1", "Option 2", "Option 3"]`)
	var arr StringArray

	// Act
	err := arr.Scan(jsonBytes)

	// Assert
	require.NoError(t, err, "Scan не должен возвращать ошибку для валидного JSON")
	assert.Equal(t, StringArray{"Option 1", "Option 2", "Option 3"}, arr)
}

func TestStringArray_Scan_StringValue(t *testing.T) {
	var arr StringArray

	err := arr.Scan(`["A","B"]`)

	require.NoError(t, err, "Scan должен принимать строку (sqlite)")
	assert.Equal(t, StringArray{"A", "B"}, arr)
}

func TestStringArray_Scan_NullValue(t *testing.T) {
	var arr StringArray

	err := arr.Scan(nil)

	require.NoError(t, err, "Scan не должен возвращать ошибку для nil")
	assert.Len(t, arr, 0, "Для nil должен вернуться пустой массив")
}

func TestStringArray_Scan_InvalidType(t *testing.T) {
	var arr StringArray

	// Act: передаём неподдерживаемый тип
	err := arr.Scan(42)

	assert.Error(t, err, "Scan должен возвращать ошибку для неподдерживаемого типа")
}

func TestStringArray_Value(t *testing.T) {
	val, err := StringArray{"A", "B", "C"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["A","B","C"]`, string(val.([]byte)))

	val, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(val.([]byte)), "nil должен сериализоваться в []")
}
