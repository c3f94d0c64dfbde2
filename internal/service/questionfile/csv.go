package questionfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

const (
	colQuestion      = "question"
	colOptionA       = "option_a"
	colOptionB       = "option_b"
	colOptionC       = "option_c"
	colOptionD       = "option_d"
	colCorrectAnswer = "correct_answer"
	colSection       = "section"
	colExplanation   = "explanation"
)

// Обязательные колонки в порядке сообщения об ошибке
var requiredCSVColumns = []string{colQuestion, colOptionA, colOptionB, colOptionC, colOptionD, colCorrectAnswer}

var optionColumns = []string{colOptionA, colOptionB, colOptionC, colOptionD}

func parseCSV(data []byte) ([]Question, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, structuralf("CSV file has no header row")
	}
	if err != nil {
		return nil, structuralf("Invalid CSV format: %v", err)
	}

	index := make(map[string]int, len(header))
	found := make([]string, 0, len(header))
	for i, name := range header {
		name = normalizeHeader(name)
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
		found = append(found, name)
	}

	var missing []string
	for _, col := range requiredCSVColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, structuralf("Missing required columns: %s. Found columns: %s",
			strings.Join(missing, ", "), strings.Join(found, ", "))
	}

	var questions []Question
	// Заголовок - строка 1, первая строка данных - строка 2
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, csvRowError(row, "invalid CSV record: %v", err)
		}

		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if isBlankRecord(record) {
			continue
		}

		for _, col := range requiredCSVColumns {
			if field(col) == "" {
				return nil, csvRowError(row, "Missing value for '%s'", col)
			}
		}

		answerIndex, ok := letterToIndex(field(colCorrectAnswer))
		if !ok {
			return nil, csvRowError(row, "correct_answer must be a, b, c, or d (got '%s')", field(colCorrectAnswer))
		}

		options := make([]string, 0, len(optionColumns))
		for _, col := range optionColumns {
			options = append(options, field(col))
		}

		questions = append(questions, Question{
			Text:        field(colQuestion),
			Options:     options,
			AnswerIndex: answerIndex,
			Section:     sectionOrDefault(field(colSection)),
			Explanation: field(colExplanation),
		})
	}

	if len(questions) == 0 {
		return nil, structuralf("CSV file contains no valid questions")
	}
	return questions, nil
}

// normalizeHeader: регистр и пробелы игнорируются, BOM у первой колонки тоже
func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// letterToIndex: a|b|c|d в любом регистре -> 0..3
func letterToIndex(v string) (int, bool) {
	if len(v) != 1 {
		return 0, false
	}
	c := v[0] | 0x20 // в нижний регистр для латиницы
	if c < 'a' || c > 'd' {
		return 0, false
	}
	return int(c - 'a'), true
}
