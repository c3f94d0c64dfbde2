package questionfile

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

const (
	keyQuestions     = "questions"
	keyQuestion      = "question"
	keyOptions       = "options"
	keyCorrectAnswer = "correct_answer"
	keySection       = "section"
	keyExplanation   = "explanation"
)

func parseJSON(data []byte) ([]Question, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, structuralf("Invalid JSON format: %v", err)
	}
	if dec.More() {
		return nil, structuralf("Invalid JSON format: unexpected data after top-level value")
	}

	items, err := topLevelItems(root)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, structuralf("JSON file contains no questions")
	}

	questions := make([]Question, 0, len(items))
	for i, item := range items {
		q, err := parseJSONQuestion(i+1, item)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// topLevelItems принимает массив вопросов, объект с массивом questions или одиночный вопрос
func topLevelItems(root interface{}) ([]interface{}, error) {
	switch v := root.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if raw, ok := v[keyQuestions]; ok {
			list, ok := raw.([]interface{})
			if !ok {
				return nil, structuralf("'questions' must be an array")
			}
			return list, nil
		}
		if hasKeys(v, keyQuestion, keyOptions, keyCorrectAnswer) {
			return []interface{}{v}, nil
		}
	}
	return nil, structuralf("JSON must be an array of questions, an object with a 'questions' array, or a single question object")
}

func hasKeys(m map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

func parseJSONQuestion(pos int, item interface{}) (Question, error) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return Question{}, jsonItemError(pos, "must be an object")
	}

	for _, k := range []string{keyQuestion, keyOptions, keyCorrectAnswer} {
		if _, ok := obj[k]; !ok {
			return Question{}, jsonItemError(pos, "Missing required field '%s'", k)
		}
	}

	text, ok := obj[keyQuestion].(string)
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return Question{}, jsonItemError(pos, "'question' must be a non-empty string")
	}

	rawOptions, ok := obj[keyOptions].([]interface{})
	if !ok {
		return Question{}, jsonItemError(pos, "'options' must be an array")
	}
	if n := len(rawOptions); n < entity.MinAnswerOptions || n > entity.MaxAnswerOptions {
		return Question{}, jsonItemError(pos, "'options' must contain between %d and %d items (got %d)",
			entity.MinAnswerOptions, entity.MaxAnswerOptions, n)
	}
	options := make([]string, 0, len(rawOptions))
	for i, raw := range rawOptions {
		opt, ok := scalarString(raw)
		if !ok || opt == "" {
			return Question{}, jsonItemError(pos, "option %d must be a non-empty string", i+1)
		}
		options = append(options, opt)
	}

	num, ok := obj[keyCorrectAnswer].(json.Number)
	if !ok {
		return Question{}, jsonItemError(pos, "'correct_answer' must be an integer")
	}
	idx, err := strconv.Atoi(num.String())
	if err != nil {
		return Question{}, jsonItemError(pos, "'correct_answer' must be an integer")
	}
	if idx < 0 || idx >= len(options) {
		return Question{}, jsonItemError(pos, "'correct_answer' index %d is out of range (0-%d)", idx, len(options)-1)
	}

	section, err := optionalString(pos, obj, keySection)
	if err != nil {
		return Question{}, err
	}
	explanation, err := optionalString(pos, obj, keyExplanation)
	if err != nil {
		return Question{}, err
	}

	return Question{
		Text:        text,
		Options:     options,
		AnswerIndex: idx,
		Section:     sectionOrDefault(section),
		Explanation: explanation,
	}, nil
}

// scalarString приводит строку, число или bool к обрезанной строке
func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func optionalString(pos int, obj map[string]interface{}, key string) (string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", jsonItemError(pos, "'%s' must be a string", key)
	}
	return strings.TrimSpace(s), nil
}
