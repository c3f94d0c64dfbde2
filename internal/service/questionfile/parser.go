// Package questionfile разбирает загруженные CSV/JSON файлы с вопросами
// в нормализованный список вопросов и сводку по разделам.
// Пакет не имеет побочных эффектов: никаких обращений к БД или хранилищу.
package questionfile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
)

// DefaultMaxBytes - предельный размер загружаемого файла (10 MiB)
const DefaultMaxBytes int64 = 10 << 20

// Поддерживаемые форматы
const (
	FormatCSV  = entity.FileTypeCSV
	FormatJSON = entity.FileTypeJSON
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Question - нормализованный вопрос, одинаковый для обоих форматов.
type Question struct {
	Text        string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"correct_answer"`
	Section     string   `json:"section"`
	Explanation string   `json:"explanation,omitempty"`
}

// Metadata - сводка по разобранному файлу. Порядок Sections - порядок первого появления.
type Metadata struct {
	TotalQuestions int            `json:"total_questions"`
	Sections       []string       `json:"sections"`
	SectionCounts  map[string]int `json:"section_counts"`
}

// AsMap - представление для JSON-колонки файла
func (m Metadata) AsMap() map[string]interface{} {
	counts := make(map[string]interface{}, len(m.SectionCounts))
	for k, v := range m.SectionCounts {
		counts[k] = v
	}
	sections := make([]interface{}, 0, len(m.Sections))
	for _, s := range m.Sections {
		sections = append(sections, s)
	}
	return map[string]interface{}{
		"total_questions": m.TotalQuestions,
		"sections":        sections,
		"section_counts":  counts,
	}
}

// Result - результат разбора
type Result struct {
	Format    string
	Questions []Question
	Metadata  Metadata
}

// Parser проверяет и разбирает файлы вопросов
type Parser struct {
	maxBytes int64
}

// NewParser создает парсер. maxBytes <= 0 означает DefaultMaxBytes.
func NewParser(maxBytes int64) *Parser {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Parser{maxBytes: maxBytes}
}

// MaxBytes возвращает действующий лимит размера
func (p *Parser) MaxBytes() int64 {
	return p.maxBytes
}

// Parse проверяет размер, расширение и кодировку, затем разбирает содержимое.
// Каждая проверка прерывает разбор при первой ошибке.
func (p *Parser) Parse(data []byte, filename string) (*Result, error) {
	if len(data) == 0 {
		return nil, newError(KindEmptyFile, "File is empty")
	}
	if int64(len(data)) > p.maxBytes {
		return nil, p.tooLarge()
	}

	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, newError(KindEncoding, "File encoding not supported. Please use UTF-8")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newError(KindEmptyFile, "File is empty")
	}

	var questions []Question
	switch format {
	case FormatCSV:
		questions, err = parseCSV(data)
	case FormatJSON:
		questions, err = parseJSON(data)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Format:    format,
		Questions: questions,
		Metadata:  summarize(questions),
	}, nil
}

func (p *Parser) tooLarge() *Error {
	return newError(KindFileTooLarge, fmt.Sprintf("File size exceeds the %d MB limit", p.maxBytes>>20))
}

// DetectFormat определяет формат по расширению файла
func DetectFormat(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", newError(KindUnsupportedType, "Unsupported file type. Please upload CSV or JSON files only.")
	}
}

func summarize(questions []Question) Metadata {
	meta := Metadata{
		TotalQuestions: len(questions),
		Sections:       make([]string, 0),
		SectionCounts:  make(map[string]int),
	}
	for _, q := range questions {
		if _, seen := meta.SectionCounts[q.Section]; !seen {
			meta.Sections = append(meta.Sections, q.Section)
		}
		meta.SectionCounts[q.Section]++
	}
	return meta
}

func sectionOrDefault(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return entity.DefaultSectionName
	}
	return s
}
