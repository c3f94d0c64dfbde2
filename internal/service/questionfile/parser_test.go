package questionfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
)

func requireParseError(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, kind, perr.Kind, "неожиданный вид ошибки: %v", err)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "ошибка разбора должна быть ошибкой валидации")
	return perr
}

// ============================================================================
// Общие проверки
// ============================================================================

func TestParse_EmptyFile(t *testing.T) {
	p := NewParser(0)

	_, err := p.Parse(nil, "questions.csv")
	requireParseError(t, err, KindEmptyFile)

	_, err = p.Parse([]byte("   \n\t"), "questions.json")
	requireParseError(t, err, KindEmptyFile)
}

func TestParse_SizeCheckedBeforeExtension(t *testing.T) {
	p := NewParser(16)

	_, err := p.Parse(bytes.Repeat([]byte("a"), 17), "notes.txt")
	requireParseError(t, err, KindFileTooLarge)
}

func TestParse_UnsupportedType(t *testing.T) {
	p := NewParser(0)

	for _, name := range []string{"q.txt", "q.xlsx", "q", "q.csv.bak"} {
		_, err := p.Parse([]byte("data"), name)
		perr := requireParseError(t, err, KindUnsupportedType)
		assert.Equal(t, "Unsupported file type. Please upload CSV or JSON files only.", perr.Error())
	}
}

func TestParse_ExtensionIsCaseInsensitive(t *testing.T) {
	p := NewParser(0)

	res, err := p.Parse([]byte(`[{"question":"Q?","options":["A","B"],"correct_answer":0}]`), "UPPER.JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, res.Format)
}

func TestParse_InvalidUTF8(t *testing.T) {
	p := NewParser(0)

	_, err := p.Parse([]byte{0xff, 0xfe, 'q', 0x00, 0xc3}, "q.csv")
	perr := requireParseError(t, err, KindEncoding)
	assert.Contains(t, perr.Error(), "UTF-8")
}

// ============================================================================
// CSV
// ============================================================================

const csvHeader = "question,option_a,option_b,option_c,option_d,correct_answer,section\n"

func TestParseCSV_Valid(t *testing.T) {
	data := csvHeader +
		"2+2?,3,4,5,6,b,Math\n" +
		"Capital of France?,Berlin,Paris,Rome,Madrid,B,Geography\n" +
		"3*3?,6,7,8,9,d,Math\n"

	res, err := NewParser(0).Parse([]byte(data), "quiz.csv")

	require.NoError(t, err)
	require.Len(t, res.Questions, 3)
	assert.Equal(t, Question{Text: "2+2?", Options: []string{"3", "4", "5", "6"}, AnswerIndex: 1, Section: "Math"}, res.Questions[0])
	assert.Equal(t, 3, res.Questions[2].AnswerIndex)
	assert.Equal(t, 3, res.Metadata.TotalQuestions)
	assert.Equal(t, []string{"Math", "Geography"}, res.Metadata.Sections)
	assert.Equal(t, map[string]int{"Math": 2, "Geography": 1}, res.Metadata.SectionCounts)
}

func TestParseCSV_LetterMapping(t *testing.T) {
	cases := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "A": 0, "B": 1, "C": 2, "D": 3, " c ": 2}

	for letter, want := range cases {
		data := csvHeader + "Q?,w,x,y,z," + letter + ",S\n"
		res, err := NewParser(0).Parse([]byte(data), "q.csv")
		require.NoError(t, err, "буква %q", letter)
		assert.Equal(t, want, res.Questions[0].AnswerIndex, "буква %q", letter)
	}
}

func TestParseCSV_RejectsOtherLetters(t *testing.T) {
	for _, letter := range []string{"e", "E", "1", "0", "ab", "z", "@", "`"} {
		data := csvHeader + "Q?,w,x,y,z," + letter + ",S\n"
		_, err := NewParser(0).Parse([]byte(data), "q.csv")
		perr := requireParseError(t, err, KindRow)
		assert.Equal(t, 2, perr.Position)
	}
}

func TestParseCSV_RowNumberInError(t *testing.T) {
	data := csvHeader +
		"Q1,a,b,c,d,a,S\n" +
		"Q2,a,b,c,d,E,S\n" +
		"Q3,a,b,c,d,c,S\n" +
		"Q4,a,b,c,d,d,S\n" +
		"Q5,a,b,c,d,b,S\n"

	_, err := NewParser(0).Parse([]byte(data), "q.csv")

	perr := requireParseError(t, err, KindRow)
	assert.Equal(t, 3, perr.Position)
	assert.True(t, strings.HasPrefix(perr.Error(), "Row 3: "), perr.Error())
	assert.Contains(t, perr.Error(), "correct_answer must be a, b, c, or d")
}

func TestParseCSV_HeaderNormalization(t *testing.T) {
	data := "\ufeff Question ,OPTION_A, Option_B,option_c,option_d,Correct_Answer\n" +
		"Q?,a,b,c,d,a\n"

	res, err := NewParser(0).Parse([]byte(data), "q.csv")

	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "General", res.Questions[0].Section, "раздел по умолчанию")
	assert.Equal(t, "", res.Questions[0].Explanation)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	data := "question,option_a,option_b,answer\nQ?,a,b,a\n"

	_, err := NewParser(0).Parse([]byte(data), "q.csv")

	perr := requireParseError(t, err, KindStructural)
	assert.Contains(t, perr.Error(), "option_c, option_d, correct_answer")
	assert.Contains(t, perr.Error(), "Found columns: question, option_a, option_b, answer")
}

func TestParseCSV_SkipsBlankRowsButKeepsNumbering(t *testing.T) {
	data := csvHeader +
		"Q1,a,b,c,d,a,S\n" +
		",,,,,,\n" +
		"\n" +
		"Q3,a,b,,d,a,S\n"

	_, err := NewParser(0).Parse([]byte(data), "q.csv")

	perr := requireParseError(t, err, KindRow)
	// пустая строка файла не считается записью, строка из запятых - считается
	assert.Equal(t, 4, perr.Position)
	assert.Contains(t, perr.Error(), "Missing value for 'option_c'")
}

func TestParseCSV_ExplanationAndBlankSection(t *testing.T) {
	data := "question,option_a,option_b,option_c,option_d,correct_answer,section,explanation\n" +
		"Q?,a,b,c,d,a,  ,Because\n"

	res, err := NewParser(0).Parse([]byte(data), "q.csv")

	require.NoError(t, err)
	assert.Equal(t, "General", res.Questions[0].Section)
	assert.Equal(t, "Because", res.Questions[0].Explanation)
}

func TestParseCSV_NoValidQuestions(t *testing.T) {
	_, err := NewParser(0).Parse([]byte(csvHeader+",,,,,,\n"), "q.csv")

	perr := requireParseError(t, err, KindStructural)
	assert.Equal(t, "CSV file contains no valid questions", perr.Error())
}

func TestParseCSV_QuotedFields(t *testing.T) {
	data := csvHeader + `"Which, exactly?","one, two",b,c,d,a,"Trivia, misc"` + "\n"

	res, err := NewParser(0).Parse([]byte(data), "q.csv")

	require.NoError(t, err)
	assert.Equal(t, "Which, exactly?", res.Questions[0].Text)
	assert.Equal(t, "one, two", res.Questions[0].Options[0])
	assert.Equal(t, "Trivia, misc", res.Questions[0].Section)
}

// ============================================================================
// JSON
// ============================================================================

func TestParseJSON_TopLevelArray(t *testing.T) {
	res, err := NewParser(0).Parse([]byte(`[{"question":"Q?","options":["A","B"],"correct_answer":1}]`), "q.json")

	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, Question{Text: "Q?", Options: []string{"A", "B"}, AnswerIndex: 1, Section: "General"}, res.Questions[0])
	assert.Equal(t, []string{"General"}, res.Metadata.Sections)
}

func TestParseJSON_QuestionsObject(t *testing.T) {
	data := `{"title":"ignored","questions":[
		{"question":"Q1","options":["A","B","C"],"correct_answer":2,"section":"S1","explanation":"E"},
		{"question":"Q2","options":[1, 2.5, true],"correct_answer":0,"section":"S1"}
	]}`

	res, err := NewParser(0).Parse([]byte(data), "q.json")

	require.NoError(t, err)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, "E", res.Questions[0].Explanation)
	assert.Equal(t, []string{"1", "2.5", "true"}, res.Questions[1].Options, "скаляры приводятся к строкам")
	assert.Equal(t, map[string]int{"S1": 2}, res.Metadata.SectionCounts)
}

func TestParseJSON_SingleObject(t *testing.T) {
	res, err := NewParser(0).Parse([]byte(`{"question":"Q?","options":["A","B"],"correct_answer":0}`), "q.json")

	require.NoError(t, err)
	assert.Len(t, res.Questions, 1)
}

func TestParseJSON_StructuralErrors(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"question":`,
		"scalar":            `42`,
		"unknown object":    `{"foo":"bar"}`,
		"questions not arr": `{"questions":{"question":"Q"}}`,
		"empty array":       `[]`,
		"trailing data":     `[] []`,
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewParser(0).Parse([]byte(data), "q.json")
			requireParseError(t, err, KindStructural)
		})
	}
}

func TestParseJSON_ItemErrors(t *testing.T) {
	cases := []struct {
		name   string
		item   string
		detail string
	}{
		{"not object", `"Q?"`, "must be an object"},
		{"missing question", `{"options":["A","B"],"correct_answer":0}`, "Missing required field 'question'"},
		{"blank question", `{"question":"  ","options":["A","B"],"correct_answer":0}`, "'question' must be a non-empty string"},
		{"options not array", `{"question":"Q","options":"A,B","correct_answer":0}`, "'options' must be an array"},
		{"one option", `{"question":"Q","options":["A"],"correct_answer":0}`, "between 2 and 6"},
		{"seven options", `{"question":"Q","options":["1","2","3","4","5","6","7"],"correct_answer":0}`, "between 2 and 6"},
		{"empty option", `{"question":"Q","options":["A"," "],"correct_answer":0}`, "option 2 must be a non-empty string"},
		{"null option", `{"question":"Q","options":["A",null],"correct_answer":0}`, "option 2 must be a non-empty string"},
		{"string index", `{"question":"Q","options":["A","B"],"correct_answer":"1"}`, "must be an integer"},
		{"float index", `{"question":"Q","options":["A","B"],"correct_answer":1.5}`, "must be an integer"},
		{"out of range", `{"question":"Q","options":["A","B"],"correct_answer":2}`, "'correct_answer' index 2 is out of range"},
		{"negative", `{"question":"Q","options":["A","B"],"correct_answer":-1}`, "'correct_answer' index -1 is out of range"},
		{"section not string", `{"question":"Q","options":["A","B"],"correct_answer":0,"section":5}`, "'section' must be a string"},
	}

	valid := `{"question":"ok","options":["A","B"],"correct_answer":0}`
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := "[" + valid + "," + tc.item + "]"
			_, err := NewParser(0).Parse([]byte(data), "q.json")

			perr := requireParseError(t, err, KindRow)
			assert.Equal(t, 2, perr.Position)
			assert.True(t, strings.HasPrefix(perr.Error(), "Question 2: "), perr.Error())
			assert.Contains(t, perr.Error(), tc.detail)
		})
	}
}

func TestParse_AcceptedQuestionsKeepIndexInRange(t *testing.T) {
	data := `[
		{"question":"A","options":["1","2"],"correct_answer":1},
		{"question":"B","options":["1","2","3","4","5","6"],"correct_answer":5},
		{"question":"C","options":["1","2","3"],"correct_answer":0}
	]`

	res, err := NewParser(0).Parse([]byte(data), "q.json")

	require.NoError(t, err)
	for _, q := range res.Questions {
		assert.GreaterOrEqual(t, q.AnswerIndex, 0)
		assert.Less(t, q.AnswerIndex, len(q.Options))
	}
}

func TestMetadata_AsMap(t *testing.T) {
	m := Metadata{TotalQuestions: 3, Sections: []string{"A", "B"}, SectionCounts: map[string]int{"A": 2, "B": 1}}

	out := m.AsMap()

	assert.Equal(t, 3, out["total_questions"])
	assert.Equal(t, []interface{}{"A", "B"}, out["sections"])
	assert.Equal(t, map[string]interface{}{"A": 2, "B": 1}, out["section_counts"])
}
