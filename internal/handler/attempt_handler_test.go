package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// ============================================================================
// selected_option: только целое JSON-число
// ============================================================================

func TestSubmitAnswer_OptionTypeValidation(t *testing.T) {
	handler := NewAttemptHandler(nil, logger.NewNop()) // до сервиса запрос не доходит

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "string option", body: `{"question_id": 1, "selected_option": "1"}`, wantCode: apperrors.CodeInvalidOptionType},
		{name: "decimal option", body: `{"question_id": 1, "selected_option": 1.5}`, wantCode: apperrors.CodeInvalidOptionType},
		{name: "boolean option", body: `{"question_id": 1, "selected_option": true}`, wantCode: apperrors.CodeInvalidOptionType},
		{name: "missing option", body: `{"question_id": 1}`, wantCode: apperrors.CodeValidation},
		{name: "missing question", body: `{"selected_option": 1}`, wantCode: apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPut, "/api/attempts/1/answers", nil)
			c.Request, _ = http.NewRequest(http.MethodPut, "/api/attempts/1/answers", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")
			c.Set("attemptID", uint(1))
			c.Set("user_id", uint(1))

			handler.SubmitAnswer(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

// ============================================================================
// Полный цикл прохождения через роутер
// ============================================================================

func TestAttemptFlow_StartAnswerComplete(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	token := srv.register(t, "alice")
	quizID := srv.uploadQuiz(t, token, threeQuestionCSV)

	// Act: старт без тела
	w := srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	start := parseJSONResponse(t, w)
	assert.Equal(t, float64(3), start["total_questions"])
	first := start["first_question"].(map[string]interface{})
	assert.Equal(t, "Q1", first["text"])
	assert.NotContains(t, first, "answer_index", "правильный ответ не раскрывается при прохождении")

	attempt := start["attempt"].(map[string]interface{})
	attemptID := uint(attempt["id"].(float64))
	assert.Equal(t, "in_progress", attempt["state"])
	base := fmt.Sprintf("/api/attempts/%d", attemptID)

	// Второй старт - конфликт с id существующей попытки
	w = srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), token, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	conflict := parseJSONResponse(t, w)
	assert.Equal(t, apperrors.CodeConcurrentAttempt, conflict["code"])
	details := conflict["details"].(map[string]interface{})
	assert.Equal(t, float64(attemptID), details["existing_attempt_id"])

	// Отвечаем на Q1 верно, на Q2 неверно
	questionIDs := make([]float64, 0, 3)
	for n := 1; n <= 3; n++ {
		w = srv.do(t, http.MethodGet, fmt.Sprintf("%s/questions/%d", base, n), token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		view := parseJSONResponse(t, w)
		assert.Equal(t, n > 1, view["can_go_back"], "вопрос %d", n)
		assert.Equal(t, n < 3, view["can_go_forward"], "вопрос %d", n)
		questionIDs = append(questionIDs, view["question"].(map[string]interface{})["id"].(float64))
	}

	w = srv.do(t, http.MethodPut, base+"/answers", token, fmt.Sprintf(`{"question_id": %d, "selected_option": 0, "response_time_ms": 1200}`, int(questionIDs[0])))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, parseJSONResponse(t, w)["is_correct"])

	w = srv.do(t, http.MethodPut, base+"/answers", token, fmt.Sprintf(`{"question_id": %d, "selected_option": 3}`, int(questionIDs[1])))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, parseJSONResponse(t, w)["is_correct"])

	w = srv.do(t, http.MethodPut, base+"/answers", token, fmt.Sprintf(`{"question_id": %d, "selected_option": 7}`, int(questionIDs[2])))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeOptionOutOfRange, errorCode(t, w))

	// Resume указывает на Q3
	w = srv.do(t, http.MethodGet, base+"/resume", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resume := parseJSONResponse(t, w)
	assert.Equal(t, float64(2), resume["answered_count"])
	assert.Equal(t, false, resume["all_answered"])

	// Результат до завершения недоступен
	w = srv.do(t, http.MethodGet, base+"/result", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeAttemptNotDone, errorCode(t, w))

	// Завершение: 1 из 3
	w = srv.do(t, http.MethodPost, base+"/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := parseJSONResponse(t, w)
	assert.InDelta(t, 33.33, done["score"].(float64), 0.001)
	assert.Equal(t, float64(1), done["correct_answers"])
	assert.Equal(t, "Needs Practice", done["mastery_level"])

	// Assert: попытка терминальна
	w = srv.do(t, http.MethodPut, base+"/answers", token, fmt.Sprintf(`{"question_id": %d, "selected_option": 2}`, int(questionIDs[2])))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeAttemptCompleted, errorCode(t, w))

	w = srv.do(t, http.MethodGet, base+"/result", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := parseJSONResponse(t, w)["items"].([]interface{})
	require.Len(t, items, 3)
	assert.Nil(t, items[2].(map[string]interface{})["selected_option"], "на Q3 ответа нет")

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseJSONResponse(t, w)["attempts"], 1)
}

func TestAttemptFlow_NavigationOutOfRange(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "alice")
	quizID := srv.uploadQuiz(t, token, threeQuestionCSV)

	w := srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), token, map[string]interface{}{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attemptID := uint(parseJSONResponse(t, w)["attempt"].(map[string]interface{})["id"].(float64))

	tests := []struct {
		number     string
		wantStatus int
		wantCode   string
	}{
		{number: "0", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeNavBeforeStart},
		{number: "4", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeNavBeyondEnd},
		{number: "x", wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			w := srv.do(t, http.MethodGet, fmt.Sprintf("/api/attempts/%d/questions/%s", attemptID, tt.number), token, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestAttemptFlow_StrangerCannotTouchAttempt(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.register(t, "alice")
	stranger := srv.register(t, "bob")
	quizID := srv.uploadQuiz(t, owner, threeQuestionCSV)

	w := srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/attempts", quizID), owner, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	attemptID := uint(parseJSONResponse(t, w)["attempt"].(map[string]interface{})["id"].(float64))

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/attempts/%d", attemptID), stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.CodeAccessDenied, errorCode(t, w))

	w = srv.do(t, http.MethodGet, "/api/attempts/9999", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeAttemptNotFound, errorCode(t, w))
}
