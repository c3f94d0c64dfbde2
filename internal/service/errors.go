package service

import (
	"errors"

	"github.com/yourusername/quizcanvas-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizcanvas-api/internal/pkg/errors"
)

// Конструкторы, а не переменные: WithDetails мутирует ошибку.
func quizNotFound() *apperrors.Error {
	return apperrors.NotFound(apperrors.CodeQuizNotFound, "quiz not found")
}

func attemptNotFound() *apperrors.Error {
	return apperrors.NotFound(apperrors.CodeAttemptNotFound, "attempt not found")
}

func questionNotFound() *apperrors.Error {
	return apperrors.NotFound(apperrors.CodeQuestionNotFound, "question not found")
}

// accessDenied - общий отказ, существование чужого ресурса не раскрывается
func accessDenied() *apperrors.Error {
	return apperrors.New(apperrors.ErrForbidden, apperrors.CodeAccessDenied, "you do not have access to this resource")
}

// mapRepoErr: ErrNotFound -> notFound(), прочие ошибки хранилища -> Internal
func mapRepoErr(err error, notFound func() *apperrors.Error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return notFound()
	}
	return apperrors.Internal(apperrors.CodeInternal, err)
}

// ensureQuizOwner проверяет, что викторина принадлежит пользователю (через файл)
func ensureQuizOwner(quiz *entity.Quiz, userID uint) error {
	if !quiz.IsOwnedBy(userID) {
		return accessDenied()
	}
	return nil
}
