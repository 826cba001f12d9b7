package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// handleServiceError транслирует ошибки сервисного слоя в HTTP ответы
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrEligibilityDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrConcurrentModification),
		errors.Is(err, apperrors.ErrQuestionInUse),
		errors.Is(err, repository.ErrAttemptExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidExamConfig),
		errors.Is(err, apperrors.ErrInsufficientQuestions),
		errors.Is(err, apperrors.ErrMalformedAnswer),
		errors.Is(err, apperrors.ErrUnknownQuestionType),
		errors.Is(err, apperrors.ErrAttemptIncomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUserID возвращает ID пользователя из контекста Gin
func currentUserID(c *gin.Context) uint {
	return c.MustGet("user_id").(uint)
}

// isAdmin сообщает, что запрос пришел от администратора
func isAdmin(c *gin.Context) bool {
	v, exists := c.Get("is_admin")
	if !exists {
		return false
	}
	admin, ok := v.(bool)
	return ok && admin
}
