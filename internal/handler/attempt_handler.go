package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/handler/dto"
	"github.com/xinghusp/online-examsys-backend/internal/service"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// AttemptHandler обрабатывает запросы жизненного цикла попытки
type AttemptHandler struct {
	attemptService *service.AttemptService
	clock          clock.Clock
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attemptService *service.AttemptService, clk clock.Clock) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService, clock: clk}
}

// StartAttempt начинает (или возобновляет) попытку по экзамену
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	attempt, err := h.attemptService.StartAttempt(examID, currentUserID(c), c.ClientIP())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt, h.clock.Now()))
}

// GetAttempt возвращает состояние попытки
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	attempt, err := h.attemptService.GetAttempt(attemptID, currentUserID(c), isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt, h.clock.Now()))
}

// GetQuestions возвращает билет попытки без эталонных ответов
func (h *AttemptHandler) GetQuestions(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	questions, err := h.attemptService.AttemptQuestions(attemptID, currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions, "total": len(questions)})
}

// SaveAnswerRequest представляет запрос на сохранение ответа
type SaveAnswerRequest struct {
	QuestionID uint           `json:"question_id" binding:"required"`
	UserAnswer entity.RawJSON `json:"user_answer"`
}

// SaveAnswer сохраняет ответ на вопрос билета
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	var req SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.attemptService.SaveAnswer(attemptID, currentUserID(c), req.QuestionID, req.UserAnswer); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer saved"})
}

// Heartbeat отмечает, что клиент жив, и возвращает остаток времени
func (h *AttemptHandler) Heartbeat(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	remaining, status, err := h.attemptService.Heartbeat(attemptID, currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            status,
		"remaining_seconds": int64(remaining.Seconds()),
	})
}

// SubmitAttempt сдает попытку
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	if err := h.attemptService.SubmitAttempt(attemptID, currentUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attempt submitted"})
}

// AbortAttempt принудительно прерывает попытку (только администратор)
func (h *AttemptHandler) AbortAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	if err := h.attemptService.AbortAttempt(attemptID, currentUserID(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attempt aborted"})
}
