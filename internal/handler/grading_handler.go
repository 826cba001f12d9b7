package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xinghusp/online-examsys-backend/internal/service"
)

// GradingHandler обрабатывает запросы ручной проверки
type GradingHandler struct {
	gradingService *service.GradingService
}

// NewGradingHandler создает новый обработчик проверки
func NewGradingHandler(gradingService *service.GradingService) *GradingHandler {
	return &GradingHandler{gradingService: gradingService}
}

// ManualQueue возвращает ответы экзамена, ожидающие ручной проверки
func (h *GradingHandler) ManualQueue(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	answers, err := h.gradingService.ListManualQueue(examID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers, "total": len(answers)})
}

// ManualGradeRequest представляет запрос на выставление ручной оценки
type ManualGradeRequest struct {
	QuestionID uint    `json:"question_id" binding:"required"`
	Score      float64 `json:"score" binding:"min=0"`
	Comments   string  `json:"comments,omitempty"`
}

// GradeAnswer записывает оценку проверяющего за один ответ
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	var req ManualGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.gradingService.ApplyManualGrade(attemptID, req.QuestionID, currentUserID(c), req.Score, req.Comments); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer graded"})
}
