package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/handler/dto"
	"github.com/xinghusp/online-examsys-backend/internal/service"
)

// ExamHandler обрабатывает запросы, связанные с экзаменами
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler создает новый обработчик экзаменов
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ExamQuestionRequest — строка билета в запросе на создание экзамена
type ExamQuestionRequest struct {
	QuestionID uint    `json:"question_id" binding:"required"`
	Score      float64 `json:"score" binding:"required,gt=0"`
	OrderIndex int     `json:"order_index"`
}

// CreateExamRequest представляет запрос на создание экзамена
type CreateExamRequest struct {
	Name                 string                `json:"name" binding:"required,min=3,max=255"`
	StartTime            time.Time             `json:"start_time" binding:"required"`
	EndTime              time.Time             `json:"end_time" binding:"required"`
	DurationMinutes      int                   `json:"duration_minutes" binding:"required,gt=0"`
	PaperGenerationMode  string                `json:"paper_generation_mode" binding:"required"`
	Questions            []ExamQuestionRequest `json:"questions,omitempty"`
	RandomRules          []entity.RandomRule   `json:"random_rules,omitempty"`
	Rules                string                `json:"rules,omitempty"`
	ShowScoreAfterExam   *bool                 `json:"show_score_after_exam,omitempty"`
	ShowAnswersAfterExam bool                  `json:"show_answers_after_exam"`
}

// CreateExam обрабатывает запрос на создание экзамена
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exam := &entity.Exam{
		Name:                 req.Name,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		DurationMinutes:      req.DurationMinutes,
		PaperGenerationMode:  req.PaperGenerationMode,
		RandomRules:          req.RandomRules,
		Rules:                req.Rules,
		ShowAnswersAfterExam: req.ShowAnswersAfterExam,
		ShowScoreAfterExam:   true,
		CreatorID:            uintPtr(currentUserID(c)),
	}
	if req.ShowScoreAfterExam != nil {
		exam.ShowScoreAfterExam = *req.ShowScoreAfterExam
	}
	for _, q := range req.Questions {
		exam.Questions = append(exam.Questions, entity.ExamQuestion{
			QuestionID: q.QuestionID,
			Score:      q.Score,
			OrderIndex: q.OrderIndex,
		})
	}

	if err := h.examService.CreateExam(exam); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewExamResponse(exam))
}

// GetExam возвращает экзамен (административный доступ, с билетом)
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	exam, err := h.examService.GetExamWithQuestions(examID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExamResponse(exam))
}

// PublishExam переводит экзамен в published
func (h *ExamHandler) PublishExam(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	if err := h.examService.PublishExam(examID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exam published"})
}

// FinishExam переводит экзамен в finished
func (h *ExamHandler) FinishExam(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	if err := h.examService.FinishExam(examID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exam finished"})
}

// ArchiveExam переводит экзамен в archived
func (h *ExamHandler) ArchiveExam(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	if err := h.examService.ArchiveExam(examID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exam archived"})
}

// AssignParticipantsRequest представляет запрос на назначение участников
type AssignParticipantsRequest struct {
	UserIDs  []uint `json:"user_ids,omitempty"`
	GroupIDs []uint `json:"group_ids,omitempty"`
}

// AssignParticipants назначает экзамен пользователям и группам
func (h *ExamHandler) AssignParticipants(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	var req AssignParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.examService.AssignParticipants(examID, req.UserIDs, req.GroupIDs); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Participants assigned"})
}

// ListAvailable возвращает экзамены, доступные текущему пользователю
func (h *ExamHandler) ListAvailable(c *gin.Context) {
	exams, attemptStatuses, err := h.examService.ListAvailable(currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewExamListResponse(exams, attemptStatuses))
}
