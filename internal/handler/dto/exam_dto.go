package dto

import (
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// ExamQuestionResponse — строка билета в формате для ответа клиенту
type ExamQuestionResponse struct {
	QuestionID uint    `json:"question_id"`
	Score      float64 `json:"score"`
	OrderIndex int     `json:"order_index"`
}

// ExamResponse представляет экзамен в формате для ответа клиенту
type ExamResponse struct {
	ID                   uint                   `json:"id"`
	Name                 string                 `json:"name"`
	StartTime            time.Time              `json:"start_time"`
	EndTime              time.Time              `json:"end_time"`
	DurationMinutes      int                    `json:"duration_minutes"`
	PaperGenerationMode  string                 `json:"paper_generation_mode"`
	Status               string                 `json:"status"`
	Rules                string                 `json:"rules,omitempty"`
	RandomRules          []entity.RandomRule    `json:"random_rules,omitempty"`
	ShowScoreAfterExam   bool                   `json:"show_score_after_exam"`
	ShowAnswersAfterExam bool                   `json:"show_answers_after_exam"`
	Questions            []ExamQuestionResponse `json:"questions,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// NewExamResponse создает DTO для экзамена
func NewExamResponse(exam *entity.Exam) *ExamResponse {
	resp := &ExamResponse{
		ID:                   exam.ID,
		Name:                 exam.Name,
		StartTime:            exam.StartTime,
		EndTime:              exam.EndTime,
		DurationMinutes:      exam.DurationMinutes,
		PaperGenerationMode:  exam.PaperGenerationMode,
		Status:               exam.Status,
		Rules:                exam.Rules,
		RandomRules:          exam.RandomRules,
		ShowScoreAfterExam:   exam.ShowScoreAfterExam,
		ShowAnswersAfterExam: exam.ShowAnswersAfterExam,
		CreatedAt:            exam.CreatedAt,
		UpdatedAt:            exam.UpdatedAt,
	}
	for _, q := range exam.Questions {
		resp.Questions = append(resp.Questions, ExamQuestionResponse{
			QuestionID: q.QuestionID,
			Score:      q.Score,
			OrderIndex: q.OrderIndex,
		})
	}
	return resp
}

// ExamListItem — экзамен в списке доступных (без состава билета).
// AttemptStatus — статус попытки текущего пользователя, пусто если
// попытка еще не создавалась.
type ExamListItem struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Rules           string    `json:"rules,omitempty"`
	AttemptStatus   string    `json:"attempt_status,omitempty"`
}

// ExamListResponse представляет список экзаменов
type ExamListResponse struct {
	Exams []ExamListItem `json:"exams"`
	Total int            `json:"total"`
}

// NewExamListResponse создает DTO списка экзаменов; attemptStatuses —
// статусы попыток пользователя по ID экзамена
func NewExamListResponse(exams []entity.Exam, attemptStatuses map[uint]string) *ExamListResponse {
	items := make([]ExamListItem, 0, len(exams))
	for _, e := range exams {
		items = append(items, ExamListItem{
			ID:              e.ID,
			Name:            e.Name,
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			DurationMinutes: e.DurationMinutes,
			Status:          e.Status,
			Rules:           e.Rules,
			AttemptStatus:   attemptStatuses[e.ID],
		})
	}
	return &ExamListResponse{Exams: items, Total: len(items)}
}
