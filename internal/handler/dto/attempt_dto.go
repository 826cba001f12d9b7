package dto

import (
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// AttemptResponse представляет попытку в формате для ответа клиенту
type AttemptResponse struct {
	ID                uint       `json:"id"`
	ExamID            uint       `json:"exam_id"`
	UserID            uint       `json:"user_id"`
	Status            string     `json:"status"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	SubmitTime        *time.Time `json:"submit_time,omitempty"`
	CalculatedEndTime *time.Time `json:"calculated_end_time,omitempty"`
	RemainingSeconds  *int64     `json:"remaining_seconds,omitempty"`
	FinalScore        *float64   `json:"final_score,omitempty"`
}

// NewAttemptResponse создает DTO для попытки.
// Остаток времени считается от now и отдается только идущим попыткам.
func NewAttemptResponse(attempt *entity.ExamAttempt, now time.Time) *AttemptResponse {
	resp := &AttemptResponse{
		ID:                attempt.ID,
		ExamID:            attempt.ExamID,
		UserID:            attempt.UserID,
		Status:            attempt.Status,
		StartTime:         attempt.StartTime,
		SubmitTime:        attempt.SubmitTime,
		CalculatedEndTime: attempt.CalculatedEndTime,
		FinalScore:        attempt.FinalScore,
	}
	if attempt.Status == entity.AttemptStatusInProgress && attempt.CalculatedEndTime != nil {
		remaining := int64(attempt.CalculatedEndTime.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		resp.RemainingSeconds = &remaining
	}
	return resp
}
