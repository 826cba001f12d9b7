package entity

import "time"

// Действия, которые ядро публикует в аудит
const (
	AuditAttemptStarted       = "attempt_started"
	AuditAnswerSaved          = "answer_saved"
	AuditAttemptSubmitted     = "attempt_submitted"
	AuditAttemptAutoSubmitted = "attempt_auto_submitted"
	AuditAttemptAborted       = "attempt_aborted"
	AuditAnswerGraded         = "answer_graded"
	AuditAttemptFinalized     = "attempt_finalized"
)

// AuditLog — структурированное событие аудита. Ядро только пишет события,
// обратно их не читает.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    string    `gorm:"size:36;not null;index" json:"event_id"` // UUID для корреляции
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"`
	Action     string    `gorm:"size:255;not null;index" json:"action"`
	TargetType string    `gorm:"size:100;index" json:"target_type,omitempty"`
	TargetID   string    `gorm:"size:100;index" json:"target_id,omitempty"`
	Details    RawJSON   `gorm:"type:jsonb" json:"details,omitempty"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
}

// TableName определяет имя таблицы для GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}
