package entity

import (
	"time"
)

// Статусы попытки. Переходы монотонны в порядке
// pending -> in_progress -> submitted -> grading -> graded,
// с боковым выходом pending/in_progress -> aborted.
const (
	AttemptStatusPending    = "pending"
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
	AttemptStatusGrading    = "grading"
	AttemptStatusGraded     = "graded"
	AttemptStatusAborted    = "aborted"
)

// attemptStatusRank задает порядок статусов для проверки монотонности.
// aborted — терминальный боковой выход, ранга не имеет.
var attemptStatusRank = map[string]int{
	AttemptStatusPending:    0,
	AttemptStatusInProgress: 1,
	AttemptStatusSubmitted:  2,
	AttemptStatusGrading:    3,
	AttemptStatusGraded:     4,
}

// Причины автосабмита, попадают в аудит
const (
	AutoSubmitReasonDeadline  = "deadline_expired"
	AutoSubmitReasonHeartbeat = "heartbeat_silence"
)

// ExamAttempt — попытка одного пользователя сдать один экзамен.
// На пару (exam, user) существует не более одной строки (уникальный индекс).
type ExamAttempt struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	ExamID            uint       `gorm:"not null;index;uniqueIndex:uk_attempt_exam_user,priority:1" json:"exam_id"`
	UserID            uint       `gorm:"not null;index;uniqueIndex:uk_attempt_exam_user,priority:2" json:"user_id"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	SubmitTime        *time.Time `json:"submit_time,omitempty"`
	CalculatedEndTime *time.Time `json:"calculated_end_time,omitempty"` // start + duration; после старта не пересчитывается
	Status            string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	FinalScore        *float64   `gorm:"type:decimal(7,2)" json:"final_score,omitempty"`
	LastHeartbeat     *time.Time `json:"last_heartbeat,omitempty"`
	IPAddress         string     `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// IsTerminal сообщает, что попытка в терминальном состоянии
func (a *ExamAttempt) IsTerminal() bool {
	return a.Status == AttemptStatusGraded || a.Status == AttemptStatusAborted
}

// IsCompleted сообщает, что попытка уже сдана (в любом пост-сабмитном статусе)
func (a *ExamAttempt) IsCompleted() bool {
	switch a.Status {
	case AttemptStatusSubmitted, AttemptStatusGrading, AttemptStatusGraded, AttemptStatusAborted:
		return true
	}
	return false
}

// DeadlinePassed проверяет, истек ли дедлайн попытки к моменту now
func (a *ExamAttempt) DeadlinePassed(now time.Time) bool {
	return a.CalculatedEndTime != nil && !now.Before(*a.CalculatedEndTime)
}

// HeartbeatSilentSince проверяет, молчит ли клиент дольше grace-окна.
// Пока ни одного heartbeat не было, точкой отсчета служит start_time.
func (a *ExamAttempt) HeartbeatSilentSince(now time.Time, grace time.Duration) bool {
	last := a.LastHeartbeat
	if last == nil {
		last = a.StartTime
	}
	if last == nil {
		return false
	}
	return now.Sub(*last) > grace
}

// CanTransitionTo проверяет допустимость перехода по машине состояний.
// Переход в состояние, которое попытка уже прошла, не ошибка — это no-op
// (см. IsNoOpTransition), здесь проверяется только строгий шаг вперед.
func (a *ExamAttempt) CanTransitionTo(target string) bool {
	if target == AttemptStatusAborted {
		return a.Status == AttemptStatusPending || a.Status == AttemptStatusInProgress
	}
	from, okFrom := attemptStatusRank[a.Status]
	to, okTo := attemptStatusRank[target]
	if !okFrom || !okTo {
		return false
	}
	return to == from+1
}

// IsNoOpTransition сообщает, что попытка уже прошла целевое состояние:
// гонка двух одинаковых переходов разрешается как no-op, не как ошибка.
func (a *ExamAttempt) IsNoOpTransition(target string) bool {
	from, okFrom := attemptStatusRank[a.Status]
	to, okTo := attemptStatusRank[target]
	if !okFrom || !okTo {
		return false
	}
	return to <= from
}

// ExamAttemptPaper — строка материализованного билета попытки
// (только режим random_individual). Генерируется ровно один раз на попытку
// и далее неизменна.
type ExamAttemptPaper struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	AttemptID  uint    `gorm:"not null;index;uniqueIndex:uk_attempt_paper_question,priority:1;uniqueIndex:uk_attempt_paper_order,priority:1" json:"attempt_id"`
	QuestionID uint    `gorm:"not null;index;uniqueIndex:uk_attempt_paper_question,priority:2" json:"question_id"`
	Score      float64 `gorm:"type:decimal(5,2);not null" json:"score"`
	OrderIndex int     `gorm:"not null;uniqueIndex:uk_attempt_paper_order,priority:2" json:"order_index"`
}

// TableName определяет имя таблицы для GORM
func (ExamAttemptPaper) TableName() string {
	return "exam_attempt_papers"
}
