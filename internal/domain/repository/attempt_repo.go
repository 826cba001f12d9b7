package repository

import (
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками.
// Все смены статуса — условные UPDATE, сериализующие конкурентные записи
// по одной попытке: rows affected = 0 означает, что состояние уже ушло
// вперед, и вызывающий трактует это как no-op или конфликт.
type AttemptRepository interface {
	// CreatePending создает попытку в статусе pending.
	// При нарушении уникальности (exam, user) возвращает ErrAttemptExists:
	// конкурентные старты одного пользователя гасятся констрейнтом, не ретраями.
	CreatePending(attempt *entity.ExamAttempt) error
	GetByID(id uint) (*entity.ExamAttempt, error)
	GetByExamAndUser(examID, userID uint) (*entity.ExamAttempt, error)

	// Start переводит pending -> in_progress, выставляя start_time,
	// calculated_end_time и начальный heartbeat одним условным UPDATE.
	Start(attemptID uint, startTime, endTime time.Time) (bool, error)

	// UpdateHeartbeat обновляет last_heartbeat, только пока попытка in_progress
	UpdateHeartbeat(attemptID uint, at time.Time) (bool, error)

	// Submit переводит in_progress -> submitted с заданным submit_time.
	// Идемпотентен под гонкой: второй вызов вернет false.
	Submit(attemptID uint, submitTime time.Time) (bool, error)

	// MarkGrading переводит submitted -> grading
	MarkGrading(attemptID uint) (bool, error)

	// Finalize переводит grading -> graded и записывает final_score
	Finalize(attemptID uint, finalScore float64) (bool, error)

	// UpdateFinalScore перезаписывает final_score уже отграженной попытки
	// (пересчет после изменения ручной оценки).
	UpdateFinalScore(attemptID uint, finalScore float64) error

	// Abort переводит pending/in_progress -> aborted
	Abort(attemptID uint) (bool, error)

	// ListExpired возвращает in_progress попытки с истекшим дедлайном
	// или heartbeat-тишиной дольше grace. Кандидаты для свипа.
	ListExpired(now time.Time, grace time.Duration, limit int) ([]entity.ExamAttempt, error)

	ListByUser(userID uint, limit, offset int) ([]entity.ExamAttempt, error)
	ListByExam(examID uint, limit, offset int) ([]entity.ExamAttempt, error)

	// SavePaper сохраняет материализованный билет попытки (random_individual).
	// Повторный вызов для попытки с уже существующими строками возвращает
	// ErrPaperExists, строки не перегенерируются.
	SavePaper(rows []entity.ExamAttemptPaper) error
	GetPaper(attemptID uint) ([]entity.ExamAttemptPaper, error)

	// ExamStatistics возвращает количество и средний балл отграженных попыток
	ExamStatistics(examID uint) (count int64, avgScore *float64, err error)
}
