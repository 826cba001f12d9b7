package repository

import (
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// ExamRepository определяет методы для работы с экзаменами
type ExamRepository interface {
	// Create сохраняет экзамен вместе со строками билета и участниками
	// в одной транзакции.
	Create(exam *entity.Exam) error
	GetByID(id uint) (*entity.Exam, error)
	GetWithQuestions(id uint) (*entity.Exam, error)
	Update(exam *entity.Exam) error

	// UpdateStatus — условный переход статуса: строка обновляется только
	// если текущий статус равен expected. Возвращает ErrNotFound, если
	// переход не случился.
	UpdateStatus(id uint, expected, target string) error

	// ListAvailableForUser возвращает экзамены, назначенные пользователю
	// напрямую или через его группы, опубликованные и находящиеся в окне.
	ListAvailableForUser(userID uint, now time.Time) ([]entity.Exam, error)

	// IsParticipant проверяет, назначен ли экзамен пользователю
	// (напрямую или через членство в группе).
	IsParticipant(examID, userID uint) (bool, error)
	AssignParticipants(examID uint, userIDs, groupIDs []uint) error
	GetParticipantCount(examID uint) (int64, error)

	// GetExamQuestions возвращает строки фиксированного билета
	// в порядке order_index.
	GetExamQuestions(examID uint) ([]entity.ExamQuestion, error)
	// SumPaperScore возвращает сумму баллов фиксированного билета
	SumPaperScore(examID uint) (float64, error)
}
