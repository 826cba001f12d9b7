package repository

import (
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// AnswerRepository определяет методы для работы с ответами участников
type AnswerRepository interface {
	// Upsert сохраняет ответ по (attempt, question): повторное сохранение
	// того же вопроса перезаписывает user_answer, не плодя строк.
	Upsert(answer *entity.Answer) error
	Get(attemptID, questionID uint) (*entity.Answer, error)
	GetByAttempt(attemptID uint) ([]entity.Answer, error)

	// ApplyAutoGrade записывает результат автопроверки вместе со снимком
	// ключа, по которому она велась
	ApplyAutoGrade(answerID uint, score float64, isCorrect bool, snapshot *entity.GradingSnapshot, gradedAt time.Time) error

	// MarkMalformed помечает ответ как нечитаемый, сохраняя слепок ключа.
	// Балл не трогает: нечитаемый ответ ждет проверяющего, как short_answer.
	MarkMalformed(answerID uint, snapshot *entity.GradingSnapshot, flaggedAt time.Time) error

	// AttachSnapshot привязывает слепок ключа к ответу, уходящему на ручную
	// проверку, не выставляя балл
	AttachSnapshot(answerID uint, snapshot *entity.GradingSnapshot) error

	// ApplyManualGrade записывает ручную оценку проверяющего
	ApplyManualGrade(answerID uint, score float64, graderID uint, comments string, gradedAt time.Time) error

	// ListNeedingManualGrade возвращает неоцененные ответы на вопросы с ручной
	// проверкой по попыткам в статусе grading, старые попытки первыми
	ListNeedingManualGrade(examID uint, limit, offset int) ([]entity.Answer, error)

	// SumScores возвращает сумму баллов всех ответов попытки
	SumScores(attemptID uint) (float64, error)

	// CountUnscored возвращает число ответов попытки с score IS NULL
	CountUnscored(attemptID uint) (int64, error)
}
