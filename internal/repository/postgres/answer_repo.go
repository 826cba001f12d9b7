package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Upsert сохраняет ответ по (attempt, question): повторное сохранение
// перезаписывает user_answer через ON CONFLICT, не плодя строк
func (r *AnswerRepo) Upsert(answer *entity.Answer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"user_answer": answer.UserAnswer,
			"updated_at":  gorm.Expr("NOW()"),
		}),
	}).Create(answer).Error
}

// Get возвращает ответ попытки на вопрос
func (r *AnswerRepo) Get(attemptID, questionID uint) (*entity.Answer, error) {
	var answer entity.Answer
	err := r.db.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &answer, nil
}

// GetByAttempt возвращает все ответы попытки
func (r *AnswerRepo) GetByAttempt(attemptID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("attempt_id = ?", attemptID).
		Order("question_id").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// ApplyAutoGrade записывает результат автопроверки вместе со слепком ключа
func (r *AnswerRepo) ApplyAutoGrade(answerID uint, score float64, isCorrect bool, snapshot *entity.GradingSnapshot, gradedAt time.Time) error {
	return r.db.Model(&entity.Answer{}).
		Where("id = ?", answerID).
		Updates(map[string]interface{}{
			"score":          score,
			"is_correct":     isCorrect,
			"graded_against": snapshot,
			"graded_at":      gradedAt,
		}).Error
}

// MarkMalformed помечает нечитаемый ответ. Балл остается NULL: вердикт
// выносит проверяющий, попытка до этого не финализируется.
func (r *AnswerRepo) MarkMalformed(answerID uint, snapshot *entity.GradingSnapshot, flaggedAt time.Time) error {
	return r.db.Model(&entity.Answer{}).
		Where("id = ?", answerID).
		Updates(map[string]interface{}{
			"malformed":      true,
			"graded_against": snapshot,
			"updated_at":     flaggedAt,
		}).Error
}

// AttachSnapshot привязывает слепок ключа к ответу, не трогая балл
func (r *AnswerRepo) AttachSnapshot(answerID uint, snapshot *entity.GradingSnapshot) error {
	return r.db.Model(&entity.Answer{}).
		Where("id = ?", answerID).
		Update("graded_against", snapshot).Error
}

// ApplyManualGrade записывает ручную оценку проверяющего
func (r *AnswerRepo) ApplyManualGrade(answerID uint, score float64, graderID uint, comments string, gradedAt time.Time) error {
	result := r.db.Model(&entity.Answer{}).
		Where("id = ?", answerID).
		Updates(map[string]interface{}{
			"score":            score,
			"grader_id":        graderID,
			"grading_comments": comments,
			"graded_at":        gradedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListNeedingManualGrade возвращает неоцененные ответы по попыткам экзамена
// в статусе grading, старые попытки первыми. Сюда попадает все, что держит
// финализацию: непустые short_answer и нечитаемые ответы, у тех и других
// score пуст до вердикта проверяющего.
func (r *AnswerRepo) ListNeedingManualGrade(examID uint, limit, offset int) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.
		Joins("JOIN exam_attempts a ON a.id = answers.attempt_id").
		Joins("JOIN questions q ON q.id = answers.question_id").
		Where("a.exam_id = ? AND a.status = ?", examID, entity.AttemptStatusGrading).
		Where("answers.score IS NULL").
		Order("a.submit_time, answers.question_id").
		Limit(limit).Offset(offset).
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// SumScores возвращает сумму баллов всех ответов попытки
func (r *AnswerRepo) SumScores(attemptID uint) (float64, error) {
	var sum *float64
	err := r.db.Model(&entity.Answer{}).
		Where("attempt_id = ?", attemptID).
		Select("SUM(score)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// CountUnscored возвращает число ответов попытки без балла
func (r *AnswerRepo) CountUnscored(attemptID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Answer{}).
		Where("attempt_id = ? AND score IS NULL", attemptID).
		Count(&count).Error
	return count, err
}
