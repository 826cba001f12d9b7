package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreatePending создает попытку в статусе pending.
// Конкурентные старты одного пользователя гасятся уникальным индексом
// (exam_id, user_id): 23505 переводится в ErrAttemptExists.
func (r *AttemptRepo) CreatePending(attempt *entity.ExamAttempt) error {
	attempt.Status = entity.AttemptStatusPending
	err := r.db.Create(attempt).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: exam #%d user #%d", repository.ErrAttemptExists, attempt.ExamID, attempt.UserID)
		}
		return err
	}
	return nil
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(id uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	err := r.db.First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetByExamAndUser возвращает попытку пользователя по экзамену
func (r *AttemptRepo) GetByExamAndUser(examID, userID uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	err := r.db.Where("exam_id = ? AND user_id = ?", examID, userID).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// Start переводит pending -> in_progress одним условным UPDATE,
// фиксируя start_time и calculated_end_time. Повторный вызов вернет false.
func (r *AttemptRepo) Start(attemptID uint, startTime, endTime time.Time) (bool, error) {
	result := r.db.Model(&entity.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, entity.AttemptStatusPending).
		Updates(map[string]interface{}{
			"status":              entity.AttemptStatusInProgress,
			"start_time":          startTime,
			"calculated_end_time": endTime,
			"last_heartbeat":      startTime,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateHeartbeat обновляет last_heartbeat, только пока попытка in_progress
func (r *AttemptRepo) UpdateHeartbeat(attemptID uint, at time.Time) (bool, error) {
	result := r.db.Model(&entity.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, entity.AttemptStatusInProgress).
		Update("last_heartbeat", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Submit переводит in_progress -> submitted с заданным submit_time.
// Под гонкой (ручной сабмит против свипа) побеждает ровно один UPDATE.
func (r *AttemptRepo) Submit(attemptID uint, submitTime time.Time) (bool, error) {
	result := r.db.Model(&entity.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, entity.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"status":      entity.AttemptStatusSubmitted,
			"submit_time": submitTime,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkGrading переводит submitted -> grading
func (r *AttemptRepo) MarkGrading(attemptID uint) (bool, error) {
	result := r.db.Model(&entity.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, entity.AttemptStatusSubmitted).
		Update("status", entity.AttemptStatusGrading)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Finalize переводит grading -> graded и записывает final_score
func (r *AttemptRepo) Finalize(attemptID uint, finalScore float64) (bool, error) {
	result := r.db.Model(&entity.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, entity.AttemptStatusGrading).
		Updates(map[string]interface{}{
			"status":      entity.AttemptStatusGraded,
			"final_score": finalScore,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateFinalScore перезаписывает итоговый балл уже отграженной попытки
func (r *AttemptRepo) UpdateFinalScore(attemptID uint, finalScore float64) error {
	result := r.db.Model(&entity.ExamAttempt{}).
		Where("id = ? AND status = ?", attemptID, entity.AttemptStatusGraded).
		Update("final_score", finalScore)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// Abort переводит pending/in_progress -> aborted
func (r *AttemptRepo) Abort(attemptID uint) (bool, error) {
	result := r.db.Model(&entity.ExamAttempt{}).
		Where("id = ? AND status IN ?", attemptID,
			[]string{entity.AttemptStatusPending, entity.AttemptStatusInProgress}).
		Update("status", entity.AttemptStatusAborted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListExpired возвращает in_progress попытки с истекшим дедлайном или
// heartbeat-тишиной дольше grace. Кандидаты для автосабмита.
func (r *AttemptRepo) ListExpired(now time.Time, grace time.Duration, limit int) ([]entity.ExamAttempt, error) {
	var attempts []entity.ExamAttempt
	silenceCutoff := now.Add(-grace)
	err := r.db.
		Where("status = ?", entity.AttemptStatusInProgress).
		Where("calculated_end_time <= ? OR COALESCE(last_heartbeat, start_time) < ?", now, silenceCutoff).
		Order("calculated_end_time").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// ListByUser возвращает попытки пользователя, новые первыми
func (r *AttemptRepo) ListByUser(userID uint, limit, offset int) ([]entity.ExamAttempt, error) {
	var attempts []entity.ExamAttempt
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&attempts).Error
	return attempts, err
}

// ListByExam возвращает попытки по экзамену
func (r *AttemptRepo) ListByExam(examID uint, limit, offset int) ([]entity.ExamAttempt, error) {
	var attempts []entity.ExamAttempt
	err := r.db.Where("exam_id = ?", examID).
		Order("id").
		Limit(limit).Offset(offset).
		Find(&attempts).Error
	return attempts, err
}

// SavePaper сохраняет материализованный билет попытки.
// При повторной генерации уникальный индекс (attempt_id, question_id)
// вернет 23505 — билет уже существует, строки не перезаписываются.
func (r *AttemptRepo) SavePaper(rows []entity.ExamAttemptPaper) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: attempt #%d", repository.ErrPaperExists, rows[0].AttemptID)
		}
		return err
	}
	return nil
}

// GetPaper возвращает билет попытки в порядке order_index
func (r *AttemptRepo) GetPaper(attemptID uint) ([]entity.ExamAttemptPaper, error) {
	var rows []entity.ExamAttemptPaper
	err := r.db.Where("attempt_id = ?", attemptID).
		Order("order_index").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExamStatistics возвращает количество и средний балл отграженных попыток
func (r *AttemptRepo) ExamStatistics(examID uint) (int64, *float64, error) {
	var stats struct {
		Count int64
		Avg   *float64
	}
	err := r.db.Model(&entity.ExamAttempt{}).
		Where("exam_id = ? AND status = ?", examID, entity.AttemptStatusGraded).
		Select("COUNT(*) AS count, AVG(final_score) AS avg").
		Scan(&stats).Error
	if err != nil {
		return 0, nil, err
	}
	return stats.Count, stats.Avg, nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
