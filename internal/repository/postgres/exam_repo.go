package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// ExamRepo реализует repository.ExamRepository
type ExamRepo struct {
	db *gorm.DB
}

// NewExamRepo создает новый репозиторий экзаменов
func NewExamRepo(db *gorm.DB) *ExamRepo {
	return &ExamRepo{db: db}
}

// Create сохраняет экзамен вместе со строками билета и участниками в одной транзакции
func (r *ExamRepo) Create(exam *entity.Exam) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(exam).Error
	})
}

// GetByID возвращает экзамен по ID
func (r *ExamRepo) GetByID(id uint) (*entity.Exam, error) {
	var exam entity.Exam
	err := r.db.First(&exam, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// GetWithQuestions возвращает экзамен вместе со строками фиксированного билета
func (r *ExamRepo) GetWithQuestions(id uint) (*entity.Exam, error) {
	var exam entity.Exam
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index")
	}).First(&exam, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &exam, nil
}

// Update обновляет информацию об экзамене
func (r *ExamRepo) Update(exam *entity.Exam) error {
	return r.db.Save(exam).Error
}

// UpdateStatus — условный переход статуса экзамена.
// RowsAffected == 0 означает, что экзамен не в ожидаемом статусе.
func (r *ExamRepo) UpdateStatus(id uint, expected, target string) error {
	result := r.db.Model(&entity.Exam{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", target)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListAvailableForUser возвращает опубликованные экзамены в окне проведения,
// назначенные пользователю напрямую или через его группы
func (r *ExamRepo) ListAvailableForUser(userID uint, now time.Time) ([]entity.Exam, error) {
	var exams []entity.Exam
	err := r.db.
		Joins("JOIN exam_participants ep ON ep.exam_id = exams.id").
		Joins("LEFT JOIN user_groups ug ON ug.group_id = ep.group_id AND ug.user_id = ?", userID).
		Where("ep.user_id = ? OR ug.user_id IS NOT NULL", userID).
		Where("exams.status IN ?", []string{entity.ExamStatusPublished, entity.ExamStatusOngoing}).
		Where("exams.start_time <= ? AND exams.end_time > ?", now, now).
		Group("exams.id").
		Order("exams.start_time").
		Find(&exams).Error
	if err != nil {
		return nil, err
	}
	return exams, nil
}

// IsParticipant проверяет назначение экзамена пользователю
// (напрямую или через членство в группе)
func (r *ExamRepo) IsParticipant(examID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.ExamParticipant{}).
		Joins("LEFT JOIN user_groups ug ON ug.group_id = exam_participants.group_id AND ug.user_id = ?", userID).
		Where("exam_participants.exam_id = ?", examID).
		Where("exam_participants.user_id = ? OR ug.user_id IS NOT NULL", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AssignParticipants назначает экзамен пользователям и группам
func (r *ExamRepo) AssignParticipants(examID uint, userIDs, groupIDs []uint) error {
	if len(userIDs) == 0 && len(groupIDs) == 0 {
		return nil
	}
	participants := make([]entity.ExamParticipant, 0, len(userIDs)+len(groupIDs))
	for _, id := range userIDs {
		uid := id
		participants = append(participants, entity.ExamParticipant{ExamID: examID, UserID: &uid})
	}
	for _, id := range groupIDs {
		gid := id
		participants = append(participants, entity.ExamParticipant{ExamID: examID, GroupID: &gid})
	}
	return r.db.Create(&participants).Error
}

// GetParticipantCount возвращает число записей о назначении экзамена
func (r *ExamRepo) GetParticipantCount(examID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.ExamParticipant{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	return count, err
}

// GetExamQuestions возвращает строки фиксированного билета в порядке order_index
func (r *ExamRepo) GetExamQuestions(examID uint) ([]entity.ExamQuestion, error) {
	var rows []entity.ExamQuestion
	err := r.db.Where("exam_id = ?", examID).
		Order("order_index").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumPaperScore возвращает сумму баллов фиксированного билета
func (r *ExamRepo) SumPaperScore(examID uint) (float64, error) {
	var sum *float64
	err := r.db.Model(&entity.ExamQuestion{}).
		Where("exam_id = ?", examID).
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
