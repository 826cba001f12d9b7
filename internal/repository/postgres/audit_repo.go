package postgres

import (
	"gorm.io/gorm"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// AuditRepo реализует repository.AuditRepository
type AuditRepo struct {
	db *gorm.DB
}

// NewAuditRepo создает новый репозиторий журнала аудита
func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Save добавляет запись в журнал
func (r *AuditRepo) Save(log *entity.AuditLog) error {
	return r.db.Create(log).Error
}

// ListByTarget возвращает записи журнала по объекту, новые первыми
func (r *AuditRepo) ListByTarget(targetType, targetID string, limit, offset int) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	err := r.db.Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
