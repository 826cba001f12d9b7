package repository

import "github.com/xinghusp/online-examsys-backend/internal/domain/entity"

// AuditRepository определяет методы для журнала аудита
type AuditRepository interface {
	Save(log *entity.AuditLog) error
	ListByTarget(targetType, targetID string, limit, offset int) ([]entity.AuditLog, error)
}
