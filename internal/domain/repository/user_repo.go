package repository

import "github.com/xinghusp/online-examsys-backend/internal/domain/entity"

// UserRepository определяет методы для чтения пользователей.
// Учетные записи заводит внешняя система, здесь только чтение.
type UserRepository interface {
	GetByID(id uint) (*entity.User, error)
	GetByIDs(ids []uint) ([]entity.User, error)
	GroupIDs(userID uint) ([]uint, error)
}
