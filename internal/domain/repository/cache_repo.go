package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error

	// SetNX устанавливает значение, только если ключа еще нет.
	// Возвращает true, если ключ установил именно этот вызов.
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
}
