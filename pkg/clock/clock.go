package clock

import (
	"sync"
	"time"
)

// Clock абстрагирует получение текущего времени.
// Все проверки дедлайнов в сервисах идут через этот интерфейс,
// чтобы тесты могли симулировать истечение времени без реальных задержек.
type Clock interface {
	Now() time.Time
}

// Real возвращает системное время
type Real struct{}

// Now возвращает текущее время в UTC
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Manual — управляемые часы для тестов
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual создает управляемые часы с заданным начальным временем
func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

// Now возвращает установленное время
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance сдвигает часы вперед на d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set устанавливает конкретное время
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}
