package attemptsweep

import (
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// Константы по умолчанию
const (
	DefaultInterval       = 30 * time.Second
	DefaultHeartbeatGrace = 10 * time.Minute
	DefaultBatchLimit     = 200
	DefaultClaimTTL       = 2 * time.Minute
)

// Config содержит настройки свипа просроченных попыток
type Config struct {
	// Interval — период между проходами
	Interval time.Duration
	// HeartbeatGrace — сколько молчания клиента терпим до автосабмита
	HeartbeatGrace time.Duration
	// BatchLimit — максимум попыток за один проход
	BatchLimit int
	// ClaimTTL — время жизни claim-лока на попытку при нескольких воркерах
	ClaimTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Interval:       DefaultInterval,
		HeartbeatGrace: DefaultHeartbeatGrace,
		BatchLimit:     DefaultBatchLimit,
		ClaimTTL:       DefaultClaimTTL,
	}
}

// AttemptService определяет интерфейс сервиса попыток,
// необходимый свиперу
type AttemptService interface {
	ListExpired(now time.Time, grace time.Duration, limit int) ([]entity.ExamAttempt, error)
	AutoSubmit(attempt *entity.ExamAttempt, reason string) (bool, error)
}

// Dependencies содержит зависимости свипера
type Dependencies struct {
	AttemptService AttemptService
	CacheRepo      repository.CacheRepository
	Clock          clock.Clock
	Config         *Config
}
