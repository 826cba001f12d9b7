package attemptsweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// Sweeper периодически автосдает просроченные попытки: истекший дедлайн
// или heartbeat-тишина дольше grace-окна. Несколько экземпляров сервиса
// не мешают друг другу: попытка обрабатывается только после захвата
// claim-лока в Redis, а сам сабмит — условный UPDATE, так что даже
// потерянный лок не приводит к двойной сдаче.
type Sweeper struct {
	config *Config
	deps   *Dependencies
}

// NewSweeper создает новый свипер
func NewSweeper(config *Config, deps *Dependencies) *Sweeper {
	if config == nil {
		config = DefaultConfig()
	}
	return &Sweeper{config: config, deps: deps}
}

// Run запускает цикл свипа и блокируется до отмены ctx
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("[Sweeper] Запуск: интервал %s, grace %s, лимит %d",
		s.config.Interval, s.config.HeartbeatGrace, s.config.BatchLimit)
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Sweeper] Остановлен")
			return
		case <-ticker.C:
			if err := s.SweepOnce(); err != nil {
				log.Printf("[Sweeper] Ошибка прохода: %v", err)
			}
		}
	}
}

// SweepOnce выполняет один проход: находит просроченные попытки
// и автосдает каждую. Возвращает первую ошибку выборки; ошибки по
// отдельным попыткам логируются и не прерывают проход.
func (s *Sweeper) SweepOnce() error {
	now := s.deps.Clock.Now()
	expired, err := s.deps.AttemptService.ListExpired(now, s.config.HeartbeatGrace, s.config.BatchLimit)
	if err != nil {
		return fmt.Errorf("failed to list expired attempts: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}
	log.Printf("[Sweeper] Найдено %d просроченных попыток", len(expired))

	for i := range expired {
		attempt := &expired[i]
		if err := s.sweepAttempt(attempt, now); err != nil {
			log.Printf("[Sweeper] Попытка #%d: %v", attempt.ID, err)
		}
	}
	return nil
}

// sweepAttempt автосдает одну попытку под claim-локом
func (s *Sweeper) sweepAttempt(attempt *entity.ExamAttempt, now time.Time) error {
	claimKey := claimKey(attempt.ID)
	claimed, err := s.deps.CacheRepo.SetNX(claimKey, now.Unix(), s.config.ClaimTTL)
	if err != nil {
		// Redis недоступен — сабмитим без лока, условный UPDATE защитит от дублей
		log.Printf("[Sweeper] Claim-лок попытки #%d недоступен (%v), продолжаем без него", attempt.ID, err)
	} else if !claimed {
		// Попытку уже обрабатывает другой воркер
		return nil
	}

	reason := entity.AutoSubmitReasonHeartbeat
	if attempt.DeadlinePassed(now) {
		reason = entity.AutoSubmitReasonDeadline
	}
	submitted, err := s.deps.AttemptService.AutoSubmit(attempt, reason)
	if err != nil {
		return fmt.Errorf("auto-submit failed: %w", err)
	}
	if !submitted {
		// Пользователь успел сдать сам — это штатный исход гонки
		return nil
	}
	return nil
}

// claimKey возвращает ключ claim-лока попытки
func claimKey(attemptID uint) string {
	return fmt.Sprintf("sweep:attempt:%d", attemptID)
}
