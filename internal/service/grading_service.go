package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// GradingService оценивает сданные попытки: автопроверка через очередь
// воркеров, ручные оценки от проверяющих и финализация итогового балла.
type GradingService struct {
	attemptRepo  repository.AttemptRepository
	answerRepo   repository.AnswerRepository
	questionRepo repository.QuestionRepository
	examRepo     repository.ExamRepository
	auditRepo    repository.AuditRepository
	paperService *PaperService
	clock        clock.Clock

	queue   chan uint
	workers int
	wg      sync.WaitGroup
}

// NewGradingService создает новый сервис оценивания
func NewGradingService(
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	examRepo repository.ExamRepository,
	auditRepo repository.AuditRepository,
	paperService *PaperService,
	clk clock.Clock,
	workers, queueBuffer int,
) *GradingService {
	if workers <= 0 {
		workers = 4
	}
	if queueBuffer <= 0 {
		queueBuffer = 256
	}
	return &GradingService{
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		examRepo:     examRepo,
		auditRepo:    auditRepo,
		paperService: paperService,
		clock:        clk,
		queue:        make(chan uint, queueBuffer),
		workers:      workers,
	}
}

// Run запускает воркеров очереди автопроверки и блокируется до отмены ctx
func (s *GradingService) Run(ctx context.Context) {
	log.Printf("[GradingService] Запуск %d воркеров автопроверки", s.workers)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func(workerID int) {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case attemptID := <-s.queue:
					if err := s.GradeAttempt(attemptID); err != nil {
						log.Printf("[GradingService] Воркер %d: ошибка автопроверки попытки #%d: %v",
							workerID, attemptID, err)
					}
				}
			}
		}(i)
	}
	<-ctx.Done()
	s.wg.Wait()
	log.Println("[GradingService] Воркеры автопроверки остановлены")
}

// Enqueue ставит попытку в очередь автопроверки. При переполненной
// очереди проверка выполняется синхронно: попытка не должна зависнуть
// в submitted из-за пикового наплыва.
func (s *GradingService) Enqueue(attemptID uint) {
	select {
	case s.queue <- attemptID:
	default:
		log.Printf("[GradingService] Очередь переполнена, попытка #%d проверяется синхронно", attemptID)
		if err := s.GradeAttempt(attemptID); err != nil {
			log.Printf("[GradingService] Синхронная проверка попытки #%d: %v", attemptID, err)
		}
	}
}

// GradeAttempt прогоняет автопроверку по всем вопросам билета попытки.
// Идемпотентен: уже оцененные ответы не трогаются, потерянная и повторно
// поставленная в очередь попытка доводится до конца.
func (s *GradingService) GradeAttempt(attemptID uint) error {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.Status == entity.AttemptStatusSubmitted {
		// Подбираем попытку, у которой переход в grading не успел случиться
		if _, err := s.attemptRepo.MarkGrading(attemptID); err != nil {
			return err
		}
	} else if attempt.Status != entity.AttemptStatusGrading {
		// graded/aborted в очереди — запоздавший дубль, молча выходим
		return nil
	}

	exam, err := s.examRepo.GetByID(attempt.ExamID)
	if err != nil {
		return err
	}
	paper, err := s.paperService.PaperForAttempt(exam, attemptID)
	if err != nil {
		return err
	}

	answers, err := s.answerRepo.GetByAttempt(attemptID)
	if err != nil {
		return err
	}
	byQuestion := make(map[uint]*entity.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	questionIDs := make([]uint, len(paper))
	for i, row := range paper {
		questionIDs[i] = row.QuestionID
	}
	questions, err := s.questionRepo.GetByIDs(questionIDs)
	if err != nil {
		return err
	}
	questionByID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		questionByID[questions[i].ID] = &questions[i]
	}

	now := s.clock.Now()
	for _, row := range paper {
		question, ok := questionByID[row.QuestionID]
		if !ok {
			// Удаление вопроса из билета заблокировано на уровне сервиса,
			// дыра в билете означает поврежденные данные
			return fmt.Errorf("question #%d of attempt #%d paper not found", row.QuestionID, attemptID)
		}

		answer, exists := byQuestion[row.QuestionID]
		if !exists {
			// Без ответа — создаем пустую строку, чтобы оценка легла на нее
			blank := &entity.Answer{AttemptID: attemptID, QuestionID: row.QuestionID}
			if err := s.answerRepo.Upsert(blank); err != nil {
				return fmt.Errorf("failed to create blank answer for question #%d: %w", row.QuestionID, err)
			}
			answer = blank
		}
		if answer.IsScored() || answer.Malformed {
			continue
		}

		snapshot := snapshotFor(question, row.Score)
		if !question.IsAutoGradable() {
			if len(answer.UserAnswer) == 0 {
				// Пустой short_answer оценивать некому и незачем
				if err := s.answerRepo.ApplyAutoGrade(answer.ID, 0, false, snapshot, now); err != nil {
					return err
				}
				continue
			}
			// Непустой ждет проверяющего: score остается NULL, а слепок
			// фиксируется сразу — потолок балла и эталон переживут
			// последующие правки вопроса
			if answer.GradedAgainst == nil {
				if err := s.answerRepo.AttachSnapshot(answer.ID, snapshot); err != nil {
					return err
				}
			}
			continue
		}

		result := gradeAgainst(*snapshot, answer.UserAnswer)
		if result.Malformed {
			if err := s.answerRepo.MarkMalformed(answer.ID, snapshot, now); err != nil {
				return err
			}
			continue
		}
		if err := s.answerRepo.ApplyAutoGrade(answer.ID, result.Score, result.IsCorrect, snapshot, now); err != nil {
			return err
		}
	}

	return s.tryFinalize(attemptID)
}

// ApplyManualGrade записывает оценку проверяющего за один ответ.
// Допустимо и до финализации (score был NULL), и после — тогда итоговый
// балл пересчитывается.
func (s *GradingService) ApplyManualGrade(attemptID, questionID, graderID uint, score float64, comments string) error {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.Status != entity.AttemptStatusGrading && attempt.Status != entity.AttemptStatusGraded {
		return fmt.Errorf("%w: attempt #%d is %s", apperrors.ErrInvalidTransition, attemptID, attempt.Status)
	}

	answer, err := s.answerRepo.Get(attemptID, questionID)
	if err != nil {
		return err
	}

	maxScore, err := s.maxScoreFor(attempt, answer, questionID)
	if err != nil {
		return err
	}
	if score < 0 || score > maxScore {
		return fmt.Errorf("%w: score %.2f outside [0, %.2f]", apperrors.ErrValidation, score, maxScore)
	}

	if answer.GradedAgainst == nil {
		// Проверяющий обогнал автопроверку — слепок снимается здесь, чтобы
		// результат показывал потолок и эталон даже для таких ответов
		question, err := s.questionRepo.GetByID(questionID)
		if err != nil {
			return err
		}
		if err := s.answerRepo.AttachSnapshot(answer.ID, snapshotFor(question, maxScore)); err != nil {
			return err
		}
	}

	now := s.clock.Now()
	if err := s.answerRepo.ApplyManualGrade(answer.ID, roundScore(score), graderID, comments, now); err != nil {
		return err
	}
	recordAudit(s.auditRepo, s.clock, &graderID, "", entity.AuditAnswerGraded, "answer", answer.ID, map[string]interface{}{
		"attempt_id":  attemptID,
		"question_id": questionID,
		"score":       score,
	})

	if attempt.Status == entity.AttemptStatusGraded {
		// Переоценка после финализации — пересчитываем итог
		sum, err := s.answerRepo.SumScores(attemptID)
		if err != nil {
			return err
		}
		return s.attemptRepo.UpdateFinalScore(attemptID, roundScore(sum))
	}
	return s.tryFinalize(attemptID)
}

// maxScoreFor возвращает потолок балла за ответ: из слепка автопроверки,
// а для еще не тронутых ею ответов — из строки билета
func (s *GradingService) maxScoreFor(attempt *entity.ExamAttempt, answer *entity.Answer, questionID uint) (float64, error) {
	if answer.GradedAgainst != nil {
		return answer.GradedAgainst.MaxScore, nil
	}
	exam, err := s.examRepo.GetByID(attempt.ExamID)
	if err != nil {
		return 0, err
	}
	paper, err := s.paperService.PaperForAttempt(exam, attempt.ID)
	if err != nil {
		return 0, err
	}
	for _, row := range paper {
		if row.QuestionID == questionID {
			return row.Score, nil
		}
	}
	return 0, fmt.Errorf("%w: question #%d is not in attempt #%d paper", apperrors.ErrNotFound, questionID, attempt.ID)
}

// ListManualQueue возвращает ответы экзамена, ожидающие ручной проверки
func (s *GradingService) ListManualQueue(examID uint, limit, offset int) ([]entity.Answer, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.answerRepo.ListNeedingManualGrade(examID, limit, offset)
}

// tryFinalize переводит попытку в graded, если неоцененных ответов
// не осталось. Вызывается после автопроверки и после каждой ручной
// оценки: финализирует тот вызов, который закрыл последний NULL.
func (s *GradingService) tryFinalize(attemptID uint) error {
	unscored, err := s.answerRepo.CountUnscored(attemptID)
	if err != nil {
		return err
	}
	if unscored > 0 {
		log.Printf("[GradingService] Попытка #%d ждет ручной проверки %d ответов", attemptID, unscored)
		return nil
	}
	sum, err := s.answerRepo.SumScores(attemptID)
	if err != nil {
		return err
	}
	finalized, err := s.attemptRepo.Finalize(attemptID, roundScore(sum))
	if err != nil {
		return err
	}
	if finalized {
		recordAudit(s.auditRepo, s.clock, nil, "", entity.AuditAttemptFinalized, "attempt", attemptID, map[string]interface{}{
			"final_score": roundScore(sum),
		})
		log.Printf("[GradingService] Попытка #%d финализирована, итог %.2f", attemptID, sum)
	}
	return nil
}
