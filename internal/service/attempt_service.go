package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// AttemptService ведет жизненный цикл попытки: старт, сохранение ответов,
// heartbeat, ручной и автоматический сабмит
type AttemptService struct {
	examRepo       repository.ExamRepository
	attemptRepo    repository.AttemptRepository
	answerRepo     repository.AnswerRepository
	questionRepo   repository.QuestionRepository
	auditRepo      repository.AuditRepository
	paperService   *PaperService
	gradingService *GradingService
	clock          clock.Clock
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	examRepo repository.ExamRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	auditRepo repository.AuditRepository,
	paperService *PaperService,
	gradingService *GradingService,
	clk clock.Clock,
) *AttemptService {
	return &AttemptService{
		examRepo:       examRepo,
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		questionRepo:   questionRepo,
		auditRepo:      auditRepo,
		paperService:   paperService,
		gradingService: gradingService,
		clock:          clk,
	}
}

// StartAttempt начинает (или возобновляет) попытку пользователя.
// Повторный вызов для уже идущей попытки возвращает ее же: переоткрытая
// вкладка не стартует вторую попытку и не передвигает дедлайн.
func (s *AttemptService) StartAttempt(examID, userID uint, ipAddress string) (*entity.ExamAttempt, error) {
	exam, err := s.examRepo.GetByID(examID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !exam.IsStartable() {
		return nil, fmt.Errorf("%w: exam #%d is %s", apperrors.ErrEligibilityDenied, examID, exam.Status)
	}
	if !exam.WindowContains(now) {
		return nil, fmt.Errorf("%w: exam #%d window is closed", apperrors.ErrEligibilityDenied, examID)
	}
	eligible, err := s.examRepo.IsParticipant(examID, userID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, fmt.Errorf("%w: user #%d is not assigned to exam #%d", apperrors.ErrEligibilityDenied, userID, examID)
	}

	attempt, err := s.attemptRepo.GetByExamAndUser(examID, userID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		attempt = &entity.ExamAttempt{ExamID: examID, UserID: userID, IPAddress: ipAddress}
		if err := s.attemptRepo.CreatePending(attempt); err != nil {
			if !errors.Is(err, repository.ErrAttemptExists) {
				return nil, err
			}
			// Проиграли гонку двойного старта — работаем с победившей строкой
			attempt, err = s.attemptRepo.GetByExamAndUser(examID, userID)
			if err != nil {
				return nil, err
			}
		}
	case err != nil:
		return nil, err
	}

	if attempt.Status == entity.AttemptStatusInProgress {
		return attempt, nil
	}
	if attempt.Status != entity.AttemptStatusPending {
		return nil, fmt.Errorf("%w: attempt #%d already %s", apperrors.ErrConflict, attempt.ID, attempt.Status)
	}

	// Индивидуальный билет материализуется до перехода в in_progress:
	// если генерация упала, попытка остается pending и старт можно повторить
	if !exam.IsFixedPaper() {
		if _, err := s.paperService.PaperForAttempt(exam, attempt.ID); err != nil {
			return nil, err
		}
	}

	// Дедлайн фиксируется один раз: start + duration, но не позже конца окна
	endTime := now.Add(time.Duration(exam.DurationMinutes) * time.Minute)
	if endTime.After(exam.EndTime) {
		endTime = exam.EndTime
	}
	started, err := s.attemptRepo.Start(attempt.ID, now, endTime)
	if err != nil {
		return nil, err
	}
	if !started {
		// Конкурентный старт успел раньше — перечитываем его результат
		attempt, err = s.attemptRepo.GetByID(attempt.ID)
		if err != nil {
			return nil, err
		}
		if attempt.Status == entity.AttemptStatusInProgress {
			return attempt, nil
		}
		return nil, fmt.Errorf("%w: attempt #%d is %s", apperrors.ErrConflict, attempt.ID, attempt.Status)
	}

	// Первый старт переводит экзамен в ongoing; проигранная гонка
	// с другим стартом означает, что перевод уже случился
	if exam.Status == entity.ExamStatusPublished {
		if err := s.examRepo.UpdateStatus(examID, entity.ExamStatusPublished, entity.ExamStatusOngoing); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AttemptService] Не удалось перевести экзамен #%d в ongoing: %v", examID, err)
		}
	}

	attempt, err = s.attemptRepo.GetByID(attempt.ID)
	if err != nil {
		return nil, err
	}
	recordAudit(s.auditRepo, s.clock, &userID, ipAddress, entity.AuditAttemptStarted, "attempt", attempt.ID, map[string]interface{}{
		"exam_id":             examID,
		"calculated_end_time": attempt.CalculatedEndTime,
	})
	log.Printf("[AttemptService] Попытка #%d начата (экзамен #%d, пользователь #%d, дедлайн %v)",
		attempt.ID, examID, userID, endTime)
	return attempt, nil
}

// AttemptQuestion — вопрос билета глазами сдающего: без эталона,
// с баллом из билета и уже сохраненным ответом
type AttemptQuestion struct {
	Question   *entity.Question `json:"question"`
	Score      float64          `json:"score"`
	OrderIndex int              `json:"order_index"`
	UserAnswer entity.RawJSON   `json:"user_answer,omitempty"`
}

// AttemptQuestions возвращает билет попытки в порядке показа.
// Эталонные ответы в выдачу не попадают (скрыты сериализацией Question).
func (s *AttemptService) AttemptQuestions(attemptID, userID uint) ([]AttemptQuestion, error) {
	attempt, err := s.ownedAttempt(attemptID, userID)
	if err != nil {
		return nil, err
	}
	exam, err := s.examRepo.GetByID(attempt.ExamID)
	if err != nil {
		return nil, err
	}
	paper, err := s.paperService.PaperForAttempt(exam, attemptID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(paper))
	for i, row := range paper {
		ids[i] = row.QuestionID
	}
	questions, err := s.questionRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*entity.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	answers, err := s.answerRepo.GetByAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	answerByQuestion := make(map[uint]entity.RawJSON, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a.UserAnswer
	}

	result := make([]AttemptQuestion, 0, len(paper))
	for _, row := range paper {
		question, ok := byID[row.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question #%d of attempt #%d paper not found", row.QuestionID, attemptID)
		}
		result = append(result, AttemptQuestion{
			Question:   question,
			Score:      row.Score,
			OrderIndex: row.OrderIndex,
			UserAnswer: answerByQuestion[row.QuestionID],
		})
	}
	return result, nil
}

// SaveAnswer сохраняет (или перезаписывает) ответ на вопрос билета.
// Принимается только пока попытка in_progress и дедлайн не истек.
func (s *AttemptService) SaveAnswer(attemptID, userID, questionID uint, payload entity.RawJSON) error {
	attempt, err := s.ownedAttempt(attemptID, userID)
	if err != nil {
		return err
	}
	if attempt.Status != entity.AttemptStatusInProgress {
		return fmt.Errorf("%w: attempt #%d is %s", apperrors.ErrInvalidTransition, attemptID, attempt.Status)
	}
	now := s.clock.Now()
	if attempt.DeadlinePassed(now) {
		return fmt.Errorf("%w: attempt #%d deadline passed", apperrors.ErrInvalidTransition, attemptID)
	}

	exam, err := s.examRepo.GetByID(attempt.ExamID)
	if err != nil {
		return err
	}
	paper, err := s.paperService.PaperForAttempt(exam, attemptID)
	if err != nil {
		return err
	}
	inPaper := false
	for _, row := range paper {
		if row.QuestionID == questionID {
			inPaper = true
			break
		}
	}
	if !inPaper {
		return fmt.Errorf("%w: question #%d is not in attempt #%d paper", apperrors.ErrNotFound, questionID, attemptID)
	}

	answer := &entity.Answer{AttemptID: attemptID, QuestionID: questionID, UserAnswer: payload}
	if err := s.answerRepo.Upsert(answer); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	// Сохранение ответа — тоже признак жизни клиента
	if _, err := s.attemptRepo.UpdateHeartbeat(attemptID, now); err != nil {
		log.Printf("[AttemptService] Не удалось обновить heartbeat попытки #%d: %v", attemptID, err)
	}
	recordAudit(s.auditRepo, s.clock, &userID, attempt.IPAddress, entity.AuditAnswerSaved, "attempt", attemptID, map[string]interface{}{
		"question_id": questionID,
	})
	return nil
}

// Heartbeat отмечает, что клиент жив, и возвращает остаток времени.
// Для уже завершенной попытки возвращает ноль и ее статус без ошибки:
// клиент узнает о случившемся автосабмите из ответа.
func (s *AttemptService) Heartbeat(attemptID, userID uint) (remaining time.Duration, status string, err error) {
	attempt, err := s.ownedAttempt(attemptID, userID)
	if err != nil {
		return 0, "", err
	}
	now := s.clock.Now()
	updated, err := s.attemptRepo.UpdateHeartbeat(attemptID, now)
	if err != nil {
		return 0, "", err
	}
	if !updated {
		return 0, attempt.Status, nil
	}
	if attempt.CalculatedEndTime != nil && attempt.CalculatedEndTime.After(now) {
		remaining = attempt.CalculatedEndTime.Sub(now)
	}
	return remaining, entity.AttemptStatusInProgress, nil
}

// SubmitAttempt сдает попытку по воле пользователя.
// Гонка с автосабмитом разрешается условным UPDATE: проигравший вызов
// становится no-op, двойной сабмит не ошибка.
func (s *AttemptService) SubmitAttempt(attemptID, userID uint) error {
	attempt, err := s.ownedAttempt(attemptID, userID)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	submitted, err := s.attemptRepo.Submit(attemptID, now)
	if err != nil {
		return err
	}
	if !submitted {
		attempt, err = s.attemptRepo.GetByID(attemptID)
		if err != nil {
			return err
		}
		if attempt.IsNoOpTransition(entity.AttemptStatusSubmitted) {
			return nil
		}
		return fmt.Errorf("%w: attempt #%d is %s", apperrors.ErrInvalidTransition, attemptID, attempt.Status)
	}

	recordAudit(s.auditRepo, s.clock, &userID, attempt.IPAddress, entity.AuditAttemptSubmitted, "attempt", attemptID, map[string]interface{}{
		"submit_time": now,
	})
	log.Printf("[AttemptService] Попытка #%d сдана пользователем #%d", attemptID, userID)
	s.paperService.InvalidatePaperCache(attemptID)
	s.startGrading(attemptID)
	return nil
}

// AutoSubmit сдает просроченную попытку от имени системы.
// По истечении дедлайна submit_time равен дедлайну, а не моменту, когда
// свип до попытки добрался; при heartbeat-тишине — текущему моменту.
// Возвращает true, если сабмит выполнил именно этот вызов.
func (s *AttemptService) AutoSubmit(attempt *entity.ExamAttempt, reason string) (bool, error) {
	submitTime := s.clock.Now()
	if reason == entity.AutoSubmitReasonDeadline && attempt.CalculatedEndTime != nil {
		submitTime = *attempt.CalculatedEndTime
	}
	submitted, err := s.attemptRepo.Submit(attempt.ID, submitTime)
	if err != nil {
		return false, err
	}
	if !submitted {
		return false, nil
	}
	recordAudit(s.auditRepo, s.clock, nil, "", entity.AuditAttemptAutoSubmitted, "attempt", attempt.ID, map[string]interface{}{
		"reason":      reason,
		"submit_time": submitTime,
	})
	log.Printf("[AttemptService] Попытка #%d автосдана (%s)", attempt.ID, reason)
	s.paperService.InvalidatePaperCache(attempt.ID)
	s.startGrading(attempt.ID)
	return true, nil
}

// AbortAttempt принудительно прерывает попытку (административное действие).
// Прерванная попытка не оценивается.
func (s *AttemptService) AbortAttempt(attemptID, adminID uint) error {
	aborted, err := s.attemptRepo.Abort(attemptID)
	if err != nil {
		return err
	}
	if !aborted {
		attempt, err := s.attemptRepo.GetByID(attemptID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: attempt #%d is %s", apperrors.ErrInvalidTransition, attemptID, attempt.Status)
	}
	recordAudit(s.auditRepo, s.clock, &adminID, "", entity.AuditAttemptAborted, "attempt", attemptID, nil)
	log.Printf("[AttemptService] Попытка #%d прервана администратором #%d", attemptID, adminID)
	s.paperService.InvalidatePaperCache(attemptID)
	return nil
}

// GetAttempt возвращает попытку, проверяя право доступа
func (s *AttemptService) GetAttempt(attemptID, userID uint, isAdmin bool) (*entity.ExamAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && attempt.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return attempt, nil
}

// ListExpired возвращает кандидатов на автосабмит (для фонового свипа)
func (s *AttemptService) ListExpired(now time.Time, grace time.Duration, limit int) ([]entity.ExamAttempt, error) {
	return s.attemptRepo.ListExpired(now, grace, limit)
}

// startGrading переводит попытку в grading и ставит в очередь автопроверки
func (s *AttemptService) startGrading(attemptID uint) {
	if _, err := s.attemptRepo.MarkGrading(attemptID); err != nil {
		log.Printf("[AttemptService] Не удалось перевести попытку #%d в grading: %v", attemptID, err)
		return
	}
	s.gradingService.Enqueue(attemptID)
}

// ownedAttempt возвращает попытку, если она принадлежит пользователю
func (s *AttemptService) ownedAttempt(attemptID, userID uint) (*entity.ExamAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return attempt, nil
}
