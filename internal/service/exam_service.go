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

// ExamService предоставляет методы для работы с экзаменами
type ExamService struct {
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	paperService *PaperService
	clock        clock.Clock
}

// NewExamService создает новый сервис экзаменов
func NewExamService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	paperService *PaperService,
	clk clock.Clock,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		paperService: paperService,
		clock:        clk,
	}
}

// CreateExam валидирует и сохраняет новый экзамен в статусе draft.
// Конфигурация билета обязана соответствовать режиму: manual приходит
// со строками билета, random_* — с правилами отбора.
func (s *ExamService) CreateExam(exam *entity.Exam) error {
	if exam.Name == "" {
		return fmt.Errorf("%w: exam name is required", apperrors.ErrValidation)
	}
	if !exam.EndTime.After(exam.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", apperrors.ErrInvalidExamConfig)
	}
	if exam.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", apperrors.ErrInvalidExamConfig)
	}
	window := exam.EndTime.Sub(exam.StartTime)
	if time.Duration(exam.DurationMinutes)*time.Minute > window {
		return fmt.Errorf("%w: duration %dm exceeds exam window %s",
			apperrors.ErrInvalidExamConfig, exam.DurationMinutes, window)
	}

	switch exam.PaperGenerationMode {
	case entity.PaperModeManual:
		if len(exam.RandomRules) > 0 {
			return fmt.Errorf("%w: manual mode does not take random rules", apperrors.ErrInvalidExamConfig)
		}
		if err := s.validateManualPaper(exam.Questions); err != nil {
			return err
		}
	case entity.PaperModeRandomUnified, entity.PaperModeRandomIndividual:
		if len(exam.Questions) > 0 {
			return fmt.Errorf("%w: random modes do not take a fixed question list", apperrors.ErrInvalidExamConfig)
		}
		if err := s.paperService.ValidateRules(exam.RandomRules); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown paper generation mode %q", apperrors.ErrInvalidExamConfig, exam.PaperGenerationMode)
	}

	exam.Status = entity.ExamStatusDraft
	if err := s.examRepo.Create(exam); err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	log.Printf("[ExamService] Создан экзамен #%d (%s, режим %s)", exam.ID, exam.Name, exam.PaperGenerationMode)
	return nil
}

// validateManualPaper проверяет собранный вручную билет:
// хотя бы один вопрос, без дублей, все вопросы существуют, баллы положительны
func (s *ExamService) validateManualPaper(rows []entity.ExamQuestion) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: manual mode requires at least one question", apperrors.ErrInvalidExamConfig)
	}
	ids := make([]uint, 0, len(rows))
	seen := make(map[uint]bool, len(rows))
	orders := make(map[int]bool, len(rows))
	for _, row := range rows {
		if row.Score <= 0 {
			return fmt.Errorf("%w: question #%d score must be positive", apperrors.ErrInvalidExamConfig, row.QuestionID)
		}
		if seen[row.QuestionID] {
			return fmt.Errorf("%w: question #%d listed twice", apperrors.ErrInvalidExamConfig, row.QuestionID)
		}
		if orders[row.OrderIndex] {
			return fmt.Errorf("%w: duplicate order index %d", apperrors.ErrInvalidExamConfig, row.OrderIndex)
		}
		seen[row.QuestionID] = true
		orders[row.OrderIndex] = true
		ids = append(ids, row.QuestionID)
	}
	found, err := s.questionRepo.GetByIDs(ids)
	if err != nil {
		return fmt.Errorf("failed to load paper questions: %w", err)
	}
	if len(found) != len(ids) {
		return fmt.Errorf("%w: %d of %d paper questions do not exist",
			apperrors.ErrInvalidExamConfig, len(ids)-len(found), len(ids))
	}
	return nil
}

// GetExam возвращает экзамен по ID
func (s *ExamService) GetExam(id uint) (*entity.Exam, error) {
	return s.examRepo.GetByID(id)
}

// GetExamWithQuestions возвращает экзамен вместе с билетом
func (s *ExamService) GetExamWithQuestions(id uint) (*entity.Exam, error) {
	return s.examRepo.GetWithQuestions(id)
}

// PublishExam переводит draft -> published. Для random_unified здесь же
// генерируется единый билет: после публикации состав билета заморожен.
func (s *ExamService) PublishExam(id uint) error {
	exam, err := s.examRepo.GetByID(id)
	if err != nil {
		return err
	}
	if exam.Status != entity.ExamStatusDraft {
		return fmt.Errorf("%w: exam #%d is %s, not draft", apperrors.ErrInvalidTransition, id, exam.Status)
	}
	if !exam.EndTime.After(s.clock.Now()) {
		return fmt.Errorf("%w: exam window already closed", apperrors.ErrInvalidExamConfig)
	}

	switch exam.PaperGenerationMode {
	case entity.PaperModeRandomUnified:
		if err := s.paperService.GenerateUnifiedPaper(exam); err != nil {
			return err
		}
	case entity.PaperModeRandomIndividual:
		// Банк мог похудеть после создания — правила проверяем еще раз
		if err := s.paperService.ValidateRules(exam.RandomRules); err != nil {
			return err
		}
	}

	if err := s.examRepo.UpdateStatus(id, entity.ExamStatusDraft, entity.ExamStatusPublished); err != nil {
		return fmt.Errorf("%w: exam #%d left draft concurrently", apperrors.ErrConcurrentModification, id)
	}
	log.Printf("[ExamService] Опубликован экзамен #%d", id)
	return nil
}

// FinishExam переводит ongoing/published -> finished
func (s *ExamService) FinishExam(id uint) error {
	if err := s.examRepo.UpdateStatus(id, entity.ExamStatusOngoing, entity.ExamStatusFinished); err == nil {
		return nil
	}
	if err := s.examRepo.UpdateStatus(id, entity.ExamStatusPublished, entity.ExamStatusFinished); err != nil {
		return fmt.Errorf("%w: exam #%d is not published or ongoing", apperrors.ErrInvalidTransition, id)
	}
	return nil
}

// ArchiveExam переводит finished -> archived
func (s *ExamService) ArchiveExam(id uint) error {
	if err := s.examRepo.UpdateStatus(id, entity.ExamStatusFinished, entity.ExamStatusArchived); err != nil {
		return fmt.Errorf("%w: exam #%d is not finished", apperrors.ErrInvalidTransition, id)
	}
	return nil
}

// AssignParticipants назначает экзамен пользователям и группам
func (s *ExamService) AssignParticipants(examID uint, userIDs, groupIDs []uint) error {
	if len(userIDs) == 0 && len(groupIDs) == 0 {
		return fmt.Errorf("%w: no participants given", apperrors.ErrValidation)
	}
	if _, err := s.examRepo.GetByID(examID); err != nil {
		return err
	}
	if err := s.examRepo.AssignParticipants(examID, userIDs, groupIDs); err != nil {
		return fmt.Errorf("failed to assign participants to exam #%d: %w", examID, err)
	}
	return nil
}

// ListAvailable возвращает экзамены, доступные пользователю прямо сейчас,
// и статусы его попыток по этим экзаменам (ключ — ID экзамена; отсутствие
// ключа означает, что попытка еще не создавалась)
func (s *ExamService) ListAvailable(userID uint) ([]entity.Exam, map[uint]string, error) {
	exams, err := s.examRepo.ListAvailableForUser(userID, s.clock.Now())
	if err != nil {
		return nil, nil, err
	}
	statuses := make(map[uint]string, len(exams))
	for _, exam := range exams {
		attempt, err := s.attemptRepo.GetByExamAndUser(exam.ID, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		statuses[exam.ID] = attempt.Status
	}
	return exams, statuses, nil
}
