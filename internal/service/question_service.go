package service

import (
	"fmt"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// QuestionService предоставляет методы для работы с банком вопросов
type QuestionService struct {
	questionRepo repository.QuestionRepository
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(questionRepo repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// CreateQuestion валидирует и сохраняет новый вопрос
func (s *QuestionService) CreateQuestion(question *entity.Question) error {
	if err := validateQuestion(question); err != nil {
		return err
	}
	// Глава должна существовать
	if _, err := s.questionRepo.GetChapter(question.ChapterID); err != nil {
		return fmt.Errorf("chapter #%d: %w", question.ChapterID, err)
	}
	if err := s.questionRepo.Create(question); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetQuestion возвращает вопрос по ID
func (s *QuestionService) GetQuestion(id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(id)
}

// ListByChapter возвращает вопросы главы
func (s *QuestionService) ListByChapter(chapterID uint) ([]entity.Question, error) {
	if _, err := s.questionRepo.GetChapter(chapterID); err != nil {
		return nil, fmt.Errorf("chapter #%d: %w", chapterID, err)
	}
	return s.questionRepo.ListByChapter(chapterID)
}

// UpdateQuestion валидирует и обновляет вопрос.
// Изменение вопроса не трогает уже выставленные оценки: автопроверка
// пишет слепок ключа рядом с ответом и перечитывать вопрос не будет.
func (s *QuestionService) UpdateQuestion(question *entity.Question) error {
	if question.ID == 0 {
		return fmt.Errorf("%w: question id is required", apperrors.ErrValidation)
	}
	if err := validateQuestion(question); err != nil {
		return err
	}
	existing, err := s.questionRepo.GetByID(question.ID)
	if err != nil {
		return err
	}
	question.ChapterID = existing.ChapterID // Перенос между главами — отдельная операция
	if err := s.questionRepo.Update(question); err != nil {
		return fmt.Errorf("failed to update question #%d: %w", question.ID, err)
	}
	return nil
}

// DeleteQuestion удаляет вопрос, если на него не ссылается ни один билет.
// Вопрос, попавший в экзамен или в билет попытки, удалять нельзя —
// история сдач должна оставаться читаемой.
func (s *QuestionService) DeleteQuestion(id uint) error {
	refs, err := s.questionRepo.ReferenceCount(id)
	if err != nil {
		return fmt.Errorf("failed to count question #%d references: %w", id, err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: question #%d is referenced by %d paper rows", apperrors.ErrQuestionInUse, id, refs)
	}
	return s.questionRepo.Delete(id)
}

// validateQuestion проверяет форму вопроса по его типу
func validateQuestion(q *entity.Question) error {
	if !entity.IsValidQuestionType(q.QuestionType) {
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownQuestionType, q.QuestionType)
	}
	if q.Stem == "" {
		return fmt.Errorf("%w: question stem is required", apperrors.ErrValidation)
	}
	if q.Score <= 0 {
		return fmt.Errorf("%w: question score must be positive", apperrors.ErrValidation)
	}

	switch q.QuestionType {
	case entity.QuestionTypeSingleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: single_choice requires at least 2 options", apperrors.ErrValidation)
		}
		if len(q.Answer.Labels) != 1 {
			return fmt.Errorf("%w: single_choice requires exactly one answer label", apperrors.ErrValidation)
		}
		if !q.Options.HasLabel(q.Answer.Labels[0]) {
			return fmt.Errorf("%w: answer label %q is not among options", apperrors.ErrValidation, q.Answer.Labels[0])
		}
	case entity.QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: multiple_choice requires at least 2 options", apperrors.ErrValidation)
		}
		if len(q.Answer.Labels) == 0 {
			return fmt.Errorf("%w: multiple_choice requires at least one answer label", apperrors.ErrValidation)
		}
		for _, label := range q.Answer.Labels {
			if !q.Options.HasLabel(label) {
				return fmt.Errorf("%w: answer label %q is not among options", apperrors.ErrValidation, label)
			}
		}
		if err := validateMultiStrategy(q.GradingStrategy); err != nil {
			return err
		}
	case entity.QuestionTypeFillInBlank:
		if len(q.Answer.Texts) == 0 {
			return fmt.Errorf("%w: fill_in_blank requires at least one accepted text", apperrors.ErrValidation)
		}
		if err := validateMatchMode(q.GradingStrategy.MatchMode); err != nil {
			return err
		}
	case entity.QuestionTypeShortAnswer:
		// Эталон необязателен, оценивает человек
	}
	return nil
}

func validateMultiStrategy(strategy entity.GradingStrategy) error {
	switch strategy.Policy {
	case "", entity.MultiPolicyExact:
		return nil
	case entity.MultiPolicyPartial:
		if strategy.PercentPerCorrect <= 0 || strategy.PercentPerCorrect > 1 {
			return fmt.Errorf("%w: percent_per_correct must be in (0, 1]", apperrors.ErrValidation)
		}
		if strategy.PenaltyPerIncorrect < 0 || strategy.PenaltyPerIncorrect > 1 {
			return fmt.Errorf("%w: penalty_per_incorrect must be in [0, 1]", apperrors.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown multiple_choice policy %q", apperrors.ErrValidation, strategy.Policy)
	}
}

func validateMatchMode(mode string) error {
	switch mode {
	case "", entity.MatchModeExact, entity.MatchModeCaseInsensitive, entity.MatchModeContains:
		return nil
	default:
		return fmt.Errorf("%w: unknown match mode %q", apperrors.ErrValidation, mode)
	}
}
