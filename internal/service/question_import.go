package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// QuestionImportRow — одна строка файла импорта, уже разложенная по колонкам.
// Парсинг xlsx делает хендлер, интерпретация значений — здесь.
type QuestionImportRow struct {
	RowNumber    int
	ChapterName  string
	QuestionType string
	Stem         string
	ScoreRaw     string
	Options      []entity.QuestionOption
	AnswerRaw    string
	Explanation  string

	// multiple_choice
	MultiPolicy            string
	PercentPerCorrectRaw   string
	PenaltyPerIncorrectRaw string

	// fill_in_blank
	MatchMode string
}

// QuestionImportError — ошибка разбора одной строки файла
type QuestionImportError struct {
	RowNumber int    `json:"row"`
	Message   string `json:"message"`
}

// QuestionImportResult — итог импорта файла
type QuestionImportResult struct {
	Imported int                   `json:"imported"`
	Skipped  int                   `json:"skipped"`
	Errors   []QuestionImportError `json:"errors,omitempty"`
}

// ImportQuestions импортирует вопросы в банк из разобранных строк файла.
// Главы ищутся по имени внутри банка и создаются при отсутствии. Строки
// с ошибками пропускаются и попадают в отчет, валидные сохраняются одной
// транзакцией: частично испорченный файл не блокирует импорт целиком.
func (s *QuestionService) ImportQuestions(bankID, creatorID uint, rows []QuestionImportRow) (*QuestionImportResult, error) {
	if _, err := s.questionRepo.GetBank(bankID); err != nil {
		return nil, fmt.Errorf("question bank #%d: %w", bankID, err)
	}

	result := &QuestionImportResult{}
	chapterCache := make(map[string]uint)
	questions := make([]*entity.Question, 0, len(rows))

	for _, row := range rows {
		question, err := buildImportedQuestion(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, QuestionImportError{
				RowNumber: row.RowNumber,
				Message:   err.Error(),
			})
			continue
		}

		chapterID, err := s.chapterIDByName(bankID, row.ChapterName, chapterCache)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, QuestionImportError{
				RowNumber: row.RowNumber,
				Message:   err.Error(),
			})
			continue
		}
		question.ChapterID = chapterID
		question.CreatorID = &creatorID
		questions = append(questions, question)
	}

	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return nil, fmt.Errorf("failed to save imported questions: %w", err)
	}
	result.Imported = len(questions)
	return result, nil
}

// chapterIDByName возвращает ID главы по имени, создавая ее при отсутствии
func (s *QuestionService) chapterIDByName(bankID uint, name string, cache map[string]uint) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("chapter name is required")
	}
	if id, ok := cache[name]; ok {
		return id, nil
	}

	chapter, err := s.questionRepo.GetChapterByName(bankID, name)
	if err == nil {
		cache[name] = chapter.ID
		return chapter.ID, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, fmt.Errorf("failed to look up chapter %q: %w", name, err)
	}

	created := &entity.Chapter{QuestionBankID: bankID, Name: name}
	if err := s.questionRepo.CreateChapter(created); err != nil {
		return 0, fmt.Errorf("failed to create chapter %q: %w", name, err)
	}
	cache[name] = created.ID
	return created.ID, nil
}

// buildImportedQuestion собирает entity.Question из строки файла.
// Формат ответа зависит от типа: метки через запятую для выборных,
// допустимые написания через точку с запятой для fill_in_blank,
// образец ответа как есть для short_answer.
func buildImportedQuestion(row QuestionImportRow) (*entity.Question, error) {
	score, err := strconv.ParseFloat(strings.TrimSpace(row.ScoreRaw), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid score %q", row.ScoreRaw)
	}

	question := &entity.Question{
		QuestionType: strings.TrimSpace(row.QuestionType),
		Stem:         strings.TrimSpace(row.Stem),
		Score:        score,
		Options:      row.Options,
		Explanation:  strings.TrimSpace(row.Explanation),
	}

	answerRaw := strings.TrimSpace(row.AnswerRaw)
	switch question.QuestionType {
	case entity.QuestionTypeSingleChoice, entity.QuestionTypeMultipleChoice:
		for _, label := range strings.Split(answerRaw, ",") {
			label = strings.ToUpper(strings.TrimSpace(label))
			if label != "" {
				question.Answer.Labels = append(question.Answer.Labels, label)
			}
		}
		if question.QuestionType == entity.QuestionTypeMultipleChoice {
			strategy, err := parseMultiStrategy(row)
			if err != nil {
				return nil, err
			}
			question.GradingStrategy = strategy
		}
	case entity.QuestionTypeFillInBlank:
		for _, text := range strings.Split(answerRaw, ";") {
			if text = strings.TrimSpace(text); text != "" {
				question.Answer.Texts = append(question.Answer.Texts, text)
			}
		}
		question.GradingStrategy.MatchMode = strings.TrimSpace(row.MatchMode)
	case entity.QuestionTypeShortAnswer:
		question.Answer.Model = answerRaw
	}

	if err := validateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func parseMultiStrategy(row QuestionImportRow) (entity.GradingStrategy, error) {
	strategy := entity.GradingStrategy{Policy: strings.TrimSpace(row.MultiPolicy)}
	if raw := strings.TrimSpace(row.PercentPerCorrectRaw); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return strategy, fmt.Errorf("invalid percent per correct %q", raw)
		}
		strategy.PercentPerCorrect = value
	}
	if raw := strings.TrimSpace(row.PenaltyPerIncorrectRaw); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return strategy, fmt.Errorf("invalid penalty per incorrect %q", raw)
		}
		strategy.PenaltyPerIncorrect = value
	}
	return strategy, nil
}
