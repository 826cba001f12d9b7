package service

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// autoGradeResult — исход автопроверки одного ответа
type autoGradeResult struct {
	Score     float64
	IsCorrect bool
	Malformed bool
}

// gradeAgainst оценивает пользовательский ответ по слепку ключа.
// Чистая функция: вся диспетчеризация по типу вопроса и политике
// оценивания живет здесь, хранилище ее не касается.
// Для short_answer не вызывается — такие ответы ждут человека.
func gradeAgainst(snap entity.GradingSnapshot, payload entity.RawJSON) autoGradeResult {
	var submitted entity.SubmittedAnswer
	if len(payload) == 0 {
		// Пустой ответ — ноль без пометки malformed
		return autoGradeResult{}
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return autoGradeResult{Malformed: true}
	}

	switch snap.QuestionType {
	case entity.QuestionTypeSingleChoice:
		return gradeSingleChoice(snap, submitted)
	case entity.QuestionTypeMultipleChoice:
		return gradeMultipleChoice(snap, submitted)
	case entity.QuestionTypeFillInBlank:
		return gradeFillInBlank(snap, submitted)
	default:
		// Неизвестный тип в слепке — данные испорчены, не угадываем
		return autoGradeResult{Malformed: true}
	}
}

func gradeSingleChoice(snap entity.GradingSnapshot, submitted entity.SubmittedAnswer) autoGradeResult {
	if len(submitted.Selected) == 0 {
		return autoGradeResult{}
	}
	if len(submitted.Selected) > 1 || len(snap.Answer.Labels) != 1 {
		return autoGradeResult{Malformed: len(submitted.Selected) > 1}
	}
	if submitted.Selected[0] == snap.Answer.Labels[0] {
		return autoGradeResult{Score: snap.MaxScore, IsCorrect: true}
	}
	return autoGradeResult{}
}

func gradeMultipleChoice(snap entity.GradingSnapshot, submitted entity.SubmittedAnswer) autoGradeResult {
	if len(submitted.Selected) == 0 {
		return autoGradeResult{}
	}

	key := make(map[string]bool, len(snap.Answer.Labels))
	for _, label := range snap.Answer.Labels {
		key[label] = true
	}
	chosen := make(map[string]bool, len(submitted.Selected))
	correct, incorrect := 0, 0
	for _, label := range submitted.Selected {
		if chosen[label] {
			continue // Дубли в выборе не множат ни балл, ни штраф
		}
		chosen[label] = true
		if key[label] {
			correct++
		} else {
			incorrect++
		}
	}
	exactMatch := incorrect == 0 && correct == len(key)

	policy := snap.Strategy.Policy
	if policy == "" {
		policy = entity.MultiPolicyExact
	}
	if policy == entity.MultiPolicyExact {
		if exactMatch {
			return autoGradeResult{Score: snap.MaxScore, IsCorrect: true}
		}
		return autoGradeResult{}
	}

	// partial: доля за каждый верный выбор минус штраф за каждый неверный
	fraction := float64(correct)*snap.Strategy.PercentPerCorrect -
		float64(incorrect)*snap.Strategy.PenaltyPerIncorrect
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return autoGradeResult{
		Score:     roundScore(snap.MaxScore * fraction),
		IsCorrect: exactMatch,
	}
}

func gradeFillInBlank(snap entity.GradingSnapshot, submitted entity.SubmittedAnswer) autoGradeResult {
	if submitted.Text == "" {
		return autoGradeResult{}
	}
	mode := snap.Strategy.MatchMode
	if mode == "" {
		mode = entity.MatchModeExact
	}
	for _, accepted := range snap.Answer.Texts {
		if textMatches(mode, submitted.Text, accepted) {
			return autoGradeResult{Score: snap.MaxScore, IsCorrect: true}
		}
	}
	return autoGradeResult{}
}

// textMatches сравнивает ответ с одним допустимым написанием.
// Ведущие/замыкающие пробелы не значимы ни в одном режиме.
func textMatches(mode, given, accepted string) bool {
	given = strings.TrimSpace(given)
	accepted = strings.TrimSpace(accepted)
	switch mode {
	case entity.MatchModeCaseInsensitive:
		return strings.EqualFold(given, accepted)
	case entity.MatchModeContains:
		return strings.Contains(strings.ToLower(given), strings.ToLower(accepted))
	default:
		return given == accepted
	}
}

// roundScore округляет балл до двух знаков, как он хранится в БД
func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

// snapshotFor строит слепок ключа для вопроса с баллом из билета
func snapshotFor(question *entity.Question, paperScore float64) *entity.GradingSnapshot {
	return &entity.GradingSnapshot{
		QuestionType: question.QuestionType,
		MaxScore:     paperScore,
		Answer:       question.Answer,
		Strategy:     question.GradingStrategy,
	}
}
