package service

import (
	"fmt"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// ResultService — читающая сторона: результаты попыток, сводка по
// экзамену и строки для выгрузки в XLSX
type ResultService struct {
	examRepo     repository.ExamRepository
	attemptRepo  repository.AttemptRepository
	answerRepo   repository.AnswerRepository
	questionRepo repository.QuestionRepository
	userRepo     repository.UserRepository
	clock        clock.Clock
}

// NewResultService создает новый сервис результатов
func NewResultService(
	examRepo repository.ExamRepository,
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	clk clock.Clock,
) *ResultService {
	return &ResultService{
		examRepo:     examRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
		clock:        clk,
	}
}

// AnswerResult — один ответ в выдаче результата
type AnswerResult struct {
	QuestionID      uint           `json:"question_id"`
	UserAnswer      entity.RawJSON `json:"user_answer,omitempty"`
	Score           *float64       `json:"score,omitempty"`
	IsCorrect       *bool          `json:"is_correct,omitempty"`
	MaxScore        *float64       `json:"max_score,omitempty"`
	CorrectAnswer   interface{}    `json:"correct_answer,omitempty"` // Только если экзамен разрешает показ
	GradingComments string         `json:"grading_comments,omitempty"`
}

// AttemptResult — результат попытки глазами сдающего.
// Состав выдачи подрезается настройками экзамена: балл и правильные
// ответы показываются только если экзамен это разрешает.
type AttemptResult struct {
	Attempt    *entity.ExamAttempt `json:"attempt"`
	FinalScore *float64            `json:"final_score,omitempty"`
	MaxScore   float64             `json:"max_score"`
	Answers    []AnswerResult      `json:"answers,omitempty"`
}

// AttemptResult возвращает результат попытки с учетом прав и настроек показа
func (s *ResultService) AttemptResult(attemptID, requesterID uint, isAdmin bool) (*AttemptResult, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && attempt.UserID != requesterID {
		return nil, apperrors.ErrForbidden
	}
	if !attempt.IsCompleted() {
		return nil, fmt.Errorf("%w: attempt #%d is still %s", apperrors.ErrConflict, attemptID, attempt.Status)
	}
	exam, err := s.examRepo.GetByID(attempt.ExamID)
	if err != nil {
		return nil, err
	}

	showScore := isAdmin || exam.ShowScoreAfterExam
	showAnswers := isAdmin || exam.ShowAnswersAfterExam

	result := &AttemptResult{Attempt: attempt}
	if showScore && attempt.Status == entity.AttemptStatusGraded {
		result.FinalScore = attempt.FinalScore
	}

	answers, err := s.answerRepo.GetByAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		item := AnswerResult{
			QuestionID: a.QuestionID,
			UserAnswer: a.UserAnswer,
		}
		if showScore {
			item.Score = a.Score
			item.IsCorrect = a.IsCorrect
			item.GradingComments = a.GradingComments
			if a.GradedAgainst != nil {
				max := a.GradedAgainst.MaxScore
				item.MaxScore = &max
				result.MaxScore += max
			}
		}
		if showAnswers && a.GradedAgainst != nil {
			item.CorrectAnswer = a.GradedAgainst.Answer
		}
		result.Answers = append(result.Answers, item)
	}
	return result, nil
}

// ExamResultRow — одна попытка в сводке по экзамену
type ExamResultRow struct {
	AttemptID  uint     `json:"attempt_id"`
	UserID     uint     `json:"user_id"`
	Username   string   `json:"username"`
	FullName   string   `json:"full_name"`
	Status     string   `json:"status"`
	StartTime  string   `json:"start_time,omitempty"`
	SubmitTime string   `json:"submit_time,omitempty"`
	FinalScore *float64 `json:"final_score,omitempty"`
	IPAddress  string   `json:"ip_address,omitempty"`
}

// ExamResults возвращает сводку попыток экзамена (для преподавателя)
func (s *ResultService) ExamResults(examID uint, limit, offset int) ([]ExamResultRow, error) {
	if _, err := s.examRepo.GetByID(examID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	attempts, err := s.attemptRepo.ListByExam(examID, limit, offset)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uint, 0, len(attempts))
	for _, a := range attempts {
		userIDs = append(userIDs, a.UserID)
	}
	users, err := s.userRepo.GetByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	userByID := make(map[uint]*entity.User, len(users))
	for i := range users {
		userByID[users[i].ID] = &users[i]
	}

	rows := make([]ExamResultRow, 0, len(attempts))
	for _, a := range attempts {
		row := ExamResultRow{
			AttemptID:  a.ID,
			UserID:     a.UserID,
			Status:     a.Status,
			FinalScore: a.FinalScore,
			IPAddress:  a.IPAddress,
		}
		if u, ok := userByID[a.UserID]; ok {
			row.Username = u.Username
			row.FullName = u.FullName
		}
		if a.StartTime != nil {
			row.StartTime = a.StartTime.Format("2006-01-02 15:04:05")
		}
		if a.SubmitTime != nil {
			row.SubmitTime = a.SubmitTime.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExamStatistics — сводные показатели по экзамену
type ExamStatistics struct {
	ExamID           uint     `json:"exam_id"`
	GradedCount      int64    `json:"graded_count"`
	AverageScore     *float64 `json:"average_score,omitempty"`
	Participants     int64    `json:"participants"`
	MaxPossibleScore float64  `json:"max_possible_score"`
}

// Statistics возвращает сводку по экзамену
func (s *ResultService) Statistics(examID uint) (*ExamStatistics, error) {
	exam, err := s.examRepo.GetByID(examID)
	if err != nil {
		return nil, err
	}
	count, avg, err := s.attemptRepo.ExamStatistics(examID)
	if err != nil {
		return nil, err
	}
	participants, err := s.examRepo.GetParticipantCount(examID)
	if err != nil {
		return nil, err
	}

	// Потолок балла: сумма по билету для фиксированных режимов,
	// сумма по правилам отбора для random_individual
	maxPossible := exam.RandomRules.TotalScore()
	if exam.IsFixedPaper() {
		maxPossible, err = s.examRepo.SumPaperScore(examID)
		if err != nil {
			return nil, err
		}
	}

	return &ExamStatistics{
		ExamID:           examID,
		GradedCount:      count,
		AverageScore:     avg,
		Participants:     participants,
		MaxPossibleScore: maxPossible,
	}, nil
}

// MyAttempts возвращает попытки пользователя
func (s *ResultService) MyAttempts(userID uint, limit, offset int) ([]entity.ExamAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.attemptRepo.ListByUser(userID, limit, offset)
}
