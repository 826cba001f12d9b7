package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ids []uint) ([]entity.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) GroupIDs(userID uint) ([]uint, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

type resultServiceMocks struct {
	examRepo    *MockExamRepository
	attemptRepo *MockAttemptRepository
	answerRepo  *MockAnswerRepository
	userRepo    *MockUserRepository
}

func newTestResultService(t *testing.T) (*ResultService, *resultServiceMocks) {
	t.Helper()
	m := &resultServiceMocks{
		examRepo:    new(MockExamRepository),
		attemptRepo: new(MockAttemptRepository),
		answerRepo:  new(MockAnswerRepository),
		userRepo:    new(MockUserRepository),
	}
	clk := clock.NewManual(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	resultService := NewResultService(
		m.examRepo, m.attemptRepo, m.answerRepo, new(MockQuestionRepository), m.userRepo, clk)
	return resultService, m
}

func gradedAttemptFixture(finalScore float64) *entity.ExamAttempt {
	return &entity.ExamAttempt{
		ID: 42, ExamID: 1, UserID: 10,
		Status:     entity.AttemptStatusGraded,
		FinalScore: &finalScore,
	}
}

func gradedAnswerFixture() []entity.Answer {
	score := 2.0
	correct := true
	return []entity.Answer{{
		ID: 100, AttemptID: 42, QuestionID: 7,
		UserAnswer: entity.RawJSON(`{"selected":["A"]}`),
		Score:      &score,
		IsCorrect:  &correct,
		GradedAgainst: &entity.GradingSnapshot{
			QuestionType: entity.QuestionTypeSingleChoice,
			MaxScore:     2,
			Answer:       entity.AnswerKey{Labels: []string{"A"}},
		},
	}}
}

// ============================================================================
// AttemptResult
// ============================================================================

func TestResultService_AttemptResult_ShowAll(t *testing.T) {
	resultService, m := newTestResultService(t)

	m.attemptRepo.On("GetByID", uint(42)).Return(gradedAttemptFixture(2), nil)
	m.examRepo.On("GetByID", uint(1)).Return(&entity.Exam{
		ID: 1, ShowScoreAfterExam: true, ShowAnswersAfterExam: true,
	}, nil)
	m.answerRepo.On("GetByAttempt", uint(42)).Return(gradedAnswerFixture(), nil)

	result, err := resultService.AttemptResult(42, 10, false)

	require.NoError(t, err)
	require.NotNil(t, result.FinalScore)
	assert.Equal(t, 2.0, *result.FinalScore)
	assert.Equal(t, 2.0, result.MaxScore)
	require.Len(t, result.Answers, 1)
	assert.NotNil(t, result.Answers[0].CorrectAnswer, "эталон показывается, когда экзамен разрешает")
}

func TestResultService_AttemptResult_ScoreHidden(t *testing.T) {
	// Экзамен не показывает баллы: сдающий видит только свои ответы
	resultService, m := newTestResultService(t)

	m.attemptRepo.On("GetByID", uint(42)).Return(gradedAttemptFixture(2), nil)
	m.examRepo.On("GetByID", uint(1)).Return(&entity.Exam{
		ID: 1, ShowScoreAfterExam: false, ShowAnswersAfterExam: false,
	}, nil)
	m.answerRepo.On("GetByAttempt", uint(42)).Return(gradedAnswerFixture(), nil)

	result, err := resultService.AttemptResult(42, 10, false)

	require.NoError(t, err)
	assert.Nil(t, result.FinalScore)
	require.Len(t, result.Answers, 1)
	assert.Nil(t, result.Answers[0].Score)
	assert.Nil(t, result.Answers[0].CorrectAnswer)
}

func TestResultService_AttemptResult_AdminSeesEverything(t *testing.T) {
	// Настройки показа не распространяются на администратора
	resultService, m := newTestResultService(t)

	m.attemptRepo.On("GetByID", uint(42)).Return(gradedAttemptFixture(2), nil)
	m.examRepo.On("GetByID", uint(1)).Return(&entity.Exam{
		ID: 1, ShowScoreAfterExam: false, ShowAnswersAfterExam: false,
	}, nil)
	m.answerRepo.On("GetByAttempt", uint(42)).Return(gradedAnswerFixture(), nil)

	result, err := resultService.AttemptResult(42, 777, true)

	require.NoError(t, err)
	assert.NotNil(t, result.FinalScore)
	assert.NotNil(t, result.Answers[0].Score)
	assert.NotNil(t, result.Answers[0].CorrectAnswer)
}

func TestResultService_AttemptResult_InProgressConflict(t *testing.T) {
	resultService, m := newTestResultService(t)

	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusInProgress,
	}, nil)

	_, err := resultService.AttemptResult(42, 10, false)

	assert.ErrorIs(t, err, apperrors.ErrConflict, "результат недоступен до сдачи")
}

func TestResultService_AttemptResult_ForeignForbidden(t *testing.T) {
	resultService, m := newTestResultService(t)

	m.attemptRepo.On("GetByID", uint(42)).Return(gradedAttemptFixture(2), nil)

	_, err := resultService.AttemptResult(42, 777, false)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestResultService_AttemptResult_GradingHidesScore(t *testing.T) {
	// Попытка еще в grading: финального балла нет даже при show_score
	resultService, m := newTestResultService(t)

	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, ExamID: 1, UserID: 10, Status: entity.AttemptStatusGrading,
	}, nil)
	m.examRepo.On("GetByID", uint(1)).Return(&entity.Exam{ID: 1, ShowScoreAfterExam: true}, nil)
	m.answerRepo.On("GetByAttempt", uint(42)).Return([]entity.Answer{}, nil)

	result, err := resultService.AttemptResult(42, 10, false)

	require.NoError(t, err)
	assert.Nil(t, result.FinalScore)
}

// ============================================================================
// ExamResults / Statistics
// ============================================================================

func TestResultService_ExamResults_JoinsUsers(t *testing.T) {
	resultService, m := newTestResultService(t)
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	score := 17.5

	m.examRepo.On("GetByID", uint(1)).Return(&entity.Exam{ID: 1}, nil)
	m.attemptRepo.On("ListByExam", uint(1), 100, 0).Return([]entity.ExamAttempt{
		{ID: 42, ExamID: 1, UserID: 10, Status: entity.AttemptStatusGraded, StartTime: &start, FinalScore: &score},
	}, nil)
	m.userRepo.On("GetByIDs", []uint{10}).Return([]entity.User{
		{ID: 10, Username: "ivanov", FullName: "Иванов И.И."},
	}, nil)

	rows, err := resultService.ExamResults(1, 0, 0)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ivanov", rows[0].Username)
	assert.Equal(t, "Иванов И.И.", rows[0].FullName)
	assert.Equal(t, "2026-03-10 10:00:00", rows[0].StartTime)
	assert.Equal(t, 17.5, *rows[0].FinalScore)
}

func TestResultService_Statistics_FixedPaper(t *testing.T) {
	resultService, m := newTestResultService(t)
	avg := 72.5

	m.examRepo.On("GetByID", uint(1)).Return(&entity.Exam{
		ID: 1, PaperGenerationMode: entity.PaperModeManual,
	}, nil)
	m.attemptRepo.On("ExamStatistics", uint(1)).Return(int64(30), &avg, nil)
	m.examRepo.On("GetParticipantCount", uint(1)).Return(int64(45), nil)
	m.examRepo.On("SumPaperScore", uint(1)).Return(100.0, nil)

	stats, err := resultService.Statistics(1)

	require.NoError(t, err)
	assert.Equal(t, int64(30), stats.GradedCount)
	assert.Equal(t, 72.5, *stats.AverageScore)
	assert.Equal(t, int64(45), stats.Participants)
	assert.Equal(t, 100.0, stats.MaxPossibleScore)
}

func TestResultService_Statistics_IndividualPaperUsesRules(t *testing.T) {
	// Для random_individual потолок считается по правилам отбора
	resultService, m := newTestResultService(t)

	m.examRepo.On("GetByID", uint(1)).Return(&entity.Exam{
		ID:                  1,
		PaperGenerationMode: entity.PaperModeRandomIndividual,
		RandomRules: entity.RandomRuleList{
			{ChapterIDs: []uint{1}, Count: 10, ScorePerQuestion: 2},
			{ChapterIDs: []uint{2}, Count: 5, ScorePerQuestion: 4},
		},
	}, nil)
	m.attemptRepo.On("ExamStatistics", uint(1)).Return(int64(0), (*float64)(nil), nil)
	m.examRepo.On("GetParticipantCount", uint(1)).Return(int64(0), nil)

	stats, err := resultService.Statistics(1)

	require.NoError(t, err)
	assert.Equal(t, 40.0, stats.MaxPossibleScore)
	m.examRepo.AssertNotCalled(t, "SumPaperScore", mock.Anything)
}
