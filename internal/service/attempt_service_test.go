package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// ============================================================================
// Сборка AttemptService с моками
// ============================================================================

type attemptServiceMocks struct {
	examRepo     *MockExamRepository
	attemptRepo  *MockAttemptRepository
	answerRepo   *MockAnswerRepository
	questionRepo *MockQuestionRepository
	clock        *clock.Manual
}

func newTestAttemptService(t *testing.T) (*AttemptService, *attemptServiceMocks) {
	t.Helper()
	m := &attemptServiceMocks{
		examRepo:     new(MockExamRepository),
		attemptRepo:  new(MockAttemptRepository),
		answerRepo:   new(MockAnswerRepository),
		questionRepo: new(MockQuestionRepository),
		clock:        clock.NewManual(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)),
	}
	paperService := NewPaperService(m.examRepo, m.questionRepo, m.attemptRepo, nil)
	gradingService := NewGradingService(
		m.attemptRepo, m.answerRepo, m.questionRepo, m.examRepo, nil, paperService, m.clock, 1, 8)
	attemptService := NewAttemptService(
		m.examRepo, m.attemptRepo, m.answerRepo, m.questionRepo, nil, paperService, gradingService, m.clock)
	return attemptService, m
}

func publishedExam(id uint, now time.Time) *entity.Exam {
	return &entity.Exam{
		ID:                  id,
		Name:                "Контрольная",
		Status:              entity.ExamStatusPublished,
		PaperGenerationMode: entity.PaperModeManual,
		StartTime:           now.Add(-time.Hour),
		EndTime:             now.Add(2 * time.Hour),
		DurationMinutes:     60,
	}
}

// ============================================================================
// StartAttempt
// ============================================================================

func TestAttemptService_StartAttempt_Success(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)

	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(true, nil)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).Return(nil, apperrors.ErrNotFound)
	m.attemptRepo.On("CreatePending", mock.AnythingOfType("*entity.ExamAttempt")).
		Run(func(args mock.Arguments) {
			created := args.Get(0).(*entity.ExamAttempt)
			created.ID = 42
			// Реальный репозиторий выставляет статус сам (attempt_repo.go: CreatePending)
			created.Status = entity.AttemptStatusPending
		}).Return(nil)

	expectedEnd := now.Add(60 * time.Minute)
	m.attemptRepo.On("Start", uint(42), now, expectedEnd).Return(true, nil)
	m.examRepo.On("UpdateStatus", uint(1), entity.ExamStatusPublished, entity.ExamStatusOngoing).Return(nil)

	started := &entity.ExamAttempt{
		ID: 42, ExamID: 1, UserID: 10,
		Status:            entity.AttemptStatusInProgress,
		StartTime:         &now,
		CalculatedEndTime: &expectedEnd,
	}
	m.attemptRepo.On("GetByID", uint(42)).Return(started, nil)

	attempt, err := attemptService.StartAttempt(1, 10, "10.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, entity.AttemptStatusInProgress, attempt.Status)
	assert.Equal(t, expectedEnd, *attempt.CalculatedEndTime)
	// Первый старт переводит экзамен в ongoing
	m.examRepo.AssertCalled(t, "UpdateStatus", uint(1), entity.ExamStatusPublished, entity.ExamStatusOngoing)
	m.attemptRepo.AssertExpectations(t)
}

func TestAttemptService_StartAttempt_DeadlineCappedByWindow(t *testing.T) {
	// До конца окна меньше, чем duration: дедлайн упирается в конец окна
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)
	exam.EndTime = now.Add(20 * time.Minute)

	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(true, nil)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).
		Return(&entity.ExamAttempt{ID: 42, ExamID: 1, UserID: 10, Status: entity.AttemptStatusPending}, nil)
	m.attemptRepo.On("Start", uint(42), now, exam.EndTime).Return(true, nil)
	m.examRepo.On("UpdateStatus", uint(1), entity.ExamStatusPublished, entity.ExamStatusOngoing).Return(nil)
	m.attemptRepo.On("GetByID", uint(42)).
		Return(&entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusInProgress}, nil)

	_, err := attemptService.StartAttempt(1, 10, "")

	require.NoError(t, err)
	m.attemptRepo.AssertExpectations(t)
}

func TestAttemptService_StartAttempt_OngoingExamNotFlippedAgain(t *testing.T) {
	// Экзамен уже ongoing: повторный перевод статуса не выполняется
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)
	exam.Status = entity.ExamStatusOngoing

	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(true, nil)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).
		Return(&entity.ExamAttempt{ID: 42, ExamID: 1, UserID: 10, Status: entity.AttemptStatusPending}, nil)
	m.attemptRepo.On("Start", uint(42), now, mock.AnythingOfType("time.Time")).Return(true, nil)
	m.attemptRepo.On("GetByID", uint(42)).
		Return(&entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusInProgress}, nil)

	_, err := attemptService.StartAttempt(1, 10, "")

	require.NoError(t, err)
	m.examRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAttemptService_StartAttempt_ResumesInProgress(t *testing.T) {
	// Переоткрытая вкладка получает ту же попытку, дедлайн не двигается
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)

	existing := &entity.ExamAttempt{ID: 42, ExamID: 1, UserID: 10, Status: entity.AttemptStatusInProgress}
	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(true, nil)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).Return(existing, nil)

	attempt, err := attemptService.StartAttempt(1, 10, "")

	require.NoError(t, err)
	assert.Equal(t, uint(42), attempt.ID)
	m.attemptRepo.AssertNotCalled(t, "Start")
	m.attemptRepo.AssertNotCalled(t, "CreatePending")
}

func TestAttemptService_StartAttempt_OutsideWindow(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)
	exam.StartTime = now.Add(time.Hour) // Окно еще не открылось

	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)

	_, err := attemptService.StartAttempt(1, 10, "")

	assert.ErrorIs(t, err, apperrors.ErrEligibilityDenied)
	m.attemptRepo.AssertNotCalled(t, "CreatePending")
}

func TestAttemptService_StartAttempt_NotStartableStatus(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)
	exam.Status = entity.ExamStatusDraft

	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)

	_, err := attemptService.StartAttempt(1, 10, "")

	assert.ErrorIs(t, err, apperrors.ErrEligibilityDenied)
}

func TestAttemptService_StartAttempt_NotParticipant(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()

	m.examRepo.On("GetByID", uint(1)).Return(publishedExam(1, now), nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(false, nil)

	_, err := attemptService.StartAttempt(1, 10, "")

	assert.ErrorIs(t, err, apperrors.ErrEligibilityDenied)
}

func TestAttemptService_StartAttempt_LosesCreateRace(t *testing.T) {
	// Двойной клик: вторая вставка бьется об уникальный индекс
	// и продолжает с победившей строкой
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)

	winner := &entity.ExamAttempt{ID: 42, ExamID: 1, UserID: 10, Status: entity.AttemptStatusInProgress}
	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(true, nil)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).Return(nil, apperrors.ErrNotFound).Once()
	m.attemptRepo.On("CreatePending", mock.AnythingOfType("*entity.ExamAttempt")).
		Return(repository.ErrAttemptExists)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).Return(winner, nil).Once()

	attempt, err := attemptService.StartAttempt(1, 10, "")

	require.NoError(t, err)
	assert.Equal(t, uint(42), attempt.ID)
	m.attemptRepo.AssertNotCalled(t, "Start")
}

func TestAttemptService_StartAttempt_AlreadyCompleted(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()

	m.examRepo.On("GetByID", uint(1)).Return(publishedExam(1, now), nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(true, nil)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).
		Return(&entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusGraded}, nil)

	_, err := attemptService.StartAttempt(1, 10, "")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAttemptService_StartAttempt_IndividualPaperBeforeStart(t *testing.T) {
	// random_individual: билет материализуется до перехода в in_progress
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	exam := publishedExam(1, now)
	exam.PaperGenerationMode = entity.PaperModeRandomIndividual
	exam.RandomRules = entity.RandomRuleList{{ChapterIDs: []uint{1}, Count: 1, ScorePerQuestion: 5}}

	m.examRepo.On("GetByID", uint(1)).Return(exam, nil)
	m.examRepo.On("IsParticipant", uint(1), uint(10)).Return(true, nil)
	m.attemptRepo.On("GetByExamAndUser", uint(1), uint(10)).
		Return(&entity.ExamAttempt{ID: 42, ExamID: 1, UserID: 10, Status: entity.AttemptStatusPending}, nil)
	m.attemptRepo.On("GetPaper", uint(42)).Return([]entity.ExamAttemptPaper{}, nil)
	m.questionRepo.On("GetRandomByRule", []uint{1}, "", 1).Return(questionsWithIDs(7), nil)
	m.attemptRepo.On("SavePaper", mock.AnythingOfType("[]entity.ExamAttemptPaper")).Return(nil)
	m.attemptRepo.On("Start", uint(42), now, mock.AnythingOfType("time.Time")).Return(true, nil)
	m.examRepo.On("UpdateStatus", uint(1), entity.ExamStatusPublished, entity.ExamStatusOngoing).Return(nil)
	m.attemptRepo.On("GetByID", uint(42)).
		Return(&entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusInProgress}, nil)

	_, err := attemptService.StartAttempt(1, 10, "")

	require.NoError(t, err)
	m.attemptRepo.AssertExpectations(t)
}

// ============================================================================
// SaveAnswer
// ============================================================================

func saveAnswerFixture(m *attemptServiceMocks, status string, end time.Time) {
	attempt := &entity.ExamAttempt{
		ID: 42, ExamID: 1, UserID: 10,
		Status:            status,
		CalculatedEndTime: &end,
	}
	m.attemptRepo.On("GetByID", uint(42)).Return(attempt, nil)
}

func TestAttemptService_SaveAnswer_Success(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	saveAnswerFixture(m, entity.AttemptStatusInProgress, now.Add(30*time.Minute))

	m.examRepo.On("GetByID", uint(1)).Return(publishedExam(1, now), nil)
	m.examRepo.On("GetExamQuestions", uint(1)).Return([]entity.ExamQuestion{
		{ExamID: 1, QuestionID: 7, Score: 2, OrderIndex: 0},
	}, nil)
	m.answerRepo.On("Upsert", mock.AnythingOfType("*entity.Answer")).Return(nil)
	m.attemptRepo.On("UpdateHeartbeat", uint(42), now).Return(true, nil)

	err := attemptService.SaveAnswer(42, 10, 7, entity.RawJSON(`{"selected":["A"]}`))

	require.NoError(t, err)
	m.answerRepo.AssertExpectations(t)
	m.attemptRepo.AssertCalled(t, "UpdateHeartbeat", uint(42), now)
}

func TestAttemptService_SaveAnswer_AfterDeadline(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	saveAnswerFixture(m, entity.AttemptStatusInProgress, now.Add(-time.Minute))

	err := attemptService.SaveAnswer(42, 10, 7, entity.RawJSON(`{"selected":["A"]}`))

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	m.answerRepo.AssertNotCalled(t, "Upsert")
}

func TestAttemptService_SaveAnswer_NotInProgress(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	saveAnswerFixture(m, entity.AttemptStatusSubmitted, now.Add(30*time.Minute))

	err := attemptService.SaveAnswer(42, 10, 7, entity.RawJSON(`{}`))

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAttemptService_SaveAnswer_QuestionNotInPaper(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	saveAnswerFixture(m, entity.AttemptStatusInProgress, now.Add(30*time.Minute))

	m.examRepo.On("GetByID", uint(1)).Return(publishedExam(1, now), nil)
	m.examRepo.On("GetExamQuestions", uint(1)).Return([]entity.ExamQuestion{
		{ExamID: 1, QuestionID: 7, Score: 2, OrderIndex: 0},
	}, nil)

	err := attemptService.SaveAnswer(42, 10, 999, entity.RawJSON(`{}`))

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	m.answerRepo.AssertNotCalled(t, "Upsert")
}

func TestAttemptService_SaveAnswer_ForeignAttempt(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	saveAnswerFixture(m, entity.AttemptStatusInProgress, now.Add(30*time.Minute))

	err := attemptService.SaveAnswer(42, 777, 7, entity.RawJSON(`{}`))

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

// ============================================================================
// Heartbeat
// ============================================================================

func TestAttemptService_Heartbeat_ReturnsRemaining(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	end := now.Add(25 * time.Minute)
	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusInProgress, CalculatedEndTime: &end,
	}, nil)
	m.attemptRepo.On("UpdateHeartbeat", uint(42), now).Return(true, nil)

	remaining, status, err := attemptService.Heartbeat(42, 10)

	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, remaining)
	assert.Equal(t, entity.AttemptStatusInProgress, status)
}

func TestAttemptService_Heartbeat_AfterAutoSubmit(t *testing.T) {
	// Попытка уже автосдана: heartbeat сообщает клиенту новый статус без ошибки
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusSubmitted,
	}, nil)
	m.attemptRepo.On("UpdateHeartbeat", uint(42), now).Return(false, nil)

	remaining, status, err := attemptService.Heartbeat(42, 10)

	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Equal(t, entity.AttemptStatusSubmitted, status)
}

// ============================================================================
// SubmitAttempt / AutoSubmit
// ============================================================================

func TestAttemptService_SubmitAttempt_Success(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusInProgress,
	}, nil)
	m.attemptRepo.On("Submit", uint(42), now).Return(true, nil)
	m.attemptRepo.On("MarkGrading", uint(42)).Return(true, nil)

	err := attemptService.SubmitAttempt(42, 10)

	require.NoError(t, err)
	m.attemptRepo.AssertCalled(t, "MarkGrading", uint(42))
}

func TestAttemptService_SubmitAttempt_DoubleSubmitIsNoOp(t *testing.T) {
	// Пользователь сдал одновременно со свипом: проигравший вызов не ошибка
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusInProgress,
	}, nil).Once()
	m.attemptRepo.On("Submit", uint(42), now).Return(false, nil)
	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusGrading,
	}, nil).Once()

	err := attemptService.SubmitAttempt(42, 10)

	require.NoError(t, err)
	m.attemptRepo.AssertNotCalled(t, "MarkGrading")
}

func TestAttemptService_SubmitAttempt_DropsCachedPaper(t *testing.T) {
	// После сдачи кешированный билет удаляется из Redis
	attemptRepo := new(MockAttemptRepository)
	cacheRepo := new(MockCacheRepository)
	clk := clock.NewManual(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	paperService := NewPaperService(new(MockExamRepository), new(MockQuestionRepository), attemptRepo, cacheRepo)
	gradingService := NewGradingService(
		attemptRepo, new(MockAnswerRepository), new(MockQuestionRepository), new(MockExamRepository),
		nil, paperService, clk, 1, 8)
	attemptService := NewAttemptService(
		new(MockExamRepository), attemptRepo, new(MockAnswerRepository), new(MockQuestionRepository),
		nil, paperService, gradingService, clk)

	attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusInProgress,
	}, nil)
	attemptRepo.On("Submit", uint(42), clk.Now()).Return(true, nil)
	attemptRepo.On("MarkGrading", uint(42)).Return(true, nil)
	cacheRepo.On("Delete", "paper:attempt:42").Return(nil)

	err := attemptService.SubmitAttempt(42, 10)

	require.NoError(t, err)
	cacheRepo.AssertCalled(t, "Delete", "paper:attempt:42")
}

func TestAttemptService_SubmitAttempt_FromPending(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	m.attemptRepo.On("GetByID", uint(42)).Return(&entity.ExamAttempt{
		ID: 42, UserID: 10, Status: entity.AttemptStatusPending,
	}, nil)
	m.attemptRepo.On("Submit", uint(42), now).Return(false, nil)

	err := attemptService.SubmitAttempt(42, 10)

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAttemptService_AutoSubmit_DeadlineUsesCalculatedEnd(t *testing.T) {
	// По дедлайну submit_time равен дедлайну, а не моменту прохода свипа
	attemptService, m := newTestAttemptService(t)
	end := m.clock.Now().Add(-10 * time.Minute)
	attempt := &entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusInProgress, CalculatedEndTime: &end}

	m.attemptRepo.On("Submit", uint(42), end).Return(true, nil)
	m.attemptRepo.On("MarkGrading", uint(42)).Return(true, nil)

	submitted, err := attemptService.AutoSubmit(attempt, entity.AutoSubmitReasonDeadline)

	require.NoError(t, err)
	assert.True(t, submitted)
	m.attemptRepo.AssertCalled(t, "Submit", uint(42), end)
}

func TestAttemptService_AutoSubmit_HeartbeatUsesNow(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	now := m.clock.Now()
	end := now.Add(10 * time.Minute) // Дедлайн не истек, клиент просто молчит
	attempt := &entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusInProgress, CalculatedEndTime: &end}

	m.attemptRepo.On("Submit", uint(42), now).Return(true, nil)
	m.attemptRepo.On("MarkGrading", uint(42)).Return(true, nil)

	submitted, err := attemptService.AutoSubmit(attempt, entity.AutoSubmitReasonHeartbeat)

	require.NoError(t, err)
	assert.True(t, submitted)
}

func TestAttemptService_AutoSubmit_LostRace(t *testing.T) {
	// Пользователь успел сдать сам: автосабмит тихо отступает
	attemptService, m := newTestAttemptService(t)
	attempt := &entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusInProgress}

	m.attemptRepo.On("Submit", uint(42), mock.AnythingOfType("time.Time")).Return(false, nil)

	submitted, err := attemptService.AutoSubmit(attempt, entity.AutoSubmitReasonHeartbeat)

	require.NoError(t, err)
	assert.False(t, submitted)
	m.attemptRepo.AssertNotCalled(t, "MarkGrading")
}

// ============================================================================
// AbortAttempt / GetAttempt
// ============================================================================

func TestAttemptService_AbortAttempt(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	m.attemptRepo.On("Abort", uint(42)).Return(true, nil)

	require.NoError(t, attemptService.AbortAttempt(42, 1))
}

func TestAttemptService_AbortAttempt_AlreadySubmitted(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	m.attemptRepo.On("Abort", uint(42)).Return(false, nil)
	m.attemptRepo.On("GetByID", uint(42)).
		Return(&entity.ExamAttempt{ID: 42, Status: entity.AttemptStatusSubmitted}, nil)

	err := attemptService.AbortAttempt(42, 1)

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestAttemptService_GetAttempt_AccessControl(t *testing.T) {
	attemptService, m := newTestAttemptService(t)
	attempt := &entity.ExamAttempt{ID: 42, UserID: 10}
	m.attemptRepo.On("GetByID", uint(42)).Return(attempt, nil)

	// Владелец видит свою попытку
	got, err := attemptService.GetAttempt(42, 10, false)
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.ID)

	// Чужой без прав администратора — нет
	_, err = attemptService.GetAttempt(42, 777, false)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Администратор видит любую
	_, err = attemptService.GetAttempt(42, 777, true)
	require.NoError(t, err)
}
