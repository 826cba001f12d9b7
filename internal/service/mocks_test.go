package service

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// ============================================================================
// Общие моки репозиториев для тестов сервисного слоя
// ============================================================================

// helper для создания pointer
func uintPtr(v uint) *uint { return &v }

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ids []uint) ([]entity.Question, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(questions []*entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetBank(id uint) (*entity.QuestionBank, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.QuestionBank), args.Error(1)
}

func (m *MockQuestionRepository) GetChapterByName(bankID uint, name string) (*entity.Chapter, error) {
	args := m.Called(bankID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chapter), args.Error(1)
}

func (m *MockQuestionRepository) CreateChapter(chapter *entity.Chapter) error {
	args := m.Called(chapter)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetChapter(id uint) (*entity.Chapter, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chapter), args.Error(1)
}

func (m *MockQuestionRepository) ListByChapter(chapterID uint) ([]entity.Question, error) {
	args := m.Called(chapterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) CountByRule(chapterIDs []uint, questionType string) (int64, error) {
	args := m.Called(chapterIDs, questionType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) GetRandomByRule(chapterIDs []uint, questionType string, limit int) ([]entity.Question, error) {
	args := m.Called(chapterIDs, questionType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) ReferenceCount(questionID uint) (int64, error) {
	args := m.Called(questionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockExamRepository реализует repository.ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) Create(exam *entity.Exam) error {
	args := m.Called(exam)
	return args.Error(0)
}

func (m *MockExamRepository) GetByID(id uint) (*entity.Exam, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Exam), args.Error(1)
}

func (m *MockExamRepository) GetWithQuestions(id uint) (*entity.Exam, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Exam), args.Error(1)
}

func (m *MockExamRepository) Update(exam *entity.Exam) error {
	args := m.Called(exam)
	return args.Error(0)
}

func (m *MockExamRepository) UpdateStatus(id uint, expected, target string) error {
	args := m.Called(id, expected, target)
	return args.Error(0)
}

func (m *MockExamRepository) ListAvailableForUser(userID uint, now time.Time) ([]entity.Exam, error) {
	args := m.Called(userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Exam), args.Error(1)
}

func (m *MockExamRepository) IsParticipant(examID, userID uint) (bool, error) {
	args := m.Called(examID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockExamRepository) AssignParticipants(examID uint, userIDs, groupIDs []uint) error {
	args := m.Called(examID, userIDs, groupIDs)
	return args.Error(0)
}

func (m *MockExamRepository) GetParticipantCount(examID uint) (int64, error) {
	args := m.Called(examID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExamRepository) GetExamQuestions(examID uint) ([]entity.ExamQuestion, error) {
	args := m.Called(examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamQuestion), args.Error(1)
}

func (m *MockExamRepository) SumPaperScore(examID uint) (float64, error) {
	args := m.Called(examID)
	return args.Get(0).(float64), args.Error(1)
}

// MockAttemptRepository реализует repository.AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreatePending(attempt *entity.ExamAttempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(id uint) (*entity.ExamAttempt, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByExamAndUser(examID, userID uint) (*entity.ExamAttempt, error) {
	args := m.Called(examID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) Start(attemptID uint, startTime, endTime time.Time) (bool, error) {
	args := m.Called(attemptID, startTime, endTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) UpdateHeartbeat(attemptID uint, at time.Time) (bool, error) {
	args := m.Called(attemptID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) Submit(attemptID uint, submitTime time.Time) (bool, error) {
	args := m.Called(attemptID, submitTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) MarkGrading(attemptID uint) (bool, error) {
	args := m.Called(attemptID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) Finalize(attemptID uint, finalScore float64) (bool, error) {
	args := m.Called(attemptID, finalScore)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) UpdateFinalScore(attemptID uint, finalScore float64) error {
	args := m.Called(attemptID, finalScore)
	return args.Error(0)
}

func (m *MockAttemptRepository) Abort(attemptID uint) (bool, error) {
	args := m.Called(attemptID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) ListExpired(now time.Time, grace time.Duration, limit int) ([]entity.ExamAttempt, error) {
	args := m.Called(now, grace, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) ListByUser(userID uint, limit, offset int) ([]entity.ExamAttempt, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) ListByExam(examID uint, limit, offset int) ([]entity.ExamAttempt, error) {
	args := m.Called(examID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) SavePaper(rows []entity.ExamAttemptPaper) error {
	args := m.Called(rows)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetPaper(attemptID uint) ([]entity.ExamAttemptPaper, error) {
	args := m.Called(attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamAttemptPaper), args.Error(1)
}

func (m *MockAttemptRepository) ExamStatistics(examID uint) (int64, *float64, error) {
	args := m.Called(examID)
	var avg *float64
	if args.Get(1) != nil {
		avg = args.Get(1).(*float64)
	}
	return args.Get(0).(int64), avg, args.Error(2)
}

// MockAnswerRepository реализует repository.AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Upsert(answer *entity.Answer) error {
	args := m.Called(answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) Get(attemptID, questionID uint) (*entity.Answer, error) {
	args := m.Called(attemptID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Answer), args.Error(1)
}

func (m *MockAnswerRepository) GetByAttempt(attemptID uint) ([]entity.Answer, error) {
	args := m.Called(attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Answer), args.Error(1)
}

func (m *MockAnswerRepository) ApplyAutoGrade(answerID uint, score float64, isCorrect bool, snapshot *entity.GradingSnapshot, gradedAt time.Time) error {
	args := m.Called(answerID, score, isCorrect, snapshot, gradedAt)
	return args.Error(0)
}

func (m *MockAnswerRepository) MarkMalformed(answerID uint, snapshot *entity.GradingSnapshot, flaggedAt time.Time) error {
	args := m.Called(answerID, snapshot, flaggedAt)
	return args.Error(0)
}

func (m *MockAnswerRepository) AttachSnapshot(answerID uint, snapshot *entity.GradingSnapshot) error {
	args := m.Called(answerID, snapshot)
	return args.Error(0)
}

func (m *MockAnswerRepository) ApplyManualGrade(answerID uint, score float64, graderID uint, comments string, gradedAt time.Time) error {
	args := m.Called(answerID, score, graderID, comments, gradedAt)
	return args.Error(0)
}

func (m *MockAnswerRepository) ListNeedingManualGrade(examID uint, limit, offset int) ([]entity.Answer, error) {
	args := m.Called(examID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Answer), args.Error(1)
}

func (m *MockAnswerRepository) SumScores(attemptID uint) (float64, error) {
	args := m.Called(attemptID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockAnswerRepository) CountUnscored(attemptID uint) (int64, error) {
	args := m.Called(attemptID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditRepository реализует repository.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Save(log *entity.AuditLog) error {
	args := m.Called(log)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByTarget(targetType, targetID string, limit, offset int) ([]entity.AuditLog, error) {
	args := m.Called(targetType, targetID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AuditLog), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}
