package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

func importRowSingleChoice(rowNumber int, chapter string) QuestionImportRow {
	return QuestionImportRow{
		RowNumber:    rowNumber,
		ChapterName:  chapter,
		QuestionType: entity.QuestionTypeSingleChoice,
		Stem:         "Столица Франции?",
		ScoreRaw:     "2",
		Options: []entity.QuestionOption{
			{Label: "A", Text: "Париж"},
			{Label: "B", Text: "Лион"},
		},
		AnswerRaw: "a",
	}
}

func TestQuestionService_ImportQuestions_Success(t *testing.T) {
	questionRepo := new(MockQuestionRepository)
	questionService := NewQuestionService(questionRepo)

	questionRepo.On("GetBank", uint(5)).Return(&entity.QuestionBank{ID: 5}, nil)
	// Первая глава уже существует, вторая создается на лету
	questionRepo.On("GetChapterByName", uint(5), "Глава 1").
		Return(&entity.Chapter{ID: 11, QuestionBankID: 5, Name: "Глава 1"}, nil)
	questionRepo.On("GetChapterByName", uint(5), "Глава 2").
		Return(nil, apperrors.ErrNotFound)
	questionRepo.On("CreateChapter", mock.MatchedBy(func(ch *entity.Chapter) bool {
		return ch.QuestionBankID == 5 && ch.Name == "Глава 2"
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.Chapter).ID = 12
	}).Return(nil)

	var saved []*entity.Question
	questionRepo.On("CreateBatch", mock.AnythingOfType("[]*entity.Question")).
		Run(func(args mock.Arguments) {
			saved = args.Get(0).([]*entity.Question)
		}).Return(nil)

	rows := []QuestionImportRow{
		importRowSingleChoice(2, "Глава 1"),
		{
			RowNumber:    3,
			ChapterName:  "Глава 2",
			QuestionType: entity.QuestionTypeFillInBlank,
			Stem:         "Столица Казахстана — ____",
			ScoreRaw:     "1.5",
			AnswerRaw:    "Астана; Astana",
			MatchMode:    entity.MatchModeCaseInsensitive,
		},
	}

	result, err := questionService.ImportQuestions(5, 7, rows)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	require.Len(t, saved, 2)
	assert.Equal(t, uint(11), saved[0].ChapterID)
	assert.Equal(t, []string{"A"}, saved[0].Answer.Labels, "метка нормализуется к верхнему регистру")
	assert.Equal(t, 2.0, saved[0].Score)
	require.NotNil(t, saved[0].CreatorID)
	assert.Equal(t, uint(7), *saved[0].CreatorID)

	assert.Equal(t, uint(12), saved[1].ChapterID)
	assert.Equal(t, []string{"Астана", "Astana"}, saved[1].Answer.Texts)
	assert.Equal(t, entity.MatchModeCaseInsensitive, saved[1].GradingStrategy.MatchMode)
}

func TestQuestionService_ImportQuestions_BadRowsSkipped(t *testing.T) {
	questionRepo := new(MockQuestionRepository)
	questionService := NewQuestionService(questionRepo)

	questionRepo.On("GetBank", uint(5)).Return(&entity.QuestionBank{ID: 5}, nil)
	questionRepo.On("GetChapterByName", uint(5), "Глава 1").
		Return(&entity.Chapter{ID: 11, QuestionBankID: 5, Name: "Глава 1"}, nil)

	var saved []*entity.Question
	questionRepo.On("CreateBatch", mock.AnythingOfType("[]*entity.Question")).
		Run(func(args mock.Arguments) {
			saved = args.Get(0).([]*entity.Question)
		}).Return(nil)

	badScore := importRowSingleChoice(2, "Глава 1")
	badScore.ScoreRaw = "два"

	badAnswer := importRowSingleChoice(3, "Глава 1")
	badAnswer.AnswerRaw = "Z" // Нет среди вариантов

	rows := []QuestionImportRow{
		badScore,
		badAnswer,
		importRowSingleChoice(4, "Глава 1"),
	}

	result, err := questionService.ImportQuestions(5, 7, rows)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].RowNumber)
	assert.Equal(t, 3, result.Errors[1].RowNumber)

	require.Len(t, saved, 1)
	assert.Equal(t, "Столица Франции?", saved[0].Stem)
}

func TestQuestionService_ImportQuestions_ChapterCached(t *testing.T) {
	// Одна глава на несколько строк — поиск главы выполняется один раз
	questionRepo := new(MockQuestionRepository)
	questionService := NewQuestionService(questionRepo)

	questionRepo.On("GetBank", uint(5)).Return(&entity.QuestionBank{ID: 5}, nil)
	questionRepo.On("GetChapterByName", uint(5), "Глава 1").
		Return(&entity.Chapter{ID: 11, QuestionBankID: 5, Name: "Глава 1"}, nil).Once()
	questionRepo.On("CreateBatch", mock.Anything).Return(nil)

	rows := []QuestionImportRow{
		importRowSingleChoice(2, "Глава 1"),
		importRowSingleChoice(3, "Глава 1"),
		importRowSingleChoice(4, "Глава 1"),
	}

	result, err := questionService.ImportQuestions(5, 7, rows)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	questionRepo.AssertNumberOfCalls(t, "GetChapterByName", 1)
}

func TestQuestionService_ImportQuestions_UnknownBank(t *testing.T) {
	questionRepo := new(MockQuestionRepository)
	questionService := NewQuestionService(questionRepo)

	questionRepo.On("GetBank", uint(99)).Return(nil, apperrors.ErrNotFound)

	_, err := questionService.ImportQuestions(99, 7, []QuestionImportRow{importRowSingleChoice(2, "Глава 1")})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	questionRepo.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestQuestionService_ImportQuestions_ShortAnswerModel(t *testing.T) {
	questionRepo := new(MockQuestionRepository)
	questionService := NewQuestionService(questionRepo)

	questionRepo.On("GetBank", uint(5)).Return(&entity.QuestionBank{ID: 5}, nil)
	questionRepo.On("GetChapterByName", uint(5), "Глава 1").
		Return(&entity.Chapter{ID: 11, QuestionBankID: 5, Name: "Глава 1"}, nil)

	var saved []*entity.Question
	questionRepo.On("CreateBatch", mock.AnythingOfType("[]*entity.Question")).
		Run(func(args mock.Arguments) {
			saved = args.Get(0).([]*entity.Question)
		}).Return(nil)

	rows := []QuestionImportRow{{
		RowNumber:    2,
		ChapterName:  "Глава 1",
		QuestionType: entity.QuestionTypeShortAnswer,
		Stem:         "Объясните принцип наименьших привилегий",
		ScoreRaw:     "5",
		AnswerRaw:    "Субъект получает минимум прав, достаточный для задачи",
	}}

	result, err := questionService.ImportQuestions(5, 7, rows)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, saved, 1)
	assert.Equal(t, "Субъект получает минимум прав, достаточный для задачи", saved[0].Answer.Model)
}
