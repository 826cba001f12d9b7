package handler

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/service"
)

// QuestionHandler обрабатывает запросы к банку вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// QuestionRequest представляет запрос на создание/обновление вопроса
type QuestionRequest struct {
	ChapterID       uint                    `json:"chapter_id" binding:"required"`
	QuestionType    string                  `json:"question_type" binding:"required"`
	Stem            string                  `json:"stem" binding:"required"`
	Score           float64                 `json:"score" binding:"required,gt=0"`
	Options         []entity.QuestionOption `json:"options,omitempty"`
	Answer          entity.AnswerKey        `json:"answer"`
	GradingStrategy entity.GradingStrategy  `json:"grading_strategy"`
	Explanation     string                  `json:"explanation,omitempty"`
}

func (r *QuestionRequest) toEntity() *entity.Question {
	return &entity.Question{
		ChapterID:       r.ChapterID,
		QuestionType:    r.QuestionType,
		Stem:            r.Stem,
		Score:           r.Score,
		Options:         r.Options,
		Answer:          r.Answer,
		GradingStrategy: r.GradingStrategy,
		Explanation:     r.Explanation,
	}
}

// CreateQuestion обрабатывает запрос на создание вопроса
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := req.toEntity()
	question.CreatorID = uintPtr(currentUserID(c))
	if err := h.questionService.CreateQuestion(question); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// GetQuestion возвращает вопрос по ID (административный доступ, с эталоном)
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)
	question, err := h.questionService.GetQuestion(questionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"question":         question,
		"answer":           question.Answer,
		"grading_strategy": question.GradingStrategy,
	})
}

// ListByChapter возвращает вопросы главы
func (h *QuestionHandler) ListByChapter(c *gin.Context) {
	chapterID := c.MustGet("chapterID").(uint)
	questions, err := h.questionService.ListByChapter(chapterID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions, "total": len(questions)})
}

// UpdateQuestion обрабатывает запрос на обновление вопроса
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := req.toEntity()
	question.ID = questionID
	if err := h.questionService.UpdateQuestion(question); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion удаляет вопрос, если он не входит ни в один билет
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)
	if err := h.questionService.DeleteQuestion(questionID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

func uintPtr(v uint) *uint {
	return &v
}

// Колонки файла импорта вопросов. Варианты ответа идут в отдельных
// колонках Option A..Option E, эталон — метками через запятую для
// выборных типов и вариантами написания через точку с запятой для
// fill_in_blank.
var importOptionColumns = []string{"Option A", "Option B", "Option C", "Option D", "Option E"}

// ImportQuestions импортирует вопросы в банк из XLSX-файла
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	bankID := c.MustGet("bankID").(uint)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("[QuestionHandler] Ошибка открытия загруженного файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid XLSX file"})
		return
	}
	defer workbook.Close()

	rows, err := parseImportSheet(workbook)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.questionService.ImportQuestions(bankID, currentUserID(c), rows)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseImportSheet раскладывает первый лист книги по колонкам импорта
func parseImportSheet(workbook *excelize.File) ([]service.QuestionImportRow, error) {
	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	cells, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(cells) < 2 {
		return nil, fmt.Errorf("file has no data rows")
	}

	// Колонки ищем по заголовку, а не по позиции
	columns := make(map[string]int, len(cells[0]))
	for i, header := range cells[0] {
		columns[strings.TrimSpace(header)] = i
	}
	for _, required := range []string{"Chapter Name", "Question Type", "Stem", "Score", "Answer"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	cellAt := func(row []string, header string) string {
		idx, ok := columns[header]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	rows := make([]service.QuestionImportRow, 0, len(cells)-1)
	for i, row := range cells[1:] {
		empty := true
		for _, value := range row {
			if strings.TrimSpace(value) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		imported := service.QuestionImportRow{
			RowNumber:              i + 2, // Первая строка — заголовки
			ChapterName:            cellAt(row, "Chapter Name"),
			QuestionType:           cellAt(row, "Question Type"),
			Stem:                   cellAt(row, "Stem"),
			ScoreRaw:               cellAt(row, "Score"),
			AnswerRaw:              cellAt(row, "Answer"),
			Explanation:            cellAt(row, "Explanation"),
			MultiPolicy:            cellAt(row, "Grading Policy"),
			PercentPerCorrectRaw:   cellAt(row, "Percent Per Correct"),
			PenaltyPerIncorrectRaw: cellAt(row, "Penalty Per Incorrect"),
			MatchMode:              cellAt(row, "Match Mode"),
		}
		for j, column := range importOptionColumns {
			if text := strings.TrimSpace(cellAt(row, column)); text != "" {
				imported.Options = append(imported.Options, entity.QuestionOption{
					Label: string(rune('A' + j)),
					Text:  text,
				})
			}
		}
		rows = append(rows, imported)
	}
	return rows, nil
}
