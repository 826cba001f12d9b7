package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/xinghusp/online-examsys-backend/internal/service"
)

// ResultHandler обрабатывает запросы к результатам
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler создает новый обработчик результатов
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// AttemptResult возвращает результат попытки с учетом настроек показа
func (h *ResultHandler) AttemptResult(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	result, err := h.resultService.AttemptResult(attemptID, currentUserID(c), isAdmin(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MyAttempts возвращает попытки текущего пользователя
func (h *ResultHandler) MyAttempts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	attempts, err := h.resultService.MyAttempts(currentUserID(c), limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts, "total": len(attempts)})
}

// ExamResults возвращает сводку попыток экзамена
func (h *ResultHandler) ExamResults(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	rows, err := h.resultService.ExamResults(examID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows, "total": len(rows)})
}

// Statistics возвращает сводные показатели по экзамену
func (h *ResultHandler) Statistics(c *gin.Context) {
	examID := c.MustGet("examID").(uint)
	stats, err := h.resultService.Statistics(examID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportResults выгружает сводку попыток экзамена в XLSX
func (h *ResultHandler) ExportResults(c *gin.Context) {
	examID := c.MustGet("examID").(uint)

	// Выгружаем все попытки, не страницу
	rows, err := h.resultService.ExamResults(examID, 500, 0)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"exam_%d_results.xlsx\"", examID))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ResultHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Попытка", "Пользователь", "ФИО", "Статус", "Начало", "Сдача", "Балл", "IP"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ResultHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i, r := range rows {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		score := ""
		if r.FinalScore != nil {
			score = strconv.FormatFloat(*r.FinalScore, 'f', 2, 64)
		}
		values := []interface{}{
			r.AttemptID, r.Username, r.FullName, translateAttemptStatus(r.Status),
			r.StartTime, r.SubmitTime, score, r.IPAddress,
		}
		if err := sw.SetRow(cell, values); err != nil {
			log.Printf("[ResultHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ResultHandler] Ошибка завершения StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ResultHandler] Ошибка отправки файла: %v", err)
	}
}

// translateAttemptStatus переводит статус попытки для выгрузки
func translateAttemptStatus(status string) string {
	switch status {
	case "pending":
		return "Не начата"
	case "in_progress":
		return "Идет"
	case "submitted":
		return "Сдана"
	case "grading":
		return "На проверке"
	case "graded":
		return "Оценена"
	case "aborted":
		return "Прервана"
	default:
		return status
	}
}
